// Package fetch downloads remote images for analysis.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const (
	DefaultTimeout   = 5 * time.Second
	DefaultMaxBytes  = 20 << 20
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Sentinel errors for download failures.
var (
	ErrTimeout     = errors.New("image download timed out")
	ErrUnreachable = errors.New("image host unreachable")
	ErrBadStatus   = errors.New("image download failed")
	ErrTooLarge    = errors.New("image exceeds size limit")
	ErrInvalidURL  = errors.New("invalid image url")
)

// Download is the tagged outcome of a fetch. Exactly one of Data or Err is set.
type Download struct {
	Data       []byte
	Err        error
	StatusCode int
}

// OK reports whether the download produced bytes.
func (d Download) OK() bool {
	return d.Err == nil && d.Data != nil
}

// Fetcher retrieves image bytes. Implementations never panic and report
// every failure through Download.Err.
type Fetcher interface {
	Download(ctx context.Context, url string) Download
}

// ImageFetcher implements Fetcher over plain HTTP GET.
type ImageFetcher struct {
	client    *http.Client
	timeout   time.Duration
	maxBytes  int64
	userAgent string
}

// NewImageFetcher creates an ImageFetcher. Zero values fall back to defaults.
func NewImageFetcher(timeout time.Duration, maxBytes int64, userAgent string) *ImageFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &ImageFetcher{
		client:    &http.Client{},
		timeout:   timeout,
		maxBytes:  maxBytes,
		userAgent: userAgent,
	}
}

func (f *ImageFetcher) Download(ctx context.Context, url string) (d Download) {
	defer func() {
		if r := recover(); r != nil {
			d = Download{Err: fmt.Errorf("%w: panic: %v", ErrUnreachable, r)}
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Download{Err: fmt.Errorf("%w: %v", ErrInvalidURL, err)}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return Download{Err: classifyError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Download{
			Err:        fmt.Errorf("%w: HTTP %d", ErrBadStatus, resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return Download{Err: classifyError(err), StatusCode: resp.StatusCode}
	}
	if int64(len(data)) > f.maxBytes {
		return Download{
			Err:        fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.maxBytes),
			StatusCode: resp.StatusCode,
		}
	}

	return Download{Data: data, StatusCode: resp.StatusCode}
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

var _ Fetcher = (*ImageFetcher)(nil)
