// Package pipeline runs a credibility analysis end to end: fingerprinting,
// cache reuse, text and image scoring, persistence and fusion.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/trustlens/internal/cache"
	"github.com/kiranshivaraju/trustlens/internal/fetch"
	"github.com/kiranshivaraju/trustlens/internal/fingerprint"
	"github.com/kiranshivaraju/trustlens/internal/metrics"
	"github.com/kiranshivaraju/trustlens/internal/scoring"
	"github.com/kiranshivaraju/trustlens/pkg/models"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ErrServiceUnavailable is returned when the text scorer cannot produce a result.
var ErrServiceUnavailable = errors.New("text analysis service unavailable")

// PrivacyPolicy is attached to every successful result.
const PrivacyPolicy = "Verified by TrustLens - No raw user content or sensitive metadata persisted."

// Request is one piece of content to analyze.
type Request struct {
	Text     string
	ImageURL string
}

// TextResult is a text analysis annotated with cache provenance.
type TextResult struct {
	models.TextAnalysis
	Reused bool `json:"reused"`
}

// ImageResult is an image analysis annotated with cache provenance.
type ImageResult struct {
	models.ImageAnalysis
	Reused bool `json:"reused"`
}

// Result is the combined response for a Request.
type Result struct {
	Success       bool               `json:"success"`
	TextAnalysis  TextResult         `json:"textAnalysis"`
	ImageAnalysis ImageResult        `json:"imageAnalysis"`
	FinalResult   models.FinalResult `json:"finalResult"`
	PrivacyPolicy string             `json:"privacyPolicy"`
}

// Cache is the subset of cache.AnalysisCache the pipeline uses.
type Cache interface {
	Get(ctx context.Context, contentType models.ContentType, fp string) (*models.CacheRecord, bool)
	Put(ctx context.Context, rec *models.CacheRecord) cache.PutOutcome
}

// Service orchestrates analyses. It is safe for concurrent use.
type Service struct {
	scorer  models.TextScorer
	cache   Cache
	fetcher fetch.Fetcher
	metrics *metrics.Metrics

	inflight singleflight.Group
}

// New creates a Service. scorer is required; a nil cache disables reuse and a
// nil fetcher uses the default HTTP fetcher.
func New(scorer models.TextScorer, c Cache, fetcher fetch.Fetcher, m *metrics.Metrics) *Service {
	if c == nil {
		c = cache.NewAnalysisCache(nil, nil)
	}
	if fetcher == nil {
		fetcher = fetch.NewImageFetcher(0, 0, "")
	}
	return &Service{
		scorer:  scorer,
		cache:   c,
		fetcher: fetcher,
		metrics: m,
	}
}

// ScorerName reports the configured text strategy.
func (s *Service) ScorerName() string {
	return s.scorer.Name()
}

// Analyze scores req.Text and, if given, the image at req.ImageURL, then fuses
// both. Text failures fail the whole request; image failures degrade to a
// skipped image analysis.
func (s *Service) Analyze(ctx context.Context, req Request) (*Result, error) {
	var text TextResult
	image := ImageResult{ImageAnalysis: models.SkippedImage()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.analyzeText(gctx, req.Text)
		if err != nil {
			return err
		}
		text = r
		return nil
	})
	if req.ImageURL != "" {
		g.Go(func() error {
			image = s.analyzeImage(gctx, req.ImageURL)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	final := scoring.Fuse(&text.TextAnalysis, image.ImageAnalysis)
	s.metrics.FinalScore(final.FinalScore)

	return &Result{
		Success:       true,
		TextAnalysis:  text,
		ImageAnalysis: image,
		FinalResult:   final,
		PrivacyPolicy: PrivacyPolicy,
	}, nil
}

func (s *Service) analyzeText(ctx context.Context, text string) (TextResult, error) {
	fp, err := fingerprint.Text(text)
	if err != nil {
		return TextResult{}, err
	}

	v, err, _ := s.inflight.Do("text:"+fp, func() (any, error) {
		return s.computeText(context.WithoutCancel(ctx), fp, text)
	})
	if err != nil {
		s.metrics.Analysis(string(models.ContentText), metrics.OutcomeFailed)
		return TextResult{}, err
	}
	return v.(TextResult), nil
}

func (s *Service) computeText(ctx context.Context, fp, text string) (TextResult, error) {
	if rec, ok := s.cache.Get(ctx, models.ContentText, fp); ok {
		a, err := rec.TextAnalysis()
		if err == nil {
			s.metrics.CacheLookup(string(models.ContentText), true)
			s.metrics.Analysis(string(models.ContentText), metrics.OutcomeReused)
			slog.Info("reusing text analysis", "fingerprint", fingerprint.Short(fp))
			return TextResult{TextAnalysis: a, Reused: true}, nil
		}
		slog.Warn("cached text analysis unreadable", "fingerprint", fingerprint.Short(fp), "error", err)
	}
	s.metrics.CacheLookup(string(models.ContentText), false)

	start := time.Now()
	a, err := s.scorer.ScoreText(ctx, text)
	s.metrics.ScorerLatency(s.scorer.Name(), err, time.Since(start))
	if err != nil {
		slog.Error("text scoring failed",
			"scorer", s.scorer.Name(),
			"fingerprint", fingerprint.Short(fp),
			"error", err,
		)
		return TextResult{}, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	s.metrics.Analysis(string(models.ContentText), metrics.OutcomeComputed)

	s.store(ctx, fp, models.ContentText, func() (*models.CacheRecord, error) {
		return models.NewTextRecord(fp, a)
	})
	return TextResult{TextAnalysis: a}, nil
}

func (s *Service) analyzeImage(ctx context.Context, url string) (res ImageResult) {
	skipped := ImageResult{ImageAnalysis: models.SkippedImage()}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("image analysis panicked", "error", fmt.Errorf("%w: %v", scoring.ErrProcessing, r))
			s.metrics.Analysis(string(models.ContentImage), metrics.OutcomeSkipped)
			res = skipped
		}
	}()

	d := s.fetcher.Download(ctx, url)
	s.metrics.ImageDownload(d.OK())
	if !d.OK() {
		slog.Warn("image analysis skipped", "reason", "download failed", "error", d.Err)
		s.metrics.Analysis(string(models.ContentImage), metrics.OutcomeSkipped)
		return skipped
	}

	fp, err := fingerprint.Image(d.Data)
	if err != nil {
		slog.Warn("image analysis skipped", "reason", "fingerprint failed", "error", err)
		s.metrics.Analysis(string(models.ContentImage), metrics.OutcomeSkipped)
		return skipped
	}

	v, err, _ := s.inflight.Do("image:"+fp, func() (any, error) {
		return s.computeImage(context.WithoutCancel(ctx), fp, d.Data)
	})
	if err != nil {
		slog.Warn("image analysis skipped", "reason", "processing failed",
			"fingerprint", fingerprint.Short(fp), "error", err)
		s.metrics.Analysis(string(models.ContentImage), metrics.OutcomeSkipped)
		return skipped
	}
	return v.(ImageResult)
}

func (s *Service) computeImage(ctx context.Context, fp string, data []byte) (ImageResult, error) {
	if rec, ok := s.cache.Get(ctx, models.ContentImage, fp); ok {
		a, err := rec.ImageAnalysis()
		if err == nil {
			s.metrics.CacheLookup(string(models.ContentImage), true)
			s.metrics.Analysis(string(models.ContentImage), metrics.OutcomeReused)
			slog.Info("reusing image analysis", "fingerprint", fingerprint.Short(fp))
			return ImageResult{ImageAnalysis: a, Reused: true}, nil
		}
		slog.Warn("cached image analysis unreadable", "fingerprint", fingerprint.Short(fp), "error", err)
	}
	s.metrics.CacheLookup(string(models.ContentImage), false)

	a, err := scoring.AnalyzeImage(data)
	if err != nil {
		return ImageResult{}, err
	}
	s.metrics.Analysis(string(models.ContentImage), metrics.OutcomeComputed)

	s.store(ctx, fp, models.ContentImage, func() (*models.CacheRecord, error) {
		return models.NewImageRecord(fp, a)
	})
	return ImageResult{ImageAnalysis: a}, nil
}

// store persists a freshly computed analysis. Failures only cost future reuse.
func (s *Service) store(ctx context.Context, fp string, ct models.ContentType, build func() (*models.CacheRecord, error)) {
	rec, err := build()
	if err != nil {
		slog.Warn("encoding analysis for cache failed", "fingerprint", fingerprint.Short(fp), "error", err)
		return
	}
	outcome := s.cache.Put(ctx, rec)
	s.metrics.CacheWrite(string(ct), string(outcome))
	if outcome == cache.PutConflict {
		slog.Debug("analysis already cached", "fingerprint", fingerprint.Short(fp), "content_type", ct)
	}
}
