package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/trustlens/internal/fingerprint"
	"github.com/kiranshivaraju/trustlens/internal/store"
	"github.com/kiranshivaraju/trustlens/pkg/models"
)

const (
	DefaultHotTTL    = 24 * time.Hour
	DefaultOpTimeout = 2 * time.Second
)

// PutOutcome reports what happened to a Put.
type PutOutcome string

const (
	PutStored   PutOutcome = "stored"
	PutConflict PutOutcome = "conflict"
	PutSkipped  PutOutcome = "skipped"
)

// RecordStore is the durable side of the analysis cache.
type RecordStore interface {
	GetAnalysisRecord(ctx context.Context, contentType models.ContentType, fingerprint string) (*models.CacheRecord, error)
	CreateAnalysisRecord(ctx context.Context, rec *models.CacheRecord) error
}

// AnalysisCache looks up and stores analyses by content fingerprint.
// Redis is consulted first, then Postgres. Either backend may be absent;
// with neither it behaves as a permanent miss. Backend failures are logged
// and treated as misses so the caller can always recompute.
type AnalysisCache struct {
	hot       Cache
	durable   RecordStore
	hotTTL    time.Duration
	opTimeout time.Duration
}

type Option func(*AnalysisCache)

func WithHotTTL(ttl time.Duration) Option {
	return func(c *AnalysisCache) {
		if ttl > 0 {
			c.hotTTL = ttl
		}
	}
}

func WithOpTimeout(d time.Duration) Option {
	return func(c *AnalysisCache) {
		if d > 0 {
			c.opTimeout = d
		}
	}
}

// NewAnalysisCache creates an AnalysisCache. hot and durable may be nil.
func NewAnalysisCache(hot Cache, durable RecordStore, opts ...Option) *AnalysisCache {
	c := &AnalysisCache{
		hot:       hot,
		durable:   durable,
		hotTTL:    DefaultHotTTL,
		opTimeout: DefaultOpTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether any backend is configured.
func (c *AnalysisCache) Enabled() bool {
	return c != nil && (c.hot != nil || c.durable != nil)
}

// Get returns the record for fingerprint if one exists with the given content type.
func (c *AnalysisCache) Get(ctx context.Context, contentType models.ContentType, fp string) (*models.CacheRecord, bool) {
	if !c.Enabled() {
		return nil, false
	}

	if c.hot != nil {
		if rec, ok := c.getHot(ctx, contentType, fp); ok {
			return rec, true
		}
	}

	if c.durable == nil {
		return nil, false
	}

	opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	rec, err := c.durable.GetAnalysisRecord(opCtx, contentType, fp)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Warn("durable cache lookup failed", "fingerprint", fingerprint.Short(fp), "error", err)
		}
		return nil, false
	}
	if rec.ContentType != contentType {
		return nil, false
	}

	if c.hot != nil {
		c.setHot(ctx, rec)
	}
	return rec, true
}

func (c *AnalysisCache) getHot(ctx context.Context, contentType models.ContentType, fp string) (*models.CacheRecord, bool) {
	opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	raw, found, err := c.hot.Get(opCtx, AnalysisKey(contentType, fp))
	if err != nil {
		slog.Warn("hot cache lookup failed", "fingerprint", fingerprint.Short(fp), "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}

	var rec models.CacheRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		slog.Warn("hot cache entry unreadable", "fingerprint", fingerprint.Short(fp), "error", err)
		return nil, false
	}
	if rec.ContentType != contentType || rec.Fingerprint != fp {
		return nil, false
	}
	return &rec, true
}

// setHot stores rec in Redis unless an entry already exists.
func (c *AnalysisCache) setHot(ctx context.Context, rec *models.CacheRecord) (bool, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return false, err
	}

	opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	ok, err := c.hot.SetNX(opCtx, AnalysisKey(rec.ContentType, rec.Fingerprint), raw, c.hotTTL)
	if err != nil {
		slog.Warn("hot cache write failed", "fingerprint", fingerprint.Short(rec.Fingerprint), "error", err)
	}
	return ok, err
}

// Put stores rec if no record exists for its fingerprint. An existing record
// is never replaced; that case is reported as PutConflict.
func (c *AnalysisCache) Put(ctx context.Context, rec *models.CacheRecord) PutOutcome {
	if !c.Enabled() || rec == nil {
		return PutSkipped
	}

	if c.durable == nil {
		ok, err := c.setHot(ctx, rec)
		switch {
		case err != nil:
			return PutSkipped
		case !ok:
			return PutConflict
		default:
			return PutStored
		}
	}

	opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
	err := c.durable.CreateAnalysisRecord(opCtx, rec)
	cancel()

	switch {
	case errors.Is(err, store.ErrDuplicateKey):
		slog.Debug("analysis already stored", "fingerprint", fingerprint.Short(rec.Fingerprint))
		return PutConflict
	case err != nil:
		slog.Warn("durable cache write failed", "fingerprint", fingerprint.Short(rec.Fingerprint), "error", err)
		if c.hot != nil {
			if ok, hotErr := c.setHot(ctx, rec); hotErr == nil && ok {
				return PutStored
			}
		}
		return PutSkipped
	}

	if c.hot != nil {
		c.setHot(ctx, rec)
	}
	return PutStored
}
