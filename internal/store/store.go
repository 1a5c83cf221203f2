package store

import (
	"context"
	"errors"

	"github.com/kiranshivaraju/trustlens/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// ErrInvalidRecord is returned when a record violates a table constraint.
var ErrInvalidRecord = errors.New("invalid analysis record")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	// GetAnalysisRecord returns ErrNotFound when no record of that content
	// type has the fingerprint.
	GetAnalysisRecord(ctx context.Context, contentType models.ContentType, fingerprint string) (*models.CacheRecord, error)
	// CreateAnalysisRecord returns ErrDuplicateKey when the content type and
	// fingerprint pair already exists.
	// Existing records are never overwritten.
	CreateAnalysisRecord(ctx context.Context, rec *models.CacheRecord) error
}
