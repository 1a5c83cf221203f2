package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/trustlens/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// GetAnalysisRecord loads the record stored for a content type and fingerprint.
func (s *PostgresStore) GetAnalysisRecord(ctx context.Context, ct models.ContentType, fingerprint string) (*models.CacheRecord, error) {
	var rec models.CacheRecord
	var contentType string
	err := s.pool.QueryRow(ctx,
		`SELECT fingerprint, content_type, analysis, created_at
		 FROM analysis_records WHERE content_type = $1 AND fingerprint = $2`,
		string(ct), fingerprint,
	).Scan(&rec.Fingerprint, &contentType, &rec.Analysis, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis record: %w", err)
	}
	rec.ContentType = models.ContentType(contentType)
	return &rec, nil
}

// CreateAnalysisRecord inserts rec. Existing rows are never overwritten.
func (s *PostgresStore) CreateAnalysisRecord(ctx context.Context, rec *models.CacheRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO analysis_records (fingerprint, content_type, analysis, created_at)
		 VALUES ($1, $2, $3, $4)`,
		rec.Fingerprint, string(rec.ContentType), []byte(rec.Analysis), rec.CreatedAt,
	)
	if err != nil {
		switch pgErrorCode(err) {
		case uniqueViolation:
			return ErrDuplicateKey
		case checkViolation, notNullViolation:
			return fmt.Errorf("%w: %s %s", ErrInvalidRecord, rec.ContentType, rec.Fingerprint)
		}
		return fmt.Errorf("create analysis record: %w", err)
	}
	return nil
}

const (
	uniqueViolation  = "23505"
	checkViolation   = "23514"
	notNullViolation = "23502"
)

// pgErrorCode returns the SQLSTATE of a Postgres error, or "".
func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

var _ Store = (*PostgresStore)(nil)
