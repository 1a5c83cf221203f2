package store_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/trustlens/internal/store"
	"github.com/kiranshivaraju/trustlens/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// migrationsDir returns the absolute path to the migrations directory.
func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

// setupTestDB spins up a Postgres container, runs migrations, and returns a pool + cleanup.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("trustlens_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	err = store.RunMigrations(connStr, migrationsDir())
	require.NoError(t, err)

	// A second run is a no-op.
	require.NoError(t, store.RunMigrations(connStr, migrationsDir()))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return pool
}

func textRecord(t *testing.T, fp string, score int) *models.CacheRecord {
	t.Helper()
	rec, err := models.NewTextRecord(fp, models.TextAnalysis{
		RiskLevel:         models.RiskLow,
		RiskKeywordsFound: []string{"viral"},
		CredibilityScore:  score,
		Verdict:           models.VerdictReliable,
		Explanation:       "fine",
	})
	require.NoError(t, err)
	rec.CreatedAt = rec.CreatedAt.Truncate(time.Microsecond)
	return rec
}

func TestPing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	assert.NoError(t, s.Ping(context.Background()))
}

func TestAnalysisRecord_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()

	rec := textRecord(t, "fp-create-get", 81)
	require.NoError(t, s.CreateAnalysisRecord(ctx, rec))

	got, err := s.GetAnalysisRecord(ctx, models.ContentText, "fp-create-get")
	require.NoError(t, err)
	assert.Equal(t, "fp-create-get", got.Fingerprint)
	assert.Equal(t, models.ContentText, got.ContentType)
	assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))

	analysis, err := got.TextAnalysis()
	require.NoError(t, err)
	assert.Equal(t, 81, analysis.CredibilityScore)
	assert.Equal(t, []string{"viral"}, analysis.RiskKeywordsFound)
}

func TestAnalysisRecord_NotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))

	_, err := s.GetAnalysisRecord(context.Background(), models.ContentText, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAnalysisRecord_DuplicateIsConflict(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, s.CreateAnalysisRecord(ctx, textRecord(t, "fp-dup", 90)))
	err := s.CreateAnalysisRecord(ctx, textRecord(t, "fp-dup", 10))
	assert.ErrorIs(t, err, store.ErrDuplicateKey)

	// First write wins.
	got, err := s.GetAnalysisRecord(ctx, models.ContentText, "fp-dup")
	require.NoError(t, err)
	analysis, err := got.TextAnalysis()
	require.NoError(t, err)
	assert.Equal(t, 90, analysis.CredibilityScore)
}

func TestAnalysisRecord_SameFingerprintAcrossContentTypes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()

	img, err := models.NewImageRecord("fp-shared", models.SkippedImage())
	require.NoError(t, err)

	require.NoError(t, s.CreateAnalysisRecord(ctx, textRecord(t, "fp-shared", 77)))
	require.NoError(t, s.CreateAnalysisRecord(ctx, img))

	gotText, err := s.GetAnalysisRecord(ctx, models.ContentText, "fp-shared")
	require.NoError(t, err)
	assert.Equal(t, models.ContentText, gotText.ContentType)

	gotImage, err := s.GetAnalysisRecord(ctx, models.ContentImage, "fp-shared")
	require.NoError(t, err)
	assert.Equal(t, models.ContentImage, gotImage.ContentType)
}

func TestAnalysisRecord_ConcurrentWriters(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()

	records := make([]*models.CacheRecord, 8)
	for i := range records {
		records[i] = textRecord(t, "fp-race", 50+i)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(records))
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.CreateAnalysisRecord(ctx, records[i])
		}(i)
	}
	wg.Wait()

	var created int
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, store.ErrDuplicateKey)
	}
	assert.Equal(t, 1, created)
}

func TestAnalysisRecord_RejectsUnknownContentType(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))

	err := s.CreateAnalysisRecord(context.Background(), &models.CacheRecord{
		Fingerprint: "fp-video",
		ContentType: "video",
		Analysis:    json.RawMessage(`{}`),
		CreatedAt:   time.Now().UTC(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrInvalidRecord)
	assert.NotErrorIs(t, err, store.ErrDuplicateKey)
}
