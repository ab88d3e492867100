package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aureus-network/aureus-indexer/internal/config"
	"github.com/aureus-network/aureus-indexer/internal/db"
	"github.com/aureus-network/aureus-indexer/internal/logger"
	"github.com/aureus-network/aureus-indexer/internal/migrations"
)

// setupTestDB opens a temp-dir SQLite database with the full schema applied.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	cfg := config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "store_test.db")}
	cfg.ApplyDefaults()

	database, err := db.NewSQLiteDBFromConfig(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, migrations.RunMigrationsDB(logger.NewNopLogger(), database))

	return database
}

const (
	testSource  = "ProfileRegistry"
	testAddress = "0x1111111111111111111111111111111111111111"
)

func TestCheckpointGetOrCreate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cps := NewCheckpointStore(setupTestDB(t), logger.NewNopLogger())

	// Unknown source has no checkpoint
	cp, err := cps.Get(ctx, testSource)
	require.NoError(t, err)
	assert.Nil(t, cp)

	// First sync creates the row one block before the start block
	cp, err = cps.GetOrCreate(ctx, testSource, testAddress, 100)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, int64(99), cp.LastProcessedBlock)
	assert.Equal(t, int64(0), cp.ErrorCount)
	assert.Nil(t, cp.LastError)

	// Second call returns the existing row untouched
	again, err := cps.GetOrCreate(ctx, testSource, testAddress, 500)
	require.NoError(t, err)
	assert.Equal(t, cp.ID, again.ID)
	assert.Equal(t, int64(99), again.LastProcessedBlock)
}

func TestCheckpointAdvanceIsMonotonic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cps := NewCheckpointStore(setupTestDB(t), logger.NewNopLogger())

	_, err := cps.GetOrCreate(ctx, testSource, testAddress, 100)
	require.NoError(t, err)

	require.NoError(t, cps.Advance(ctx, testSource, 150))

	cp, err := cps.Get(ctx, testSource)
	require.NoError(t, err)
	assert.Equal(t, int64(150), cp.LastProcessedBlock)

	// Re-advancing to the same block is fine (idempotent re-run)
	require.NoError(t, cps.Advance(ctx, testSource, 150))

	// Moving backwards is refused and leaves the watermark untouched
	err = cps.Advance(ctx, testSource, 149)
	require.ErrorIs(t, err, ErrCheckpointRegression)

	cp, err = cps.Get(ctx, testSource)
	require.NoError(t, err)
	assert.Equal(t, int64(150), cp.LastProcessedBlock)
}

func TestCheckpointAdvanceUnknownSource(t *testing.T) {
	t.Parallel()

	cps := NewCheckpointStore(setupTestDB(t), logger.NewNopLogger())

	err := cps.Advance(context.Background(), "missing", 10)
	require.Error(t, err)
}

func TestCheckpointRecordError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cps := NewCheckpointStore(setupTestDB(t), logger.NewNopLogger())

	_, err := cps.GetOrCreate(ctx, testSource, testAddress, 100)
	require.NoError(t, err)
	require.NoError(t, cps.Advance(ctx, testSource, 150))

	require.NoError(t, cps.RecordError(ctx, testSource, assert.AnError))
	require.NoError(t, cps.RecordError(ctx, testSource, assert.AnError))

	cp, err := cps.Get(ctx, testSource)
	require.NoError(t, err)

	// Errors accumulate, the watermark does not move
	assert.Equal(t, int64(2), cp.ErrorCount)
	require.NotNil(t, cp.LastError)
	assert.Equal(t, assert.AnError.Error(), *cp.LastError)
	assert.Equal(t, int64(150), cp.LastProcessedBlock)
}

func TestCheckpointList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cps := NewCheckpointStore(setupTestDB(t), logger.NewNopLogger())

	_, err := cps.GetOrCreate(ctx, "SkillClaim", "0x3333333333333333333333333333333333333333", 10)
	require.NoError(t, err)
	_, err = cps.GetOrCreate(ctx, "EndorsementRegistry", "0x2222222222222222222222222222222222222222", 20)
	require.NoError(t, err)

	checkpoints, err := cps.List(ctx)
	require.NoError(t, err)
	require.Len(t, checkpoints, 2)
	assert.Equal(t, "EndorsementRegistry", checkpoints[0].SourceID)
	assert.Equal(t, "SkillClaim", checkpoints[1].SourceID)
}
