package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/russross/meddler"

	"github.com/aureus-network/aureus-indexer/internal/common"
	"github.com/aureus-network/aureus-indexer/internal/logger"
	"github.com/aureus-network/aureus-indexer/internal/metrics"
)

// ErrCheckpointRegression is returned by Advance when the requested block is
// lower than the stored watermark.
var ErrCheckpointRegression = errors.New("checkpoint can only advance")

// CheckpointStore persists the per-source sync watermark. The watermark only
// ever moves forward: a failed batch records the error and leaves the block
// untouched so the same range is retried verbatim on the next cycle.
type CheckpointStore struct {
	db  *sql.DB
	log *logger.Logger
}

// NewCheckpointStore creates a checkpoint store backed by the given database.
func NewCheckpointStore(db *sql.DB, log *logger.Logger) *CheckpointStore {
	return &CheckpointStore{
		db:  db,
		log: log.WithComponent(common.ComponentCheckpointStore),
	}
}

// Get returns the checkpoint for a source, or nil when the source has never
// been synced.
func (s *CheckpointStore) Get(ctx context.Context, sourceID string) (*Checkpoint, error) {
	cp := new(Checkpoint)
	err := meddler.QueryRow(s.db, cp,
		`SELECT * FROM source_checkpoints WHERE source_id = ?`, sourceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query checkpoint for %s: %w", sourceID, err)
	}

	return cp, nil
}

// GetOrCreate returns the checkpoint for a source, creating it on the first
// sync attempt. A fresh checkpoint points one block before startBlock, so the
// first batch begins exactly at startBlock.
func (s *CheckpointStore) GetOrCreate(
	ctx context.Context,
	sourceID, sourceAddress string,
	startBlock uint64,
) (*Checkpoint, error) {
	cp, err := s.Get(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if cp != nil {
		return cp, nil
	}

	initial := int64(startBlock) - 1

	cp = &Checkpoint{
		SourceID:           sourceID,
		SourceAddress:      sourceAddress,
		LastProcessedBlock: initial,
		LastProcessedAt:    time.Now().UTC(),
	}

	if err := meddler.Insert(s.db, "source_checkpoints", cp); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint for %s: %w", sourceID, err)
	}

	s.log.Infof("created checkpoint for source %s starting at block %d", sourceID, startBlock)

	return cp, nil
}

// Advance moves the watermark to newBlock. The update is guarded in SQL so a
// stale caller can never move the watermark backwards.
func (s *CheckpointStore) Advance(ctx context.Context, sourceID string, newBlock uint64) error {
	start := time.Now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE source_checkpoints
		 SET last_processed_block = ?, last_processed_at = ?
		 WHERE source_id = ? AND last_processed_block <= ?`,
		int64(newBlock), time.Now().UTC(), sourceID, int64(newBlock))
	if err != nil {
		metrics.DBErrorsInc("sqlite", "advance_checkpoint")
		return fmt.Errorf("failed to advance checkpoint for %s: %w", sourceID, err)
	}

	metrics.DBQueryInc("sqlite", "advance_checkpoint")
	metrics.DBQueryDuration("sqlite", "advance_checkpoint", time.Since(start))

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read advance result for %s: %w", sourceID, err)
	}
	if rows == 0 {
		cp, getErr := s.Get(ctx, sourceID)
		if getErr == nil && cp != nil && cp.LastProcessedBlock > int64(newBlock) {
			return fmt.Errorf("%w: source %s is at %d, refusing %d",
				ErrCheckpointRegression, sourceID, cp.LastProcessedBlock, newBlock)
		}
		return fmt.Errorf("failed to advance checkpoint: source %s not found", sourceID)
	}

	return nil
}

// RecordError increments the source's error counter and stores the error
// text. The watermark is deliberately left untouched.
func (s *CheckpointStore) RecordError(ctx context.Context, sourceID string, syncErr error) error {
	msg := syncErr.Error()

	res, err := s.db.ExecContext(ctx,
		`UPDATE source_checkpoints
		 SET error_count = error_count + 1, last_error = ?
		 WHERE source_id = ?`,
		msg, sourceID)
	if err != nil {
		return fmt.Errorf("failed to record error for %s: %w", sourceID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read record-error result for %s: %w", sourceID, err)
	}
	if rows == 0 {
		return fmt.Errorf("failed to record error: source %s not found", sourceID)
	}

	return nil
}

// List returns all checkpoints ordered by source id, for the status API.
func (s *CheckpointStore) List(ctx context.Context) ([]*Checkpoint, error) {
	var checkpoints []*Checkpoint
	err := meddler.QueryAll(s.db, &checkpoints,
		`SELECT * FROM source_checkpoints ORDER BY source_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}

	return checkpoints, nil
}
