package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ProjectionStore serves the few projected-state reads the indexer itself
// needs (notification recipients). General querying of projected entities
// belongs to the read-side API backend.
type ProjectionStore struct {
	db *sql.DB
}

// NewProjectionStore creates a projection reader backed by the given
// database.
func NewProjectionStore(db *sql.DB) *ProjectionStore {
	return &ProjectionStore{db: db}
}

// ClaimantForClaim returns the claimant wallet of a projected bounty claim,
// or an empty string when the claim was never projected. The rowid ordering
// makes the lookup deterministic even if duplicates ever appear.
func (s *ProjectionStore) ClaimantForClaim(ctx context.Context, claimID uint64) (string, error) {
	var claimant string
	err := s.db.QueryRowContext(ctx,
		`SELECT claimant_address FROM bounty_claims
		 WHERE claim_id = ? ORDER BY id LIMIT 1`, int64(claimID)).Scan(&claimant)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve claimant for claim %d: %w", claimID, err)
	}

	return claimant, nil
}
