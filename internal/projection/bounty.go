package projection

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aureus-network/aureus-indexer/internal/chain"
	"github.com/aureus-network/aureus-indexer/internal/logger"
)

// poolCreatedHandler projects
// PoolCreated(poolId, sponsor, skillId, reward, deadline) into bounty_pools.
type poolCreatedHandler struct {
	log *logger.Logger
}

func (h *poolCreatedHandler) Kind() string { return "pool.created" }

func (h *poolCreatedHandler) Apply(ctx context.Context, tx *sql.Tx, ev *chain.Event) error {
	poolID, err := ev.ArgUint64("poolId")
	if err != nil {
		return fmt.Errorf("pool.created event %s: %w", ev.TxHash.Hex(), err)
	}

	skillID, err := ev.ArgUint64("skillId")
	if err != nil {
		return fmt.Errorf("pool.created event %s: %w", ev.TxHash.Hex(), err)
	}

	deadline, err := ev.ArgUint64("deadline")
	if err != nil {
		return fmt.Errorf("pool.created event %s: %w", ev.TxHash.Hex(), err)
	}

	// The reward is a uint256 token amount, kept as its decimal string
	_, err = tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO bounty_pools
		 (pool_id, sponsor_address, skill_id, reward_amount, deadline, status, created_block)
		 VALUES (?, ?, ?, ?, ?, 'open', ?)`,
		int64(poolID), ev.ArgString("sponsor"), int64(skillID),
		ev.ArgString("reward"), int64(deadline), int64(ev.Block))
	if err != nil {
		return fmt.Errorf("failed to insert bounty pool %d: %w", poolID, err)
	}

	return nil
}

// claimSubmittedHandler projects
// ClaimSubmitted(claimId, poolId, claimant, skillIndex, evidenceURI). A claim
// against a pool that has not been projected yet is skipped.
type claimSubmittedHandler struct {
	log *logger.Logger
}

func (h *claimSubmittedHandler) Kind() string { return "claim.submitted" }

func (h *claimSubmittedHandler) Apply(ctx context.Context, tx *sql.Tx, ev *chain.Event) error {
	claimID, err := ev.ArgUint64("claimId")
	if err != nil {
		return fmt.Errorf("claim.submitted event %s: %w", ev.TxHash.Hex(), err)
	}

	poolID, err := ev.ArgUint64("poolId")
	if err != nil {
		return fmt.Errorf("claim.submitted event %s: %w", ev.TxHash.Hex(), err)
	}

	exists, err := rowExists(ctx, tx,
		`SELECT 1 FROM bounty_pools WHERE pool_id = ? ORDER BY id LIMIT 1`, int64(poolID))
	if err != nil {
		return err
	}
	if !exists {
		h.log.Warnf("skipping claim.submitted %d: no projected pool %d", claimID, poolID)
		return nil
	}

	skillIndex, err := ev.ArgUint64("skillIndex")
	if err != nil {
		return fmt.Errorf("claim.submitted event %s: %w", ev.TxHash.Hex(), err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO bounty_claims
		 (claim_id, pool_id, claimant_address, skill_index, evidence_uri, status, submitted_block)
		 VALUES (?, ?, ?, ?, ?, 'submitted', ?)`,
		int64(claimID), int64(poolID), ev.ArgString("claimant"),
		int64(skillIndex), ev.ArgString("evidenceURI"), int64(ev.Block))
	if err != nil {
		return fmt.Errorf("failed to insert bounty claim %d: %w", claimID, err)
	}

	return nil
}

// claimApprovedHandler projects ClaimApproved(claimId, reviewer, payout).
type claimApprovedHandler struct {
	log *logger.Logger
}

func (h *claimApprovedHandler) Kind() string { return "claim.approved" }

func (h *claimApprovedHandler) Apply(ctx context.Context, tx *sql.Tx, ev *chain.Event) error {
	claimID, err := ev.ArgUint64("claimId")
	if err != nil {
		return fmt.Errorf("claim.approved event %s: %w", ev.TxHash.Hex(), err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE bounty_claims
		 SET status = 'approved', reviewer_address = ?, payout_amount = ?, resolved_block = ?
		 WHERE claim_id = ?`,
		ev.ArgString("reviewer"), ev.ArgString("payout"), int64(ev.Block), int64(claimID))
	if err != nil {
		return fmt.Errorf("failed to approve bounty claim %d: %w", claimID, err)
	}

	if rows, _ := res.RowsAffected(); rows == 0 {
		h.log.Warnf("skipping claim.approved for %d: no projected claim", claimID)
	}

	return nil
}

// claimRejectedHandler projects ClaimRejected(claimId, reviewer, reason).
type claimRejectedHandler struct {
	log *logger.Logger
}

func (h *claimRejectedHandler) Kind() string { return "claim.rejected" }

func (h *claimRejectedHandler) Apply(ctx context.Context, tx *sql.Tx, ev *chain.Event) error {
	claimID, err := ev.ArgUint64("claimId")
	if err != nil {
		return fmt.Errorf("claim.rejected event %s: %w", ev.TxHash.Hex(), err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE bounty_claims
		 SET status = 'rejected', reviewer_address = ?, reject_reason = ?, resolved_block = ?
		 WHERE claim_id = ?`,
		ev.ArgString("reviewer"), ev.ArgString("reason"), int64(ev.Block), int64(claimID))
	if err != nil {
		return fmt.Errorf("failed to reject bounty claim %d: %w", claimID, err)
	}

	if rows, _ := res.RowsAffected(); rows == 0 {
		h.log.Warnf("skipping claim.rejected for %d: no projected claim", claimID)
	}

	return nil
}

// poolClosedHandler projects PoolClosed(poolId).
type poolClosedHandler struct {
	log *logger.Logger
}

func (h *poolClosedHandler) Kind() string { return "pool.closed" }

func (h *poolClosedHandler) Apply(ctx context.Context, tx *sql.Tx, ev *chain.Event) error {
	poolID, err := ev.ArgUint64("poolId")
	if err != nil {
		return fmt.Errorf("pool.closed event %s: %w", ev.TxHash.Hex(), err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE bounty_pools SET status = 'closed' WHERE pool_id = ?`, int64(poolID))
	if err != nil {
		return fmt.Errorf("failed to close bounty pool %d: %w", poolID, err)
	}

	if rows, _ := res.RowsAffected(); rows == 0 {
		h.log.Warnf("skipping pool.closed for %d: no projected pool", poolID)
	}

	return nil
}
