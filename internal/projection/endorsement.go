package projection

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aureus-network/aureus-indexer/internal/chain"
	"github.com/aureus-network/aureus-indexer/internal/logger"
)

// endorsementCreatedHandler projects
// EndorsementCreated(endorsementId, endorser, endorsee, skillId, message).
// Endorsements reference wallets from an independent source stream, so no
// parent lookup is performed; the row stands on its own contract-assigned id.
type endorsementCreatedHandler struct {
	log *logger.Logger
}

func (h *endorsementCreatedHandler) Kind() string { return "endorsement.created" }

func (h *endorsementCreatedHandler) Apply(ctx context.Context, tx *sql.Tx, ev *chain.Event) error {
	endorsementID, err := ev.ArgUint64("endorsementId")
	if err != nil {
		return fmt.Errorf("endorsement.created event %s: %w", ev.TxHash.Hex(), err)
	}

	skillID, err := ev.ArgUint64("skillId")
	if err != nil {
		return fmt.Errorf("endorsement.created event %s: %w", ev.TxHash.Hex(), err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO endorsements
		 (endorsement_id, endorser_address, endorsee_address, skill_id, message, created_block)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		int64(endorsementID), ev.ArgString("endorser"), ev.ArgString("endorsee"),
		int64(skillID), ev.ArgString("message"), int64(ev.Block))
	if err != nil {
		return fmt.Errorf("failed to insert endorsement %d: %w", endorsementID, err)
	}

	return nil
}

// endorsementRevokedHandler projects EndorsementRevoked(endorsementId).
// Revoking an endorsement that was never projected is skipped.
type endorsementRevokedHandler struct {
	log *logger.Logger
}

func (h *endorsementRevokedHandler) Kind() string { return "endorsement.revoked" }

func (h *endorsementRevokedHandler) Apply(ctx context.Context, tx *sql.Tx, ev *chain.Event) error {
	endorsementID, err := ev.ArgUint64("endorsementId")
	if err != nil {
		return fmt.Errorf("endorsement.revoked event %s: %w", ev.TxHash.Hex(), err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE endorsements SET revoked = 1, revoked_block = ? WHERE endorsement_id = ?`,
		int64(ev.Block), int64(endorsementID))
	if err != nil {
		return fmt.Errorf("failed to revoke endorsement %d: %w", endorsementID, err)
	}

	if rows, _ := res.RowsAffected(); rows == 0 {
		h.log.Warnf("skipping endorsement.revoked for %d: no projected endorsement", endorsementID)
	}

	return nil
}

// verifierRegisteredHandler projects VerifierRegistered(wallet, name).
// Re-registering reactivates the verifier and refreshes its name.
type verifierRegisteredHandler struct {
	log *logger.Logger
}

func (h *verifierRegisteredHandler) Kind() string { return "verifier.registered" }

func (h *verifierRegisteredHandler) Apply(ctx context.Context, tx *sql.Tx, ev *chain.Event) error {
	wallet := ev.ArgString("wallet")
	if wallet == "" {
		return fmt.Errorf("verifier.registered event %s is missing wallet", ev.TxHash.Hex())
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO verifiers (wallet_address, name, active)
		 VALUES (?, ?, 1)
		 ON CONFLICT (wallet_address) DO UPDATE SET
		   name = excluded.name,
		   active = 1`,
		wallet, ev.ArgString("name"))
	if err != nil {
		return fmt.Errorf("failed to upsert verifier %s: %w", wallet, err)
	}

	return nil
}

// verifierRemovedHandler projects VerifierRemoved(wallet). The verifier row
// is kept, flagged inactive, so historical endorsement checks still resolve.
type verifierRemovedHandler struct {
	log *logger.Logger
}

func (h *verifierRemovedHandler) Kind() string { return "verifier.removed" }

func (h *verifierRemovedHandler) Apply(ctx context.Context, tx *sql.Tx, ev *chain.Event) error {
	wallet := ev.ArgString("wallet")
	if wallet == "" {
		return fmt.Errorf("verifier.removed event %s is missing wallet", ev.TxHash.Hex())
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE verifiers SET active = 0 WHERE wallet_address = ?`, wallet)
	if err != nil {
		return fmt.Errorf("failed to deactivate verifier %s: %w", wallet, err)
	}

	if rows, _ := res.RowsAffected(); rows == 0 {
		h.log.Warnf("skipping verifier.removed for %s: no projected verifier", wallet)
	}

	return nil
}
