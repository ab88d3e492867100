package projection

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aureus-network/aureus-indexer/internal/chain"
	"github.com/aureus-network/aureus-indexer/internal/logger"
)

// profileCreatedHandler projects ProfileCreated(wallet, handle, metadataURI)
// into the profiles table.
type profileCreatedHandler struct {
	log *logger.Logger
}

func (h *profileCreatedHandler) Kind() string { return "profile.created" }

func (h *profileCreatedHandler) Apply(ctx context.Context, tx *sql.Tx, ev *chain.Event) error {
	wallet := ev.ArgString("wallet")
	if wallet == "" {
		return fmt.Errorf("profile.created event %s is missing wallet", ev.TxHash.Hex())
	}

	now := time.Now().UTC()

	// Replaying the creating event refreshes the row instead of duplicating it
	_, err := tx.ExecContext(ctx,
		`INSERT INTO profiles
		 (wallet_address, handle, metadata_uri, created_block, updated_block, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (wallet_address) DO UPDATE SET
		   handle = excluded.handle,
		   metadata_uri = excluded.metadata_uri,
		   updated_block = excluded.updated_block,
		   updated_at = excluded.updated_at`,
		wallet, ev.ArgString("handle"), ev.ArgString("metadataURI"),
		int64(ev.Block), int64(ev.Block), now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert profile %s: %w", wallet, err)
	}

	return nil
}

// profileUpdatedHandler projects ProfileUpdated(wallet, handle, metadataURI).
// An update for a wallet with no projected profile is skipped.
type profileUpdatedHandler struct {
	log *logger.Logger
}

func (h *profileUpdatedHandler) Kind() string { return "profile.updated" }

func (h *profileUpdatedHandler) Apply(ctx context.Context, tx *sql.Tx, ev *chain.Event) error {
	wallet := ev.ArgString("wallet")
	if wallet == "" {
		return fmt.Errorf("profile.updated event %s is missing wallet", ev.TxHash.Hex())
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE profiles
		 SET handle = ?, metadata_uri = ?, updated_block = ?, updated_at = ?
		 WHERE wallet_address = ?`,
		ev.ArgString("handle"), ev.ArgString("metadataURI"),
		int64(ev.Block), time.Now().UTC(), wallet)
	if err != nil {
		return fmt.Errorf("failed to update profile %s: %w", wallet, err)
	}

	if rows, _ := res.RowsAffected(); rows == 0 {
		h.log.Warnf("skipping profile.updated for %s: no projected profile", wallet)
	}

	return nil
}

// skillAddedHandler projects SkillAdded(wallet, skillId, name, level). The
// mutation is skipped when the owning profile has not been projected yet.
type skillAddedHandler struct {
	log *logger.Logger
}

func (h *skillAddedHandler) Kind() string { return "skill.added" }

func (h *skillAddedHandler) Apply(ctx context.Context, tx *sql.Tx, ev *chain.Event) error {
	wallet := ev.ArgString("wallet")
	if wallet == "" {
		return fmt.Errorf("skill.added event %s is missing wallet", ev.TxHash.Hex())
	}

	skillID, err := ev.ArgUint64("skillId")
	if err != nil {
		return fmt.Errorf("skill.added event %s: %w", ev.TxHash.Hex(), err)
	}

	exists, err := rowExists(ctx, tx,
		`SELECT 1 FROM profiles WHERE wallet_address = ? ORDER BY id LIMIT 1`, wallet)
	if err != nil {
		return err
	}
	if !exists {
		h.log.Warnf("skipping skill.added %d for %s: no projected profile", skillID, wallet)
		return nil
	}

	level, err := ev.ArgUint64("level")
	if err != nil {
		return fmt.Errorf("skill.added event %s: %w", ev.TxHash.Hex(), err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO skills (skill_id, wallet_address, name, level, added_block)
		 VALUES (?, ?, ?, ?, ?)`,
		int64(skillID), wallet, ev.ArgString("name"), int64(level), int64(ev.Block))
	if err != nil {
		return fmt.Errorf("failed to insert skill %d for %s: %w", skillID, wallet, err)
	}

	return nil
}

// skillRemovedHandler projects SkillRemoved(wallet, skillId). Removing an
// absent skill is a no-op.
type skillRemovedHandler struct {
	log *logger.Logger
}

func (h *skillRemovedHandler) Kind() string { return "skill.removed" }

func (h *skillRemovedHandler) Apply(ctx context.Context, tx *sql.Tx, ev *chain.Event) error {
	wallet := ev.ArgString("wallet")
	if wallet == "" {
		return fmt.Errorf("skill.removed event %s is missing wallet", ev.TxHash.Hex())
	}

	skillID, err := ev.ArgUint64("skillId")
	if err != nil {
		return fmt.Errorf("skill.removed event %s: %w", ev.TxHash.Hex(), err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM skills WHERE wallet_address = ? AND skill_id = ?`,
		wallet, int64(skillID))
	if err != nil {
		return fmt.Errorf("failed to remove skill %d for %s: %w", skillID, wallet, err)
	}

	return nil
}
