package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/russross/meddler"

	"github.com/aureus-network/aureus-indexer/internal/common"
	// Registers the address/hash meddler converters used by the row structs.
	_ "github.com/aureus-network/aureus-indexer/internal/db"
	"github.com/aureus-network/aureus-indexer/internal/logger"
	"github.com/aureus-network/aureus-indexer/internal/metrics"
)

// EventStore persists decoded raw events. All writes happen inside the batch
// transaction owned by the synchronizer, so a failed batch leaves no events
// behind.
type EventStore struct {
	db  *sql.DB
	log *logger.Logger
}

// NewEventStore creates an event store backed by the given database.
func NewEventStore(db *sql.DB, log *logger.Logger) *EventStore {
	return &EventStore{
		db:  db,
		log: log.WithComponent(common.ComponentEventStore),
	}
}

// InsertIfAbsent writes the event unless a row with the same
// (tx_hash, log_index) already exists. The duplicate case is a no-op, not an
// error: re-ingesting an already-processed range must be harmless. On insert
// the event's ID and CreatedAt are filled in.
func (s *EventStore) InsertIfAbsent(ctx context.Context, tx *sql.Tx, ev *RawEvent) (bool, error) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return false, fmt.Errorf("failed to marshal payload of event %s: %w", ev.EventName, err)
	}

	ev.CreatedAt = time.Now().UTC()

	start := time.Now()
	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO raw_events
		 (event_name, contract_name, source_address, block_number, tx_hash, log_index,
		  payload, applied, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		ev.EventName, ev.ContractName, ev.SourceAddress.Hex(), int64(ev.BlockNumber),
		ev.TxHash.Hex(), int64(ev.LogIndex), string(payload), ev.CreatedAt)
	if err != nil {
		metrics.DBErrorsInc("sqlite", "insert_event")
		return false, fmt.Errorf("failed to insert event %s (%s:%d): %w",
			ev.EventName, ev.TxHash.Hex(), ev.LogIndex, err)
	}

	metrics.DBQueryInc("sqlite", "insert_event")
	metrics.DBQueryDuration("sqlite", "insert_event", time.Since(start))

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	if rows == 0 {
		// Already ingested on a previous run of this range
		return false, nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("failed to read inserted event id: %w", err)
	}
	ev.ID = id

	return true, nil
}

// MarkApplied flips the applied flag of a stored event. Called once the
// event's projection handler has run, whether or not it succeeded.
func (s *EventStore) MarkApplied(ctx context.Context, tx *sql.Tx, id int64) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE raw_events SET applied = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to mark event %d applied: %w", id, err)
	}

	return nil
}

// Get returns the stored event with the given id, or nil when absent.
func (s *EventStore) Get(ctx context.Context, id int64) (*RawEvent, error) {
	ev := new(RawEvent)
	err := meddler.QueryRow(s.db, ev, `SELECT * FROM raw_events WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query event %d: %w", id, err)
	}

	return ev, nil
}

// CountBySource returns the number of stored events for a contract,
// for the status API.
func (s *EventStore) CountBySource(ctx context.Context, contractName string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM raw_events WHERE contract_name = ?`, contractName).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count events for %s: %w", contractName, err)
	}

	return count, nil
}

// ListBySource returns stored events for a contract in ascending
// (block_number, log_index) order.
func (s *EventStore) ListBySource(ctx context.Context, contractName string, limit int) ([]*RawEvent, error) {
	var events []*RawEvent
	err := meddler.QueryAll(s.db, &events,
		`SELECT * FROM raw_events
		 WHERE contract_name = ?
		 ORDER BY block_number ASC, log_index ASC
		 LIMIT ?`, contractName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events for %s: %w", contractName, err)
	}

	return events, nil
}
