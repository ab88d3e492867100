// Package syncer drives checkpointed, resumable synchronization of contract
// events: fetch a bounded block range, decode, persist idempotently, apply
// projections, fan out notifications, advance the watermark.
package syncer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/aureus-network/aureus-indexer/internal/chain"
	"github.com/aureus-network/aureus-indexer/internal/common"
	"github.com/aureus-network/aureus-indexer/internal/logger"
	"github.com/aureus-network/aureus-indexer/internal/metrics"
	"github.com/aureus-network/aureus-indexer/internal/projection"
	"github.com/aureus-network/aureus-indexer/internal/store"
)

// Error types as counted in metrics and recorded on checkpoints.
var (
	// ErrFetch marks a transport failure talking to the chain log source.
	// The batch is abandoned and retried verbatim next cycle.
	ErrFetch = errors.New("fetch failed")

	// ErrPersist marks a store failure inside the batch transaction. Same
	// handling as ErrFetch: nothing was committed, the range is retried.
	ErrPersist = errors.New("persist failed")
)

// ChainClient is the slice of the RPC client the syncer needs.
type ChainClient interface {
	FetchLogs(ctx context.Context, addresses []ethcommon.Address, fromBlock, toBlock uint64) ([]types.Log, error)
	HeadBlock(ctx context.Context) (uint64, error)
}

// EventSink receives applied events for notification fan-out. Enqueue must
// never block; it reports false when the event was dropped.
type EventSink interface {
	Enqueue(ev *chain.Event) bool
}

// Source is one registered contract stream. Streams are causally
// independent: each has its own checkpoint and its own ordering guarantee.
type Source struct {
	Name       string
	Address    ethcommon.Address
	StartBlock uint64
}

// Syncer runs one bounded batch per source per cycle. All work for a single
// source is strictly sequential and ordered; the scheduler guarantees a
// source is never synced by two goroutines at once.
type Syncer struct {
	db          *sql.DB
	client      ChainClient
	registry    *chain.Registry
	checkpoints *store.CheckpointStore
	events      *store.EventStore
	projections *projection.Registry
	sink        EventSink
	batchSize   uint64
	log         *logger.Logger
}

// New creates a syncer.
func New(
	db *sql.DB,
	client ChainClient,
	registry *chain.Registry,
	checkpoints *store.CheckpointStore,
	events *store.EventStore,
	projections *projection.Registry,
	sink EventSink,
	batchSize uint64,
	log *logger.Logger,
) *Syncer {
	return &Syncer{
		db:          db,
		client:      client,
		registry:    registry,
		checkpoints: checkpoints,
		events:      events,
		projections: projections,
		sink:        sink,
		batchSize:   batchSize,
		log:         log.WithComponent(common.ComponentSyncer),
	}
}

// SyncSource runs one cycle for one source: at most batchSize blocks beyond
// the checkpoint, up to the current head. A fully successful batch advances
// the checkpoint to the top of the range; any fetch or persistence failure
// leaves the watermark untouched and records the error.
func (s *Syncer) SyncSource(ctx context.Context, src Source) error {
	start := time.Now()

	cp, err := s.checkpoints.GetOrCreate(ctx, src.Name, src.Address.Hex(), src.StartBlock)
	if err != nil {
		return err
	}

	head, err := s.client.HeadBlock(ctx)
	if err != nil {
		return s.failBatch(ctx, src, fmt.Errorf("%w: %v", ErrFetch, err), "fetch")
	}

	from := uint64(cp.LastProcessedBlock + 1)
	to := min(from+s.batchSize-1, head)
	if from > to {
		s.log.Debugf("source %s is up to date at block %d", src.Name, cp.LastProcessedBlock)
		return nil
	}

	logs, err := s.client.FetchLogs(ctx, []ethcommon.Address{src.Address}, from, to)
	if err != nil {
		return s.failBatch(ctx, src, fmt.Errorf("%w: %v", ErrFetch, err), "fetch")
	}

	events := s.decodeLogs(src, logs)

	applied, err := s.persistBatch(ctx, events)
	if err != nil {
		return s.failBatch(ctx, src, fmt.Errorf("%w: %v", ErrPersist, err), "persist")
	}

	// Fan-out is best-effort and decoupled: a full queue or a slow
	// receiver never holds up the checkpoint
	for _, ev := range applied {
		s.sink.Enqueue(ev)
		EventProcessedInc(src.Name, ev.Kind)
	}

	if err := s.checkpoints.Advance(ctx, src.Name, to); err != nil {
		return err
	}

	LastProcessedBlockSet(src.Name, to)
	BatchDurationLog(src.Name, time.Since(start))
	metrics.ComponentHealthSet(common.ComponentSyncer, true)

	if len(logs) > 0 {
		s.log.Infof("source %s: processed %d logs in [%d, %d], %d new events",
			src.Name, len(logs), from, to, len(applied))
	}

	return nil
}

// decodeLogs decodes each raw log, skipping undecodable ones, and returns
// the events sorted by (block, log index) so projections apply in stream
// order.
func (s *Syncer) decodeLogs(src Source, logs []types.Log) []*chain.Event {
	events := make([]*chain.Event, 0, len(logs))

	for _, l := range logs {
		ev, err := s.registry.Decode(l)
		if err != nil {
			// Per-log, non-fatal: the rest of the batch proceeds
			SyncErrorInc("decode")
			s.log.Warnf("skipping undecodable log %s:%d from %s: %v",
				l.TxHash.Hex(), l.Index, src.Name, err)
			continue
		}
		events = append(events, ev)
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].Block != events[j].Block {
			return events[i].Block < events[j].Block
		}
		return events[i].LogIndex < events[j].LogIndex
	})

	return events
}

// persistBatch stores and applies the decoded events in one transaction and
// returns the newly applied ones. Already-stored events are skipped
// (idempotent re-ingestion); events without a registered handler are stored
// unapplied. A handler failure is logged and the event is still marked
// applied: reprocessing an event whose target state is permanently missing
// would poison every following cycle.
func (s *Syncer) persistBatch(ctx context.Context, events []*chain.Event) ([]*chain.Event, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin batch transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	applied := make([]*chain.Event, 0, len(events))

	for _, ev := range events {
		raw := store.NewRawEvent(ev)

		inserted, err := s.events.InsertIfAbsent(ctx, tx, raw)
		if err != nil {
			return nil, err
		}
		if !inserted {
			continue
		}

		handler, ok := s.projections.Lookup(ev.Kind)
		if !ok {
			s.log.Debugf("no handler for event kind %s, stored unapplied", ev.Kind)
			continue
		}

		if applyErr := handler.Apply(ctx, tx, ev); applyErr != nil {
			SyncErrorInc("projection")
			s.log.Errorf("projection of %s event %s:%d failed: %v",
				ev.Kind, ev.TxHash.Hex(), ev.LogIndex, applyErr)
		}

		if err := s.events.MarkApplied(ctx, tx, raw.ID); err != nil {
			return nil, err
		}

		applied = append(applied, ev)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit batch transaction: %w", err)
	}

	return applied, nil
}

// failBatch records the failure on the source's checkpoint and returns the
// error. The watermark stays where it was.
func (s *Syncer) failBatch(ctx context.Context, src Source, batchErr error, errType string) error {
	SyncErrorInc(errType)
	metrics.ErrorInc(common.ComponentSyncer, "error")
	metrics.ComponentHealthSet(common.ComponentSyncer, false)
	s.log.Errorf("batch for source %s failed: %v", src.Name, batchErr)

	if err := s.checkpoints.RecordError(ctx, src.Name, batchErr); err != nil {
		s.log.Errorf("failed to record batch error for source %s: %v", src.Name, err)
	}

	return batchErr
}
