package syncer

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aureus-network/aureus-indexer/internal/common"
	"github.com/aureus-network/aureus-indexer/internal/logger"
)

// Scheduler runs synchronization passes at a fixed interval. Within a pass
// the sources are fanned out concurrently up to the configured limit, one
// goroutine per source, which is what structurally enforces the
// single-writer rule on each source's checkpoint. Passes never overlap: a
// tick that fires while a pass is still running is dropped.
type Scheduler struct {
	syncer      *Syncer
	sources     []Source
	interval    time.Duration
	concurrency int
	log         *logger.Logger
}

// NewScheduler creates a scheduler over the registered sources.
func NewScheduler(
	syncer *Syncer,
	sources []Source,
	interval time.Duration,
	concurrency int,
	log *logger.Logger,
) *Scheduler {
	return &Scheduler{
		syncer:      syncer,
		sources:     sources,
		interval:    interval,
		concurrency: concurrency,
		log:         log.WithComponent(common.ComponentScheduler),
	}
}

// Run executes passes until the context is cancelled. The first pass starts
// immediately. Returns nil on shutdown; per-source errors are already
// recorded on their checkpoints and never abort the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Infof("scheduler started: %d sources, interval %s, concurrency %d",
		len(s.sources), s.interval, s.concurrency)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runPass(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return nil
		case <-ticker.C:
			s.runPass(ctx)

			// Drop the tick that may have accumulated while the pass ran,
			// so a long pass is followed by a full interval of quiet
			select {
			case <-ticker.C:
			default:
			}
		}
	}
}

// runPass syncs every source once. Sources are independent streams; one
// source's failure is recorded and does not disturb the others.
func (s *Scheduler) runPass(ctx context.Context) {
	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for _, src := range s.sources {
		g.Go(func() error {
			if err := s.syncer.SyncSource(ctx, src); err != nil {
				s.log.Warnf("source %s will retry next cycle: %v", src.Name, err)
			}
			return nil
		})
	}

	_ = g.Wait()
}
