package notify

import (
	"context"
	"sync"

	"github.com/aureus-network/aureus-indexer/internal/chain"
	"github.com/aureus-network/aureus-indexer/internal/common"
	"github.com/aureus-network/aureus-indexer/internal/logger"
)

// Dispatcher decouples notification fan-out from the indexing critical
// path. The synchronizer enqueues applied events without blocking; a single
// worker goroutine drains the queue and runs the in-app, webhook and email
// channels independently, so no channel's failure reaches another
// channel or the checkpoint logic. When the queue is full the event is
// dropped with a warning: delivery is best-effort by design.
type Dispatcher struct {
	queue    chan *chain.Event
	webhooks *WebhookSender
	email    *EmailSender
	inapp    *InAppNotifier
	log      *logger.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
}

// NewDispatcher creates a dispatcher with a bounded queue.
func NewDispatcher(
	queueSize int,
	webhooks *WebhookSender,
	email *EmailSender,
	inapp *InAppNotifier,
	log *logger.Logger,
) *Dispatcher {
	return &Dispatcher{
		queue:    make(chan *chain.Event, queueSize),
		webhooks: webhooks,
		email:    email,
		inapp:    inapp,
		log:      log.WithComponent(common.ComponentDispatcher),
		done:     make(chan struct{}),
	}
}

// Start launches the worker goroutine. The context bounds in-flight
// deliveries; enqueued events still in the queue at shutdown are drained
// (their deliveries fail fast once the context is cancelled).
func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		go func() {
			defer close(d.done)

			for ev := range d.queue {
				QueueDepthSet(len(d.queue))
				d.dispatch(ctx, ev)
			}
		}()
	})
}

// Stop closes the queue and waits for the worker to finish draining it.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.queue)
		<-d.done
	})
}

// Enqueue hands an event to the dispatcher without blocking. It reports
// false when the queue is full and the event was dropped.
func (d *Dispatcher) Enqueue(ev *chain.Event) bool {
	select {
	case d.queue <- ev:
		QueueDepthSet(len(d.queue))
		return true
	default:
		QueueDroppedInc()
		d.log.Warnf("dispatch queue full, dropping %s event %s:%d",
			ev.Kind, ev.TxHash.Hex(), ev.LogIndex)
		return false
	}
}

// dispatch runs the three channels for one event. Failures are logged and
// isolated per channel.
func (d *Dispatcher) dispatch(ctx context.Context, ev *chain.Event) {
	if err := d.inapp.Notify(ctx, ev); err != nil {
		d.log.Errorf("in-app notification for %s event %s failed: %v",
			ev.Kind, ev.TxHash.Hex(), err)
	}

	if err := d.webhooks.Deliver(ctx, ev); err != nil {
		d.log.Errorf("webhook fan-out for %s event %s failed: %v",
			ev.Kind, ev.TxHash.Hex(), err)
	}

	if err := d.email.Send(ctx, ev); err != nil {
		d.log.Errorf("email dispatch for %s event %s failed: %v",
			ev.Kind, ev.TxHash.Hex(), err)
	}
}
