package notify

import (
	"context"

	"github.com/aureus-network/aureus-indexer/internal/chain"
	"github.com/aureus-network/aureus-indexer/internal/common"
	"github.com/aureus-network/aureus-indexer/internal/logger"
	"github.com/aureus-network/aureus-indexer/internal/store"
)

// InAppNotifier creates notification rows for the recipients of specific
// event kinds. Events with no rendering are silently ignored.
type InAppNotifier struct {
	renderer      *Renderer
	notifications *store.NotificationStore
	log           *logger.Logger
}

// NewInAppNotifier creates an in-app notifier.
func NewInAppNotifier(
	renderer *Renderer,
	notifications *store.NotificationStore,
	log *logger.Logger,
) *InAppNotifier {
	return &InAppNotifier{
		renderer:      renderer,
		notifications: notifications,
		log:           log.WithComponent(common.ComponentInAppNotifier),
	}
}

// Notify inserts the in-app notification for the event's recipient, if any.
func (n *InAppNotifier) Notify(ctx context.Context, ev *chain.Event) error {
	content, ok, err := n.renderer.ContentFor(ctx, ev)
	if err != nil || !ok {
		return err
	}

	err = n.notifications.Insert(ctx, &store.Notification{
		RecipientAddress: content.Recipient,
		Type:             ev.Kind,
		Title:            content.Title,
		Message:          content.Message,
		Data:             ev.Args,
	})
	if err != nil {
		return err
	}

	DeliveryInc("inapp", "success")

	return nil
}
