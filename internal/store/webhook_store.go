package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/russross/meddler"

	"github.com/aureus-network/aureus-indexer/internal/logger"
)

// ErrSubscriptionNotFound is returned when a subscription id does not exist.
var ErrSubscriptionNotFound = errors.New("webhook subscription not found")

// WebhookStore manages webhook subscriptions and their append-only delivery
// audit trail.
type WebhookStore struct {
	db  *sql.DB
	log *logger.Logger
}

// NewWebhookStore creates a webhook store backed by the given database.
func NewWebhookStore(db *sql.DB, log *logger.Logger) *WebhookStore {
	return &WebhookStore{
		db:  db,
		log: log.WithComponent("webhook-store"),
	}
}

// CreateSubscription stores a new active subscription and returns it with
// its generated id.
func (s *WebhookStore) CreateSubscription(
	ctx context.Context,
	url string,
	events []string,
	secret string,
) (*Subscription, error) {
	if events == nil {
		events = []string{}
	}

	now := time.Now().UTC()
	sub := &Subscription{
		ID:        uuid.NewString(),
		URL:       url,
		Events:    events,
		Secret:    secret,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := meddler.Insert(s.db, "webhook_subscriptions", sub); err != nil {
		return nil, fmt.Errorf("failed to create webhook subscription: %w", err)
	}

	s.log.Infof("created webhook subscription %s for %s", sub.ID, sub.URL)

	return sub, nil
}

// GetSubscription returns the subscription with the given id.
func (s *WebhookStore) GetSubscription(ctx context.Context, id string) (*Subscription, error) {
	sub := new(Subscription)
	err := meddler.QueryRow(s.db, sub,
		`SELECT * FROM webhook_subscriptions WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query webhook subscription %s: %w", id, err)
	}

	return sub, nil
}

// ListSubscriptions returns all subscriptions, newest first.
func (s *WebhookStore) ListSubscriptions(ctx context.Context) ([]*Subscription, error) {
	var subs []*Subscription
	err := meddler.QueryAll(s.db, &subs,
		`SELECT * FROM webhook_subscriptions ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhook subscriptions: %w", err)
	}

	return subs, nil
}

// ActiveSubscriptions returns every active subscription. Event-kind
// filtering happens in the sender, via Subscription.Matches.
func (s *WebhookStore) ActiveSubscriptions(ctx context.Context) ([]*Subscription, error) {
	var subs []*Subscription
	err := meddler.QueryAll(s.db, &subs,
		`SELECT * FROM webhook_subscriptions WHERE is_active = 1 ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active webhook subscriptions: %w", err)
	}

	return subs, nil
}

// DeactivateSubscription marks a subscription inactive. Deactivating an
// already-inactive subscription is a no-op, so the admin DELETE endpoint is
// idempotent.
func (s *WebhookStore) DeactivateSubscription(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE webhook_subscriptions SET is_active = 0, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate webhook subscription %s: %w", id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read deactivate result: %w", err)
	}
	if rows == 0 {
		return ErrSubscriptionNotFound
	}

	return nil
}

// InsertDelivery appends one delivery outcome to the audit trail. Rows are
// never updated afterwards.
func (s *WebhookStore) InsertDelivery(ctx context.Context, d *Delivery) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.DeliveredAt.IsZero() {
		d.DeliveredAt = time.Now().UTC()
	}

	if err := meddler.Insert(s.db, "webhook_deliveries", d); err != nil {
		return fmt.Errorf("failed to insert webhook delivery: %w", err)
	}

	return nil
}

// ListDeliveries returns the most recent delivery rows for a subscription.
func (s *WebhookStore) ListDeliveries(ctx context.Context, subscriptionID string, limit int) ([]*Delivery, error) {
	var deliveries []*Delivery
	err := meddler.QueryAll(s.db, &deliveries,
		`SELECT * FROM webhook_deliveries
		 WHERE subscription_id = ?
		 ORDER BY delivered_at DESC, id DESC
		 LIMIT ?`, subscriptionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliveries for subscription %s: %w", subscriptionID, err)
	}

	return deliveries, nil
}
