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

// NotificationStore creates in-app notification rows and resolves wallet
// addresses to email contacts. Read/unread handling belongs to the account
// backend and is not implemented here.
type NotificationStore struct {
	db  *sql.DB
	log *logger.Logger
}

// NewNotificationStore creates a notification store backed by the given
// database.
func NewNotificationStore(db *sql.DB, log *logger.Logger) *NotificationStore {
	return &NotificationStore{
		db:  db,
		log: log.WithComponent("notification-store"),
	}
}

// Insert stores one in-app notification.
func (s *NotificationStore) Insert(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.Data == nil {
		n.Data = map[string]any{}
	}

	if err := meddler.Insert(s.db, "notifications", n); err != nil {
		return fmt.Errorf("failed to insert notification for %s: %w", n.RecipientAddress, err)
	}

	return nil
}

// ListByRecipient returns the most recent notifications for a wallet.
func (s *NotificationStore) ListByRecipient(
	ctx context.Context,
	recipientAddress string,
	limit int,
) ([]*Notification, error) {
	var notifications []*Notification
	err := meddler.QueryAll(s.db, &notifications,
		`SELECT * FROM notifications
		 WHERE recipient_address = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, recipientAddress, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for %s: %w", recipientAddress, err)
	}

	return notifications, nil
}

// EmailForWallet resolves a wallet address to its registered mailbox.
// An empty string means no contact is registered; email for that recipient
// is silently skipped.
func (s *NotificationStore) EmailForWallet(ctx context.Context, walletAddress string) (string, error) {
	var email string
	err := s.db.QueryRowContext(ctx,
		`SELECT email FROM email_contacts WHERE wallet_address = ?`, walletAddress).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve email contact for %s: %w", walletAddress, err)
	}

	return email, nil
}
