package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aureus-network/aureus-indexer/internal/logger"
)

func TestNotificationInsertAndList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	notifications := NewNotificationStore(setupTestDB(t), logger.NewNopLogger())

	recipient := "0xAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAa"

	require.NoError(t, notifications.Insert(ctx, &Notification{
		RecipientAddress: recipient,
		Type:             "endorsement.created",
		Title:            "New endorsement",
		Message:          "bob endorsed your skill",
		Data:             map[string]any{"endorsementId": "7"},
	}))
	require.NoError(t, notifications.Insert(ctx, &Notification{
		RecipientAddress: recipient,
		Type:             "claim.approved",
		Title:            "Claim approved",
		Message:          "your bounty claim was approved",
	}))

	listed, err := notifications.ListByRecipient(ctx, recipient, 10)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	for _, n := range listed {
		assert.NotEmpty(t, n.ID)
		assert.False(t, n.IsRead)
		assert.False(t, n.CreatedAt.IsZero())
	}

	other, err := notifications.ListByRecipient(ctx, "0x0000000000000000000000000000000000000000", 10)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestEmailForWallet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database := setupTestDB(t)
	notifications := NewNotificationStore(database, logger.NewNopLogger())

	wallet := "0xBbBbBbBbBbBbBbBbBbBbBbBbBbBbBbBbBbBbBbBb"
	_, err := database.Exec(
		`INSERT INTO email_contacts (wallet_address, email) VALUES (?, ?)`,
		wallet, "alice@example.com")
	require.NoError(t, err)

	email, err := notifications.EmailForWallet(ctx, wallet)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email)

	// Absent contact is not an error, just an empty mailbox
	email, err = notifications.EmailForWallet(ctx, "0x0000000000000000000000000000000000000000")
	require.NoError(t, err)
	assert.Empty(t, email)
}
