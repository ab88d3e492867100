package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aureus-network/aureus-indexer/internal/logger"
)

func TestSubscriptionLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	webhooks := NewWebhookStore(setupTestDB(t), logger.NewNopLogger())

	sub, err := webhooks.CreateSubscription(ctx,
		"https://consumer.example.com/hook", []string{"endorsement.created"}, "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, sub.ID)
	assert.True(t, sub.IsActive)

	got, err := webhooks.GetSubscription(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, sub.URL, got.URL)
	assert.Equal(t, []string{"endorsement.created"}, got.Events)
	assert.Equal(t, "s3cret", got.Secret)

	require.NoError(t, webhooks.DeactivateSubscription(ctx, sub.ID))

	active, err := webhooks.ActiveSubscriptions(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	// Deactivating an inactive subscription stays idempotent
	require.NoError(t, webhooks.DeactivateSubscription(ctx, sub.ID))
	require.ErrorIs(t, webhooks.DeactivateSubscription(ctx, "no-such-id"), ErrSubscriptionNotFound)

	all, err := webhooks.ListSubscriptions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].IsActive)
}

func TestSubscriptionMatches(t *testing.T) {
	t.Parallel()

	catchAll := &Subscription{Events: []string{}}
	assert.True(t, catchAll.Matches("endorsement.created"))
	assert.True(t, catchAll.Matches("profile.updated"))

	filtered := &Subscription{Events: []string{"endorsement.created", "claim.approved"}}
	assert.True(t, filtered.Matches("claim.approved"))
	assert.False(t, filtered.Matches("profile.created"))
}

func TestDeliveryAuditTrail(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	webhooks := NewWebhookStore(setupTestDB(t), logger.NewNopLogger())

	sub, err := webhooks.CreateSubscription(ctx, "https://consumer.example.com/hook", nil, "")
	require.NoError(t, err)

	status := int64(200)
	require.NoError(t, webhooks.InsertDelivery(ctx, &Delivery{
		SubscriptionID: sub.ID,
		EventName:      "endorsement.created",
		Payload:        `{"event":"endorsement.created"}`,
		Success:        true,
		StatusCode:     &status,
		Attempts:       1,
	}))

	errMsg := "connection refused"
	require.NoError(t, webhooks.InsertDelivery(ctx, &Delivery{
		SubscriptionID: sub.ID,
		EventName:      "claim.approved",
		Payload:        `{"event":"claim.approved"}`,
		Success:        false,
		ErrorMessage:   &errMsg,
		Attempts:       3,
	}))

	deliveries, err := webhooks.ListDeliveries(ctx, sub.ID, 10)
	require.NoError(t, err)
	require.Len(t, deliveries, 2)

	var successes, failures int
	for _, d := range deliveries {
		if d.Success {
			successes++
			require.NotNil(t, d.StatusCode)
			assert.Equal(t, int64(200), *d.StatusCode)
		} else {
			failures++
			require.NotNil(t, d.ErrorMessage)
			assert.Equal(t, int64(3), d.Attempts)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, failures)
}
