package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aureus-network/aureus-indexer/internal/chain"
	"github.com/aureus-network/aureus-indexer/internal/common"
	"github.com/aureus-network/aureus-indexer/internal/config"
	"github.com/aureus-network/aureus-indexer/internal/db"
	"github.com/aureus-network/aureus-indexer/internal/logger"
	"github.com/aureus-network/aureus-indexer/internal/migrations"
	"github.com/aureus-network/aureus-indexer/internal/store"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	cfg := config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "notify_test.db")}
	cfg.ApplyDefaults()

	database, err := db.NewSQLiteDBFromConfig(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, migrations.RunMigrationsDB(logger.NewNopLogger(), database))

	return database
}

func testWebhookConfig() config.WebhookConfig {
	return config.WebhookConfig{
		Timeout:      common.NewDuration(2 * time.Second),
		MaxAttempts:  2,
		RetryWaitMin: common.NewDuration(time.Millisecond),
		RetryWaitMax: common.NewDuration(5 * time.Millisecond),
	}
}

func endorsementEvent() *chain.Event {
	return &chain.Event{
		Contract: "EndorsementRegistry",
		Name:     "EndorsementCreated",
		Kind:     "endorsement.created",
		Source:   ethcommon.HexToAddress("0x2222222222222222222222222222222222222222"),
		Block:    200,
		TxHash:   ethcommon.HexToHash("0xe1"),
		LogIndex: 0,
		Args: map[string]any{
			"endorsementId": "7",
			"endorser":      "0xBBbbbBbBbbBbbbbBbbBBbbBBBbbBbbbbBbbBBbBB",
			"endorsee":      "0xAaAAAAaaaAAAAAAaAaaaAAaAAAaaAAaaaaAaAaAa",
			"skillId":       "1",
			"message":       "great collaborator",
		},
	}
}

func TestWebhookDeliverySignsAndLogs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database := setupTestDB(t)
	webhooks := store.NewWebhookStore(database, logger.NewNopLogger())

	var gotBody []byte
	var gotSignature, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSignature = r.Header.Get("X-Signature")
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sub, err := webhooks.CreateSubscription(ctx, server.URL, []string{"endorsement.created"}, "s3cret")
	require.NoError(t, err)

	sender := NewWebhookSender(testWebhookConfig(), webhooks, logger.NewNopLogger())
	require.NoError(t, sender.Deliver(ctx, endorsementEvent()))

	// Envelope shape
	var envelope Envelope
	require.NoError(t, json.Unmarshal(gotBody, &envelope))
	assert.Equal(t, "endorsement.created", envelope.Event)
	assert.Equal(t, "7", envelope.Data["endorsementId"])
	assert.WithinDuration(t, time.Now(), envelope.Timestamp, time.Minute)

	// Signature is the HMAC of the exact body
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, Sign("s3cret", gotBody), gotSignature)

	// One audit row, successful
	deliveries, err := webhooks.ListDeliveries(ctx, sub.ID, 10)
	require.NoError(t, err)
	require.Len(t, deliveries, 1)
	assert.True(t, deliveries[0].Success)
	require.NotNil(t, deliveries[0].StatusCode)
	assert.Equal(t, int64(http.StatusOK), *deliveries[0].StatusCode)
	assert.Equal(t, int64(1), deliveries[0].Attempts)
}

func TestWebhookDeliveryFilters(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database := setupTestDB(t)
	webhooks := store.NewWebhookStore(database, logger.NewNopLogger())

	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	// Filtered to an unrelated kind: never called, no audit row
	sub, err := webhooks.CreateSubscription(ctx, server.URL, []string{"profile.created"}, "")
	require.NoError(t, err)

	sender := NewWebhookSender(testWebhookConfig(), webhooks, logger.NewNopLogger())
	require.NoError(t, sender.Deliver(ctx, endorsementEvent()))

	assert.Zero(t, calls)

	deliveries, err := webhooks.ListDeliveries(ctx, sub.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, deliveries)
}

func TestWebhookDeliveryRetriesAndRecordsFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database := setupTestDB(t)
	webhooks := store.NewWebhookStore(database, logger.NewNopLogger())

	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	sub, err := webhooks.CreateSubscription(ctx, server.URL, nil, "")
	require.NoError(t, err)

	sender := NewWebhookSender(testWebhookConfig(), webhooks, logger.NewNopLogger())
	require.NoError(t, sender.Deliver(ctx, endorsementEvent()))

	// MaxAttempts bounds the transport retries
	assert.Equal(t, 2, calls)

	deliveries, err := webhooks.ListDeliveries(ctx, sub.ID, 10)
	require.NoError(t, err)
	require.Len(t, deliveries, 1)
	assert.False(t, deliveries[0].Success)
	assert.Equal(t, int64(2), deliveries[0].Attempts)
	require.NotNil(t, deliveries[0].ErrorMessage)
}

func TestWebhookDeliveryUnreachableReceiver(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database := setupTestDB(t)
	webhooks := store.NewWebhookStore(database, logger.NewNopLogger())

	// A closed port: connection refused on every attempt
	sub, err := webhooks.CreateSubscription(ctx, "http://127.0.0.1:1", nil, "")
	require.NoError(t, err)

	sender := NewWebhookSender(testWebhookConfig(), webhooks, logger.NewNopLogger())
	require.NoError(t, sender.Deliver(ctx, endorsementEvent()))

	deliveries, err := webhooks.ListDeliveries(ctx, sub.ID, 10)
	require.NoError(t, err)
	require.Len(t, deliveries, 1)
	assert.False(t, deliveries[0].Success)
	assert.Nil(t, deliveries[0].StatusCode)
	require.NotNil(t, deliveries[0].ErrorMessage)
}

func TestSign(t *testing.T) {
	t.Parallel()

	// Stable vector so receiver implementations can verify against it
	assert.Equal(t,
		"6147d659a4d0af1524442a3462a24f61e73c58494803b17e072ddfbc76bb7356",
		Sign("secret", []byte(`{"event":"x"}`)))

	assert.NotEqual(t, Sign("a", []byte("body")), Sign("b", []byte("body")))
}
