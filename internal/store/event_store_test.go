package store

import (
	"context"
	"database/sql"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aureus-network/aureus-indexer/internal/logger"
)

func testRawEvent(txHash string, logIndex uint) *RawEvent {
	return &RawEvent{
		EventName:     "ProfileCreated",
		ContractName:  testSource,
		SourceAddress: ethcommon.HexToAddress(testAddress),
		BlockNumber:   100,
		TxHash:        ethcommon.HexToHash(txHash),
		LogIndex:      logIndex,
		Payload: map[string]any{
			"wallet": "0xAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAa",
			"handle": "alice",
		},
	}
}

func inTx(t *testing.T, database *sql.DB, fn func(tx *sql.Tx)) {
	t.Helper()

	tx, err := database.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	fn(tx)
	require.NoError(t, tx.Commit())
}

func TestEventInsertIfAbsent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database := setupTestDB(t)
	events := NewEventStore(database, logger.NewNopLogger())

	ev := testRawEvent("0xaa", 0)

	inTx(t, database, func(tx *sql.Tx) {
		inserted, err := events.InsertIfAbsent(ctx, tx, ev)
		require.NoError(t, err)
		assert.True(t, inserted)
		assert.NotZero(t, ev.ID)
	})

	// Same (tx_hash, log_index) again is a no-op, not an error
	dup := testRawEvent("0xaa", 0)
	inTx(t, database, func(tx *sql.Tx) {
		inserted, err := events.InsertIfAbsent(ctx, tx, dup)
		require.NoError(t, err)
		assert.False(t, inserted)
	})

	// A different log index in the same transaction is a new event
	sibling := testRawEvent("0xaa", 1)
	inTx(t, database, func(tx *sql.Tx) {
		inserted, err := events.InsertIfAbsent(ctx, tx, sibling)
		require.NoError(t, err)
		assert.True(t, inserted)
	})

	count, err := events.CountBySource(ctx, testSource)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestEventMarkApplied(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database := setupTestDB(t)
	events := NewEventStore(database, logger.NewNopLogger())

	ev := testRawEvent("0xbb", 0)
	inTx(t, database, func(tx *sql.Tx) {
		_, err := events.InsertIfAbsent(ctx, tx, ev)
		require.NoError(t, err)
		require.NoError(t, events.MarkApplied(ctx, tx, ev.ID))
	})

	stored, err := events.Get(ctx, ev.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.Applied)
	assert.Equal(t, "alice", stored.Payload["handle"])
	assert.Equal(t, ethcommon.HexToAddress(testAddress), stored.SourceAddress)
}

func TestEventListBySourceOrdering(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database := setupTestDB(t)
	events := NewEventStore(database, logger.NewNopLogger())

	// Insert out of order: (101,0), (100,1), (100,0)
	e1 := testRawEvent("0xc1", 0)
	e1.BlockNumber = 101
	e2 := testRawEvent("0xc2", 1)
	e3 := testRawEvent("0xc3", 0)

	inTx(t, database, func(tx *sql.Tx) {
		for _, ev := range []*RawEvent{e1, e2, e3} {
			_, err := events.InsertIfAbsent(ctx, tx, ev)
			require.NoError(t, err)
		}
	})

	listed, err := events.ListBySource(ctx, testSource, 10)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, e3.ID, listed[0].ID)
	assert.Equal(t, e2.ID, listed[1].ID)
	assert.Equal(t, e1.ID, listed[2].ID)
}

func TestEventStoreRollbackLeavesNothing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database := setupTestDB(t)
	events := NewEventStore(database, logger.NewNopLogger())

	tx, err := database.BeginTx(ctx, nil)
	require.NoError(t, err)

	inserted, err := events.InsertIfAbsent(ctx, tx, testRawEvent("0xdd", 0))
	require.NoError(t, err)
	assert.True(t, inserted)

	require.NoError(t, tx.Rollback())

	count, err := events.CountBySource(ctx, testSource)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
