package store

import (
	"slices"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/aureus-network/aureus-indexer/internal/chain"
)

// Checkpoint is the durable per-source sync watermark.
type Checkpoint struct {
	ID                 int64     `meddler:"id,pk" json:"-"`
	SourceID           string    `meddler:"source_id" json:"source_id"`
	SourceAddress      string    `meddler:"source_address" json:"source_address"`
	LastProcessedBlock int64     `meddler:"last_processed_block" json:"last_processed_block"`
	LastProcessedAt    time.Time `meddler:"last_processed_at" json:"last_processed_at"`
	ErrorCount         int64     `meddler:"error_count" json:"error_count"`
	LastError          *string   `meddler:"last_error" json:"last_error,omitempty"`
}

// RawEvent is a decoded contract event as persisted in raw_events.
// (tx_hash, log_index) is globally unique; re-ingestion of the same log
// never creates a second row.
type RawEvent struct {
	ID            int64             `meddler:"id,pk"`
	EventName     string            `meddler:"event_name"`
	ContractName  string            `meddler:"contract_name"`
	SourceAddress ethcommon.Address `meddler:"source_address,address"`
	BlockNumber   uint64            `meddler:"block_number"`
	TxHash        ethcommon.Hash    `meddler:"tx_hash,hash"`
	LogIndex      uint              `meddler:"log_index"`
	Payload       map[string]any    `meddler:"payload,json"`
	Applied       bool              `meddler:"applied"`
	CreatedAt     time.Time         `meddler:"created_at"`
}

// NewRawEvent builds the persistable row for a decoded chain event.
func NewRawEvent(ev *chain.Event) *RawEvent {
	return &RawEvent{
		EventName:     ev.Name,
		ContractName:  ev.Contract,
		SourceAddress: ev.Source,
		BlockNumber:   ev.Block,
		TxHash:        ev.TxHash,
		LogIndex:      ev.LogIndex,
		Payload:       ev.Args,
	}
}

// Subscription is a webhook subscription managed through the admin API.
// An empty Events list means the subscription receives every event kind.
type Subscription struct {
	ID        string    `meddler:"id" json:"id"`
	URL       string    `meddler:"url" json:"url"`
	Events    []string  `meddler:"events,json" json:"events"`
	Secret    string    `meddler:"secret" json:"-"`
	IsActive  bool      `meddler:"is_active" json:"is_active"`
	CreatedAt time.Time `meddler:"created_at" json:"created_at"`
	UpdatedAt time.Time `meddler:"updated_at" json:"updated_at"`
}

// Matches reports whether the subscription wants the given event kind.
func (s *Subscription) Matches(kind string) bool {
	if len(s.Events) == 0 {
		return true
	}
	return slices.Contains(s.Events, kind)
}

// Delivery is one webhook delivery outcome. Rows are append-only: the
// bounded transport retries inside a single delivery produce exactly one
// row recording the final result.
type Delivery struct {
	ID             string    `meddler:"id" json:"id"`
	SubscriptionID string    `meddler:"subscription_id" json:"subscription_id"`
	EventName      string    `meddler:"event_name" json:"event_name"`
	Payload        string    `meddler:"payload" json:"payload"`
	Success        bool      `meddler:"success" json:"success"`
	StatusCode     *int64    `meddler:"status_code" json:"status_code,omitempty"`
	ErrorMessage   *string   `meddler:"error_message" json:"error_message,omitempty"`
	Attempts       int64     `meddler:"attempts" json:"attempts"`
	DeliveredAt    time.Time `meddler:"delivered_at" json:"delivered_at"`
}

// Notification is an in-app notification row created by the fan-out.
type Notification struct {
	ID               string         `meddler:"id" json:"id"`
	RecipientAddress string         `meddler:"recipient_address" json:"recipient_address"`
	Type             string         `meddler:"type" json:"type"`
	Title            string         `meddler:"title" json:"title"`
	Message          string         `meddler:"message" json:"message"`
	Data             map[string]any `meddler:"data,json" json:"data"`
	IsRead           bool           `meddler:"is_read" json:"is_read"`
	CreatedAt        time.Time      `meddler:"created_at" json:"created_at"`
}

// EmailContact maps a wallet address to a mailbox. The table is maintained
// by the account backend; the indexer only reads it.
type EmailContact struct {
	ID            int64  `meddler:"id,pk"`
	WalletAddress string `meddler:"wallet_address"`
	Email         string `meddler:"email"`
}
