package common

const (
	ComponentScheduler       = "scheduler"
	ComponentSyncer          = "syncer"
	ComponentCheckpointStore = "checkpoint-store"
	ComponentEventStore      = "event-store"
	ComponentDecoder         = "decoder"
	ComponentRPC             = "rpc-client"
	ComponentDispatcher      = "dispatcher"
	ComponentWebhookSender   = "webhook-sender"
	ComponentEmailSender     = "email-sender"
	ComponentInAppNotifier   = "inapp-notifier"
	ComponentProjection      = "projection"
	ComponentMaintenance     = "maintenance"
	ComponentAPI             = "api"
	ComponentMetrics         = "metrics"
)

var AllComponents = map[string]struct{}{
	ComponentScheduler:       {},
	ComponentSyncer:          {},
	ComponentCheckpointStore: {},
	ComponentEventStore:      {},
	ComponentDecoder:         {},
	ComponentRPC:             {},
	ComponentDispatcher:      {},
	ComponentWebhookSender:   {},
	ComponentEmailSender:     {},
	ComponentInAppNotifier:   {},
	ComponentProjection:      {},
	ComponentMaintenance:     {},
	ComponentAPI:             {},
	ComponentMetrics:         {},
}
