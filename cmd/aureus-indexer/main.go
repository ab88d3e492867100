package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/aureus-network/aureus-indexer/internal/api"
	"github.com/aureus-network/aureus-indexer/internal/chain"
	"github.com/aureus-network/aureus-indexer/internal/common"
	"github.com/aureus-network/aureus-indexer/internal/config"
	"github.com/aureus-network/aureus-indexer/internal/db"
	"github.com/aureus-network/aureus-indexer/internal/logger"
	"github.com/aureus-network/aureus-indexer/internal/metrics"
	"github.com/aureus-network/aureus-indexer/internal/migrations"
	"github.com/aureus-network/aureus-indexer/internal/notify"
	"github.com/aureus-network/aureus-indexer/internal/projection"
	"github.com/aureus-network/aureus-indexer/internal/rpc"
	"github.com/aureus-network/aureus-indexer/internal/store"
	"github.com/aureus-network/aureus-indexer/internal/syncer"
)

const version = "1.0.0"

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "aureus-indexer",
	Short: "Aureus indexer - chain event indexing and notification service",
	Long: `The Aureus indexer ingests events emitted by the AUREUS on-chain contracts,
persists them idempotently, projects them into queryable read models and fans
out webhook, email and in-app notifications.`,
	Version: version,
	RunE:    runIndexer,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the configuration JSON schema",
	Long:  `Generate a JSON schema for the configuration file, usable for editor validation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reflector := jsonschema.Reflector{ExpandedStruct: true}
		schema := reflector.Reflect(&config.Config{})

		encoded, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode schema: %w", err)
		}

		fmt.Println(string(encoded))
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")
	rootCmd.AddCommand(schemaCmd)
}

// loggingConfig avoids handing a typed-nil *config.LoggingConfig to the
// logger, which would defeat its nil check.
func loggingConfig(cfg *config.Config) logger.LoggingConfig {
	if cfg.Logging == nil {
		return nil
	}
	return cfg.Logging
}

func runIndexer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	logCfg := loggingConfig(cfg)
	log := logger.NewComponentLoggerFromConfig(common.ComponentScheduler, logCfg)

	log.Infof("starting aureus-indexer v%s", version)

	// Metrics server
	var metricsServer *metrics.Server
	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics,
			logger.NewComponentLoggerFromConfig(common.ComponentMetrics, logCfg))
		if err := metricsServer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer func() {
			if err := metricsServer.Stop(ctx); err != nil {
				log.Warnf("failed to stop metrics server: %v", err)
			}
		}()
	}

	// Database
	log.Info("running database migrations")
	if err := migrations.RunMigrations(cfg.DB); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	database, err := db.NewSQLiteDBFromConfig(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	dbMaintenance := db.NewMaintenanceCoordinator(
		cfg.DB.Path,
		database,
		cfg.DB.Maintenance,
		logger.NewComponentLoggerFromConfig(common.ComponentMaintenance, logCfg),
	)
	if err := dbMaintenance.Start(ctx); err != nil {
		return fmt.Errorf("failed to start database maintenance: %w", err)
	}
	defer func() {
		if err := dbMaintenance.Stop(); err != nil {
			log.Warnf("failed to stop database maintenance: %v", err)
		}
	}()

	// Chain access
	log.Infof("connecting to %s", cfg.Chain.RPCURL)
	client, err := rpc.NewClient(ctx, cfg.Chain,
		logger.NewComponentLoggerFromConfig(common.ComponentRPC, logCfg))
	if err != nil {
		return fmt.Errorf("failed to create RPC client: %w", err)
	}
	defer client.Close()

	registry, err := chain.NewRegistryFromConfig(cfg.Contracts,
		logger.NewComponentLoggerFromConfig(common.ComponentDecoder, logCfg))
	if err != nil {
		return fmt.Errorf("failed to build event registry: %w", err)
	}

	// Stores
	checkpoints := store.NewCheckpointStore(database,
		logger.NewComponentLoggerFromConfig(common.ComponentCheckpointStore, logCfg))
	events := store.NewEventStore(database,
		logger.NewComponentLoggerFromConfig(common.ComponentEventStore, logCfg))
	webhooks := store.NewWebhookStore(database,
		logger.NewComponentLoggerFromConfig(common.ComponentWebhookSender, logCfg))
	notifications := store.NewNotificationStore(database,
		logger.NewComponentLoggerFromConfig(common.ComponentDispatcher, logCfg))

	// Notification fan-out
	renderer := notify.NewRenderer(store.NewProjectionStore(database))
	webhookSender := notify.NewWebhookSender(cfg.Notify.Webhook, webhooks,
		logger.NewComponentLoggerFromConfig(common.ComponentWebhookSender, logCfg))
	emailSender, err := notify.NewEmailSender(cfg.Notify.Email, renderer, notifications,
		logger.NewComponentLoggerFromConfig(common.ComponentEmailSender, logCfg))
	if err != nil {
		return fmt.Errorf("failed to create email sender: %w", err)
	}
	inapp := notify.NewInAppNotifier(renderer, notifications,
		logger.NewComponentLoggerFromConfig(common.ComponentDispatcher, logCfg))

	dispatcher := notify.NewDispatcher(cfg.Notify.QueueSize, webhookSender, emailSender, inapp,
		logger.NewComponentLoggerFromConfig(common.ComponentDispatcher, logCfg))
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	// Synchronization
	projections := projection.NewDefaultRegistry(
		logger.NewComponentLoggerFromConfig(common.ComponentProjection, logCfg))

	sync := syncer.New(
		database,
		client,
		registry,
		checkpoints,
		events,
		projections,
		dispatcher,
		cfg.Sync.BatchSize,
		logger.NewComponentLoggerFromConfig(common.ComponentSyncer, logCfg),
	)

	sources := make([]syncer.Source, 0, len(cfg.Contracts))
	for _, contract := range cfg.Contracts {
		sources = append(sources, syncer.Source{
			Name:       contract.Name,
			Address:    ethcommon.HexToAddress(contract.Address),
			StartBlock: contract.StartBlock,
		})
	}

	scheduler := syncer.NewScheduler(
		sync,
		sources,
		cfg.Sync.PollInterval.Duration,
		cfg.Sync.Concurrency,
		logger.NewComponentLoggerFromConfig(common.ComponentScheduler, logCfg),
	)

	// Admin API
	if cfg.API != nil && cfg.API.Enabled {
		apiLog := logger.NewComponentLoggerFromConfig(common.ComponentAPI, logCfg)
		apiServer := api.NewServer(cfg.API, api.NewHandler(checkpoints, events, webhooks, apiLog), apiLog)
		go func() {
			if err := apiServer.Start(ctx); err != nil {
				log.Errorf("API server error: %v", err)
			}
		}()
	}

	log.Infof("indexing %d contract source(s)", len(sources))

	if err := scheduler.Run(ctx); err != nil {
		return fmt.Errorf("scheduler failed: %w", err)
	}

	log.Info("aureus-indexer stopped")
	return nil
}
