package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/aureus-network/aureus-indexer/internal/common"
	"github.com/aureus-network/aureus-indexer/internal/logger"
)

// Config represents the complete configuration for the AUREUS indexer.
type Config struct {
	// Chain contains the chain RPC configuration
	Chain ChainConfig `yaml:"chain" json:"chain" toml:"chain"`

	// Sync contains the synchronization loop configuration
	Sync SyncConfig `yaml:"sync" json:"sync" toml:"sync"`

	// DB contains the database configuration
	DB DatabaseConfig `yaml:"db" json:"db" toml:"db"`

	// Contracts contains the monitored contracts and their decoding schemas
	Contracts []ContractConfig `yaml:"contracts" json:"contracts" toml:"contracts"`

	// Notify contains the notification fan-out configuration
	Notify NotifyConfig `yaml:"notify" json:"notify" toml:"notify"`

	// API contains the admin API configuration
	API *APIConfig `yaml:"api,omitempty" json:"api,omitempty" toml:"api,omitempty"`

	// Metrics contains Prometheus metrics configuration
	Metrics *MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty" toml:"metrics,omitempty"`

	// Logging contains logging configuration
	Logging *LoggingConfig `yaml:"logging,omitempty" json:"logging,omitempty" toml:"logging,omitempty"`
}

// ChainConfig represents the connection to the chain log source.
type ChainConfig struct {
	// RPCURL is the Ethereum RPC endpoint URL
	RPCURL string `yaml:"rpc_url" json:"rpc_url" toml:"rpc_url"`

	// Finality selects the head used as the fetch upper bound:
	// "finalized", "safe", or "latest"
	Finality string `yaml:"finality" json:"finality" toml:"finality"`

	// Retry contains RPC retry configuration with exponential backoff
	Retry *RetryConfig `yaml:"retry,omitempty" json:"retry,omitempty" toml:"retry,omitempty"`
}

// ApplyDefaults sets default values for optional chain configuration fields.
func (c *ChainConfig) ApplyDefaults() {
	if c.Finality == "" {
		c.Finality = "finalized"
	}

	if c.Retry != nil {
		c.Retry.ApplyDefaults()
	}
}

// SyncConfig represents the batch synchronization configuration.
type SyncConfig struct {
	// BatchSize is the maximum block range width processed per source per cycle
	BatchSize uint64 `yaml:"batch_size" json:"batch_size" toml:"batch_size"`

	// PollInterval is the scheduler tick interval
	PollInterval common.Duration `yaml:"poll_interval" json:"poll_interval" toml:"poll_interval"`

	// Concurrency is the maximum number of sources synced concurrently per pass
	Concurrency int `yaml:"concurrency" json:"concurrency" toml:"concurrency"`
}

// ApplyDefaults sets default values for optional sync configuration fields.
func (s *SyncConfig) ApplyDefaults() {
	if s.BatchSize == 0 {
		s.BatchSize = 1000
	}
	if s.PollInterval.Duration == 0 {
		s.PollInterval = common.NewDuration(15 * time.Second) //nolint:mnd
	}
	if s.Concurrency == 0 {
		s.Concurrency = 4
	}
}

// RetryConfig represents RPC retry configuration with exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial request)
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts" toml:"max_attempts"`

	// InitialBackoff is the initial backoff duration before first retry
	InitialBackoff common.Duration `yaml:"initial_backoff" json:"initial_backoff" toml:"initial_backoff"`

	// MaxBackoff is the maximum backoff duration
	MaxBackoff common.Duration `yaml:"max_backoff" json:"max_backoff" toml:"max_backoff"`

	// BackoffMultiplier is the multiplier for exponential backoff
	BackoffMultiplier float64 `yaml:"backoff_multiplier" json:"backoff_multiplier" toml:"backoff_multiplier"`
}

// ApplyDefaults sets default values for retry configuration.
func (r *RetryConfig) ApplyDefaults() {
	if r.MaxAttempts == 0 {
		r.MaxAttempts = 5
	}
	if r.InitialBackoff.Duration == 0 {
		r.InitialBackoff = common.NewDuration(1 * time.Second)
	}
	if r.MaxBackoff.Duration == 0 {
		r.MaxBackoff = common.NewDuration(30 * time.Second) //nolint:mnd
	}
	if r.BackoffMultiplier == 0 {
		r.BackoffMultiplier = 2.0
	}
}

// DatabaseConfig represents database configuration.
type DatabaseConfig struct {
	// Path is the file path to the SQLite database
	Path string `yaml:"path" json:"path" toml:"path"`

	// JournalMode sets the SQLite journal mode (e.g., "WAL", "DELETE")
	// WAL mode is recommended for better concurrency
	JournalMode string `yaml:"journal_mode" json:"journal_mode" toml:"journal_mode"`

	// Synchronous sets the synchronization level ("FULL", "NORMAL", "OFF")
	Synchronous string `yaml:"synchronous" json:"synchronous" toml:"synchronous"`

	// BusyTimeout is the time in milliseconds to wait when the database is locked
	BusyTimeout int `yaml:"busy_timeout" json:"busy_timeout" toml:"busy_timeout"`

	// CacheSize is the size of the page cache (negative = KB, positive = pages)
	CacheSize int `yaml:"cache_size" json:"cache_size" toml:"cache_size"`

	// MaxOpenConnections is the maximum number of open database connections
	MaxOpenConnections int `yaml:"max_open_connections" json:"max_open_connections" toml:"max_open_connections"`

	// MaxIdleConnections is the maximum number of idle connections in the pool
	MaxIdleConnections int `yaml:"max_idle_connections" json:"max_idle_connections" toml:"max_idle_connections"`

	// EnableForeignKeys enables foreign key constraint enforcement
	EnableForeignKeys bool `yaml:"enable_foreign_keys" json:"enable_foreign_keys" toml:"enable_foreign_keys"`

	// Maintenance contains optional database maintenance settings
	Maintenance *MaintenanceConfig `yaml:"maintenance,omitempty" json:"maintenance,omitempty" toml:"maintenance,omitempty"`
}

// ApplyDefaults sets default values for optional database configuration fields.
func (d *DatabaseConfig) ApplyDefaults() {
	if d.JournalMode == "" {
		d.JournalMode = "WAL"
	}
	if d.Synchronous == "" {
		d.Synchronous = "NORMAL"
	}
	if d.BusyTimeout == 0 {
		d.BusyTimeout = 5000
	}
	if d.CacheSize == 0 {
		d.CacheSize = 10000
	}
	if d.MaxOpenConnections == 0 {
		d.MaxOpenConnections = 25
	}
	if d.MaxIdleConnections == 0 {
		d.MaxIdleConnections = 5
	}

	if d.Maintenance != nil {
		d.Maintenance.ApplyDefaults()
	}
}

// MaintenanceConfig configures database maintenance behavior.
type MaintenanceConfig struct {
	// Enabled controls whether background maintenance runs
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// CheckInterval is how often to run maintenance (e.g., "30m", "1h")
	CheckInterval common.Duration `yaml:"check_interval" json:"check_interval" toml:"check_interval"`

	// VacuumOnStartup runs maintenance immediately on startup
	VacuumOnStartup bool `yaml:"vacuum_on_startup" json:"vacuum_on_startup" toml:"vacuum_on_startup"`

	// WALCheckpointMode controls the WAL checkpoint aggressiveness
	// Options: PASSIVE, FULL, RESTART, TRUNCATE
	WALCheckpointMode string `yaml:"wal_checkpoint_mode" json:"wal_checkpoint_mode" toml:"wal_checkpoint_mode"`
}

// ApplyDefaults sets default values for optional maintenance configuration fields.
func (m *MaintenanceConfig) ApplyDefaults() {
	if m.CheckInterval.Duration == 0 {
		m.CheckInterval = common.NewDuration(30 * time.Minute) //nolint:mnd
	}
	if m.WALCheckpointMode == "" {
		m.WALCheckpointMode = "TRUNCATE"
	}
}

// Validate checks if the maintenance configuration is valid.
func (m *MaintenanceConfig) Validate() error {
	if m.WALCheckpointMode != "" {
		validModes := []string{"PASSIVE", "FULL", "RESTART", "TRUNCATE"}
		if !slices.Contains(validModes, m.WALCheckpointMode) {
			return fmt.Errorf("wal_checkpoint_mode: must be one of: PASSIVE, FULL, RESTART, TRUNCATE")
		}
	}

	return nil
}

// ContractConfig represents a monitored contract and its decoding schema.
type ContractConfig struct {
	// Name is a unique identifier for this contract, used as the checkpoint
	// source id
	Name string `yaml:"name" json:"name" toml:"name"`

	// Address is the contract address to monitor
	Address string `yaml:"address" json:"address" toml:"address"`

	// StartBlock is the block number to start indexing from on first sync
	StartBlock uint64 `yaml:"start_block" json:"start_block" toml:"start_block"`

	// ABI is the inline contract ABI JSON
	ABI string `yaml:"abi,omitempty" json:"abi,omitempty" toml:"abi,omitempty"`

	// ABIFile is a path to an ABI JSON file, or a compiler artifact
	// containing an "abi" key
	ABIFile string `yaml:"abi_file,omitempty" json:"abi_file,omitempty" toml:"abi_file,omitempty"`
}

// NotifyConfig represents the notification fan-out configuration.
type NotifyConfig struct {
	// QueueSize is the dispatch queue capacity; events beyond it are dropped
	QueueSize int `yaml:"queue_size" json:"queue_size" toml:"queue_size"`

	// Webhook contains webhook delivery configuration
	Webhook WebhookConfig `yaml:"webhook" json:"webhook" toml:"webhook"`

	// Email contains SMTP email delivery configuration
	Email *EmailConfig `yaml:"email,omitempty" json:"email,omitempty" toml:"email,omitempty"`
}

// ApplyDefaults sets default values for optional notify configuration fields.
func (n *NotifyConfig) ApplyDefaults() {
	if n.QueueSize == 0 {
		n.QueueSize = 256
	}

	n.Webhook.ApplyDefaults()

	if n.Email != nil {
		n.Email.ApplyDefaults()
	}
}

// WebhookConfig represents webhook delivery configuration.
type WebhookConfig struct {
	// Timeout is the per-request HTTP timeout
	Timeout common.Duration `yaml:"timeout" json:"timeout" toml:"timeout"`

	// MaxAttempts is the delivery attempt budget per subscription per event,
	// including the initial request
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts" toml:"max_attempts"`

	// RetryWaitMin is the minimum wait between delivery attempts
	RetryWaitMin common.Duration `yaml:"retry_wait_min" json:"retry_wait_min" toml:"retry_wait_min"`

	// RetryWaitMax is the maximum wait between delivery attempts
	RetryWaitMax common.Duration `yaml:"retry_wait_max" json:"retry_wait_max" toml:"retry_wait_max"`
}

// ApplyDefaults sets default values for optional webhook configuration fields.
func (w *WebhookConfig) ApplyDefaults() {
	if w.Timeout.Duration == 0 {
		w.Timeout = common.NewDuration(10 * time.Second) //nolint:mnd
	}
	if w.MaxAttempts == 0 {
		w.MaxAttempts = 3
	}
	if w.RetryWaitMin.Duration == 0 {
		w.RetryWaitMin = common.NewDuration(1 * time.Second)
	}
	if w.RetryWaitMax.Duration == 0 {
		w.RetryWaitMax = common.NewDuration(30 * time.Second) //nolint:mnd
	}
}

// EmailConfig represents SMTP email delivery configuration.
type EmailConfig struct {
	// Enabled controls whether email dispatch is active
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// Host is the SMTP server hostname
	Host string `yaml:"host" json:"host" toml:"host"`

	// Port is the SMTP server port
	Port int `yaml:"port" json:"port" toml:"port"`

	// Username is the SMTP authentication username
	Username string `yaml:"username" json:"username" toml:"username"`

	// Password is the SMTP authentication password. Prefer setting it via
	// the AUREUS_SMTP_PASSWORD environment variable.
	Password string `yaml:"password" json:"password" toml:"password"`

	// From is the sender address
	From string `yaml:"from" json:"from" toml:"from"`

	// MaxAttempts is the send attempt budget per message
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts" toml:"max_attempts"`
}

// ApplyDefaults sets default values for optional email configuration fields.
func (e *EmailConfig) ApplyDefaults() {
	if e.Port == 0 {
		e.Port = 587
	}
	if e.MaxAttempts == 0 {
		e.MaxAttempts = 3
	}
}

// Validate checks if the email configuration is valid.
func (e *EmailConfig) Validate() error {
	if !e.Enabled {
		return nil
	}

	if e.Host == "" {
		return fmt.Errorf("host is required when email is enabled")
	}
	if e.From == "" {
		return fmt.Errorf("from is required when email is enabled")
	}

	return nil
}

// CORSConfig represents CORS settings for the admin API.
type CORSConfig struct {
	// Enabled controls whether CORS headers are emitted
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// AllowedOrigins lists the origins allowed to call the API ("*" for any)
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins" toml:"allowed_origins"`
}

// APIConfig represents the admin API configuration.
type APIConfig struct {
	// Enabled controls whether the admin API server is started
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// ListenAddress is the address to bind the API server to
	ListenAddress string `yaml:"listen_address" json:"listen_address" toml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request
	ReadTimeout common.Duration `yaml:"read_timeout" json:"read_timeout" toml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response
	WriteTimeout common.Duration `yaml:"write_timeout" json:"write_timeout" toml:"write_timeout"`

	// IdleTimeout is the maximum time to wait for the next request
	IdleTimeout common.Duration `yaml:"idle_timeout" json:"idle_timeout" toml:"idle_timeout"`

	// CORS contains CORS settings
	CORS CORSConfig `yaml:"cors" json:"cors" toml:"cors"`
}

// ApplyDefaults sets default values for optional API configuration fields.
func (a *APIConfig) ApplyDefaults() {
	if a.ListenAddress == "" {
		a.ListenAddress = ":8080"
	}
	if a.ReadTimeout.Duration == 0 {
		a.ReadTimeout = common.NewDuration(15 * time.Second) //nolint:mnd
	}
	if a.WriteTimeout.Duration == 0 {
		a.WriteTimeout = common.NewDuration(15 * time.Second) //nolint:mnd
	}
	if a.IdleTimeout.Duration == 0 {
		a.IdleTimeout = common.NewDuration(60 * time.Second) //nolint:mnd
	}
}

// Validate checks if the API configuration is valid.
func (a *APIConfig) Validate() error {
	if a.Enabled && a.ListenAddress == "" {
		return fmt.Errorf("listen_address is required when the API is enabled")
	}

	return nil
}

// MetricsConfig configures Prometheus metrics exposition.
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP endpoint are active
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// ListenAddress is the address to bind the metrics HTTP server to
	ListenAddress string `yaml:"listen_address" json:"listen_address" toml:"listen_address"`

	// Path is the HTTP path where metrics are exposed
	Path string `yaml:"path" json:"path" toml:"path"`
}

// ApplyDefaults sets default values for optional metrics configuration fields.
func (m *MetricsConfig) ApplyDefaults() {
	if m.ListenAddress == "" {
		m.ListenAddress = ":9090"
	}
	if m.Path == "" {
		m.Path = "/metrics"
	}
}

// Validate checks if the metrics configuration is valid.
func (m *MetricsConfig) Validate() error {
	if m.Enabled {
		if m.ListenAddress == "" {
			return fmt.Errorf("listen_address is required when metrics are enabled")
		}
		if m.Path == "" {
			return fmt.Errorf("path is required when metrics are enabled")
		}
		if m.Path[0] != '/' {
			return fmt.Errorf("path must start with '/'")
		}
	}
	return nil
}

// Compile-time check that LoggingConfig satisfies the logger's view of it.
var _ logger.LoggingConfig = (*LoggingConfig)(nil)

// LoggingConfig configures logging behavior with per-component log levels.
type LoggingConfig struct {
	// DefaultLevel is the default log level for all components
	// Options: "debug", "info", "warn", "error"
	DefaultLevel string `yaml:"default_level" json:"default_level" toml:"default_level"`

	// Development enables development mode (stack traces, console encoder)
	Development bool `yaml:"development" json:"development" toml:"development"`

	// ComponentLevels sets log levels for specific components
	ComponentLevels map[string]string `yaml:"component_levels,omitempty" json:"component_levels,omitempty" toml:"component_levels,omitempty"` //nolint:lll
}

// ApplyDefaults sets default values for optional logging configuration fields.
func (l *LoggingConfig) ApplyDefaults() {
	if l.DefaultLevel == "" {
		l.DefaultLevel = "info"
	}
	if l.ComponentLevels == nil {
		l.ComponentLevels = make(map[string]string)
	}
}

// Validate checks if the logging configuration is valid.
func (l *LoggingConfig) Validate() error {
	if l.DefaultLevel != "" {
		if _, valid := logger.ValidLogLevels[common.ToLowerWithTrim(l.DefaultLevel)]; !valid {
			return fmt.Errorf("default_level: must be one of: debug, info, warn, error")
		}
	}

	for component, level := range l.ComponentLevels {
		if _, validComponent := common.AllComponents[common.ToLowerWithTrim(component)]; !validComponent {
			return fmt.Errorf("component_levels: unknown component '%s'", component)
		}

		if _, valid := logger.ValidLogLevels[common.ToLowerWithTrim(level)]; !valid {
			return fmt.Errorf("component_levels[%s]: must be one of: debug, info, warn, error", component)
		}
	}

	return nil
}

// GetComponentLevel returns the log level for a specific component.
// Falls back to DefaultLevel if no component-specific level is set.
func (l *LoggingConfig) GetComponentLevel(component string) string {
	if level, ok := l.ComponentLevels[component]; ok {
		return common.ToLowerWithTrim(level)
	}
	return common.ToLowerWithTrim(l.DefaultLevel)
}

// GetDefaultLevel returns the default log level.
func (l *LoggingConfig) GetDefaultLevel() string {
	return common.ToLowerWithTrim(l.DefaultLevel)
}

// IsDevelopment returns whether development mode is enabled.
func (l *LoggingConfig) IsDevelopment() bool {
	return l.Development
}

// ApplyDefaults sets default values for optional configuration fields.
func (c *Config) ApplyDefaults() {
	c.Chain.ApplyDefaults()
	c.Sync.ApplyDefaults()
	c.DB.ApplyDefaults()
	c.Notify.ApplyDefaults()

	if c.API != nil {
		c.API.ApplyDefaults()
	}
	if c.Metrics != nil {
		c.Metrics.ApplyDefaults()
	}
	if c.Logging != nil {
		c.Logging.ApplyDefaults()
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Chain.RPCURL == "" {
		return fmt.Errorf("chain.rpc_url is required")
	}

	if c.Chain.Finality != "finalized" && c.Chain.Finality != "safe" && c.Chain.Finality != "latest" {
		return fmt.Errorf("chain.finality must be one of: 'finalized', 'safe', or 'latest'")
	}

	if c.DB.Path == "" {
		return fmt.Errorf("db.path is required")
	}

	if c.DB.JournalMode != "" && c.DB.JournalMode != "WAL" &&
		c.DB.JournalMode != "DELETE" && c.DB.JournalMode != "TRUNCATE" &&
		c.DB.JournalMode != "PERSIST" && c.DB.JournalMode != "MEMORY" {
		return fmt.Errorf("db.journal_mode must be one of: WAL, DELETE, TRUNCATE, PERSIST, MEMORY")
	}

	if c.DB.Synchronous != "" && c.DB.Synchronous != "FULL" &&
		c.DB.Synchronous != "NORMAL" && c.DB.Synchronous != "OFF" {
		return fmt.Errorf("db.synchronous must be one of: FULL, NORMAL, OFF")
	}

	if c.DB.Maintenance != nil {
		if err := c.DB.Maintenance.Validate(); err != nil {
			return fmt.Errorf("db.maintenance: %w", err)
		}
	}

	if len(c.Contracts) == 0 {
		return fmt.Errorf("at least one contract must be configured")
	}

	contractNames := make(map[string]bool)
	contractAddresses := make(map[string]bool)
	for i, contract := range c.Contracts {
		if contract.Name == "" {
			return fmt.Errorf("contract[%d]: name is required", i)
		}

		if contractNames[contract.Name] {
			return fmt.Errorf("contract[%d]: duplicate contract name '%s'", i, contract.Name)
		}
		contractNames[contract.Name] = true

		if contract.Address == "" {
			return fmt.Errorf("contract[%d] (%s): address is required", i, contract.Name)
		}

		addr := common.ToLowerWithTrim(contract.Address)
		if contractAddresses[addr] {
			return fmt.Errorf("contract[%d] (%s): duplicate contract address '%s'", i, contract.Name, contract.Address)
		}
		contractAddresses[addr] = true

		if contract.ABI == "" && contract.ABIFile == "" {
			return fmt.Errorf("contract[%d] (%s): either abi or abi_file is required", i, contract.Name)
		}
	}

	if c.Notify.Webhook.MaxAttempts < 1 {
		return fmt.Errorf("notify.webhook.max_attempts must be at least 1")
	}

	if c.Notify.Email != nil {
		if err := c.Notify.Email.Validate(); err != nil {
			return fmt.Errorf("notify.email: %w", err)
		}
	}

	if c.API != nil {
		if err := c.API.Validate(); err != nil {
			return fmt.Errorf("api: %w", err)
		}
	}

	if c.Metrics != nil {
		if err := c.Metrics.Validate(); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	if c.Logging != nil {
		if err := c.Logging.Validate(); err != nil {
			return fmt.Errorf("logging: %w", err)
		}
	}

	return nil
}
