package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gemshield/gemshield/internal/api"
	"github.com/gemshield/gemshield/internal/flow"
	"github.com/gemshield/gemshield/internal/quote"
	"github.com/gemshield/gemshield/internal/socotra"
	"github.com/gemshield/gemshield/internal/store"
	"github.com/gemshield/gemshield/internal/util"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for Gemshield state data
	DefaultStateDir = "/var/lib/gemshield"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "gemshield.db"
	// DefaultProductName is the insurance product quoted when none is configured
	DefaultProductName = "jewelry-insurance"
)

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	// Validate transport configuration before serving anything
	transportCfg := buildTransportConfig(flags)
	if err := transportCfg.Validate(); err != nil {
		slog.Error("Transport configuration invalid", "error", err)
		os.Exit(1)
	}

	// Ensure required directories exist
	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	gateway, err := buildGateway(transportCfg)
	if err != nil {
		slog.Error("Failed to construct transport gateway", "error", err)
		os.Exit(1)
	}

	st, err := buildStore(flags)
	if err != nil {
		slog.Error("Failed to construct session store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	orchestrator := quote.NewOrchestrator(gateway, transportCfg.ProductName)
	manager := flow.NewManager(st, orchestrator)
	server := api.NewServer(manager, buildAPIOptions(flags)...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Bootstrapping Gemshield with configured modules")
	slog.Debug("Final configuration",
		"state_dir", *flags.stateDir,
		"dsn_set", *flags.dbDSN != "",
		"api_addr", *flags.apiAddr,
		"relay_set", transportCfg.RelayURL != "",
		"product", transportCfg.ProductName)
	if err := server.Run(ctx); err != nil {
		slog.Error("Gemshield failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Gemshield exited successfully")
}

// Config holds environment configuration
type Config struct {
	APIURL        string
	AccessToken   string
	TenantLocator string
	ProductName   string
	RelayURL      string
	DatabaseURL   string
	StateDir      string
	APIAddr       string
}

// Flags holds command line flag values
type Flags struct {
	stateDir      *string
	dbDSN         *string
	apiAddr       *string
	apiURL        *string
	accessToken   *string
	tenantLocator *string
	productName   *string
	relayURL      *string
}

// initializeLogger sets up structured logging; GEMSHIELD_DEBUG=false drops
// the level to Info for quieter production logs.
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("GEMSHIELD_DEBUG", true) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		APIURL:        os.Getenv("SOCOTRA_API_URL"),
		AccessToken:   os.Getenv("SOCOTRA_PAT"),
		TenantLocator: os.Getenv("SOCOTRA_TENANT_LOCATOR"),
		ProductName:   util.EnvOrDefault("SOCOTRA_PRODUCT_NAME", DefaultProductName),
		RelayURL:      os.Getenv("SOCOTRA_RELAY_URL"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		StateDir:      os.Getenv("GEMSHIELD_STATE_DIR"),
		APIAddr:       os.Getenv("API_ADDR"),
	}

	// Set default state directory if not specified
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No GEMSHIELD_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"SOCOTRA_API_URL_SET", config.APIURL != "",
		"SOCOTRA_PAT_SET", config.AccessToken != "",
		"SOCOTRA_TENANT_LOCATOR_SET", config.TenantLocator != "",
		"SOCOTRA_PRODUCT_NAME", config.ProductName,
		"SOCOTRA_RELAY_URL_SET", config.RelayURL != "",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"GEMSHIELD_STATE_DIR", config.StateDir,
		"API_ADDR", config.APIAddr)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:      flag.String("state-dir", config.StateDir, "state directory for Gemshield data (overrides $GEMSHIELD_STATE_DIR)"),
		dbDSN:         flag.String("db-dsn", config.DatabaseURL, "database DSN for the session store (overrides $DATABASE_URL)"),
		apiAddr:       flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		apiURL:        flag.String("socotra-api-url", config.APIURL, "policy administration API base URL (overrides $SOCOTRA_API_URL)"),
		accessToken:   flag.String("socotra-pat", config.AccessToken, "policy administration access token (overrides $SOCOTRA_PAT)"),
		tenantLocator: flag.String("socotra-tenant", config.TenantLocator, "tenant locator (overrides $SOCOTRA_TENANT_LOCATOR)"),
		productName:   flag.String("product-name", config.ProductName, "insurance product to quote (overrides $SOCOTRA_PRODUCT_NAME)"),
		relayURL:      flag.String("relay-url", config.RelayURL, "relay endpoint for proxied transport (overrides $SOCOTRA_RELAY_URL)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"apiAddr", *flags.apiAddr,
		"apiURL_set", *flags.apiURL != "",
		"tokenSet", *flags.accessToken != "",
		"tenantSet", *flags.tenantLocator != "",
		"productName", *flags.productName,
		"relaySet", *flags.relayURL != "")

	// Update database DSN if not explicitly set but state directory is provided
	if *flags.dbDSN == config.DatabaseURL && config.DatabaseURL == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "old_state_dir", config.StateDir, "new_state_dir", *flags.stateDir)
	}

	return flags
}

// buildTransportConfig assembles the transport settings from parsed flags.
func buildTransportConfig(flags Flags) socotra.Config {
	return socotra.Config{
		APIURL:        *flags.apiURL,
		AccessToken:   *flags.accessToken,
		TenantLocator: *flags.tenantLocator,
		ProductName:   *flags.productName,
		RelayURL:      *flags.relayURL,
	}
}

// buildGateway constructs the active transport: relay when configured,
// direct otherwise.
func buildGateway(cfg socotra.Config) (socotra.Gateway, error) {
	if cfg.RelayURL != "" {
		slog.Debug("Using relay transport", "relay_set", true)
		return socotra.NewRelayClient(cfg.RelayURL)
	}
	slog.Debug("Using direct transport")
	return socotra.NewClient(cfg)
}

// buildStore constructs the session store implied by the DSN.
func buildStore(flags Flags) (store.Store, error) {
	dsn := *flags.dbDSN
	if dsn == "" {
		slog.Debug("No database DSN provided, using in-memory store")
		return store.NewInMemoryStore(), nil
	}
	if store.DetectDSNType(dsn) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_type", "postgresql")
		return store.NewPostgresStore(store.WithPostgresDSN(dsn))
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "dsn_type", "sqlite", "db_path", dsn)
	return store.NewSQLiteStore(store.WithSQLiteDSN(dsn))
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	if store.DetectDSNType(*flags.dbDSN) == "postgres" {
		return nil
	}
	stateDir := filepath.Dir(*flags.dbDSN)
	slog.Debug("Creating state directory for file-based database", "state_dir", stateDir)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		slog.Error("Failed to create state directory", "error", err, "state_dir", stateDir)
		return err
	}
	return nil
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	return apiOpts
}
