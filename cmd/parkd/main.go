package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/MarkoPoloResearchLab/parking/internal/httpapi"
	"github.com/MarkoPoloResearchLab/parking/internal/store/gormstore"
	"github.com/MarkoPoloResearchLab/parking/pkg/parking"
	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	flagDatabaseURL      = "database-url"
	flagListenAddr       = "listen-addr"
	flagSigningKey       = "session-signing-key"
	flagAllowedOrigins   = "allowed-origins"
	flagSeedInventory    = "seed-inventory"
	configKeyDatabaseURL = "database_url"
	configKeyListenAddr  = "listen_addr"
	configKeySigningKey  = "session_signing_key"
	configKeyOrigins     = "allowed_origins"
	configKeySeed        = "seed_inventory"
	defaultDatabaseURL   = "sqlite:///tmp/parking.db"
	defaultListenAddr    = ":8080"
)

type runtimeConfig struct {
	DatabaseURL    string
	ListenAddr     string
	SigningKey     string
	AllowedOrigins string
	SeedInventory  bool
}

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "parkd: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := &runtimeConfig{}
	cmd := &cobra.Command{
		Use:           "parkd",
		Short:         "Parking reservation HTTP server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}

	cmd.Flags().String(flagDatabaseURL, defaultDatabaseURL, "PostgreSQL or SQLite connection string")
	cmd.Flags().String(flagListenAddr, defaultListenAddr, "HTTP listen address")
	cmd.Flags().String(flagSigningKey, "", "HMAC key for session tokens")
	cmd.Flags().String(flagAllowedOrigins, "", "comma-separated CORS origins")
	cmd.Flags().Bool(flagSeedInventory, false, "seed a starter slot grid when inventory is empty")

	return cmd
}

func loadConfig(cmd *cobra.Command, cfg *runtimeConfig) error {
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	envBindings := map[string]string{
		configKeyDatabaseURL: "DATABASE_URL",
		configKeyListenAddr:  "LISTEN_ADDR",
		configKeySigningKey:  "SESSION_SIGNING_KEY",
		configKeyOrigins:     "ALLOWED_ORIGINS",
		configKeySeed:        "SEED_INVENTORY",
	}
	for key, envName := range envBindings {
		if err := viper.BindEnv(key, envName); err != nil {
			return err
		}
	}

	flagBindings := map[string]string{
		configKeyDatabaseURL: flagDatabaseURL,
		configKeyListenAddr:  flagListenAddr,
		configKeySigningKey:  flagSigningKey,
		configKeyOrigins:     flagAllowedOrigins,
		configKeySeed:        flagSeedInventory,
	}
	for key, flagName := range flagBindings {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flagName)); err != nil {
			return err
		}
	}

	cfg.DatabaseURL = viper.GetString(configKeyDatabaseURL)
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = defaultDatabaseURL
	}
	cfg.ListenAddr = viper.GetString(configKeyListenAddr)
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultListenAddr
	}
	cfg.SigningKey = viper.GetString(configKeySigningKey)
	cfg.AllowedOrigins = viper.GetString(configKeyOrigins)
	cfg.SeedInventory = viper.GetBool(configKeySeed)

	if cfg.SigningKey == "" {
		return fmt.Errorf("session signing key is required")
	}
	return nil
}

func runServer(ctx context.Context, cfg *runtimeConfig) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	gormDB, cleanup, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database open: %w", err)
	}
	defer cleanup()

	if err := gormstore.Migrate(gormDB); err != nil {
		return err
	}

	store := gormstore.New(gormDB)
	service, err := parking.NewService(store, time.Now,
		parking.WithOperationLogger(parking.NewZapOperationLogger(logger)))
	if err != nil {
		return fmt.Errorf("parking service init: %w", err)
	}

	if cfg.SeedInventory {
		if err := seedInventory(ctx, service, logger); err != nil {
			return fmt.Errorf("seed inventory: %w", err)
		}
	}

	return httpapi.Run(ctx, httpapi.Config{
		ListenAddr:        cfg.ListenAddr,
		AllowedOrigins:    httpapi.ParseAllowedOrigins(cfg.AllowedOrigins),
		SessionSigningKey: cfg.SigningKey,
	}, service, logger)
}

// seedInventory installs a starter slot grid on an empty database so a
// fresh deployment has something to reserve.
func seedInventory(ctx context.Context, service *parking.Service, logger *zap.Logger) error {
	existing, err := service.SearchSlots(ctx, parking.SlotFilter{})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	starters := []parking.NewSlot{
		{Number: "A-101", Floor: 1, Zone: "Zone A", Type: "regular", HourlyPriceCents: 500},
		{Number: "A-102", Floor: 1, Zone: "Zone A", Type: "regular", HourlyPriceCents: 500},
		{Number: "A-103", Floor: 1, Zone: "Zone A", Type: "handicap", HourlyPriceCents: 300},
		{Number: "B-201", Floor: 2, Zone: "Zone B", Type: "regular", HourlyPriceCents: 500},
		{Number: "B-202", Floor: 2, Zone: "Zone B", Type: "vip", HourlyPriceCents: 1500},
		{Number: "C-301", Floor: 3, Zone: "Zone C", Type: "regular", HourlyPriceCents: 500},
	}
	for _, starter := range starters {
		if _, err := service.AddSlot(ctx, starter); err != nil {
			if errors.Is(err, parking.ErrDuplicateSlotNumber) {
				continue
			}
			return err
		}
	}
	logger.Info("seeded starter inventory", zap.Int("slots", len(starters)))
	return nil
}

func openDatabase(ctx context.Context, dsn string) (*gorm.DB, func() error, error) {
	driver, sqlitePath, err := resolveDriver(dsn)
	if err != nil {
		return nil, nil, err
	}

	var db *gorm.DB
	gormCfg := &gorm.Config{}
	switch driver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(dsn), gormCfg)
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(sqlitePath), gormCfg)
	default:
		return nil, nil, fmt.Errorf("unsupported database scheme %q", driver)
	}
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() error { return sqlDB.Close() }
	return db.WithContext(ctx), cleanup, nil
}

func resolveDriver(dsn string) (string, string, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres", "", nil
	}
	if strings.HasPrefix(dsn, "sqlite://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", "", fmt.Errorf("parse sqlite url: %w", err)
		}
		path := u.Path
		if path == "" {
			path = u.Host
		}
		if path == "" || path == "/" {
			path = "parking.db"
		}
		sqlitePath, err := normalizeSQLitePath(path)
		return "sqlite", sqlitePath, err
	}
	// Treat everything else as a direct sqlite path.
	sqlitePath, err := normalizeSQLitePath(dsn)
	return "sqlite", sqlitePath, err
}

func normalizeSQLitePath(path string) (string, error) {
	if path == ":memory:" {
		return path, nil
	}
	if strings.HasPrefix(path, "/") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", err
		}
		return path, nil
	}
	abs := filepath.Join(".", path)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	return abs, nil
}
