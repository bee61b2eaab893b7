package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"competencymap/internal/cache"
	"competencymap/internal/config"
	"competencymap/internal/lang"
	"competencymap/internal/logger"
	"competencymap/internal/repository"
	"competencymap/internal/repository/sqlstore"
	"competencymap/internal/service"
)

const serviceName = "competencymap"

var rootCmd = &cobra.Command{
	Use:           "competencymap",
	Short:         "Link questions to competencies",
	Long:          "competencymap stores a one-to-one link between a question bank entry and a competency, and serves the page that edits it.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (overrides "+config.EnvConfigPath+")")
	rootCmd.PersistentFlags().String("db-driver", "", "Database driver: sqlite or postgres")
	rootCmd.PersistentFlags().String("db", "", "Database DSN (SQLite path or PostgreSQL URL)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(optionsCmd)
	rootCmd.AddCommand(tokenCmd)
}

// loadConfig reads the config file then applies flag overrides
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	explicit, _ := cmd.Flags().GetString("config")
	cfg, path, err := config.Load(explicit)
	if err != nil {
		return nil, path, err
	}

	if d, _ := cmd.Flags().GetString("db-driver"); d != "" {
		cfg.Database.Driver = d
	}
	if dsn, _ := cmd.Flags().GetString("db"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	return cfg, path, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(cfg.Log.Level, cfg.Log.Format, serviceName)
}

func openStore(ctx context.Context, cfg *config.Config) (*sqlstore.Store, error) {
	dialect, err := sqlstore.ParseDialect(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}
	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required for %s", dialect)
	}
	return sqlstore.Open(ctx, dialect, cfg.Database.DSN)
}

// app holds the wired components shared by the subcommands
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   *sqlstore.Store
	strings *lang.Strings
	bus     *service.EventBus
	svc     *service.MappingService
	closers []func() error
}

// newApp loads config and wires store, cache and service
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	if path != "" {
		log.Debug("Loaded config", zap.String("path", path))
	}

	strs, err := lang.Load(cfg.Lang)
	if err != nil {
		return nil, err
	}

	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		logger:  log,
		store:   store,
		strings: strs,
		bus:     service.NewEventBus(),
		closers: []func() error{store.Close},
	}

	var catalog repository.CompetencyCatalog = store
	if cfg.Cache.Enabled {
		client := cache.NewRedisClient(cfg.Cache.Redis.Addr, cfg.Cache.Redis.Password, cfg.Cache.Redis.DB)
		kv := cache.NewRedisKVStore(client)
		if err := kv.Ping(cmd.Context()); err != nil {
			log.Warn("Redis unavailable, cache reads will fall through", zap.String("addr", cfg.Cache.Redis.Addr), zap.Error(err))
		}
		catalog = cache.NewCatalog(store, kv, cfg.Cache.TTL.Duration(), cfg.Cache.Prefix, log.Named("cache"))
		a.closers = append(a.closers, kv.Close)
	}

	a.svc = service.NewMappingService(store, catalog, store, service.Options{
		NoneLabel: strs.Get(lang.KeyNone),
		EventBus:  a.bus,
		Logger:    log.Named("service"),
	})
	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Close failed", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
