package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"babyplate/internal/adapter/memory"
	"babyplate/internal/adapter/postgres"
	"babyplate/internal/adapter/redis"
	"babyplate/internal/adapter/remote"
	"babyplate/internal/adapter/sqlite"
	"babyplate/internal/advisor"
	"babyplate/internal/app"
	"babyplate/internal/clock"
	"babyplate/internal/config"
	"babyplate/internal/domain"
	"babyplate/internal/logging"
	"babyplate/internal/replica"
)

type store interface {
	domain.BabyRepository
	domain.RecipeRepository
	app.PlanStore
}

// runtime is everything a command needs, built from the configuration.
type runtime struct {
	cfg     *config.Config
	log     *zap.Logger
	catalog *app.CatalogService
	plans   *app.PlanService
	recs    *app.RecommendationService
	// engine is nil when no remote authority is configured.
	engine *replica.Engine

	closers []func() error
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat, "babyplate")
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func openRuntime(ctx context.Context) (*runtime, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, log: log}
	rt.closers = append(rt.closers, func() error { _ = log.Sync(); return nil })

	st, err := rt.openStore()
	if err != nil {
		rt.Close()
		return nil, err
	}

	inventory, err := loadInventory(cfg.InventoryFile)
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.catalog = app.NewCatalogService(st, st)
	rt.plans = app.NewPlanService(st, clock.Real{}, log.Named("plans"))
	rt.recs = app.NewRecommendationService(st, st, rt.plans, app.RecommendationConfig{
		Safety:              advisor.NewClassifier(nil, cfg.StrictSafety),
		CooldownDays:        cfg.CooldownDays,
		HomemadeBelowMonths: cfg.HomemadeAgeMonths,
		Inventory:           inventory,
	}, log.Named("recommend"))

	if cfg.SyncEnabled() {
		if rt.engine, err = rt.newEngine(ctx); err != nil {
			rt.Close()
			return nil, err
		}
	}
	return rt, nil
}

func (rt *runtime) openStore() (store, error) {
	switch rt.cfg.Store {
	case config.StoreMemory:
		return memory.New(), nil
	case config.StorePostgres:
		db, err := postgres.Open(rt.cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
		rt.closers = append(rt.closers, db.Close)
		return db, nil
	default:
		db, err := sqlite.Open(rt.cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
		rt.closers = append(rt.closers, db.Close)
		return db, nil
	}
}

func (rt *runtime) newEngine(ctx context.Context) (*replica.Engine, error) {
	cfg := rt.cfg
	var tokens remote.TokenSource
	switch cfg.RemoteAuth {
	case config.AuthJWT:
		key, err := remote.ParseKey(cfg.RemoteKey)
		if err != nil {
			return nil, err
		}
		tokens = remote.HMACTokens{Key: key}
	case config.AuthOAuth2:
		ts, err := remote.NewOAuth2Tokens(ctx, cfg.OIDCIssuer, cfg.OAuthClientID, cfg.OAuthClientSecret)
		if err != nil {
			return nil, err
		}
		tokens = ts
	}

	var locker replica.Locker
	if cfg.RedisAddr != "" {
		client := redis.NewClient(cfg.RedisAddr, cfg.RedisPassword, 0)
		rt.closers = append(rt.closers, client.Close)
		if err := redis.Ping(ctx, client); err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		locker = redis.NewLocker(client, "babyplate:sync:", redis.DefaultTTL, rt.log.Named("lease"))
	}

	client := remote.NewClient(cfg.RemoteURL, tokens, rt.log.Named("remote"))
	return replica.NewEngine(rt.plans, client, locker, replica.Config{
		MaxAttempts:    cfg.SyncMaxAttempts,
		InitialBackoff: cfg.SyncBackoff,
		Concurrency:    cfg.SyncConcurrency,
	}, rt.log.Named("sync")), nil
}

// Close releases the store and remote connections in reverse order.
func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.log.Warn("close failed", zap.Error(err))
		}
	}
	rt.closers = nil
}

func loadInventory(path string) ([]advisor.InventoryItem, error) {
	if path == "" {
		return nil, nil
	}
	var items []advisor.InventoryItem
	if err := readJSONFile(path, &items); err != nil {
		return nil, fmt.Errorf("inventory: %w", err)
	}
	return items, nil
}

func readJSONFile(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck
	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
