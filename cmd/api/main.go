package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"roomcraft/internal/domain"
	"roomcraft/internal/engine"
	"roomcraft/internal/feature"
	"roomcraft/internal/http/handlers"
	httpapi "roomcraft/internal/http/httpapi"
	"roomcraft/internal/infra"
	"roomcraft/internal/infra/geoip"
	"roomcraft/internal/middleware"
	"roomcraft/internal/provider"
	"roomcraft/internal/relocate"
	"roomcraft/internal/statusstore"
	"roomcraft/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := buildStatusStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("status store init failed")
	}
	defer closeStore()

	objectStore, err := buildObjectStore(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("object store init failed")
	}

	client := provider.NewClient(provider.Options{
		APIKey:        cfg.ProviderAPIKey,
		BaseURL:       cfg.ProviderBaseURL,
		RatePerSecond: cfg.ProviderRatePerSec,
		Logger:        &logger,
	})

	reloc := relocate.New(relocate.Options{
		Store:        objectStore,
		Timeout:      cfg.DownloadTimeout,
		MaxRedirects: cfg.MaxRedirects,
		Logger:       logger,
	})

	features := feature.Registry(feature.Budgets{
		ImageAttempts: cfg.ImagePollAttempts,
		ImageInterval: cfg.ImagePollInterval,
		VideoAttempts: cfg.VideoPollAttempts,
		VideoInterval: cfg.VideoPollInterval,
		RetryBudget:   cfg.RetryBudget,
	})

	orchestrator := engine.New(client, reloc, store, features, logger)
	app := handlers.NewApp(cfg, logger, orchestrator, store, features)

	router := httpapi.NewRouter(app, countryLookup(cfg, logger))
	server := infra.NewHTTPServer(cfg, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("port", cfg.Port).Msg("api listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
	logger.Info().Msg("server stopped")
}

// buildStatusStore picks the status record backend: Postgres when configured,
// Redis next, in-memory as the dev fallback.
func buildStatusStore(ctx context.Context, cfg *infra.Config, logger infra.Logger) (domain.StatusStore, func(), error) {
	switch {
	case cfg.DatabaseURL != "":
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Msg("status store: postgres")
		return statusstore.NewPostgresStore(pool), pool.Close, nil
	case cfg.RedisAddr != "":
		client, err := infra.NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Msg("status store: redis")
		return statusstore.NewRedisStore(client), func() { _ = client.Close() }, nil
	default:
		logger.Warn().Msg("status store: in-memory, records do not survive restarts")
		return statusstore.NewMemoryStore(), func() {}, nil
	}
}

// buildObjectStore picks the asset destination: Supabase when configured,
// otherwise the local filesystem served from StorageBaseURL.
func buildObjectStore(cfg *infra.Config, logger infra.Logger) (storage.ObjectStore, error) {
	if cfg.SupabaseURL != "" {
		logger.Info().Str("bucket", cfg.SupabaseBucket).Msg("object store: supabase")
		return storage.NewSupabaseStore(storage.SupabaseOptions{
			URL:        cfg.SupabaseURL,
			ServiceKey: cfg.SupabaseServiceKey,
			Bucket:     cfg.SupabaseBucket,
		})
	}
	logger.Info().Str("path", cfg.StoragePath).Msg("object store: filesystem")
	return storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
}

func countryLookup(cfg *infra.Config, logger infra.Logger) middleware.CountryLookup {
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
		return nil
	}
	if resolver == nil {
		return nil
	}
	return resolver.CountryCode
}
