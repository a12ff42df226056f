package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/emphasys/identity/internal/api"
	"github.com/emphasys/identity/internal/api/handler"
	"github.com/emphasys/identity/internal/core/ports"
	"github.com/emphasys/identity/internal/core/service"
	"github.com/emphasys/identity/internal/infrastructure/config"
	"github.com/emphasys/identity/internal/infrastructure/db/mongo"
	"github.com/emphasys/identity/internal/infrastructure/db/redis"
	"github.com/emphasys/identity/internal/infrastructure/db/sqlstore"
	httpinfra "github.com/emphasys/identity/internal/infrastructure/http"
	"github.com/emphasys/identity/internal/infrastructure/queue"
	"github.com/emphasys/identity/internal/infrastructure/security"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, log, err := setup(ctx)
		if err != nil {
			return err
		}
		return serve(ctx, cfg, log)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Directory store ---
	db, err := sqlstore.Open(ctx, sqlstore.Config{Path: cfg.Database.Path, Debug: cfg.Database.Debug})
	if err != nil {
		return err
	}
	defer db.Close()
	if err := sqlstore.Migrate(ctx, db); err != nil {
		return err
	}
	store := sqlstore.New(db, cfg.Security.AdminTierSize)

	// --- Audit trail (optional MongoDB) ---
	var (
		activity ports.ActivitySink = service.NewLogActivitySink(log)
		mdb      *mongodriver.Database
		audit    *queue.Dispatcher
	)
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	if mcfg := (mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database, AppName: serviceName}); mcfg.Enabled() {
		client, database, err := mongo.Connect(ctx, mcfg)
		if err != nil {
			return err
		}
		defer func() { _ = mongo.Disconnect(context.Background(), client) }()

		repo := mongo.NewActivityRepository(database)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return err
		}
		audit = queue.NewDispatcher(cfg.Audit.Workers, repo, log)
		audit.Start(workerCtx)
		activity, mdb = audit, database
		log.Info().Str("database", cfg.Mongo.Database).Msg("audit trail enabled")
	}

	// --- Token revocation (optional Redis) ---
	var (
		revoked ports.RevocationList
		rdb     *goredis.Client
	)
	if rcfg := (redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}); rcfg.Enabled() {
		rdb, err = redis.Connect(ctx, rcfg)
		if err != nil {
			return err
		}
		defer rdb.Close()
		revoked = redis.NewRevocationList(rdb)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("token revocation enabled")
	}

	// --- Services ---
	hasher := security.NewBcryptHasher(cfg.Security.BcryptCost)
	tokens, err := security.NewTokenService(security.TokenConfig{
		AccessSecret:  cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Algorithm:     cfg.JWT.Algorithm,
		AccessTTL:     cfg.JWT.AccessTTL(),
		RefreshTTL:    cfg.JWT.RefreshTTL(),
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
	})
	if err != nil {
		return err
	}

	gate := service.NewGate(cfg.Security.AdminTierSize)
	boot := service.NewBootstrapper(store, nil, log)
	if err := boot.EnsureRoles(ctx); err != nil {
		return err
	}

	authService := service.NewAuthService(service.AuthDeps{
		Store:    store,
		Hasher:   hasher,
		Tokens:   tokens,
		Revoked:  revoked,
		Activity: activity,
		Log:      log,
	})
	accountService := service.NewAccountService(service.AccountDeps{
		Store:    store,
		Gate:     gate,
		Boot:     boot,
		Hasher:   hasher,
		Activity: activity,
		Log:      log,
	})

	// --- HTTP ---
	e := api.NewRouter(api.RouterDeps{
		Auth:     authService,
		Accounts: accountService,
		Gate:     gate,
		Roles:    store.Directory(),
		Cookies: handler.CookieConfig{
			Name:       cfg.Cookie.Name,
			Secure:     cfg.Cookie.Secure,
			AccessTTL:  tokens.AccessTTL(),
			RefreshTTL: cfg.JWT.RefreshTTL(),
		},
		Log:      log,
		Activity: activity,
	})
	httpinfra.RegisterOps(e, httpinfra.OpsDeps{SQL: db, Mongo: mdb, Redis: rdb})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	if audit != nil {
		stopWorkers()
		audit.Wait()
	}
	return nil
}
