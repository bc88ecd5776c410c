package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/techchallenge/usuarios-api/internal/api"
	"github.com/techchallenge/usuarios-api/internal/api/handler"
	"github.com/techchallenge/usuarios-api/internal/core/ports"
	"github.com/techchallenge/usuarios-api/internal/core/service"
	mongostore "github.com/techchallenge/usuarios-api/internal/infrastructure/db/mongo"
	"github.com/techchallenge/usuarios-api/internal/infrastructure/db/postgres"
	rediscache "github.com/techchallenge/usuarios-api/internal/infrastructure/db/redis"
	"github.com/techchallenge/usuarios-api/internal/infrastructure/db/sqlite"
	"github.com/techchallenge/usuarios-api/internal/infrastructure/security"
	"github.com/techchallenge/usuarios-api/internal/pkg/config"
	"github.com/techchallenge/usuarios-api/pkg/logger"
)

const (
	serviceName     = "usuarios-api"
	shutdownTimeout = 15 * time.Second
)

// store is a user repository plus the lifecycle hooks main needs.
type store struct {
	users ports.UserRepository
	ping  handler.Checker
	close func()
}

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
	})
	if envErr != nil {
		log.Debug().Msg("no .env file found; relying on existing environment")
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	readiness := map[string]handler.Checker{cfg.Store.Driver: st.ping}

	var roleCache ports.RoleCache
	if cfg.Redis.Addr != "" {
		rdb, err := rediscache.Connect(ctx, rediscache.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close()
		roleCache = rediscache.NewRoleCache(rdb, cfg.Auth.RoleCacheTTL)
		readiness["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	tokens, err := security.NewJWTCodec(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	if err != nil {
		return err
	}

	if cfg.Seed.Enabled {
		if err := service.SeedAdministrators(ctx, st.users, hasher, security.SHA256Hex, cfg.Seed.AdminPassword, log); err != nil {
			return fmt.Errorf("seed administrators: %w", err)
		}
	}

	deps := api.Dependencies{
		Log:         log,
		Auth:        service.NewAuthService(st.users, hasher, tokens, log),
		Users:       service.NewUserService(st.users, hasher, roleCache, log),
		Tokens:      tokens,
		Readiness:   readiness,
		CORSOrigins: cfg.AllowedOrigins(),
	}
	if cfg.Auth.RoleSource == config.RoleSourceStore {
		deps.Roles = service.NewRoleResolver(st.users, roleCache, log)
	}
	e := api.NewRouter(deps)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("store", cfg.Store.Driver).Str("role_source", cfg.Auth.RoleSource).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		repo, err := sqlite.Open(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &store{users: repo, ping: repo.Ping, close: func() { _ = repo.Close() }}, nil

	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		repo := mongostore.NewUserRepository(client, db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return &store{
			users: repo,
			ping:  repo.Ping,
			close: func() { _ = client.Disconnect(context.Background()) },
		}, nil

	default:
		repo, err := postgres.NewUserRepository(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return &store{users: repo, ping: repo.Ping, close: repo.Close}, nil
	}
}
