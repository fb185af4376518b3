// Package app wires configuration into repositories, services and handlers.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"prdtool/internal/config"
	"prdtool/internal/domain/repositories"
	docsysRepo "prdtool/internal/domain/repositories/docsystem"
	llmRepo "prdtool/internal/domain/repositories/llm"
	docsysSvc "prdtool/internal/domain/services/docsystem"
	llmSvc "prdtool/internal/domain/services/llm"
	"prdtool/internal/handler"
	"prdtool/internal/lock"
	"prdtool/internal/metrics"
	"prdtool/internal/migrate"
	"prdtool/internal/repository/content"
	"prdtool/internal/repository/memory"
	"prdtool/internal/repository/postgres"
	postgresDocsys "prdtool/internal/repository/postgres/docsystem"
	postgresLLM "prdtool/internal/repository/postgres/llm"
	"prdtool/internal/service/auth"
	serviceDocsys "prdtool/internal/service/docsystem"
	serviceLLM "prdtool/internal/service/llm"
)

// Backends are the storage components selected by configuration
type Backends struct {
	Documents docsysRepo.DocumentRepository
	Versions  docsysRepo.VersionRepository
	Turns     llmRepo.TurnRepository
	TxManager repositories.TransactionManager
	Content   docsysSvc.ContentStore

	closers []func() error
}

// Close releases connections held by the backends, newest first
func (b *Backends) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	return errors.Join(errs...)
}

// OpenBackends connects the metadata database and the content store.
// With the postgres backend, pending migrations are applied first.
func OpenBackends(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backends, error) {
	b := &Backends{}

	switch cfg.DatabaseBackend {
	case "memory":
		db, err := memory.New()
		if err != nil {
			return nil, fmt.Errorf("create in-memory database: %w", err)
		}
		b.Documents = memory.NewDocumentRepository(db)
		b.Versions = memory.NewVersionRepository(db)
		b.Turns = memory.NewTurnRepository(db)
		b.TxManager = memory.NewTransactionManager()
		logger.Warn("using in-memory database - data is lost on restart")

	case "", "postgres":
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres backend")
		}
		if err := migrate.Up(ctx, cfg.DatabaseURL, cfg.TablePrefix); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}

		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() error { pool.Close(); return nil })
		logger.Info("database connected", "table_prefix", cfg.TablePrefix)

		repoConfig := &postgres.RepositoryConfig{
			Pool:   pool,
			Tables: postgres.NewTableNames(cfg.TablePrefix),
			Logger: logger,
		}
		b.Documents = postgresDocsys.NewDocumentRepository(repoConfig)
		b.Versions = postgresDocsys.NewVersionRepository(repoConfig)
		b.Turns = postgresLLM.NewTurnRepository(repoConfig)
		b.TxManager = postgres.NewTransactionManager(pool, logger)

	default:
		return nil, fmt.Errorf("unknown database backend %q", cfg.DatabaseBackend)
	}

	store, err := openContentStore(ctx, cfg, logger)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	b.Content = store

	return b, nil
}

func openContentStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (docsysSvc.ContentStore, error) {
	switch cfg.ContentBackend {
	case "", "fs":
		logger.Info("content store", "backend", "fs", "dir", cfg.ContentDir)
		return content.NewFileStore(cfg.ContentDir, logger)
	case "s3":
		store, err := content.NewObjectStore(content.ObjectStoreConfig{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
		}, logger)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		logger.Info("content store", "backend", "s3", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown content backend %q", cfg.ContentBackend)
	}
}

// App holds the services and handlers of a running server
type App struct {
	Backends  *Backends
	Metrics   *metrics.Metrics
	Documents docsysSvc.DocumentService
	Versions  docsysSvc.VersionService
	Chat      llmSvc.ChatService
	Handlers  *handler.Handlers

	redis *redis.Client
}

// New builds the full application on top of already opened backends
func New(cfg *config.Config, backends *Backends, logger *slog.Logger) (*App, error) {
	a := &App{
		Backends: backends,
		Metrics:  metrics.NewMetrics(),
	}

	if cfg.DocumentLock == lock.BackendRedis {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		a.redis = redis.NewClient(opts)
	}
	locker, err := lock.New(cfg.DocumentLock, a.redis, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("document lock", "backend", cfg.DocumentLock)

	authorizer := auth.NewOwnerBasedAuthorizer(backends.Documents)

	a.Documents = serviceDocsys.NewDocumentService(backends.Documents, backends.Content, backends.TxManager, authorizer, locker, logger)
	a.Versions = serviceDocsys.NewVersionService(backends.Versions, backends.Documents, backends.Content, authorizer, locker, a.Metrics, logger)

	llmServices, err := serviceLLM.SetupServices(cfg, backends.Turns, backends.Documents, backends.Content, authorizer, locker, a.Metrics, logger)
	if err != nil {
		return nil, err
	}
	a.Chat = llmServices.Chat

	a.Handlers = &handler.Handlers{
		Documents: handler.NewDocumentHandler(a.Documents, logger),
		Chat:      handler.NewChatHandler(a.Chat, nil, logger),
		Versions:  handler.NewVersionHandler(a.Versions, logger),
	}

	return a, nil
}

// Close releases the redis client and the backends
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	errs = append(errs, a.Backends.Close())
	return errors.Join(errs...)
}
