package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/notifykit/notifykit/modules/notifier"
	"github.com/notifykit/notifykit/pkg/channel"
	"github.com/notifykit/notifykit/pkg/config"
	"github.com/notifykit/notifykit/pkg/dispatch"
	"github.com/notifykit/notifykit/pkg/httpserver"
	"github.com/notifykit/notifykit/pkg/logger"
	"github.com/notifykit/notifykit/pkg/notification"
	"github.com/notifykit/notifykit/pkg/pg"
	"github.com/notifykit/notifykit/pkg/queue"
	"github.com/notifykit/notifykit/pkg/redis"
	"github.com/notifykit/notifykit/pkg/template"
)

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("notifyd stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.WithEnvironment(cfg.Env, cfg.ServiceName))
	logger.SetAsDefault(log)

	healthchecks := make([]func(context.Context) error, 0, 2)

	// One shared pgx pool serves both the stores and the queue when
	// either driver is postgres. Migrations run once on connect.
	var pgPool *pgxpool.Pool
	connectPG := func() (*pgxpool.Pool, error) {
		if pgPool != nil {
			return pgPool, nil
		}
		var pgCfg pg.Config
		if err := config.Load(&pgCfg); err != nil {
			return nil, fmt.Errorf("load postgres config: %w", err)
		}
		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		pgPool = pool
		healthchecks = append(healthchecks, pg.Healthcheck(pool))
		return pool, nil
	}
	defer func() {
		if pgPool != nil {
			pgPool.Close()
		}
	}()

	// Notification and delivery-log stores.
	var (
		store    notification.Store
		logStore notification.LogStore
	)
	switch cfg.StorageDriver {
	case "memory":
		store = notification.NewMemoryStore()
		logStore = notification.NewMemoryLogStore()
	case "postgres":
		pool, err := connectPG()
		if err != nil {
			return err
		}
		if store, err = notification.NewPostgresStore(pool); err != nil {
			return err
		}
		if logStore, err = notification.NewPostgresLogStore(pool); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	// Job queue storage.
	var storage queue.Storage
	switch cfg.QueueDriver {
	case "memory":
		mem := queue.NewMemoryStorage()
		defer mem.Close()
		storage = mem
	case "redis":
		var redisCfg redis.Config
		if err := config.Load(&redisCfg); err != nil {
			return fmt.Errorf("load redis config: %w", err)
		}
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()
		if storage, err = queue.NewRedisStorage(client, cfg.QueuePrefix); err != nil {
			return err
		}
		healthchecks = append(healthchecks, redis.Healthcheck(client))
	case "postgres":
		pool, err := connectPG()
		if err != nil {
			return err
		}
		if storage, err = queue.NewPostgresStorage(pool); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown queue driver %q", cfg.QueueDriver)
	}

	q, err := queue.New(storage, queue.WithDefaultMaxAttempts(cfg.MaxAttempts))
	if err != nil {
		return err
	}

	// Templates are kept in memory and seeded from YAML when configured.
	templates := template.NewMemoryStore()
	if cfg.TemplateSeedFile != "" {
		if err := template.LoadFile(ctx, templates, cfg.TemplateSeedFile); err != nil {
			return fmt.Errorf("seed templates: %w", err)
		}
		log.InfoContext(ctx, "templates seeded", slog.String("file", cfg.TemplateSeedFile))
	}

	registry, err := buildRegistry(cfg, log)
	if err != nil {
		return err
	}

	orch, err := dispatch.NewOrchestrator(templates, store, q,
		dispatch.WithOrchestratorLogger(log))
	if err != nil {
		return err
	}

	workers, err := dispatch.NewPool(q, orch, registry, store, logStore,
		dispatch.WithConcurrency(cfg.Concurrency),
		dispatch.WithPollInterval(cfg.PollInterval),
		dispatch.WithBackoff(&queue.ExponentialBackoff{
			InitialDelay: cfg.BackoffInitial,
			MaxDelay:     cfg.BackoffMax,
			Multiplier:   cfg.BackoffMultiplier,
			JitterFactor: 0.1,
		}),
		dispatch.WithPoolLogger(log))
	if err != nil {
		return err
	}

	var httpCfg httpserver.Config
	if err := config.Load(&httpCfg); err != nil {
		return fmt.Errorf("load http config: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", httpserver.HealthCheckHandler(ctx, log))
	r.Get("/readyz", httpserver.HealthCheckHandler(ctx, log, healthchecks...))
	r.Mount("/v1", notifier.Router(notifier.RouterOptions{
		Notifications: notifier.NewNotificationService(orch, store, logStore, log),
		Logs:          notifier.NewLogService(logStore, log),
		Queue:         notifier.NewQueueService(q, log),
		Templates:     notifier.NewTemplateService(templates, log),
	}))

	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))

	log.InfoContext(ctx, "notifyd starting",
		slog.String("env", cfg.Env),
		slog.String("addr", httpCfg.Addr),
		slog.String("storage", cfg.StorageDriver),
		slog.String("queue", cfg.QueueDriver),
		slog.Int("workers", cfg.Concurrency))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := workers.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("worker pool: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return srv.Run(ctx, r)
	})

	return g.Wait()
}

// buildRegistry registers every channel the configuration enables. The
// email transport is picked by EMAIL_PROVIDER; sms and webhook are
// always on since their dev implementations need no credentials.
func buildRegistry(cfg appConfig, log *slog.Logger) (*channel.Registry, error) {
	registry := channel.NewRegistry()

	if cfg.EmailProvider != "none" {
		mailer, err := buildMailer(cfg)
		if err != nil {
			return nil, err
		}
		var emailCfg channel.EmailConfig
		if err := config.Load(&emailCfg); err != nil {
			return nil, fmt.Errorf("load email config: %w", err)
		}
		email, err := channel.NewEmail(mailer, emailCfg, channel.WithEmailLogger(log))
		if err != nil {
			return nil, err
		}
		if err := registry.Register(email); err != nil {
			return nil, err
		}
	}

	sms, err := channel.NewSMS(channel.NewDevSMSSender(log))
	if err != nil {
		return nil, err
	}
	if err := registry.Register(sms); err != nil {
		return nil, err
	}

	var webhookCfg channel.WebhookConfig
	if err := config.Load(&webhookCfg); err != nil {
		return nil, fmt.Errorf("load webhook config: %w", err)
	}
	if err := registry.Register(channel.NewWebhook(webhookCfg, channel.WithWebhookLogger(log))); err != nil {
		return nil, err
	}

	return registry, nil
}

func buildMailer(cfg appConfig) (channel.Mailer, error) {
	switch cfg.EmailProvider {
	case "dev":
		return channel.NewDevMailer(cfg.DevMailDir), nil
	case "smtp":
		var smtpCfg channel.SMTPConfig
		if err := config.Load(&smtpCfg); err != nil {
			return nil, fmt.Errorf("load smtp config: %w", err)
		}
		return channel.NewSMTPMailer(smtpCfg)
	case "postmark":
		var pmCfg channel.PostmarkConfig
		if err := config.Load(&pmCfg); err != nil {
			return nil, fmt.Errorf("load postmark config: %w", err)
		}
		return channel.NewPostmarkMailer(pmCfg)
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.EmailProvider)
	}
}
