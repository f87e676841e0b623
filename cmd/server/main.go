package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	"qr-gateway/internal/login/metrics"
	"qr-gateway/internal/login/notifier"
	"qr-gateway/internal/login/service"
	"qr-gateway/internal/login/store"
	"qr-gateway/internal/login/store/attempt"
	"qr-gateway/internal/login/store/usersession"
	"qr-gateway/internal/platform/audit"
	"qr-gateway/internal/platform/audit/worker"
	"qr-gateway/internal/platform/config"
	"qr-gateway/internal/platform/httpserver"
	"qr-gateway/internal/platform/logger"
	redisplatform "qr-gateway/internal/platform/redis"
	"qr-gateway/internal/tgproto"
	httptransport "qr-gateway/internal/transport/http"
)

const auditBuffer = 256

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("qr-gateway exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := redisplatform.New(cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	attempts := attempt.NewRedis(redisClient.Client)

	sessions, closeSessions, err := newSessionStore(cfg, redisClient)
	if err != nil {
		return err
	}
	defer closeSessions()

	auditStore, closeAudit, err := newAuditStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeAudit()
	publisher := audit.NewPublisher(auditBuffer, log)

	svc := service.New(
		service.Config{
			APIID:      cfg.Telegram.APIID,
			APIHash:    cfg.Telegram.APIHash,
			PendingTTL: cfg.Login.PendingTTL,
			SuccessTTL: cfg.Login.SuccessTTL,
			URLScheme:  cfg.Login.URLScheme,
		},
		attempts,
		sessions,
		tgproto.NewGotdDialer(cfg.Telegram.APIID, cfg.Telegram.APIHash),
		service.WithLogger(log),
		service.WithMetrics(metrics.New()),
		service.WithAuditPublisher(publisher),
	)
	defer svc.Close()

	watcher := notifier.New(svc, cfg.Login.WatchInterval, notifier.WithLogger(log))
	tokens := httptransport.NewWatchTokenIssuer([]byte(cfg.JWTSigningKey), cfg.Login.PendingTTL+cfg.Login.SuccessTTL)
	loginHandler := httptransport.NewLoginHandler(svc, watcher, tokens, log)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(loginHandler, redisClient.Health))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := worker.NewWorker(auditStore, publisher.Inbox(), log).Run(gctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		log.Info("starting qr-gateway", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newSessionStore picks the durable session backend. Postgres when a DSN is
// configured, the Redis namespace otherwise.
func newSessionStore(cfg config.Config, redisClient *redisplatform.Client) (store.UserSessionStore, func(), error) {
	if cfg.Postgres.DSN == "" {
		return usersession.NewRedis(redisClient.Client), func() {}, nil
	}

	db, err := sql.Open("pgx", cfg.Postgres.DSN)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, err
	}
	if _, err := db.Exec(usersession.Schema); err != nil {
		db.Close()
		return nil, nil, err
	}
	return usersession.NewPostgres(db), func() { db.Close() }, nil
}

// newAuditStore picks the audit sink. Kafka when brokers are configured, the
// structured log otherwise.
func newAuditStore(ctx context.Context, cfg config.Config, log *slog.Logger) (audit.Store, func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return audit.NewLogStore(log), func() {}, nil
	}

	kafkaStore, err := audit.NewKafkaStore(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		return nil, nil, err
	}
	return kafkaStore, func() { kafkaStore.Close() }, nil
}
