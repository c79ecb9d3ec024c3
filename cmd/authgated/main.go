// Command authgated serves the authgate HTTP API.
//
// It wires a Redis-backed session store, a configurable credential store
// (memory, redis, or postgres), and an SMTP notifier when a relay is
// configured, falling back to a log notifier for local development.
//
// Configuration is flag-driven with AUTHGATE_* environment fallbacks:
//
//	-addr        listen address               (AUTHGATE_ADDR, default :8080)
//	-redis       redis address               (AUTHGATE_REDIS_ADDR, default localhost:6379)
//	-store       user store: memory|redis|postgres (AUTHGATE_STORE, default memory)
//	-db          postgres DSN                (AUTHGATE_DATABASE_URL)
//	-smtp-host   SMTP relay host             (AUTHGATE_SMTP_HOST)
//	-smtp-port   SMTP relay port             (AUTHGATE_SMTP_PORT)
//	-smtp-user   SMTP username               (AUTHGATE_SMTP_USER)
//	-smtp-pass   SMTP password               (AUTHGATE_SMTP_PASS)
//	-mail-from   sender address              (AUTHGATE_MAIL_FROM)
//	-session-ttl session lifetime            (default 24h)
//	-otp-ttl     reset code lifetime         (default 10m)
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/authgate/authgate"
	"github.com/authgate/authgate/httpapi"
	"github.com/authgate/authgate/metrics/export/prometheus"
	"github.com/authgate/authgate/notify"
	"github.com/authgate/authgate/userstore"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// notifierSendTimeout bounds each outbound delivery so a stuck relay cannot
// pin a request forever.
const notifierSendTimeout = 15 * time.Second

type settings struct {
	addr       string
	redisAddr  string
	store      string
	dbDSN      string
	smtpHost   string
	smtpPort   int
	smtpUser   string
	smtpPass   string
	mailFrom   string
	sessionTTL time.Duration
	otpTTL     time.Duration
}

func loadSettings() settings {
	var s settings
	flag.StringVar(&s.addr, "addr", envOr("AUTHGATE_ADDR", ":8080"), "listen address")
	flag.StringVar(&s.redisAddr, "redis", envOr("AUTHGATE_REDIS_ADDR", "localhost:6379"), "redis address")
	flag.StringVar(&s.store, "store", envOr("AUTHGATE_STORE", "memory"), "user store: memory, redis, or postgres")
	flag.StringVar(&s.dbDSN, "db", envOr("AUTHGATE_DATABASE_URL", ""), "postgres DSN")
	flag.StringVar(&s.smtpHost, "smtp-host", envOr("AUTHGATE_SMTP_HOST", ""), "smtp relay host")
	flag.IntVar(&s.smtpPort, "smtp-port", envIntOr("AUTHGATE_SMTP_PORT", 587), "smtp relay port")
	flag.StringVar(&s.smtpUser, "smtp-user", envOr("AUTHGATE_SMTP_USER", ""), "smtp username")
	flag.StringVar(&s.smtpPass, "smtp-pass", envOr("AUTHGATE_SMTP_PASS", ""), "smtp password")
	flag.StringVar(&s.mailFrom, "mail-from", envOr("AUTHGATE_MAIL_FROM", "no-reply@localhost"), "sender address")
	flag.DurationVar(&s.sessionTTL, "session-ttl", 24*time.Hour, "session lifetime")
	flag.DurationVar(&s.otpTTL, "otp-ttl", 10*time.Minute, "reset code lifetime")
	flag.Parse()
	return s
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// timeoutNotifier imposes a per-send deadline on the wrapped notifier.
type timeoutNotifier struct {
	next    authgate.Notifier
	timeout time.Duration
}

func (n timeoutNotifier) Send(ctx context.Context, to, subject, body string) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	return n.next.Send(ctx, to, subject, body)
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	s := loadSettings()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := redis.NewClient(&redis.Options{Addr: s.redisAddr})
	defer func() { _ = rdb.Close() }()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Error("redis unreachable", "addr", s.redisAddr, "error", err)
		os.Exit(1)
	}

	store, pool, err := buildUserStore(ctx, s, rdb)
	if err != nil {
		logger.Error("user store init failed", "store", s.store, "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
	}

	var notifier authgate.Notifier
	if s.smtpHost != "" {
		smtp, err := notify.NewSMTP(notify.SMTPConfig{
			Host:     s.smtpHost,
			Port:     s.smtpPort,
			Username: s.smtpUser,
			Password: s.smtpPass,
			From:     s.mailFrom,
		})
		if err != nil {
			logger.Error("smtp init failed", "error", err)
			os.Exit(1)
		}
		notifier = smtp
	} else {
		logger.Warn("no smtp relay configured, reset codes go to the log")
		notifier = notify.NewLog(logger)
	}
	notifier = timeoutNotifier{next: notifier, timeout: notifierSendTimeout}

	cfg := authgate.DefaultConfig()
	cfg.Session.TTL = s.sessionTTL
	cfg.OTP.TTL = s.otpTTL

	engine, err := authgate.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserStore(store).
		WithNotifier(notifier).
		WithAuditSink(authgate.NewJSONWriterSink(os.Stdout)).
		WithLogger(logger).
		Build()
	if err != nil {
		logger.Error("engine build failed", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	mux := http.NewServeMux()
	mux.Handle("/auth/", httpapi.Handler(engine))
	mux.Handle("GET /metrics", prometheus.NewExporter(engine).Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := rdb.Ping(r.Context()).Err(); err != nil {
			http.Error(w, "redis unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", "addr", s.addr, "store", s.store)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("shut down")
}

func buildUserStore(ctx context.Context, s settings, rdb redis.UniversalClient) (authgate.UserStore, *pgxpool.Pool, error) {
	switch s.store {
	case "memory":
		return userstore.NewMemory(), nil, nil
	case "redis":
		return userstore.NewRedis(rdb, "agu"), nil, nil
	case "postgres":
		pool, err := pgxpool.New(ctx, s.dbDSN)
		if err != nil {
			return nil, nil, err
		}
		store, err := userstore.NewPostgres(pool, "")
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool, nil
	default:
		return nil, nil, errors.New("unknown store " + s.store)
	}
}
