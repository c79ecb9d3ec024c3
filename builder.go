package authgate

import (
	"errors"
	"log/slog"

	"github.com/authgate/authgate/internal/rate"
	"github.com/authgate/authgate/password"
	"github.com/authgate/authgate/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. Collaborators are supplied explicitly; the
// Builder performs no I/O until Build.
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	userStore UserStore
	notifier  Notifier
	auditSink AuditSink
	logger    *slog.Logger

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the full configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis supplies the Redis client backing sessions and the login
// throttle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserStore supplies the credential store.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.userStore = store
	return b
}

// WithNotifier supplies the out-of-band OTP delivery channel.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithAuditSink supplies the audit event receiver. Without one, audit events
// are dispatched to a [NoOpSink].
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger supplies the logger used for best-effort failures. Defaults to
// [slog.Default].
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// Build validates the configuration and wires the Engine. A Builder can be
// used once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client is required")
	}
	if b.userStore == nil {
		return nil, errors.New("user store is required")
	}
	if b.notifier == nil {
		return nil, errors.New("notifier is required")
	}
	if err := validateConfig(b.config); err != nil {
		return nil, err
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}

	hasher, err := password.NewArgon2(password.Config{
		Memory:      b.config.Password.Memory,
		Time:        b.config.Password.Time,
		Parallelism: b.config.Password.Parallelism,
		SaltLength:  b.config.Password.SaltLength,
		KeyLength:   b.config.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:       b.config,
		userStore:    b.userStore,
		sessionStore: session.NewStore(b.redis, b.config.Session.RedisPrefix, b.config.Session.Sliding),
		notifier:     b.notifier,
		secretHash:   hasher,
		metrics:      NewMetrics(b.config.Metrics),
		audit:        newAuditDispatcher(b.config.Audit, b.auditSink),
		logger:       b.logger,
	}

	if b.config.RateLimit.Enabled {
		engine.rateLimiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle:      b.config.RateLimit.EnableIPThrottle,
			MaxLoginAttempts:      b.config.RateLimit.MaxLoginAttempts,
			LoginCooldownDuration: b.config.RateLimit.LoginCooldown,
		})
	}

	b.built = true
	return engine, nil
}
