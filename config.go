package authgate

import (
	"errors"
	"time"
)

// Config is the complete engine configuration. It is copied at Build time and
// treated as immutable afterwards; there is no process-wide mutable state.
type Config struct {
	Session   SessionConfig
	OTP       OTPConfig
	Password  PasswordConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

// SessionConfig controls the Redis-backed session store.
type SessionConfig struct {
	// RedisPrefix namespaces session keys. Defaults to "ag".
	RedisPrefix string
	// TTL is the session lifetime. The store's expiry policy is explicit
	// configuration, never inherited from the environment.
	TTL time.Duration
	// Sliding, when true, renews the TTL on every successful read.
	Sliding bool
}

// OTPConfig controls password reset challenges.
type OTPConfig struct {
	// TTL bounds challenge validity from issuance. 0 disables time-based
	// expiry, in which case the challenge lives exactly as long as the
	// session that carries it.
	TTL time.Duration
	// Subject and BodyFormat shape the Notifier message. BodyFormat must
	// contain one %s verb for the code.
	Subject    string
	BodyFormat string
}

// PasswordConfig holds the argon2id parameters used to hash secrets at rest.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// RateLimitConfig controls the fixed-window login throttle.
type RateLimitConfig struct {
	Enabled          bool
	EnableIPThrottle bool
	MaxLoginAttempts int
	LoginCooldown    time.Duration
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events under backpressure instead of blocking the
	// request path. Dropped counts are observable via [Engine.AuditDropped].
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics system.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the configuration used when the Builder is given
// none. Every policy value is explicit here; nothing is implied by the
// backing stores.
func DefaultConfig() Config {
	return Config{
		Session: SessionConfig{
			RedisPrefix: "ag",
			TTL:         24 * time.Hour,
			Sliding:     false,
		},
		OTP: OTPConfig{
			TTL:        10 * time.Minute,
			Subject:    "Password Reset OTP",
			BodyFormat: "Your OTP is %s",
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		RateLimit: RateLimitConfig{
			Enabled:          true,
			EnableIPThrottle: true,
			MaxLoginAttempts: 10,
			LoginCooldown:    time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func validateConfig(cfg Config) error {
	if cfg.Session.TTL <= 0 {
		return errors.New("session TTL must be positive")
	}
	if cfg.Session.RedisPrefix == "" {
		return errors.New("session redis prefix must not be empty")
	}
	if cfg.OTP.TTL < 0 {
		return errors.New("otp TTL must not be negative")
	}
	if cfg.OTP.Subject == "" || cfg.OTP.BodyFormat == "" {
		return errors.New("otp subject and body format must not be empty")
	}
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.MaxLoginAttempts <= 0 {
			return errors.New("rate limit max login attempts must be positive")
		}
		if cfg.RateLimit.LoginCooldown <= 0 {
			return errors.New("rate limit login cooldown must be positive")
		}
	}
	if cfg.Audit.Enabled && cfg.Audit.BufferSize <= 0 {
		return errors.New("audit buffer size must be positive")
	}
	return nil
}
