package guardkit

import (
	"errors"
	"time"

	"github.com/guardkit/guardkit/password"
)

// Config carries all engine policy. Configure once, pass to the Builder,
// treat as immutable afterwards.
type Config struct {
	Session  SessionConfig
	Password password.Config
	Policy   PasswordPolicy
	Audit    AuditConfig
	Metrics  MetricsConfig
}

// SessionConfig bounds session issuance.
type SessionConfig struct {
	// TTL is the validity window of a newly issued session.
	TTL time.Duration
	// AutoLoginOnSignup controls whether Signup immediately issues a
	// session (an implicit login) or leaves the caller unauthenticated
	// pending verification. Deployment policy, not hardcoded behavior.
	AutoLoginOnSignup bool
	// JanitorInterval is the sweep interval of the in-process cache's
	// background eviction. Zero disables the janitor; correctness does not
	// depend on it. Ignored for externally supplied caches.
	JanitorInterval time.Duration
	// RedisPrefix namespaces cache keys when the engine builds its own
	// Redis-backed cache.
	RedisPrefix string
}

// PasswordPolicy is the acceptance policy for new passwords. The rules
// mirror common hardening baselines: a length floor plus character-class
// requirements, each individually toggleable.
type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireDigit     bool
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns production-leaning defaults: 24h sessions with
// auto-login on signup, Argon2id at interactive cost, and an 8+ character
// mixed-class password policy.
func DefaultConfig() Config {
	return Config{
		Session: SessionConfig{
			TTL:               24 * time.Hour,
			AutoLoginOnSignup: true,
			JanitorInterval:   5 * time.Minute,
			RedisPrefix:       "guardkit",
		},
		Password: password.DefaultConfig(),
		Policy: PasswordPolicy{
			MinLength:        8,
			RequireUppercase: true,
			RequireLowercase: true,
			RequireDigit:     true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate rejects configurations the engine cannot honor. Password cost
// floors are checked separately by the hasher at build time.
func (c Config) Validate() error {
	if c.Session.TTL <= 0 {
		return errors.New("session TTL must be positive")
	}
	if c.Session.JanitorInterval < 0 {
		return errors.New("janitor interval must not be negative")
	}
	if c.Policy.MinLength < 1 {
		return errors.New("password policy minimum length must be >= 1")
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 1 {
		return errors.New("audit buffer size must be >= 1 when auditing is enabled")
	}
	return nil
}
