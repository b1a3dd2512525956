package guardkit

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	internalaudit "github.com/guardkit/guardkit/internal/audit"
	internalmetrics "github.com/guardkit/guardkit/internal/metrics"
	"github.com/guardkit/guardkit/password"
	"github.com/guardkit/guardkit/session"
)

// Builder assembles an Engine. A CredentialStore is required; the session
// cache defaults to an in-process sharded map unless a Redis client or an
// explicit cache is supplied. Construction performs no I/O.
type Builder struct {
	config    Config
	store     CredentialStore
	cache     session.Cache
	redis     redis.UniversalClient
	logger    logrus.FieldLogger
	auditSink AuditSink

	built bool
}

// New returns a Builder preloaded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithStore sets the credential store backing the engine.
func (b *Builder) WithStore(store CredentialStore) *Builder {
	b.store = store
	return b
}

// WithSessionCache sets an explicit session cache, overriding both the
// in-process default and WithRedis.
func (b *Builder) WithSessionCache(cache session.Cache) *Builder {
	b.cache = cache
	return b
}

// WithRedis backs the session cache with client so several server
// instances share session state. Keys are namespaced by
// Config.Session.RedisPrefix.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithLogger sets the structured logger used on warn paths. Defaults to
// the logrus standard logger.
func (b *Builder) WithLogger(logger logrus.FieldLogger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the sink receiving audit events and implies
// Config.Audit.Enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = sink != nil
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, wires the components, and returns a
// ready Engine. A Builder can be used once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	if b.store == nil {
		return nil, errors.New("credential store required")
	}

	hasher, err := password.New(b.config.Password)
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	engine := &Engine{
		config:   b.config,
		store:    b.store,
		hasher:   hasher,
		validate: validator.New(),
		logger:   logger,
		metrics: internalmetrics.New(internalmetrics.Config{
			Enabled: b.config.Metrics.Enabled,
		}),
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    b.config.Audit.Enabled,
			BufferSize: b.config.Audit.BufferSize,
			DropIfFull: b.config.Audit.DropIfFull,
		}, b.auditSink),
	}

	switch {
	case b.cache != nil:
		engine.cache = b.cache
	case b.redis != nil:
		engine.cache = session.NewRedisCache(b.redis, b.config.Session.RedisPrefix)
	default:
		mem := session.NewMemory()
		mem.StartJanitor(b.config.Session.JanitorInterval)
		engine.cache = mem
		engine.ownedCache = mem
	}

	b.built = true
	return engine, nil
}
