package jwtguard

import (
	"errors"
	"net/http"

	internalaudit "github.com/cwhitmore/jwtguard/internal/audit"
	"github.com/cwhitmore/jwtguard/token"
)

// Builder assembles an [Engine]. Configure it during initialization, call
// [Builder.Build] once, and discard it; the resulting engine is immutable.
type Builder struct {
	config    Config
	retriever UserRetriever
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with the default configuration: header bearer
// delivery via "Authorization: Bearer", HS256, 24h token expiration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the entire configuration. The value is deep-copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSecret sets the symmetric signing key without touching the rest of the
// configuration.
func (b *Builder) WithSecret(secret []byte) *Builder {
	b.config.JWT.Secret = cloneBytes(secret)
	return b
}

// WithExcludedPaths sets the path patterns exempt from authentication.
func (b *Builder) WithExcludedPaths(patterns []string) *Builder {
	b.config.Exclude = append([]string(nil), patterns...)
	return b
}

// WithUserRetriever sets the subject-to-user resolution capability.
// Required.
func (b *Builder) WithUserRetriever(retriever UserRetriever) *Builder {
	b.retriever = retriever
	return b
}

// WithAuditSink enables auditing into the given sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = sink != nil
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and constructs the engine. Every
// configuration problem surfaces here; request handling never revalidates.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	// A zero Response is valid and means the defaults; fill them here so
	// Login never sees a zero status or an empty content type.
	if cfg.Response.Status == 0 {
		cfg.Response.Status = http.StatusCreated
	}
	if cfg.Response.ContentType == "" {
		cfg.Response.ContentType = "application/json"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.retriever == nil {
		return nil, errors.New("user retriever required")
	}

	codec, err := token.NewCodec(token.Config{
		Secret:     cfg.JWT.Secret,
		Algorithm:  cfg.JWT.Algorithm,
		DefaultTTL: cfg.JWT.DefaultExpiration,
		VerifyKeys: cfg.JWT.VerifyKeys,
		Audience:   cfg.JWT.Audience,
	})
	if err != nil {
		return nil, err
	}

	exclude, err := newPathMatcher(cfg.Exclude)
	if err != nil {
		return nil, err
	}

	delivery := strategyFor(cfg)

	engine := &Engine{
		config:    cfg,
		codec:     codec,
		delivery:  delivery,
		scheme:    delivery.describe(),
		exclude:   exclude,
		retriever: b.retriever,
		metrics:   newMetrics(cfg.Metrics),
	}
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	b.built = true

	return engine, nil
}
