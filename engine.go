package jwtguard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	internalaudit "github.com/cwhitmore/jwtguard/internal/audit"
	"github.com/cwhitmore/jwtguard/token"
)

// Engine is the request-authentication decision engine shared by all
// delivery profiles. It is immutable after [Builder.Build] and safe for
// unsynchronized concurrent use; each authentication pass is fully
// independent of every other.
type Engine struct {
	config    Config
	codec     *token.Codec
	delivery  strategy
	scheme    SecurityScheme
	exclude   pathMatcher
	retriever UserRetriever
	audit     *internalaudit.Dispatcher
	metrics   *Metrics
}

// Authenticate runs one authentication pass for an inbound request.
//
// The pass is a terminal decision procedure: excluded path, extraction,
// verification, user resolution, success. The three possible outcomes are:
//
//   - (nil, nil): the path is excluded; the request proceeds without an
//     identity and the credential, valid or garbage, is never inspected.
//   - (result, nil): the request is authenticated.
//   - (nil, err): rejection when errors.Is(err, ErrNotAuthorized), backend
//     malfunction when errors.Is(err, ErrUserRetrieval). The two must map to
//     distinct HTTP outcomes (401 vs 500).
//
// The retriever is invoked at most once per pass, with the request context.
func (e *Engine) Authenticate(ctx context.Context, r *http.Request) (*AuthResult, error) {
	path := r.URL.Path

	if e.exclude.matches(path) {
		e.metrics.inc(MetricAuthExcluded)
		return nil, nil
	}

	raw, err := e.delivery.extract(r)
	if err != nil {
		return nil, e.reject(path, "", "", err)
	}

	claims, err := e.codec.Decode(raw)
	if err != nil {
		return nil, e.reject(path, "", "", err)
	}

	user, err := e.retriever.RetrieveUser(ctx, claims.Sub)
	if err != nil {
		e.metrics.inc(MetricAuthRetrievalFailure)
		e.audit.Dispatch(internalaudit.Event{
			Timestamp: time.Now(),
			EventType: internalaudit.EventAuthenticate,
			Subject:   claims.Sub,
			TokenID:   claims.Jti,
			Path:      path,
			Success:   false,
			Error:     err.Error(),
			Metadata:  map[string]string{"kind": "retrieval_failure"},
		})
		return nil, fmt.Errorf("%w: %w", ErrUserRetrieval, err)
	}
	if user == nil {
		return nil, e.reject(path, claims.Sub, claims.Jti, ErrUserNotFound)
	}

	e.metrics.inc(MetricAuthSuccess)
	e.audit.Dispatch(internalaudit.Event{
		Timestamp: time.Now(),
		EventType: internalaudit.EventAuthenticate,
		Subject:   claims.Sub,
		TokenID:   claims.Jti,
		Path:      path,
		Success:   true,
	})

	return &AuthResult{User: user, Token: claims}, nil
}

// reject collapses every credential failure into ErrNotAuthorized for the
// caller while keeping the cause available for diagnostics via Unwrap,
// audit, and metrics.
func (e *Engine) reject(path, subject, tokenID string, cause error) error {
	e.metrics.inc(MetricAuthRejected)
	e.audit.Dispatch(internalaudit.Event{
		Timestamp: time.Now(),
		EventType: internalaudit.EventAuthenticate,
		Subject:   subject,
		TokenID:   tokenID,
		Path:      path,
		Success:   false,
		Error:     cause.Error(),
	})
	return fmt.Errorf("%w: %w", ErrNotAuthorized, cause)
}

// CreateToken issues a signed token for subject using the engine's codec and
// defaults. Options override expiration and add claims per call.
func (e *Engine) CreateToken(subject string, opts ...token.IssueOption) (string, error) {
	encoded, err := e.codec.Issue(subject, opts...)
	if err != nil {
		return "", err
	}
	e.metrics.inc(MetricTokenIssued)
	return encoded, nil
}

// Login issues a token for subject, attaches it to the response per the
// active delivery profile (header value "<scheme> <token>", cookie with the
// configured attributes, or both), and writes body as the response payload.
//
// Login is a pure function of its inputs and the configuration; it carries
// no state between calls. Checking the caller's primary credential happens
// before Login, in the application's login handler.
func (e *Engine) Login(w http.ResponseWriter, subject string, body any, opts ...token.IssueOption) error {
	encoded, err := e.CreateToken(subject, opts...)
	if err != nil {
		return err
	}

	// Decode our own issuance to recover exp and jti without duplicating
	// claim defaulting here.
	claims, err := e.codec.Decode(encoded)
	if err != nil {
		return err
	}

	e.delivery.attach(w, encoded, claims.Exp)

	e.metrics.inc(MetricLoginResponses)
	e.audit.Dispatch(internalaudit.Event{
		Timestamp: time.Now(),
		EventType: internalaudit.EventLogin,
		Subject:   subject,
		TokenID:   claims.Jti,
		Success:   true,
	})

	w.Header().Set("Content-Type", e.config.Response.ContentType)
	w.WriteHeader(e.config.Response.Status)
	if body == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(body)
}

// SecurityScheme returns the static descriptor of the active profile.
func (e *Engine) SecurityScheme() SecurityScheme {
	return e.scheme
}

// SecuritySchemes returns the descriptor keyed by the configured scheme
// name, shaped for an OpenAPI components.securitySchemes map.
func (e *Engine) SecuritySchemes() map[string]SecurityScheme {
	return map[string]SecurityScheme{e.config.SchemeName: e.scheme}
}

// SecurityRequirement returns the OpenAPI security requirement referencing
// the configured scheme name.
func (e *Engine) SecurityRequirement() map[string][]string {
	return map[string][]string{e.config.SchemeName: {}}
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// AuditDropped reports audit events discarded due to a full buffer.
func (e *Engine) AuditDropped() uint64 {
	return e.audit.Dropped()
}

// Close drains the audit dispatcher. The engine must not be used afterwards.
func (e *Engine) Close() {
	e.audit.Close()
}
