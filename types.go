package jwtguard

import (
	"context"
	"io"

	internalaudit "github.com/cwhitmore/jwtguard/internal/audit"
	"github.com/cwhitmore/jwtguard/token"
)

// UserRetriever resolves a token subject to an application-defined user.
// It is the single suspension point of an authentication pass and is invoked
// at most once per pass. A (nil, nil) return means "no such user" and leads
// to a rejection; a non-nil error means the backend malfunctioned and is
// surfaced as a server failure, never as a rejection.
//
// The context is the inbound request context, so request-scoped values and
// cancellation flow through to the lookup.
type UserRetriever interface {
	RetrieveUser(ctx context.Context, subject string) (any, error)
}

// UserRetrieverFunc adapts a plain function to [UserRetriever].
type UserRetrieverFunc func(ctx context.Context, subject string) (any, error)

func (f UserRetrieverFunc) RetrieveUser(ctx context.Context, subject string) (any, error) {
	return f(ctx, subject)
}

// AuthResult pairs the resolved user with the verified token payload for one
// request. It is created per successful authentication pass and discarded
// with the request; it is never persisted.
type AuthResult struct {
	User  any
	Token *token.Token
}

// SecurityScheme is the static, serializable descriptor of the active
// authentication profile, shaped for OpenAPI security-scheme consumers.
// It is computed once from configuration and never mutated.
type SecurityScheme struct {
	Type         string      `json:"type"`
	Scheme       string      `json:"scheme,omitempty"`
	Name         string      `json:"name,omitempty"`
	In           string      `json:"in,omitempty"`
	BearerFormat string      `json:"bearerFormat,omitempty"`
	Description  string      `json:"description,omitempty"`
	Flows        *OAuthFlows `json:"flows,omitempty"`
}

// OAuthFlows holds the flow metadata of an oauth2 security scheme. Only the
// password grant is produced by this library.
type OAuthFlows struct {
	Password *OAuthFlow `json:"password,omitempty"`
}

// OAuthFlow describes one OAuth2 flow.
type OAuthFlow struct {
	TokenURL string            `json:"tokenUrl"`
	Scopes   map[string]string `json:"scopes"`
}

// AuditEvent is a structured record emitted for authentication decisions and
// token issuance.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's async dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON lines to an [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// Audit event types.
const (
	EventAuthenticate = internalaudit.EventAuthenticate
	EventLogin        = internalaudit.EventLogin
)

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
