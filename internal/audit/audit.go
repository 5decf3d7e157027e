package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Event types emitted by the authentication engine.
const (
	// EventAuthenticate records the outcome of one authentication pass.
	EventAuthenticate = "authenticate"
	// EventLogin records the issuance of a token through a login response.
	EventLogin = "login"
)

// Event is a structured record of a single authentication decision or token
// issuance. The Error field carries the internal failure cause; it is for
// diagnostics only and is never reflected in the HTTP outcome.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	Subject   string            `json:"subject,omitempty"`
	TokenID   string            `json:"token_id,omitempty"`
	Path      string            `json:"path,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Sink receives events from the dispatcher. Implementations must be safe for
// concurrent use.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink discards all events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink buffers events on a channel for consumption by the caller.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan Event, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON-encoded event per line to an io.Writer.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
