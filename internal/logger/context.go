package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds connection-scoped logging context for a single Wayland
// peer connection: which side of the wire we are, the object the current
// message is addressed to, and timing for duration calculations.
type LogContext struct {
	TraceID      string    // OpenTelemetry trace ID
	SpanID       string    // OpenTelemetry span ID
	Side         string    // "client" or "server"
	ConnectionID string    // Socket/connection identifier
	ObjectID     uint32    // Object id the current message addresses
	Interface    string    // Interface name of the addressed object, if known
	StartTime    time.Time // For duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for a connection.
func NewLogContext(connectionID string) *LogContext {
	return &LogContext{
		ConnectionID: connectionID,
		StartTime:    time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		TraceID:      lc.TraceID,
		SpanID:       lc.SpanID,
		Side:         lc.Side,
		ConnectionID: lc.ConnectionID,
		ObjectID:     lc.ObjectID,
		Interface:    lc.Interface,
		StartTime:    lc.StartTime,
	}
}

// WithSide returns a copy with the side set ("client" or "server").
func (lc *LogContext) WithSide(side string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Side = side
	}
	return clone
}

// WithObject returns a copy with the addressed object id and interface set.
func (lc *LogContext) WithObject(id uint32, iface string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.ObjectID = id
		clone.Interface = iface
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
