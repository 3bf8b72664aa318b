package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys for structured logging across the table, wire codec,
// and dispatcher packages. Use these consistently so log lines can be
// aggregated and queried by object id, side, or connection.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Protocol & Connection
	// ========================================================================
	KeySide         = "side"          // "client" or "server"
	KeyConnectionID = "connection_id" // Connection/socket identifier
	KeyOpcode       = "opcode"        // Request/event opcode
	KeyObjectID     = "object_id"     // Protocol object id
	KeyInterface    = "interface"     // Interface name

	// ========================================================================
	// Object Table
	// ========================================================================
	KeyFlags         = "flags"          // Stored flags value (low 29 bits)
	KeyZombieCount   = "zombie_count"   // Current zombie FIFO length
	KeyFreelistDepth = "freelist_depth" // Approximate freelist depth

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorCode  = "error_code"  // Numeric/symbolic error code
)

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// Side returns a slog.Attr for the connection side.
func Side(side string) slog.Attr {
	return slog.String(KeySide, side)
}

// ConnectionID returns a slog.Attr for connection identifier
func ConnectionID(id string) slog.Attr {
	return slog.String(KeyConnectionID, id)
}

// Opcode returns a slog.Attr for a request/event opcode.
func Opcode(op uint16) slog.Attr {
	return slog.Any(KeyOpcode, op)
}

// ObjectID returns a slog.Attr for a protocol object id.
func ObjectID(id uint32) slog.Attr {
	return slog.Any(KeyObjectID, id)
}

// Interface returns a slog.Attr for an interface name.
func Interface(name string) slog.Attr {
	return slog.String(KeyInterface, name)
}

// Flags returns a slog.Attr for a stored flags value.
func Flags(flags uint32) slog.Attr {
	return slog.Any(KeyFlags, flags)
}

// ZombieCount returns a slog.Attr for the zombie FIFO length.
func ZombieCount(n int32) slog.Attr {
	return slog.Any(KeyZombieCount, n)
}

// FreelistDepth returns a slog.Attr for the approximate freelist depth.
func FreelistDepth(n int) slog.Attr {
	return slog.Int(KeyFreelistDepth, n)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a symbolic error code.
func ErrorCode(code fmt.Stringer) slog.Attr {
	return slog.String(KeyErrorCode, code.String())
}
