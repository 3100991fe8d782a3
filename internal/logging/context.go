// internal/logging/context.go
package logging

import (
	"context"
	"fmt"
	"regexp"
	"unicode/utf8"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 6)

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
		if sc.IsSampled() {
			fields = append(fields, zap.Bool("trace_sampled", true))
		}
	}

	for _, key := range []idKey{requestIDKey, outlineIDKey, referenceIDKey} {
		if id, ok := ctx.Value(key).(string); ok {
			fields = append(fields, zap.String(string(key), id))
		}
	}

	return fields
}

// idKey is a context key that doubles as the log field name.
type idKey string

const (
	requestIDKey   idKey = "request.id"
	outlineIDKey   idKey = "outline.id"
	referenceIDKey idKey = "reference.id"
)

const maxIDLen = 128

// idPattern allows alphanumeric, hyphen, underscore.
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// validateID validates a correlation identifier.
func validateID(id, name string) error {
	if id == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	if !utf8.ValidString(id) {
		return fmt.Errorf("%s contains invalid UTF-8", name)
	}
	if len(id) > maxIDLen {
		return fmt.Errorf("%s exceeds max length %d", name, maxIDLen)
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (must be alphanumeric, hyphen, underscore)", name)
	}
	return nil
}

// ValidID reports whether id can be used as a correlation identifier
// without panicking.
func ValidID(id string) bool {
	return validateID(id, "id") == nil
}

func withID(ctx context.Context, key idKey, id string) context.Context {
	if err := validateID(id, string(key)); err != nil {
		panic(fmt.Sprintf("logging: %v", err))
	}
	return context.WithValue(ctx, key, id)
}

func idFromContext(ctx context.Context, key idKey) string {
	if id, ok := ctx.Value(key).(string); ok {
		return id
	}
	return ""
}

// WithRequestID adds a request ID to context.
// Panics if requestID is empty or contains invalid characters.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withID(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	return idFromContext(ctx, requestIDKey)
}

// WithOutlineID adds a generated outline ID to context.
// Panics if outlineID is empty or contains invalid characters.
func WithOutlineID(ctx context.Context, outlineID string) context.Context {
	return withID(ctx, outlineIDKey, outlineID)
}

// OutlineIDFromContext extracts the outline ID from context.
func OutlineIDFromContext(ctx context.Context) string {
	return idFromContext(ctx, outlineIDKey)
}

// WithReferenceID adds a reference outline ID to context.
// Panics if referenceID is empty or contains invalid characters.
func WithReferenceID(ctx context.Context, referenceID string) context.Context {
	return withID(ctx, referenceIDKey, referenceID)
}

// ReferenceIDFromContext extracts the reference ID from context.
func ReferenceIDFromContext(ctx context.Context) string {
	return idFromContext(ctx, referenceIDKey)
}

type loggerCtxKey struct{}

// WithLogger stores logger in context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext retrieves logger from context.
// Returns a nop logger if not found.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok {
		return l
	}
	return NewNop()
}
