// internal/logging/context.go
package logging

import (
	"context"
	"fmt"
	"regexp"
	"unicode/utf8"

	"go.uber.org/zap"
)

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 3)

	if sessionID := SessionIDFromContext(ctx); sessionID != "" {
		fields = append(fields, zap.String("session.id", sessionID))
	}

	if root := WorkspaceFromContext(ctx); root != "" {
		fields = append(fields, zap.String("workspace.root", root))
	}

	if target := TargetFromContext(ctx); target != "" {
		fields = append(fields, zap.String("event.target", target))
	}

	return fields
}

// Context key types
type sessionCtxKey struct{}
type workspaceCtxKey struct{}
type targetCtxKey struct{}

const maxIDLen = 128

// idPattern allows alphanumeric, hyphen, underscore, dot
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// ValidateID validates a session ID.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("session id cannot be empty")
	}
	if !utf8.ValidString(id) {
		return fmt.Errorf("session id contains invalid UTF-8")
	}
	if len(id) > maxIDLen {
		return fmt.Errorf("session id exceeds max length %d", maxIDLen)
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("session id contains invalid characters (must be alphanumeric, hyphen, underscore, dot)")
	}
	return nil
}

// SessionIDFromContext extracts session ID from context.
func SessionIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(sessionCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// WithSessionID adds session ID to context.
// Panics if sessionID is empty or contains invalid characters.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if err := ValidateID(sessionID); err != nil {
		panic(fmt.Sprintf("logging: %v", err))
	}
	return context.WithValue(ctx, sessionCtxKey{}, sessionID)
}

// WorkspaceFromContext extracts the workspace root from context.
func WorkspaceFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(workspaceCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// WithWorkspace adds the workspace root to context.
func WithWorkspace(ctx context.Context, root string) context.Context {
	return context.WithValue(ctx, workspaceCtxKey{}, root)
}

// TargetFromContext extracts the artifact path under evaluation.
func TargetFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(targetCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// WithTarget adds the artifact path under evaluation to context.
func WithTarget(ctx context.Context, target string) context.Context {
	return context.WithValue(ctx, targetCtxKey{}, target)
}

// loggerCtxKey is the context key for Logger.
type loggerCtxKey struct{}

// WithLogger stores logger in context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext retrieves logger from context.
// Returns a default nop logger if not found.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok {
		return l
	}
	return NewNop()
}
