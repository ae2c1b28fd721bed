package workspace

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/parity/internal/logging"
)

// Context is the explicit per-invocation workspace handle.
type Context struct {
	SessionID string
	Root      string
	Log       *logging.Logger
}

// New builds a Context rooted at root. An empty sessionID gets a fresh uuid.
func New(root, sessionID string, log *logging.Logger) (*Context, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root %q: %w", root, err)
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if err := logging.ValidateID(sessionID); err != nil {
		return nil, fmt.Errorf("invalid session id: %w", err)
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Context{SessionID: sessionID, Root: abs, Log: log}, nil
}

// Abs resolves a workspace-relative path. Absolute paths are returned cleaned.
func (w *Context) Abs(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(w.Root, filepath.FromSlash(p))
}

// Rel returns p relative to the root in slash form. Paths outside the root
// keep their leading "../" segments.
func (w *Context) Rel(p string) string {
	if !filepath.IsAbs(p) {
		return filepath.ToSlash(filepath.Clean(p))
	}
	rel, err := filepath.Rel(w.Root, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

// Outside reports whether the slash-form relative path escapes the root.
func Outside(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, "../")
}

// Attach returns ctx carrying the session and root log fields.
func (w *Context) Attach(ctx context.Context) context.Context {
	ctx = logging.WithSessionID(ctx, w.SessionID)
	ctx = logging.WithWorkspace(ctx, w.Root)
	return logging.WithLogger(ctx, w.Log)
}
