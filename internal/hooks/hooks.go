package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fyrsmithlabs/parity/internal/gate"
	"github.com/fyrsmithlabs/parity/internal/workspace"
)

// ErrInvalidPayload is returned for payloads that cannot become an event.
var ErrInvalidPayload = errors.New("invalid hook payload")

// HookPreToolUse is the host hook fired before a tool runs. Writes seen
// there carry the proposed content; every other hook reads the file from disk.
const HookPreToolUse = "PreToolUse"

// Source tells which payload shape a request came from.
type Source string

const (
	SourceNative Source = "native"
	SourceHost   Source = "host"
)

// Edit is one string replacement proposed by an editing tool.
type Edit struct {
	OldString  string `json:"old_string"`
	NewString  string `json:"new_string"`
	ReplaceAll bool   `json:"replace_all"`
}

type toolInput struct {
	FilePath   string  `json:"file_path"`
	Content    *string `json:"content"`
	OldString  string  `json:"old_string"`
	NewString  string  `json:"new_string"`
	ReplaceAll bool    `json:"replace_all"`
	Edits      []Edit  `json:"edits"`
}

// payload is the union of both accepted shapes.
type payload struct {
	EventType  string  `json:"event_type"`
	TargetPath string  `json:"target_path"`
	Content    *string `json:"content"`
	SessionID  string  `json:"session_id"`

	HookEventName string     `json:"hook_event_name"`
	ToolName      string     `json:"tool_name"`
	Cwd           string     `json:"cwd"`
	ToolInput     *toolInput `json:"tool_input"`
}

// Request is a parsed hook payload.
type Request struct {
	Source    Source
	Hook      string
	Tool      string
	SessionID string
	Cwd       string
	Event     gate.Event

	// Edits are applied to the on-disk target by Resolve.
	Edits []Edit

	// Ignored requests are not evaluated; Reason says why.
	Ignored bool
	Reason  string
}

// Parse decodes a native or host payload.
func Parse(data []byte, cfg *Config) (*Request, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidPayload)
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	switch {
	case p.HookEventName != "":
		return parseHost(p, cfg)
	case p.EventType != "":
		return parseNative(p)
	default:
		return nil, fmt.Errorf("%w: neither event_type nor hook_event_name is set", ErrInvalidPayload)
	}
}

func parseNative(p payload) (*Request, error) {
	req := &Request{
		Source:    SourceNative,
		SessionID: p.SessionID,
		Event:     gate.Event{Type: gate.EventType(p.EventType), TargetPath: p.TargetPath},
	}
	if req.Event.Type == gate.EventWrite {
		if p.TargetPath == "" {
			return nil, fmt.Errorf("%w: write event without target_path", ErrInvalidPayload)
		}
		if p.Content != nil {
			req.Event.Content = []byte(*p.Content)
		}
	}
	return req, nil
}

func parseHost(p payload, cfg *Config) (*Request, error) {
	req := &Request{
		Source:    SourceHost,
		Hook:      p.HookEventName,
		Tool:      p.ToolName,
		SessionID: p.SessionID,
		Cwd:       p.Cwd,
	}

	if cfg.IsSessionEnd(p.HookEventName) {
		req.Event = gate.Event{Type: gate.EventSessionEnd}
		return req, nil
	}

	if !cfg.IsWriteTool(p.ToolName) {
		req.Ignored = true
		if p.ToolName == "" {
			req.Reason = fmt.Sprintf("hook %s is not gated", p.HookEventName)
		} else {
			req.Reason = fmt.Sprintf("tool %s is not gated", p.ToolName)
		}
		return req, nil
	}
	if p.ToolInput == nil || p.ToolInput.FilePath == "" {
		return nil, fmt.Errorf("%w: %s input has no file_path", ErrInvalidPayload, p.ToolName)
	}

	target := p.ToolInput.FilePath
	if !filepath.IsAbs(target) && p.Cwd != "" {
		target = filepath.Join(p.Cwd, target)
	}
	req.Event = gate.Event{Type: gate.EventWrite, TargetPath: target}

	if p.HookEventName != HookPreToolUse {
		return req, nil
	}
	in := p.ToolInput
	switch {
	case in.Content != nil:
		req.Event.Content = []byte(*in.Content)
	case len(in.Edits) > 0:
		req.Edits = in.Edits
	case in.OldString != "":
		req.Edits = []Edit{{OldString: in.OldString, NewString: in.NewString, ReplaceAll: in.ReplaceAll}}
	}
	return req, nil
}

// Resolve turns pending edits into proposed content by applying them to the
// target as it is on disk.
func (r *Request) Resolve(ws *workspace.Context) error {
	if len(r.Edits) == 0 || r.Event.Content != nil {
		return nil
	}
	data, err := workspace.ReadFile(ws.Abs(r.Event.TargetPath))
	if err != nil {
		return err
	}
	content := string(data)
	for i, e := range r.Edits {
		content, err = applyEdit(content, e)
		if err != nil {
			return fmt.Errorf("edit %d of %s: %w", i+1, r.Event.TargetPath, err)
		}
	}
	r.Event.Content = []byte(content)
	r.Edits = nil
	return nil
}

func applyEdit(content string, e Edit) (string, error) {
	if e.OldString == "" {
		return "", errors.New("old_string is empty")
	}
	n := strings.Count(content, e.OldString)
	switch {
	case n == 0:
		return "", errors.New("old_string not found")
	case e.ReplaceAll:
		return strings.ReplaceAll(content, e.OldString, e.NewString), nil
	case n > 1:
		return "", fmt.Errorf("old_string matches %d times", n)
	}
	return strings.Replace(content, e.OldString, e.NewString, 1), nil
}

// Handler evaluates one gate event.
type Handler func(ctx context.Context, ev gate.Event) (gate.Decision, error)

// Manager dispatches parsed requests to the handlers registered for their
// event type.
type Manager struct {
	config   *Config
	handlers map[gate.EventType][]Handler
	fallback Handler
}

// NewManager creates a new hook manager
func NewManager(config *Config) *Manager {
	return &Manager{
		config:   config,
		handlers: make(map[gate.EventType][]Handler),
	}
}

// RegisterHandler registers a handler for an event type
func (m *Manager) RegisterHandler(t gate.EventType, h Handler) {
	m.handlers[t] = append(m.handlers[t], h)
}

// RegisterDefault sets the handler for event types nothing else handles.
func (m *Manager) RegisterDefault(h Handler) {
	m.fallback = h
}

// Execute runs the handlers for req in registration order. The first block
// stops the chain; otherwise the last decision wins.
func (m *Manager) Execute(ctx context.Context, req *Request) (gate.Decision, error) {
	if req.Ignored {
		return allow("ignored: " + req.Reason), nil
	}
	handlers, ok := m.handlers[req.Event.Type]
	if !ok && m.fallback != nil {
		handlers, ok = []Handler{m.fallback}, true
	}
	if !ok {
		// No handlers registered - not an error
		return allow(fmt.Sprintf("no handler for %s events", req.Event.Type)), nil
	}

	var d gate.Decision
	for _, h := range handlers {
		var err error
		d, err = h(ctx, req.Event)
		if err != nil {
			return d, fmt.Errorf("hook %s failed: %w", req.Event.Type, err)
		}
		if d.Blocked() {
			break
		}
	}
	return d, nil
}

// Config returns the hook configuration
func (m *Manager) Config() *Config {
	return m.config
}

func allow(reason string) gate.Decision {
	return gate.Decision{Outcome: gate.OutcomeAllow, Reason: reason, Remediation: []string{}}
}
