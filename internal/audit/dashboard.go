package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/parity/internal/gate"
	"github.com/fyrsmithlabs/parity/internal/phase"
	"github.com/fyrsmithlabs/parity/internal/register"
	"github.com/fyrsmithlabs/parity/internal/schema"
	"github.com/fyrsmithlabs/parity/internal/workspace"
)

// RegisterStatus summarises one register for the dashboard.
type RegisterStatus struct {
	Category     workspace.Category `json:"category" yaml:"category"`
	State        workspace.State    `json:"state" yaml:"state"`
	AllValidated bool               `json:"allValidated" yaml:"allValidated"`
	Summary      register.Summary   `json:"summary" yaml:"summary"`
}

// Snapshot is everything the status view shows.
type Snapshot struct {
	Session     string               `json:"session" yaml:"session"`
	Root        string               `json:"root" yaml:"root"`
	GeneratedAt time.Time            `json:"generatedAt" yaml:"generatedAt"`
	Phase       phase.State          `json:"phase" yaml:"phase"`
	Milestones  []phase.Milestone    `json:"milestones" yaml:"milestones"`
	Registers   []RegisterStatus     `json:"registers" yaml:"registers"`
	Outcomes    map[gate.Outcome]int `json:"outcomes" yaml:"outcomes"`
	Recent      []Entry              `json:"recent" yaml:"recent"`
	Skipped     int                  `json:"skippedLines,omitempty" yaml:"skippedLines,omitempty"`
}

// Collect reads the workspace and the audit trail into a snapshot. The
// last tail entries are kept as recent decisions.
func Collect(ctx context.Context, ws *workspace.Context, checker *schema.Checker, trail string, tail int, now time.Time) (Snapshot, error) {
	snap, _ := gate.Scan(ctx, ws, checker)
	res := phase.Detect(snap)

	s := Snapshot{
		Session:     ws.SessionID,
		Root:        ws.Root,
		GeneratedAt: now.UTC(),
		Phase:       res.Phase,
		Milestones:  res.Milestones,
		Outcomes:    map[gate.Outcome]int{},
		Recent:      []Entry{},
	}

	for _, cat := range workspace.Registers() {
		rs := RegisterStatus{Category: cat, State: snap[cat].State, AllValidated: snap[cat].AllValidated}
		if rs.State == "" {
			rs.State = workspace.StateAbsent
		}
		if r, err := register.Load(ws.Abs(workspace.MustLookup(cat).Canonical)); err == nil {
			r.Recompute()
			rs.Summary = r.Summary
		}
		s.Registers = append(s.Registers, rs)
	}

	entries, skipped, err := ReadEntries(trail)
	if err != nil {
		return s, err
	}
	s.Skipped = skipped
	for _, e := range entries {
		s.Outcomes[e.Outcome]++
	}
	if tail >= 0 && len(entries) > tail {
		entries = entries[len(entries)-tail:]
	}
	s.Recent = append(s.Recent, entries...)
	return s, nil
}

// Lipgloss styles (k9s-inspired color scheme)
var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	healthyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	containerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(1, 2)
)

// milestoneBadge returns a badge for a checklist entry
func milestoneBadge(reached bool) string {
	if reached {
		return healthyStyle.Render("[✓]")
	}
	return dimStyle.Render("[ ]")
}

// registerBadge returns a colored badge for a register state
func registerBadge(rs RegisterStatus) string {
	switch {
	case rs.AllValidated:
		return healthyStyle.Render("[✓]")
	case rs.State == workspace.StateValid:
		return warningStyle.Render("[⚠]")
	default:
		return errorStyle.Render("[✗]")
	}
}

// outcomeBadge returns a colored badge for a decision outcome
func outcomeBadge(o gate.Outcome) string {
	switch o {
	case gate.OutcomeAllow:
		return healthyStyle.Render("✓ ALLOW")
	case gate.OutcomeWarn:
		return warningStyle.Render("⚠ WARN ")
	default:
		return errorStyle.Render("✗ BLOCK")
	}
}

// Render draws the snapshot.
func Render(s Snapshot) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("parity gate dashboard"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s   %s %s\n",
		labelStyle.Render("Session:"), valueStyle.Render(s.Session),
		labelStyle.Render("Phase:"), valueStyle.Render(string(s.Phase)))
	b.WriteString(dimStyle.Render(s.Root))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Milestones"))
	b.WriteString("\n")
	for _, m := range s.Milestones {
		fmt.Fprintf(&b, "  %s %-20s", milestoneBadge(m.Reached), m.State)
		if len(m.Unmet) > 0 {
			b.WriteString(dimStyle.Render("needs " + strings.Join(m.Unmet, ", ")))
		}
		b.WriteString("\n")
	}

	b.WriteString(sectionStyle.Render("Registers"))
	b.WriteString("\n")
	for _, rs := range s.Registers {
		fmt.Fprintf(&b, "  %s %-20s", registerBadge(rs), rs.Category)
		if rs.State == workspace.StateAbsent {
			b.WriteString(dimStyle.Render("absent"))
		} else {
			fmt.Fprintf(&b, "%s %s  %s %d  %s %d",
				labelStyle.Render("validated"), valueStyle.Render(FormatRatio(rs.Summary.Validated, rs.Summary.Total)),
				labelStyle.Render("failed"), rs.Summary.Failed,
				labelStyle.Render("pending"), rs.Summary.Pending)
		}
		b.WriteString("\n")
	}

	b.WriteString(sectionStyle.Render("Decisions"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s %d  %s %d  %s %d\n",
		labelStyle.Render("allow"), s.Outcomes[gate.OutcomeAllow],
		labelStyle.Render("warn"), s.Outcomes[gate.OutcomeWarn],
		labelStyle.Render("block"), s.Outcomes[gate.OutcomeBlock])
	if len(s.Recent) == 0 {
		b.WriteString(dimStyle.Render("  no decisions recorded"))
		b.WriteString("\n")
	}
	for i := len(s.Recent) - 1; i >= 0; i-- {
		e := s.Recent[i]
		target := e.Target
		if target == "" {
			target = string(e.Event)
		}
		fmt.Fprintf(&b, "  %s %s %-36s %s\n",
			outcomeBadge(e.Outcome),
			dimStyle.Render(fmt.Sprintf("%5s ago %6s", FormatAge(e.TS, s.GeneratedAt), FormatElapsed(e.ElapsedMS))),
			Truncate(target, 36),
			Truncate(e.Reason, 60))
	}
	if s.Skipped > 0 {
		b.WriteString(warningStyle.Render(fmt.Sprintf("  %d malformed audit lines skipped", s.Skipped)))
		b.WriteString("\n")
	}

	return containerStyle.Render(strings.TrimRight(b.String(), "\n"))
}
