package register

import (
	"time"

	"github.com/fyrsmithlabs/parity/internal/workspace"
)

// RollupEntry summarises one register inside the rollup document.
type RollupEntry struct {
	Category     workspace.Category `json:"category"`
	Present      bool               `json:"present"`
	AllValidated bool               `json:"allValidated"`
	Summary      Summary            `json:"summary"`
}

// Rollup aggregates every register.
type Rollup struct {
	Session      string        `json:"session"`
	GeneratedAt  time.Time     `json:"generatedAt"`
	Registers    []RollupEntry `json:"registers"`
	AllValidated bool          `json:"allValidated"`
}

// BuildRollup aggregates regs in workflow order. Missing registers are
// listed as not present.
func BuildRollup(session string, now time.Time, regs map[workspace.Category]*Register) Rollup {
	out := Rollup{Session: session, GeneratedAt: now.UTC(), AllValidated: true}
	for _, cat := range workspace.Registers() {
		entry := RollupEntry{Category: cat}
		if r, ok := regs[cat]; ok && r != nil {
			entry.Present = true
			entry.AllValidated = r.Complete()
			entry.Summary = r.Summary
		}
		if !entry.AllValidated {
			out.AllValidated = false
		}
		out.Registers = append(out.Registers, entry)
	}
	return out
}
