package style

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/parity/internal/register"
)

// maxRemediationFixes bounds how many fixes are spelled out in an item.
const maxRemediationFixes = 5

// Item projects the report onto a style-target register item carrying ev.
func (r Report) Item(componentID string, ev register.Evidence) register.Item {
	label := r.Component
	if label == "" {
		label = componentID
	}
	it := register.Item{
		ID:     componentID,
		Label:  label,
		Kind:   register.KindStyleTarget,
		Status: register.StatusValidated,
		Style: &register.StyleDetail{
			Similarity: r.Similarity,
			Threshold:  r.Threshold,
			Grade:      r.Grade,
		},
		Evidence: &ev,
	}
	if r.Passed {
		return it
	}

	it.Status = register.StatusFailed
	var b strings.Builder
	fmt.Fprintf(&b, "similarity %.2f below threshold %d", r.Similarity, r.Threshold)
	for i, f := range r.Fixes {
		if i == maxRemediationFixes {
			fmt.Fprintf(&b, "; %d more", len(r.Fixes)-i)
			break
		}
		fmt.Fprintf(&b, "; [%s] %s", f.Priority, f.Suggestion)
	}
	it.Remediation = b.String()
	return it
}
