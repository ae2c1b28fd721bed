package behavior

import (
	"github.com/fyrsmithlabs/parity/internal/workspace"
)

// Hover describes a node's hover interaction.
type Hover struct {
	HasEffect    bool   `json:"hasEffect"`
	AffectsOther bool   `json:"affectsOther"`
	Description  string `json:"description"`
}

// Click describes a node's click interaction.
type Click struct {
	Navigates   bool   `json:"navigates"`
	Target      string `json:"target"`
	Description string `json:"description"`
}

// Styling describes embedded media and the rendered element.
type Styling struct {
	Media       string `json:"media"`
	ElementType string `json:"elementType"`
}

// Node is one interactive element with its nested slots.
type Node struct {
	Label       string  `json:"label"`
	ElementType string  `json:"elementType,omitempty"`
	Hover       Hover   `json:"hover"`
	Click       Click   `json:"click"`
	Styling     Styling `json:"styling"`
	Items       []Node  `json:"items,omitempty"`
	Tabs        []Node  `json:"tabs,omitempty"`
	Featured    []Node  `json:"featured,omitempty"`
	Specs       []Node  `json:"specs,omitempty"`
}

// Tree is the behavior capture of one component.
type Tree struct {
	Component string `json:"component,omitempty"`
	Triggers  []Node `json:"triggers"`
}

// Parse decodes a behavior tree.
func Parse(path string, data []byte) (Tree, error) {
	var t Tree
	if err := workspace.DecodeJSON(path, data, &t); err != nil {
		return Tree{}, err
	}
	return t, nil
}

// Load reads a behavior tree from disk.
func Load(path string) (Tree, error) {
	data, err := workspace.ReadFile(path)
	if err != nil {
		return Tree{}, err
	}
	return Parse(path, data)
}
