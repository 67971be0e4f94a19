package models

import "strings"

// Confidence records which resolution rule matched an agent reference.
type Confidence string

const (
	// ConfidenceExact means the reference equals a catalog name, ignoring case and punctuation.
	ConfidenceExact Confidence = "exact"
	// ConfidencePartial means one name contains the other.
	ConfidencePartial Confidence = "partial"
	// ConfidenceKeyword means the reference shares keywords with a catalog agent.
	ConfidenceKeyword Confidence = "keyword"
	// ConfidenceUnresolved means no rule matched. It is never replaced by a default agent.
	ConfidenceUnresolved Confidence = "unresolved"
)

// Valid returns true if the confidence is a known value.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceExact, ConfidencePartial, ConfidenceKeyword, ConfidenceUnresolved:
		return true
	default:
		return false
	}
}

// ResolvedAgent is the outcome of mapping a plan's agent reference onto the catalog.
type ResolvedAgent struct {
	// CanonicalName is the catalog name, empty when unresolved.
	CanonicalName string `json:"name,omitempty" yaml:"name,omitempty"`
	// Confidence is the rule that produced the match.
	Confidence Confidence `json:"confidence" yaml:"confidence"`
}

// Resolved returns true if the reference matched a catalog agent.
func (r ResolvedAgent) Resolved() bool {
	return r.Confidence != "" && r.Confidence != ConfidenceUnresolved && r.CanonicalName != ""
}

// Unresolved returns the resolution used when no rule matches.
func Unresolved() ResolvedAgent {
	return ResolvedAgent{Confidence: ConfidenceUnresolved}
}

// AgentDescriptor describes one specialist agent known to the execution engine.
type AgentDescriptor struct {
	// Name is the canonical agent name, unique within a catalog.
	Name string `json:"name" yaml:"name" validate:"required,nonempty,max=200"`
	// Description explains what the agent can do.
	Description string `json:"description" yaml:"description"`
	// Keywords are optional tokens or phrases used for keyword resolution.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty" validate:"dive,nonempty"`
	// ExampleTasks are optional sample tasks shown to the planner.
	ExampleTasks []string `json:"example_tasks,omitempty" yaml:"example_tasks,omitempty"`
}

// Catalog is a fixed, read-only collection of agent descriptors.
// Once built it is never mutated, so it can be shared by concurrent compilations.
type Catalog struct {
	agents []AgentDescriptor
}

// NewCatalog builds a catalog from the given descriptors, preserving order.
// The descriptors are copied so later changes by the caller are not observed.
func NewCatalog(agents ...AgentDescriptor) *Catalog {
	copied := make([]AgentDescriptor, len(agents))
	for i, a := range agents {
		copied[i] = a.clone()
	}
	return &Catalog{agents: copied}
}

// Len returns the number of agents.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.agents)
}

// At returns the agent at position i in catalog order.
func (c *Catalog) At(i int) AgentDescriptor {
	return c.agents[i].clone()
}

// Agents returns a copy of all descriptors in catalog order.
func (c *Catalog) Agents() []AgentDescriptor {
	if c == nil {
		return nil
	}
	out := make([]AgentDescriptor, len(c.agents))
	for i, a := range c.agents {
		out[i] = a.clone()
	}
	return out
}

// Names returns the agent names in catalog order.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, len(c.agents))
	for i, a := range c.agents {
		names[i] = a.Name
	}
	return names
}

// Lookup finds an agent by name, ignoring case.
func (c *Catalog) Lookup(name string) (AgentDescriptor, bool) {
	if c == nil {
		return AgentDescriptor{}, false
	}
	for _, a := range c.agents {
		if strings.EqualFold(a.Name, name) {
			return a.clone(), true
		}
	}
	return AgentDescriptor{}, false
}

func (a AgentDescriptor) clone() AgentDescriptor {
	out := a
	if a.Keywords != nil {
		out.Keywords = append([]string(nil), a.Keywords...)
	}
	if a.ExampleTasks != nil {
		out.ExampleTasks = append([]string(nil), a.ExampleTasks...)
	}
	return out
}
