// Package models holds the data types shared by the plan compiler, its
// collaborators and the execution engine that consumes compiled plans.
package models

import "strconv"

// Field identifies one of the four recognized per-step fields of the plan markup.
type Field string

const (
	// FieldTask is the task description (#Task<N>:).
	FieldTask Field = "Task"
	// FieldAgent is the agent reference (#Agent<N>:).
	FieldAgent Field = "Agent"
	// FieldDependency lists prior steps this step waits on (#Dependency<N>:).
	FieldDependency Field = "Dependency"
	// FieldExpectedOutput describes what the step produces (#ExpectedOutput<N>:).
	FieldExpectedOutput Field = "ExpectedOutput"
)

// Fields lists the recognized fields in markup order.
var Fields = []Field{FieldTask, FieldAgent, FieldDependency, FieldExpectedOutput}

// Valid returns true if the field is a known value.
func (f Field) Valid() bool {
	switch f {
	case FieldTask, FieldAgent, FieldDependency, FieldExpectedOutput:
		return true
	default:
		return false
	}
}

// Tag returns the markup tag for the field at the given step, e.g. "#Task3:".
func (f Field) Tag(step int) string {
	return "#" + string(f) + strconv.Itoa(step) + ":"
}

// FieldRecord is one extracted (step, field, value) triple.
// Records are produced by the segment extractor and never modified afterwards.
type FieldRecord struct {
	// StepIndex is the integer carried by the field tag.
	StepIndex int `json:"step_index" yaml:"step_index"`
	// Field is which of the four fields this record holds.
	Field Field `json:"field" yaml:"field"`
	// RawValue is the text following the tag, up to the next recognized token.
	RawValue string `json:"raw_value" yaml:"raw_value"`
	// Orphan is set when StepIndex matches no step block in the plan text.
	Orphan bool `json:"orphan,omitempty" yaml:"orphan,omitempty"`
}

// ParsedStep is a complete, normalized step assembled from its field records.
type ParsedStep struct {
	// Index is the 1-based step number.
	Index int `json:"index" yaml:"index"`
	// TaskText is the trimmed task description.
	TaskText string `json:"task" yaml:"task"`
	// AgentRef is the trimmed agent name as written in the plan.
	AgentRef string `json:"agent_ref" yaml:"agent_ref"`
	// DependencyRefs holds the referenced step indices in ascending order.
	DependencyRefs []int `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	// ExpectedOutput is the trimmed expected output description.
	ExpectedOutput string `json:"expected_output" yaml:"expected_output"`
}

// TaskNode is one validated step of a compiled plan.
type TaskNode struct {
	Step  ParsedStep    `json:"step" yaml:"step"`
	Agent ResolvedAgent `json:"agent" yaml:"agent"`
	// Predecessors are the step indices that must complete before this node runs.
	Predecessors []int `json:"predecessors,omitempty" yaml:"predecessors,omitempty"`
}

// Index returns the node's step index.
func (n TaskNode) Index() int {
	return n.Step.Index
}

// TaskGraph is a validated plan: nodes in index order, every predecessor
// index strictly smaller than the index of the node that references it.
type TaskGraph struct {
	Nodes []TaskNode `json:"nodes" yaml:"nodes"`
}

// Len returns the number of steps in the graph.
func (g *TaskGraph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Nodes)
}

// Node returns the node with the given 1-based index.
func (g *TaskGraph) Node(index int) (TaskNode, bool) {
	if g == nil || index < 1 || index > len(g.Nodes) {
		return TaskNode{}, false
	}
	return g.Nodes[index-1], true
}

// TaskTexts returns the task descriptions of all nodes in index order.
func (g *TaskGraph) TaskTexts() []string {
	if g == nil {
		return nil
	}
	texts := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		texts = append(texts, n.Step.TaskText)
	}
	return texts
}

// DiagnosticKind classifies a non-fatal compilation finding.
type DiagnosticKind string

const (
	// DiagnosticOrphanField marks a field whose index matches no step block.
	DiagnosticOrphanField DiagnosticKind = "orphan_field"
	// DiagnosticPartialStep marks a step that parsed before compilation stopped.
	DiagnosticPartialStep DiagnosticKind = "partial_step"
)

// Diagnostic is a best-effort note attached to a compilation result.
type Diagnostic struct {
	Kind      DiagnosticKind `json:"kind" yaml:"kind"`
	StepIndex int            `json:"step_index" yaml:"step_index"`
	Field     Field          `json:"field,omitempty" yaml:"field,omitempty"`
	Message   string         `json:"message" yaml:"message"`
}
