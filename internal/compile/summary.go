package compile

import "github.com/h1t35h/AssetOpsBench/pkg/models"

// Summary is the serializable view of a Result used for CLI output and history.
type Summary struct {
	OK          bool                   `json:"ok" yaml:"ok"`
	Steps       int                    `json:"steps" yaml:"steps"`
	Graph       *models.TaskGraph      `json:"graph,omitempty" yaml:"graph,omitempty"`
	Error       *ErrorSummary          `json:"error,omitempty" yaml:"error,omitempty"`
	Diagnostics []models.Diagnostic    `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Warnings    []models.EntityMention `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// ErrorSummary is the serializable view of a CompileError.
type ErrorSummary struct {
	Code    string         `json:"code" yaml:"code"`
	Kind    ErrorKind      `json:"kind" yaml:"kind"`
	Step    int            `json:"step,omitempty" yaml:"step,omitempty"`
	Value   string         `json:"value,omitempty" yaml:"value,omitempty"`
	Fields  []models.Field `json:"fields,omitempty" yaml:"fields,omitempty"`
	Limit   int            `json:"limit,omitempty" yaml:"limit,omitempty"`
	Actual  int            `json:"actual,omitempty" yaml:"actual,omitempty"`
	Message string         `json:"message" yaml:"message"`
}

// Summary returns the serializable view of the result.
func (r Result) Summary() Summary {
	s := Summary{
		OK:          r.OK(),
		Graph:       r.Graph,
		Diagnostics: r.Diagnostics,
		Warnings:    r.Warnings,
	}
	if r.Graph != nil {
		s.Steps = r.Graph.Len()
	} else {
		s.Steps = len(r.Partial)
	}
	if r.Err != nil {
		s.Error = r.Err.Summary()
	}
	return s
}

// Summary returns the serializable view of the error.
func (e *CompileError) Summary() *ErrorSummary {
	return &ErrorSummary{
		Code:    e.Code(),
		Kind:    e.Kind,
		Step:    e.Step,
		Value:   e.Value,
		Fields:  e.Fields,
		Limit:   e.Limit,
		Actual:  e.Actual,
		Message: e.Error(),
	}
}
