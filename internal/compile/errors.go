package compile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/h1t35h/AssetOpsBench/pkg/models"
)

// ErrorKind names one class of structural compilation failure.
type ErrorKind string

const (
	KindMalformedPlanText   ErrorKind = "MalformedPlanText"
	KindMissingField        ErrorKind = "MissingFieldError"
	KindStepSequence        ErrorKind = "StepSequenceError"
	KindMalformedDependency ErrorKind = "MalformedDependencyError"
	KindInvalidDependency   ErrorKind = "InvalidDependencyError"
	KindStepLimitExceeded   ErrorKind = "StepLimitExceededError"
	KindUnresolvedAgent     ErrorKind = "UnresolvedAgentError"
)

// Sentinels matched with errors.Is against a *CompileError.
var (
	ErrMalformedPlanText   = errors.New("malformed plan text")
	ErrMissingField        = errors.New("missing field")
	ErrStepSequence        = errors.New("invalid step sequence")
	ErrMalformedDependency = errors.New("malformed dependency")
	ErrInvalidDependency   = errors.New("invalid dependency")
	ErrStepLimitExceeded   = errors.New("step limit exceeded")
	ErrUnresolvedAgent     = errors.New("unresolved agent")
)

var kindInfo = map[ErrorKind]struct {
	code     string
	sentinel error
}{
	KindMalformedPlanText:   {"PLAN-001", ErrMalformedPlanText},
	KindMissingField:        {"PLAN-002", ErrMissingField},
	KindStepSequence:        {"PLAN-003", ErrStepSequence},
	KindMalformedDependency: {"PLAN-004", ErrMalformedDependency},
	KindInvalidDependency:   {"PLAN-005", ErrInvalidDependency},
	KindStepLimitExceeded:   {"PLAN-006", ErrStepLimitExceeded},
	KindUnresolvedAgent:     {"PLAN-007", ErrUnresolvedAgent},
}

// Code returns the stable machine code for the kind, e.g. "PLAN-006".
func (k ErrorKind) Code() string {
	if info, ok := kindInfo[k]; ok {
		return info.code
	}
	return "PLAN-000"
}

// CompileError is the single error type returned by a failed compilation.
// Which fields are meaningful depends on Kind.
type CompileError struct {
	Kind ErrorKind
	// Step is the offending step index, 0 when the failure is plan-wide.
	Step int
	// Fields lists the missing fields of a MissingFieldError.
	Fields []models.Field
	// Value is the offending raw value: an agent string, a dependency token.
	Value string
	// Limit and Actual are set for StepLimitExceededError.
	Limit  int
	Actual int
	// Reason adds detail for MalformedPlanText and StepSequenceError.
	Reason string

	cause error
}

// Code returns the stable machine code of the error kind.
func (e *CompileError) Code() string {
	return e.Kind.Code()
}

func (e *CompileError) Error() string {
	switch e.Kind {
	case KindMalformedPlanText:
		return fmt.Sprintf("%s: %s", ErrMalformedPlanText, e.Reason)
	case KindMissingField:
		names := make([]string, len(e.Fields))
		for i, f := range e.Fields {
			names[i] = f.Tag(e.Step)
		}
		return fmt.Sprintf("step %d: %s: %s", e.Step, ErrMissingField, strings.Join(names, ", "))
	case KindStepSequence:
		return fmt.Sprintf("step %d: %s: %s", e.Step, ErrStepSequence, e.Reason)
	case KindMalformedDependency:
		return fmt.Sprintf("step %d: %s: cannot parse %q", e.Step, ErrMalformedDependency, e.Value)
	case KindInvalidDependency:
		return fmt.Sprintf("step %d: %s: %s must reference an earlier step", e.Step, ErrInvalidDependency, e.Value)
	case KindStepLimitExceeded:
		return fmt.Sprintf("%s: plan has %d steps, limit is %d", ErrStepLimitExceeded, e.Actual, e.Limit)
	case KindUnresolvedAgent:
		return fmt.Sprintf("step %d: %s: %q matches no catalog agent", e.Step, ErrUnresolvedAgent, e.Value)
	default:
		return fmt.Sprintf("compile error %s at step %d", e.Kind, e.Step)
	}
}

// Unwrap exposes the kind sentinel and, when present, the underlying cause.
func (e *CompileError) Unwrap() []error {
	var errs []error
	if info, ok := kindInfo[e.Kind]; ok {
		errs = append(errs, info.sentinel)
	}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

func malformedPlanText(reason string, cause error) *CompileError {
	return &CompileError{Kind: KindMalformedPlanText, Reason: reason, cause: cause}
}

func missingField(step int, fields []models.Field) *CompileError {
	return &CompileError{Kind: KindMissingField, Step: step, Fields: fields}
}

func stepSequence(step int, format string, args ...any) *CompileError {
	return &CompileError{Kind: KindStepSequence, Step: step, Reason: fmt.Sprintf(format, args...)}
}

func malformedDependency(step int, token string) *CompileError {
	return &CompileError{Kind: KindMalformedDependency, Step: step, Value: token}
}

func invalidDependency(step int, token string) *CompileError {
	return &CompileError{Kind: KindInvalidDependency, Step: step, Value: token}
}

func stepLimitExceeded(limit, actual int) *CompileError {
	return &CompileError{Kind: KindStepLimitExceeded, Limit: limit, Actual: actual}
}

func unresolvedAgent(step int, raw string) *CompileError {
	return &CompileError{Kind: KindUnresolvedAgent, Step: step, Value: raw}
}
