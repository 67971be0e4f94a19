// Package compile turns raw plan text from a language model into a validated,
// dependency-ordered task graph, or a single typed failure explaining why it could not.
package compile

import (
	"errors"
	"fmt"

	"github.com/h1t35h/AssetOpsBench/internal/extract"
	"github.com/h1t35h/AssetOpsBench/internal/grounding"
	"github.com/h1t35h/AssetOpsBench/internal/resolve"
	"github.com/h1t35h/AssetOpsBench/pkg/models"
)

const (
	// DefaultMaxSteps is the step ceiling used when none is configured.
	DefaultMaxSteps = 5
	// DefaultMaxInputBytes bounds the size of accepted plan text.
	DefaultMaxInputBytes = 1 << 20
)

// Result is the outcome of one compilation. Exactly one of Graph and Err is set.
type Result struct {
	// Graph is the validated plan on success.
	Graph *models.TaskGraph
	// Err is the first structural violation on failure.
	Err *CompileError
	// Diagnostics are best-effort notes: orphan fields, partially parsed steps.
	Diagnostics []models.Diagnostic
	// Partial holds the steps parsed before a failure stopped compilation.
	Partial []models.ParsedStep
	// Warnings lists problem-statement entities the plan never mentions.
	// Only populated on success; never affects the graph.
	Warnings []models.EntityMention
}

// OK reports whether compilation succeeded.
func (r Result) OK() bool {
	return r.Err == nil && r.Graph != nil
}

// Error returns the failure as an error, or nil on success.
func (r Result) Error() error {
	if r.Err == nil {
		return nil
	}
	return r.Err
}

// Observer is notified of every finished compilation.
// Implementations must be safe for concurrent use.
type Observer interface {
	ObserveResult(Result)
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithMaxSteps sets the step ceiling. Non-positive values keep the default.
func WithMaxSteps(n int) Option {
	return func(c *Compiler) {
		if n > 0 {
			c.maxSteps = n
		}
	}
}

// WithMaxInputBytes bounds the accepted plan text size. Non-positive values keep the default.
func WithMaxInputBytes(n int) Option {
	return func(c *Compiler) {
		if n > 0 {
			c.maxInputBytes = n
		}
	}
}

// WithDebugLog sets a debug logging function.
func WithDebugLog(fn func(format string, args ...any)) Option {
	return func(c *Compiler) {
		if fn != nil {
			c.debugLog = fn
		}
	}
}

// WithObserver registers an observer for compilation results.
func WithObserver(o Observer) Option {
	return func(c *Compiler) {
		c.observer = o
	}
}

// Compiler compiles plan text against one catalog snapshot.
// It keeps no state between calls and is safe for concurrent use.
type Compiler struct {
	catalog       *models.Catalog
	resolver      *resolve.Resolver
	maxSteps      int
	maxInputBytes int
	debugLog      func(format string, args ...any)
	observer      Observer
}

// New creates a Compiler for the given catalog.
func New(catalog *models.Catalog, opts ...Option) *Compiler {
	c := &Compiler{
		catalog:       catalog,
		resolver:      resolve.New(catalog),
		maxSteps:      DefaultMaxSteps,
		maxInputBytes: DefaultMaxInputBytes,
		debugLog:      func(format string, args ...any) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MaxSteps returns the configured step ceiling.
func (c *Compiler) MaxSteps() int {
	return c.maxSteps
}

// Catalog returns the catalog snapshot the compiler resolves against.
func (c *Compiler) Catalog() *models.Catalog {
	return c.catalog
}

// Compile turns raw plan text into a task graph.
func (c *Compiler) Compile(raw string) Result {
	res := c.compile(raw)
	c.finish(res)
	return res
}

// CompileFor compiles raw and, on success, checks the plan against the
// entities named in statement. Ungrounded entities become warnings only.
func (c *Compiler) CompileFor(statement, raw string) Result {
	res := c.compile(raw)
	if res.OK() && statement != "" {
		res.Warnings = grounding.Check(statement, res.Graph)
		c.debugLog("[compile] grounding: %d ungrounded entities", len(res.Warnings))
	}
	c.finish(res)
	return res
}

func (c *Compiler) compile(raw string) Result {
	c.debugLog("[compile] compiling %d bytes of plan text", len(raw))

	if len(raw) > c.maxInputBytes {
		return Result{Err: malformedPlanText(
			fmt.Sprintf("plan text is %d bytes, limit is %d", len(raw), c.maxInputBytes), nil)}
	}

	ext, err := extract.Extract(raw)
	if err != nil {
		reason := err.Error()
		if errors.Is(err, extract.ErrNoSteps) {
			reason = "no step blocks found"
		}
		return Result{Err: malformedPlanText(reason, err)}
	}
	c.debugLog("[compile] extracted %d records across %d step blocks", len(ext.Records), len(ext.Steps))

	return Build(ext, c.resolver, c.maxSteps)
}

func (c *Compiler) finish(res Result) {
	if res.OK() {
		c.debugLog("[compile] success: %d steps", res.Graph.Len())
	} else {
		c.debugLog("[compile] failure %s: %v", res.Err.Code(), res.Err)
	}
	if c.observer != nil {
		c.observer.ObserveResult(res)
	}
}
