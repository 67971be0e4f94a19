package compile

import "github.com/sourcegraph/conc/iter"

// Job is one plan to compile in a batch. Statement may be empty to skip grounding.
type Job struct {
	Statement string
	Raw       string
}

// CompileAll compiles independent plans in parallel.
// Results are returned in the same order as jobs.
func (c *Compiler) CompileAll(jobs []Job) []Result {
	if len(jobs) == 0 {
		return nil
	}
	return iter.Map(jobs, func(job *Job) Result {
		return c.CompileFor(job.Statement, job.Raw)
	})
}
