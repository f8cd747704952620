package check

import (
	"fmt"
	"io"
)

// Reporter owns the ordered sequence of check results for a single run.
// It is created by the run driver and passed into each check; checks do not
// share any other state.
type Reporter struct {
	results []Result
	pending []PendingAction
}

func NewReporter() *Reporter {
	return &Reporter{}
}

// Run executes one check function and records exactly one result under the
// given name, even if the function panics. A panic is recorded as a Fail for
// that check only; the run continues with the next check.
func (r *Reporter) Run(name string, fn func() Result) {
	defer func() {
		if p := recover(); p != nil {
			r.results = append(r.results, Result{
				Name:    name,
				Status:  StatusFail,
				Message: fmt.Sprintf("check crashed: %v", p),
			})
		}
	}()

	res := fn()
	res.Name = name
	r.results = append(r.results, res)
}

// Record appends a pre-built result. Used by checks that construct their
// result without going through Run.
func (r *Reporter) Record(res Result) {
	r.results = append(r.results, res)
}

// Defer records a side effect to be executed after the summary.
func (r *Reporter) Defer(a PendingAction) {
	r.pending = append(r.pending, a)
}

func (r *Reporter) Results() []Result {
	return r.results
}

// AllPassed is true only when every recorded outcome is a Pass.
func (r *Reporter) AllPassed() bool {
	for _, res := range r.results {
		if res.Status != StatusPass {
			return false
		}
	}
	return true
}

// HasFailures reports whether any check recorded a hard Fail. Warns do not
// count: they affect the exit code but not pending-action gating.
func (r *Reporter) HasFailures() bool {
	for _, res := range r.results {
		if res.Status == StatusFail {
			return true
		}
	}
	return false
}

// ExitCode is 0 only when every recorded outcome is Pass.
func (r *Reporter) ExitCode() int {
	if r.AllPassed() {
		return 0
	}
	return 1
}

// Summary renders one line per check with a fixed-width label and the
// tri-state badge, followed by totals.
func (r *Reporter) Summary(w io.Writer) {
	width := 0
	for _, res := range r.results {
		if len(res.Name) > width {
			width = len(res.Name)
		}
	}

	var pass, fail, warn int
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Summary")
	fmt.Fprintln(w, "=======")
	for _, res := range r.results {
		fmt.Fprintf(w, "  %-*s  [%s]  %s\n", width, res.Name, res.Status, res.Message)
		if res.Remedy != "" {
			fmt.Fprintf(w, "  %-*s         run manually: %s\n", width, "", res.Remedy)
		}
		switch res.Status {
		case StatusPass:
			pass++
		case StatusFail:
			fail++
		case StatusWarn:
			warn++
		}
	}
	fmt.Fprintf(w, "\n  %d passed, %d failed, %d warnings\n", pass, fail, warn)
}

// RunPending executes the deferred actions in order. Failures are reported to
// the writer but do not change the recorded results or the exit code.
func (r *Reporter) RunPending(w io.Writer) {
	for _, a := range r.pending {
		fmt.Fprintf(w, "\n%s...\n", a.Name)
		if err := a.Run(); err != nil {
			fmt.Fprintf(w, "  %s failed: %v\n", a.Name, err)
		}
	}
}

// PendingCount reports how many deferred actions were recorded.
func (r *Reporter) PendingCount() int {
	return len(r.pending)
}
