// Package provision implements the probe-remediate-reprobe shape every
// dependency check follows: a cheap state probe, a single bounded remediation
// when the probe fails, and one re-probe to decide the outcome.
package provision

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/HenryPDT/edgeprov/internal/check"
)

// Step is one idempotent dependency check. Probe reports whether the target
// state already holds, plus a human detail line. Remediate is attempted at
// most once per run; RemedyCommand is what gets surfaced for manual follow-up
// when even the remediation leaves the probe unsatisfied.
type Step struct {
	Name          string
	Probe         func(ctx context.Context) (bool, string)
	Remediate     func(ctx context.Context) error
	RemedyCommand string

	Log *logrus.Logger
}

// Run drives the step. Satisfied probes return immediately with no side
// effects. Remediation is never retried: one attempt, one re-probe, done.
func (s Step) Run(ctx context.Context) check.Result {
	ok, detail := s.Probe(ctx)
	if ok {
		return check.Pass("%s", detail)
	}

	if s.Remediate == nil {
		return check.FailWithRemedy(detail, s.RemedyCommand)
	}

	if s.Log != nil {
		s.Log.Infof("%s: not satisfied (%s), remediating", s.Name, detail)
	}
	if err := s.Remediate(ctx); err != nil {
		return check.FailWithRemedy(fmt.Sprintf("%s; remediation failed: %v", detail, err), s.RemedyCommand)
	}

	ok, detail = s.Probe(ctx)
	if !ok {
		return check.FailWithRemedy(fmt.Sprintf("still unsatisfied after remediation: %s", detail), s.RemedyCommand)
	}
	return check.Pass("%s (remediated)", detail)
}

// ValidateDownload guards remediations that fetch files: the target must
// exist and be non-empty before it counts as usable output. Partial or empty
// downloads are failures, never silently accepted.
func ValidateDownload(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("download %s missing: %w", path, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("download %s is empty", path)
	}
	return nil
}
