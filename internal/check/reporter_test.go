package check

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		name     string
		statuses []Status
		want     int
	}{
		{"all pass", []Status{StatusPass, StatusPass}, 0},
		{"single warn", []Status{StatusPass, StatusPass, StatusWarn}, 1},
		{"single fail", []Status{StatusPass, StatusFail}, 1},
		{"empty run", nil, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewReporter()
			for _, s := range tc.statuses {
				r.Record(Result{Name: "check", Status: s})
			}
			assert.Equal(t, tc.want, r.ExitCode())
		})
	}
}

func TestRunRecordsExactlyOneResult(t *testing.T) {
	r := NewReporter()
	r.Run("docker", func() Result {
		return Pass("engine running")
	})
	r.Run("storage", func() Result {
		return FailWithRemedy("disk missing", "lsblk -d")
	})

	results := r.Results()
	assert.Len(t, results, 2)
	assert.Equal(t, "docker", results[0].Name)
	assert.Equal(t, StatusPass, results[0].Status)
	assert.Equal(t, "storage", results[1].Name)
	assert.Equal(t, "lsblk -d", results[1].Remedy)
}

func TestRunRecoversPanic(t *testing.T) {
	r := NewReporter()
	r.Run("exploding", func() Result {
		panic("boom")
	})
	r.Run("next", func() Result {
		return Pass("still ran")
	})

	results := r.Results()
	assert.Len(t, results, 2)
	assert.Equal(t, StatusFail, results[0].Status)
	assert.Contains(t, results[0].Message, "boom")
	assert.Equal(t, StatusPass, results[1].Status)
}

func TestHasFailuresIgnoresWarn(t *testing.T) {
	r := NewReporter()
	r.Record(Result{Name: "a", Status: StatusPass})
	r.Record(Result{Name: "b", Status: StatusWarn})
	assert.False(t, r.HasFailures())
	assert.Equal(t, 1, r.ExitCode())

	r.Record(Result{Name: "c", Status: StatusFail})
	assert.True(t, r.HasFailures())
}

func TestSummaryRendersBadgesAndTotals(t *testing.T) {
	r := NewReporter()
	r.Record(Result{Name: "network", Status: StatusPass, Message: "ok"})
	r.Record(Result{Name: "ssd", Status: StatusFail, Message: "no disk", Remedy: "lsblk"})
	r.Record(Result{Name: "power mode", Status: StatusWarn, Message: "not MAXN"})

	var buf bytes.Buffer
	r.Summary(&buf)
	out := buf.String()

	assert.Contains(t, out, "[PASS]")
	assert.Contains(t, out, "[FAIL]")
	assert.Contains(t, out, "[WARN]")
	assert.Contains(t, out, "run manually: lsblk")
	assert.Contains(t, out, "1 passed, 1 failed, 1 warnings")

	// Labels are padded to the widest name so badges line up.
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "[PASS]") {
			assert.Contains(t, line, "network   ")
		}
	}
}

func TestRunPendingContinuesOnError(t *testing.T) {
	r := NewReporter()
	var ran []string
	r.Defer(PendingAction{Name: "set power mode", Run: func() error {
		ran = append(ran, "power")
		return errors.New("nvpmodel not found")
	}})
	r.Defer(PendingAction{Name: "reboot notice", Run: func() error {
		ran = append(ran, "reboot")
		return nil
	}})

	var buf bytes.Buffer
	r.RunPending(&buf)
	assert.Equal(t, []string{"power", "reboot"}, ran)
	assert.Contains(t, buf.String(), "nvpmodel not found")
}
