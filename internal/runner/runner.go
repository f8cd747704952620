package runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

// Runner executes external commands. Every tool this project drives (lsblk,
// parted, systemctl, docker, nmap, ffmpeg, i2cdump, ...) goes through this
// interface so checks can be tested without touching the machine.
type Runner interface {
	// Run executes the command and returns its stdout. A non-zero exit is
	// returned as an error that includes stderr.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Exec is the real Runner. Each invocation is logged at debug level.
type Exec struct {
	Log *logrus.Logger
}

func NewExec(log *logrus.Logger) *Exec {
	return &Exec{Log: log}
}

func (e *Exec) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if e.Log != nil {
		e.Log.Debugf("exec: %s", cmd.String())
	}

	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), fmt.Errorf("%s: %w, stderr: %s", cmd.String(), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// CommandLine renders a command the way it would be typed at a shell, for
// remediation messages.
func CommandLine(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}
