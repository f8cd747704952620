// Package sysd drives systemd units through systemctl. Readiness after a
// start is decided by polling is-active within a bounded budget, not by a
// fixed sleep.
package sysd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/HenryPDT/edgeprov/internal/runner"
)

type Manager struct {
	Runner runner.Runner

	PollAttempts int
	PollInterval time.Duration
}

func NewManager(r runner.Runner) *Manager {
	return &Manager{Runner: r, PollAttempts: 10, PollInterval: time.Second}
}

// IsActive probes the unit state. systemctl exits non-zero for anything but
// "active", which is a probe result here, not an error.
func (m *Manager) IsActive(ctx context.Context, unit string) bool {
	out, err := m.Runner.Run(ctx, "systemctl", "is-active", unit)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(out)) == "active"
}

func (m *Manager) IsEnabled(ctx context.Context, unit string) bool {
	out, err := m.Runner.Run(ctx, "systemctl", "is-enabled", unit)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(out)) == "enabled"
}

func (m *Manager) Enable(ctx context.Context, unit string) error {
	if _, err := m.Runner.Run(ctx, "systemctl", "enable", unit); err != nil {
		return fmt.Errorf("enable %s: %w", unit, err)
	}
	return nil
}

// StartAndWait starts the unit and polls until it reports active or the
// budget runs out.
func (m *Manager) StartAndWait(ctx context.Context, unit string) error {
	if _, err := m.Runner.Run(ctx, "systemctl", "start", unit); err != nil {
		return fmt.Errorf("start %s: %w", unit, err)
	}
	return m.waitActive(ctx, unit)
}

// Restart bounces the unit and waits for it the same way. Unlike start,
// restart takes effect on a unit that is already running, which is what a
// daemon needs to pick up changed configuration.
func (m *Manager) Restart(ctx context.Context, unit string) error {
	if _, err := m.Runner.Run(ctx, "systemctl", "restart", unit); err != nil {
		return fmt.Errorf("restart %s: %w", unit, err)
	}
	return m.waitActive(ctx, unit)
}

func (m *Manager) waitActive(ctx context.Context, unit string) error {
	attempts, interval := m.PollAttempts, m.PollInterval
	if attempts <= 0 {
		attempts = 10
	}
	if interval <= 0 {
		interval = time.Second
	}

	for i := 0; i < attempts; i++ {
		if m.IsActive(ctx, unit) {
			return nil
		}
		if i < attempts-1 {
			time.Sleep(interval)
		}
	}
	return fmt.Errorf("%s did not become active after %d probes", unit, attempts)
}
