// Package agent manages the remote-access agent that lets support staff
// reach deployed devices.
package agent

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/kardianos/service"
	"github.com/sirupsen/logrus"

	"github.com/HenryPDT/edgeprov/internal/provision"
	"github.com/HenryPDT/edgeprov/internal/runner"
)

const (
	UnitName     = "remoteaccess"
	binaryName   = "remoteaccess-agent"
	installerURL = "https://get.remoteaccess.example.com/install.sh"
	installerTmp = "/tmp/remoteaccess-install.sh"
)

type Agent struct {
	Runner runner.Runner
	Log    *logrus.Logger

	PollAttempts int
	PollInterval time.Duration
}

func New(r runner.Runner, log *logrus.Logger) *Agent {
	return &Agent{Runner: r, Log: log, PollAttempts: 10, PollInterval: time.Second}
}

// program satisfies service.Interface; only control actions are used, the
// agent itself is a third-party daemon we never run in-process.
type program struct{}

func (program) Start(service.Service) error { return nil }
func (program) Stop(service.Service) error  { return nil }

func (a *Agent) svc() (service.Service, error) {
	return service.New(program{}, &service.Config{
		Name:        UnitName,
		DisplayName: "Remote Access Agent",
	})
}

// Installed probes for the agent binary on PATH.
func (a *Agent) Installed() bool {
	_, err := exec.LookPath(binaryName)
	return err == nil
}

// Status reports the service state via the service manager.
func (a *Agent) Status() (string, error) {
	svc, err := a.svc()
	if err != nil {
		return "Unknown", err
	}
	status, err := svc.Status()
	if err != nil {
		return "Unknown", err
	}
	switch status {
	case service.StatusRunning:
		return "Running", nil
	case service.StatusStopped:
		return "Stopped", nil
	default:
		return "Unknown", nil
	}
}

// Running is the readiness predicate: agent installed and its service active.
func (a *Agent) Running() bool {
	if !a.Installed() {
		return false
	}
	status, err := a.Status()
	return err == nil && status == "Running"
}

// Install fetches and runs the vendor installer. The download is validated
// as present and non-empty before it is executed.
func (a *Agent) Install(ctx context.Context) error {
	if _, err := a.Runner.Run(ctx, "curl", "-fsSL", "-o", installerTmp, installerURL); err != nil {
		return fmt.Errorf("download agent installer: %w", err)
	}
	if err := provision.ValidateDownload(installerTmp); err != nil {
		return err
	}
	if _, err := a.Runner.Run(ctx, "bash", installerTmp); err != nil {
		return fmt.Errorf("run agent installer: %w", err)
	}
	return nil
}

// StartAndWait starts the agent service and polls the readiness predicate,
// instead of sleeping a fixed duration after the start.
func (a *Agent) StartAndWait(ctx context.Context) error {
	svc, err := a.svc()
	if err != nil {
		return fmt.Errorf("open %s service: %w", UnitName, err)
	}
	if err := svc.Start(); err != nil {
		return fmt.Errorf("start %s: %w", UnitName, err)
	}

	attempts, interval := a.PollAttempts, a.PollInterval
	if attempts <= 0 {
		attempts = 10
	}
	if interval <= 0 {
		interval = time.Second
	}
	for i := 0; i < attempts; i++ {
		if a.Running() {
			return nil
		}
		if i < attempts-1 {
			time.Sleep(interval)
		}
	}
	return fmt.Errorf("%s did not report running after %d probes", UnitName, attempts)
}

// CheckStep wraps the agent into the standard probe/remediate shape.
func (a *Agent) CheckStep() provision.Step {
	return provision.Step{
		Name: "remote access agent",
		Probe: func(context.Context) (bool, string) {
			if !a.Installed() {
				return false, "agent binary not installed"
			}
			status, err := a.Status()
			if err != nil {
				return false, fmt.Sprintf("agent status unknown: %v", err)
			}
			if status != "Running" {
				return false, fmt.Sprintf("agent service %s", status)
			}
			return true, "agent installed and running"
		},
		Remediate: func(ctx context.Context) error {
			if !a.Installed() {
				if err := a.Install(ctx); err != nil {
					return err
				}
			}
			return a.StartAndWait(ctx)
		},
		RemedyCommand: fmt.Sprintf("curl -fsSL %s | sudo bash && sudo systemctl start %s", installerURL, UnitName),
		Log:           a.Log,
	}
}
