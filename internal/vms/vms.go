// Package vms checks the NessVMS video-management installation. x86 boxes
// run it as a native package and service; Jetson recorders run it as a
// container.
package vms

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/HenryPDT/edgeprov/internal/provision"
	"github.com/HenryPDT/edgeprov/internal/runner"
	"github.com/HenryPDT/edgeprov/internal/sysd"
)

const (
	packageName   = "nessvms"
	unitName      = "nessvms.service"
	containerName = "nessvms"
)

// PackageStep verifies the VMS package is installed, installing it when
// missing.
func PackageStep(r runner.Runner, log *logrus.Logger) provision.Step {
	return provision.Step{
		Name: "vms package",
		Probe: func(ctx context.Context) (bool, string) {
			out, err := r.Run(ctx, "dpkg-query", "-W", "-f=${Status}", packageName)
			if err != nil {
				return false, fmt.Sprintf("%s not installed", packageName)
			}
			if !strings.Contains(string(out), "install ok installed") {
				return false, fmt.Sprintf("%s in state %q", packageName, strings.TrimSpace(string(out)))
			}
			return true, fmt.Sprintf("%s installed", packageName)
		},
		Remediate: func(ctx context.Context) error {
			if _, err := r.Run(ctx, "apt-get", "update"); err != nil {
				return fmt.Errorf("apt-get update: %w", err)
			}
			_, err := r.Run(ctx, "apt-get", "install", "-y", packageName)
			return err
		},
		RemedyCommand: fmt.Sprintf("sudo apt-get install -y %s", packageName),
		Log:           log,
	}
}

// ServiceStep verifies the VMS service is running. Remediation enables the
// unit as well so the recorder survives a reboot.
func ServiceStep(m *sysd.Manager, log *logrus.Logger) provision.Step {
	return provision.Step{
		Name: "vms service",
		Probe: func(ctx context.Context) (bool, string) {
			if !m.IsActive(ctx, unitName) {
				return false, fmt.Sprintf("%s not active", unitName)
			}
			return true, fmt.Sprintf("%s active", unitName)
		},
		Remediate: func(ctx context.Context) error {
			if !m.IsEnabled(ctx, unitName) {
				if err := m.Enable(ctx, unitName); err != nil {
					return err
				}
			}
			return m.StartAndWait(ctx, unitName)
		},
		RemedyCommand: fmt.Sprintf("sudo systemctl enable --now %s", unitName),
		Log:           log,
	}
}

// ContainerStep verifies the VMS container is up on Jetson recorders. There
// is no automatic remediation: pulling and starting the recorder image is a
// deliberate operator action.
func ContainerStep(r runner.Runner, log *logrus.Logger) provision.Step {
	return provision.Step{
		Name: "vms container",
		Probe: func(ctx context.Context) (bool, string) {
			out, err := r.Run(ctx, "docker", "ps", "--filter", "name="+containerName, "--format", "{{.Names}}")
			if err != nil {
				return false, "cannot list containers"
			}
			for _, name := range strings.Fields(string(out)) {
				if name == containerName {
					return true, fmt.Sprintf("container %s running", containerName)
				}
			}
			return false, fmt.Sprintf("container %s not running", containerName)
		},
		RemedyCommand: fmt.Sprintf("docker start %s", containerName),
		Log:           log,
	}
}
