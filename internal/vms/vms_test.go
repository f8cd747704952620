package vms

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/HenryPDT/edgeprov/internal/check"
	"github.com/HenryPDT/edgeprov/internal/runner"
	"github.com/HenryPDT/edgeprov/internal/sysd"
)

type runnerFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func (f runnerFunc) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f(ctx, name, args...)
}

func TestPackageStepInstalled(t *testing.T) {
	fake := runner.NewFake().
		On("dpkg-query", "install ok installed", nil)

	res := PackageStep(fake, nil).Run(context.Background())
	assert.Equal(t, check.StatusPass, res.Status)
	assert.False(t, fake.CalledWith("apt-get"))
}

func TestPackageStepRemediationOrder(t *testing.T) {
	fake := runner.NewFake().
		On("dpkg-query", "", errors.New("no packages found matching nessvms")).
		On("apt-get update", "", nil).
		On("apt-get install -y nessvms", "", nil)

	res := PackageStep(fake, nil).Run(context.Background())
	// The fake keeps reporting not-installed, so the step ends as Fail,
	// but both remediation commands must have run, update first.
	assert.Equal(t, check.StatusFail, res.Status)
	assert.Equal(t, "sudo apt-get install -y nessvms", res.Remedy)

	var aptCalls []string
	for _, c := range fake.Calls {
		if c == "apt-get update" || c == "apt-get install -y nessvms" {
			aptCalls = append(aptCalls, c)
		}
	}
	assert.Equal(t, []string{"apt-get update", "apt-get install -y nessvms"}, aptCalls)
}

func TestServiceStep(t *testing.T) {
	fake := runner.NewFake().
		On("systemctl is-active nessvms.service", "active\n", nil)
	m := sysd.NewManager(fake)

	res := ServiceStep(m, nil).Run(context.Background())
	assert.Equal(t, check.StatusPass, res.Status)
}

func TestServiceStepRemediationEnablesUnit(t *testing.T) {
	started := false
	var calls []string
	r := runnerFunc(func(_ context.Context, name string, args ...string) ([]byte, error) {
		calls = append(calls, runner.CommandLine(name, args...))
		switch args[0] {
		case "is-active":
			if started {
				return []byte("active\n"), nil
			}
			return []byte("inactive\n"), errors.New("exit status 3")
		case "is-enabled":
			return []byte("disabled\n"), errors.New("exit status 1")
		case "enable":
			return nil, nil
		case "start":
			started = true
			return nil, nil
		}
		return nil, errors.New("unexpected command")
	})

	m := sysd.NewManager(r)
	m.PollInterval = 1
	m.PollAttempts = 3

	res := ServiceStep(m, nil).Run(context.Background())
	assert.Equal(t, check.StatusPass, res.Status)
	assert.Contains(t, calls, "systemctl enable nessvms.service")
	assert.Contains(t, calls, "systemctl start nessvms.service")
}

func TestContainerStep(t *testing.T) {
	fake := runner.NewFake().
		On("docker ps", "nessvms\n", nil)
	res := ContainerStep(fake, nil).Run(context.Background())
	assert.Equal(t, check.StatusPass, res.Status)

	fake = runner.NewFake().
		On("docker ps", "nessvms-helper\nportainer\n", nil)
	res = ContainerStep(fake, nil).Run(context.Background())
	assert.Equal(t, check.StatusFail, res.Status)
	assert.Equal(t, "docker start nessvms", res.Remedy)
}
