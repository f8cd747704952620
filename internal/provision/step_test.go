package provision

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HenryPDT/edgeprov/internal/check"
)

func TestSatisfiedProbeSkipsRemediation(t *testing.T) {
	remediated := false
	s := Step{
		Name:  "docker",
		Probe: func(context.Context) (bool, string) { return true, "docker 27.1 installed" },
		Remediate: func(context.Context) error {
			remediated = true
			return nil
		},
	}

	res := s.Run(context.Background())
	assert.Equal(t, check.StatusPass, res.Status)
	assert.False(t, remediated, "a satisfied probe must not remediate")
}

func TestRemediationRunsExactlyOnce(t *testing.T) {
	probes, remediations := 0, 0
	s := Step{
		Name: "jtop service",
		Probe: func(context.Context) (bool, string) {
			probes++
			return probes > 1, "jtop.service inactive"
		},
		Remediate: func(context.Context) error {
			remediations++
			return nil
		},
	}

	res := s.Run(context.Background())
	assert.Equal(t, check.StatusPass, res.Status)
	assert.Contains(t, res.Message, "remediated")
	assert.Equal(t, 1, remediations)
	assert.Equal(t, 2, probes, "one initial probe plus one re-probe")
}

func TestFailureAfterRemediationIsTerminal(t *testing.T) {
	remediations := 0
	s := Step{
		Name:          "nvidia runtime",
		Probe:         func(context.Context) (bool, string) { return false, "default runtime is runc" },
		Remediate:     func(context.Context) error { remediations++; return nil },
		RemedyCommand: "sudo nvidia-ctk runtime configure --runtime=docker",
	}

	res := s.Run(context.Background())
	assert.Equal(t, check.StatusFail, res.Status)
	assert.Equal(t, 1, remediations, "no retry beyond the single re-probe")
	assert.Equal(t, "sudo nvidia-ctk runtime configure --runtime=docker", res.Remedy)
}

func TestRemediationErrorSurfacesCommand(t *testing.T) {
	s := Step{
		Name:          "vms package",
		Probe:         func(context.Context) (bool, string) { return false, "nessvms not installed" },
		Remediate:     func(context.Context) error { return errors.New("apt-get exited 100") },
		RemedyCommand: "sudo apt-get install -y nessvms",
	}

	res := s.Run(context.Background())
	assert.Equal(t, check.StatusFail, res.Status)
	assert.Contains(t, res.Message, "apt-get exited 100")
	assert.Equal(t, "sudo apt-get install -y nessvms", res.Remedy)
}

func TestNoRemediatorFailsWithRemedy(t *testing.T) {
	s := Step{
		Name:          "sudo",
		Probe:         func(context.Context) (bool, string) { return false, "sudo requires a password" },
		RemedyCommand: "sudo -v",
	}

	res := s.Run(context.Background())
	assert.Equal(t, check.StatusFail, res.Status)
	assert.Equal(t, "sudo -v", res.Remedy)
}

func TestValidateDownload(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.deb")
	assert.Error(t, ValidateDownload(missing))

	empty := filepath.Join(dir, "empty.deb")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	assert.Error(t, ValidateDownload(empty))

	good := filepath.Join(dir, "good.deb")
	require.NoError(t, os.WriteFile(good, []byte("payload"), 0644))
	assert.NoError(t, ValidateDownload(good))
}
