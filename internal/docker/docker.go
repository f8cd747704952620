// Package docker checks the container stack the VMS runs on: the engine,
// group membership, the NVIDIA runtime and the image registry login.
package docker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/HenryPDT/edgeprov/internal/provision"
	"github.com/HenryPDT/edgeprov/internal/runner"
	"github.com/HenryPDT/edgeprov/internal/sysd"
)

type Docker struct {
	Runner runner.Runner
	Sysd   *sysd.Manager
	Log    *logrus.Logger
}

func New(r runner.Runner, m *sysd.Manager, log *logrus.Logger) *Docker {
	return &Docker{Runner: r, Sysd: m, Log: log}
}

// engineInfo is the minimal slice of `docker info` this tool relies on.
// Anything else the daemon reports is ignored.
type engineInfo struct {
	ServerVersion  string                     `json:"ServerVersion"`
	DefaultRuntime string                     `json:"DefaultRuntime"`
	Runtimes       map[string]json.RawMessage `json:"Runtimes"`
}

func (d *Docker) info(ctx context.Context) (engineInfo, error) {
	out, err := d.Runner.Run(ctx, "docker", "info", "--format", "{{json .}}")
	if err != nil {
		return engineInfo{}, fmt.Errorf("docker info: %w", err)
	}
	var info engineInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return engineInfo{}, fmt.Errorf("decode docker info: %w", err)
	}
	return info, nil
}

// EngineStep verifies the daemon answers; when it does not, installs the
// engine and starts the unit with the bounded readiness wait.
func (d *Docker) EngineStep() provision.Step {
	return provision.Step{
		Name: "docker engine",
		Probe: func(ctx context.Context) (bool, string) {
			info, err := d.info(ctx)
			if err != nil {
				return false, "docker daemon not responding"
			}
			return true, fmt.Sprintf("docker %s running", info.ServerVersion)
		},
		Remediate: func(ctx context.Context) error {
			if _, err := d.Runner.Run(ctx, "apt-get", "install", "-y", "docker.io"); err != nil {
				return fmt.Errorf("install docker: %w", err)
			}
			return d.Sysd.StartAndWait(ctx, "docker")
		},
		RemedyCommand: "sudo apt-get install -y docker.io && sudo systemctl start docker",
		Log:           d.Log,
	}
}

// GroupStep verifies the operator account belongs to the docker group so the
// VMS containers can be managed without sudo.
func (d *Docker) GroupStep(username string) provision.Step {
	return provision.Step{
		Name: "docker group",
		Probe: func(ctx context.Context) (bool, string) {
			out, err := d.Runner.Run(ctx, "id", "-nG", username)
			if err != nil {
				return false, fmt.Sprintf("cannot read groups of %s", username)
			}
			for _, g := range strings.Fields(string(out)) {
				if g == "docker" {
					return true, fmt.Sprintf("%s is in the docker group", username)
				}
			}
			return false, fmt.Sprintf("%s is not in the docker group", username)
		},
		Remediate: func(ctx context.Context) error {
			_, err := d.Runner.Run(ctx, "usermod", "-aG", "docker", username)
			return err
		},
		RemedyCommand: fmt.Sprintf("sudo usermod -aG docker %s", username),
		Log:           d.Log,
	}
}

// NvidiaRuntimeStep verifies the NVIDIA container runtime is the daemon's
// default, which the GPU-accelerated VMS images require.
func (d *Docker) NvidiaRuntimeStep() provision.Step {
	return provision.Step{
		Name: "nvidia runtime",
		Probe: func(ctx context.Context) (bool, string) {
			info, err := d.info(ctx)
			if err != nil {
				return false, "docker daemon not responding"
			}
			if _, ok := info.Runtimes["nvidia"]; !ok {
				return false, "nvidia runtime not registered with docker"
			}
			if info.DefaultRuntime != "nvidia" {
				return false, fmt.Sprintf("default runtime is %s, not nvidia", info.DefaultRuntime)
			}
			return true, "nvidia is the default docker runtime"
		},
		Remediate: func(ctx context.Context) error {
			if _, err := d.Runner.Run(ctx, "nvidia-ctk", "runtime", "configure", "--runtime=docker", "--set-as-default"); err != nil {
				return fmt.Errorf("configure nvidia runtime: %w", err)
			}
			// dockerd only rereads daemon.json on a restart; starting an
			// already-running daemon changes nothing.
			return d.Sysd.Restart(ctx, "docker")
		},
		RemedyCommand: "sudo nvidia-ctk runtime configure --runtime=docker --set-as-default && sudo systemctl restart docker",
		Log:           d.Log,
	}
}

// LoginStep verifies the registry credentials are saved, logging in once
// when they are not. configPath is overridable for tests; empty means the
// invoking user's ~/.docker/config.json.
func (d *Docker) LoginStep(host, user, token, configPath string) provision.Step {
	return provision.Step{
		Name: "registry login",
		Probe: func(context.Context) (bool, string) {
			if host == "" {
				return false, "no registry host configured"
			}
			if hasAuth(configPath, host) {
				return true, fmt.Sprintf("logged in to %s", host)
			}
			return false, fmt.Sprintf("no saved login for %s", host)
		},
		Remediate: func(ctx context.Context) error {
			if user == "" || token == "" {
				return fmt.Errorf("registry credentials not configured")
			}
			_, err := d.Runner.Run(ctx, "docker", "login", "-u", user, "-p", token, host)
			return err
		},
		RemedyCommand: fmt.Sprintf("docker login %s", host),
		Log:           d.Log,
	}
}

// hasAuth reads the saved docker credentials, tolerating a missing or
// partial file.
func hasAuth(configPath, host string) bool {
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return false
		}
		configPath = filepath.Join(home, ".docker", "config.json")
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return false
	}
	var cfg struct {
		Auths map[string]json.RawMessage `json:"auths"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return false
	}
	_, ok := cfg.Auths[host]
	return ok
}
