package jetson

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/HenryPDT/edgeprov/internal/check"
	"github.com/HenryPDT/edgeprov/internal/provision"
	"github.com/HenryPDT/edgeprov/internal/runner"
	"github.com/HenryPDT/edgeprov/internal/sysd"
)

// maxPerfMode is the nvpmodel every deployed recorder should run at.
const maxPerfMode = "MAXN"

// IsJetson detects an NVIDIA Jetson board from the device tree.
func IsJetson() bool {
	data, err := os.ReadFile("/proc/device-tree/model")
	if err != nil {
		return false
	}
	model := string(data)
	return strings.Contains(model, "NVIDIA") || strings.Contains(model, "Jetson")
}

// StatsStep checks that jetson-stats (jtop) is installed, installing it via
// pip when missing.
func StatsStep(r runner.Runner, log *logrus.Logger) provision.Step {
	return provision.Step{
		Name: "jetson-stats",
		Probe: func(context.Context) (bool, string) {
			if _, err := exec.LookPath("jtop"); err != nil {
				return false, "jtop not on PATH"
			}
			return true, "jetson-stats installed"
		},
		Remediate: func(ctx context.Context) error {
			_, err := r.Run(ctx, "pip3", "install", "-U", "jetson-stats")
			return err
		},
		RemedyCommand: "sudo pip3 install -U jetson-stats",
		Log:           log,
	}
}

// ServiceStep checks the jtop systemd unit, starting it when inactive and
// waiting for it with the bounded poll. Remediation also enables the unit
// so it comes back after a reboot.
func ServiceStep(m *sysd.Manager, log *logrus.Logger) provision.Step {
	return provision.Step{
		Name: "jtop service",
		Probe: func(ctx context.Context) (bool, string) {
			if !m.IsActive(ctx, "jtop.service") {
				return false, "jtop.service not active"
			}
			return true, "jtop.service active"
		},
		Remediate: func(ctx context.Context) error {
			if !m.IsEnabled(ctx, "jtop.service") {
				if err := m.Enable(ctx, "jtop.service"); err != nil {
					return err
				}
			}
			return m.StartAndWait(ctx, "jtop.service")
		},
		RemedyCommand: "sudo systemctl enable --now jtop.service",
		Log:           log,
	}
}

// PowerModeCheck records a Warn when the board is not in the expected power
// mode and defers the switch plus a reboot notice to after the summary.
func PowerModeCheck(ctx context.Context, r runner.Runner, rep *check.Reporter, info Info, out io.Writer) check.Result {
	name := info.NVPModel.Name
	if name == "" {
		return check.Warn("power mode unknown (jtop gave no nvpmodel data)")
	}
	if strings.HasPrefix(name, maxPerfMode) {
		return check.Pass("power mode %s", name)
	}

	rep.Defer(check.PendingAction{
		Name: fmt.Sprintf("switch power mode %s -> %s", name, maxPerfMode),
		Run: func() error {
			if err := SetPowerMode(ctx, r, maxPerfMode); err != nil {
				return err
			}
			if err := EnableClocks(ctx, r); err != nil {
				return err
			}
			fmt.Fprintln(out, "Power mode changed; a reboot is recommended before recording.")
			return nil
		},
	})
	return check.Warn("power mode is %s, will switch to %s after checks", name, maxPerfMode)
}

// PrintInventory renders the board header shown before the check list.
func PrintInventory(w io.Writer, info Info) {
	fmt.Fprintf(w, "Board:    %s (%s)\n", info.Board.Model, info.Board.Module)
	fmt.Fprintf(w, "Serial:   %s\n", info.Board.Serial)
	fmt.Fprintf(w, "L4T:      %s   JetPack: %s\n", info.Board.L4T, info.Board.Jetpack)
	if len(info.Libraries) > 0 {
		names := make([]string, 0, len(info.Libraries))
		for n := range info.Libraries {
			names = append(names, n)
		}
		sort.Strings(names)
		fmt.Fprintf(w, "Libraries:")
		for _, n := range names {
			fmt.Fprintf(w, " %s=%s", n, info.Libraries[n])
		}
		fmt.Fprintln(w)
	}
}
