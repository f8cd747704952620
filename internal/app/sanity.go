package app

import (
	"context"
	"fmt"
	"os"
	"os/user"

	"github.com/spf13/cobra"

	"github.com/HenryPDT/edgeprov/internal/agent"
	"github.com/HenryPDT/edgeprov/internal/blockdev"
	"github.com/HenryPDT/edgeprov/internal/check"
	"github.com/HenryPDT/edgeprov/internal/config"
	"github.com/HenryPDT/edgeprov/internal/docker"
	"github.com/HenryPDT/edgeprov/internal/jetson"
	"github.com/HenryPDT/edgeprov/internal/network"
	"github.com/HenryPDT/edgeprov/internal/provision"
	"github.com/HenryPDT/edgeprov/internal/sysinfo"
	"github.com/HenryPDT/edgeprov/internal/vms"
)

func NewSanityCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "sanity",
		Short: "Run all provisioning checks for this device",
		Long:  "Probes every dependency of the recorder (network, jetson-stats, docker, NVIDIA runtime, VMS, remote access, SSD) and remediates what it can. Exit code 0 only when every check passes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := newEnv(cmd, cfg)
			ctx := cmd.Context()

			kind := cfg.DeviceKind
			if kind == "" {
				if jetson.IsJetson() {
					kind = "jetson"
				} else {
					kind = "nessvms"
				}
			}
			fmt.Printf("edgeprov sanity check (%s device)\n", kind)
			sysinfo.Collect().Print(os.Stdout)
			fmt.Println()

			rep := check.NewReporter()
			runSanity(ctx, env, rep, kind)

			rep.Summary(os.Stdout)
			if rep.HasFailures() {
				fmt.Println("\nSkipping deferred actions because of failed checks.")
			} else {
				rep.RunPending(os.Stdout)
			}

			if rep.ExitCode() != 0 {
				cmd.SilenceUsage = true
				return fmt.Errorf("one or more checks did not pass")
			}
			return nil
		},
	}
}

func runSanity(ctx context.Context, env *Env, rep *check.Reporter, kind string) {
	rep.Run("sudo", func() check.Result { return sudoStep(env).Run(ctx) })
	rep.Run("network", network.NewChecker().Check)

	var info jetson.Info
	if kind == "jetson" {
		rep.Run("jetson-stats", func() check.Result {
			return jetson.StatsStep(env.Runner, env.Log).Run(ctx)
		})
		rep.Run("jtop service", func() check.Result {
			return jetson.ServiceStep(env.Sysd, env.Log).Run(ctx)
		})

		var err error
		info, err = jetson.ReadInfo(ctx, env.Runner)
		if err == nil {
			jetson.PrintInventory(os.Stdout, info)
			rep.Run("power mode", func() check.Result {
				return jetson.PowerModeCheck(ctx, env.Runner, rep, info, os.Stdout)
			})
		} else {
			rep.Record(check.Result{
				Name:    "power mode",
				Status:  check.StatusWarn,
				Message: fmt.Sprintf("board data unavailable: %v", err),
			})
		}
	}

	d := docker.New(env.Runner, env.Sysd, env.Log)
	rep.Run("docker engine", func() check.Result { return d.EngineStep().Run(ctx) })
	rep.Run("docker group", func() check.Result { return d.GroupStep(currentUsername()).Run(ctx) })
	if kind == "jetson" {
		rep.Run("nvidia runtime", func() check.Result { return d.NvidiaRuntimeStep().Run(ctx) })
	}
	rep.Run("registry login", func() check.Result {
		return d.LoginStep(env.Cfg.RegistryHost, env.Cfg.RegistryUser, env.Cfg.RegistryToken, "").Run(ctx)
	})

	if kind == "jetson" {
		rep.Run("vms container", func() check.Result { return vms.ContainerStep(env.Runner, env.Log).Run(ctx) })
	} else {
		rep.Run("vms package", func() check.Result { return vms.PackageStep(env.Runner, env.Log).Run(ctx) })
		rep.Run("vms service", func() check.Result { return vms.ServiceStep(env.Sysd, env.Log).Run(ctx) })
	}

	a := agent.New(env.Runner, env.Log)
	rep.Run("remote access agent", func() check.Result { return a.CheckStep().Run(ctx) })

	rep.Run("recording ssd", func() check.Result { return storageVerifyCheck(ctx, env) })
}

// sudoStep verifies root privileges are available without prompting.
func sudoStep(env *Env) provision.Step {
	return provision.Step{
		Name: "sudo",
		Probe: func(ctx context.Context) (bool, string) {
			if os.Geteuid() == 0 {
				return true, "running as root"
			}
			if _, err := env.Runner.Run(ctx, "sudo", "-n", "true"); err != nil {
				return false, "sudo requires a password or is not configured"
			}
			return true, "passwordless sudo available"
		},
		RemedyCommand: "sudo -v",
		Log:           env.Log,
	}
}

// storageVerifyCheck is the non-interactive SSD verify inside the sanity
// run: when several disks match the window, the one already mounted at the
// configured mount point wins.
func storageVerifyCheck(ctx context.Context, env *Env) check.Result {
	devs, err := blockdev.Scan(ctx, env.Runner)
	if err != nil {
		return check.FailWithRemedy(fmt.Sprintf("cannot scan disks: %v", err), "lsblk -J -b")
	}

	window := blockdev.Window{Min: blockdev.Bytes(env.Cfg.MinDiskBytes), Max: blockdev.Bytes(env.Cfg.MaxDiskBytes)}
	cands := blockdev.Candidates(devs, window)
	if len(cands) == 0 {
		return check.FailWithRemedy("no SSD in the expected size range attached", "lsblk -d -b -o NAME,SIZE,TYPE")
	}

	target := cands[0]
	for _, c := range cands {
		if part, ok := blockdev.FirstMountedPartition(c); ok && part.MountPoint == env.Cfg.MountPoint {
			target = c
			break
		}
	}

	rep, err := blockdev.Verify(target)
	if err != nil {
		return check.FailWithRemedy(err.Error(), "edgeprov storage provision")
	}
	if !rep.Writable {
		return check.FailWithRemedy(
			fmt.Sprintf("%s mounted at %s but not writable", rep.Partition, rep.MountPoint),
			fmt.Sprintf("sudo chown $USER %s", rep.MountPoint))
	}
	if rep.FreeBytes < env.Cfg.MinFreeBytes {
		return check.Warn("only %dGB free on %s", rep.FreeBytes/1_000_000_000, rep.MountPoint)
	}
	return check.Pass("%s mounted at %s, %dGB free", rep.Partition, rep.MountPoint, rep.FreeBytes/1_000_000_000)
}

func currentUsername() string {
	if u := os.Getenv("SUDO_USER"); u != "" {
		return u
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "root"
}
