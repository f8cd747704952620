// Package app wires the edgeprov subcommands.
package app

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/HenryPDT/edgeprov/internal/config"
	"github.com/HenryPDT/edgeprov/internal/runner"
	"github.com/HenryPDT/edgeprov/internal/sysd"
)

// Env is the shared plumbing every command uses: the loaded configuration,
// the command runner and the systemd manager, built once per invocation.
type Env struct {
	Cfg    *config.Config
	Log    *logrus.Logger
	Runner runner.Runner
	Sysd   *sysd.Manager
}

func newEnv(cmd *cobra.Command, cfg *config.Config) *Env {
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose || cfg.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	r := runner.NewExec(log)
	return &Env{
		Cfg:    cfg,
		Log:    log,
		Runner: r,
		Sysd:   sysd.NewManager(r),
	}
}
