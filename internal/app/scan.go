package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HenryPDT/edgeprov/internal/config"
	"github.com/HenryPDT/edgeprov/internal/netscan"
)

func NewScanCommand(cfg *config.Config) *cobra.Command {
	var cidr string
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the install LAN for attached devices",
		Long:  "Ping-sweeps the configured subnet with nmap, then probes each responder over SSH to identify Jetson boards and NessVMS boxes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := newEnv(cmd, cfg)
			ctx := cmd.Context()

			if cidr == "" {
				cidr = cfg.ScanCIDR
			}
			fmt.Printf("Sweeping %s...\n", cidr)
			hosts, err := netscan.Sweep(ctx, env.Runner, cidr)
			if err != nil {
				return err
			}
			if len(hosts) == 0 {
				fmt.Println("No hosts responded.")
				return nil
			}

			id := netscan.NewIdentifier(cfg.SSHUser, cfg.SSHPassword)
			fmt.Printf("%d hosts up, probing over SSH as %s:\n\n", len(hosts), cfg.SSHUser)
			for _, h := range hosts {
				dev, err := id.Identify(h)
				if err != nil {
					env.Log.Debugf("probe %s: %v", h.Addr, err)
					fmt.Printf("  %-15s  -        (no SSH access)\n", h.Addr)
					continue
				}
				fmt.Printf("  %-15s  %-7s  %s\n", dev.Addr, dev.Kind, dev.Model)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cidr, "cidr", "", "subnet to sweep (default from config)")
	return cmd
}
