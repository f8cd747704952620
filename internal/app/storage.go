package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/HenryPDT/edgeprov/internal/blockdev"
	"github.com/HenryPDT/edgeprov/internal/config"
)

func NewStorageCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Provision or verify the recording SSD",
	}
	cmd.AddCommand(newProvisionCommand(cfg), newVerifyCommand(cfg))
	return cmd
}

func newProvisionCommand(cfg *config.Config) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Format a fresh SSD and mount it (DESTRUCTIVE)",
		Long:  "Finds the recording SSD by size, asks for a typed confirmation, then wipes, partitions, formats and mounts it, adding an fstab entry.",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := newEnv(cmd, cfg)
			ctx := cmd.Context()

			if os.Geteuid() != 0 {
				return fmt.Errorf("storage provision must run as root (use sudo): it rewrites partition tables")
			}

			devs, err := blockdev.Scan(ctx, env.Runner)
			if err != nil {
				return err
			}
			window := blockdev.Window{Min: blockdev.Bytes(cfg.MinDiskBytes), Max: blockdev.Bytes(cfg.MaxDiskBytes)}
			dev, err := blockdev.Select(devs, window, os.Stdin, os.Stdout)
			if err != nil {
				return err
			}

			p := &blockdev.Provisioner{
				Runner: env.Runner,
				Log:    env.Log,
				In:     os.Stdin,
				Out:    os.Stdout,
				Owner:  owner,
			}
			return p.Provision(ctx, dev, cfg.MountPoint)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "user[:group] to own the mount directory")
	return cmd
}

func newVerifyCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Verify the provisioned SSD without touching its data",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := newEnv(cmd, cfg)
			ctx := cmd.Context()

			devs, err := blockdev.Scan(ctx, env.Runner)
			if err != nil {
				return err
			}
			window := blockdev.Window{Min: blockdev.Bytes(cfg.MinDiskBytes), Max: blockdev.Bytes(cfg.MaxDiskBytes)}
			dev, err := blockdev.Select(devs, window, os.Stdin, os.Stdout)
			if err != nil {
				return err
			}

			rep, err := blockdev.Verify(dev)
			if err != nil {
				return err
			}
			fmt.Printf("Device:      %s\n", rep.Device)
			fmt.Printf("Partition:   %s\n", rep.Partition)
			fmt.Printf("Mounted at:  %s\n", rep.MountPoint)
			fmt.Printf("Writable:    %t\n", rep.Writable)
			fmt.Printf("Free space:  %dGB of %dGB\n", rep.FreeBytes/1_000_000_000, rep.TotalBytes/1_000_000_000)

			if !rep.Writable {
				cmd.SilenceUsage = true
				return fmt.Errorf("mount point %s is not writable", rep.MountPoint)
			}
			if rep.FreeBytes < cfg.MinFreeBytes {
				fmt.Printf("WARNING: free space below the %dGB floor\n", cfg.MinFreeBytes/1_000_000_000)
			}
			return nil
		},
	}
}
