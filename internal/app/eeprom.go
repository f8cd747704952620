package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HenryPDT/edgeprov/internal/config"
	"github.com/HenryPDT/edgeprov/internal/eeprom"
)

func NewEEPROMCommand(cfg *config.Config) *cobra.Command {
	var bus int
	cmd := &cobra.Command{
		Use:   "eeprom",
		Short: "Verify the module EEPROM checksum",
		Long:  "Dumps the Jetson module identification EEPROM over I2C, recomputes its checksum and prints the module fingerprint.",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := newEnv(cmd, cfg)
			ctx := cmd.Context()

			if !cmd.Flags().Changed("bus") {
				bus = cfg.EEPROMBus
			}
			dump, err := eeprom.Dump(ctx, env.Runner, bus)
			if err != nil {
				return err
			}
			rep, err := eeprom.Inspect(dump)
			if err != nil {
				return err
			}

			fmt.Printf("Bus:         %d\n", bus)
			fmt.Printf("Stored:      0x%02x\n", rep.Stored)
			fmt.Printf("Computed:    0x%02x\n", rep.Computed)
			fmt.Printf("Fingerprint: %s\n", rep.Fingerprint)
			if !rep.Valid {
				cmd.SilenceUsage = true
				return fmt.Errorf("EEPROM checksum mismatch: module data may be corrupted")
			}
			fmt.Println("Checksum OK")
			return nil
		},
	}
	cmd.Flags().IntVar(&bus, "bus", 0, "I2C bus of the module EEPROM")
	return cmd
}
