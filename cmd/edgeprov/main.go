package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/HenryPDT/edgeprov/internal/app"
	"github.com/HenryPDT/edgeprov/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "edgeprov",
	Short: "Provision and health-check edge recorder devices",
	Long:  "Edgeprov provisions NVIDIA Jetson boards and x86 NessVMS boxes: dependency sanity checks, SSD setup, EEPROM verification, LAN discovery and recording maintenance.",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log every external command")
	rootCmd.AddCommand(
		app.NewSanityCommand(cfg),
		app.NewStorageCommand(cfg),
		app.NewScanCommand(cfg),
		app.NewEEPROMCommand(cfg),
		app.NewVideoCommand(cfg),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
