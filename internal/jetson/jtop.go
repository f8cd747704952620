// Package jetson integrates with jetson-stats (jtop) on NVIDIA Jetson
// boards: board inventory, power mode and the jtop service.
package jetson

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HenryPDT/edgeprov/internal/runner"
)

// HelperPath is the jtop helper script shipped alongside the tool; it prints
// one JSON document describing the board and accepts management flags.
const HelperPath = "/usr/local/bin/jetson_jtop_helper.py"

// Info mirrors the helper's JSON output. Sections the helper could not read
// are simply absent; every field is optional.
type Info struct {
	Error string `json:"error"`

	Board struct {
		Model   string `json:"model"`
		Serial  string `json:"serial"`
		L4T     string `json:"l4t"`
		Jetpack string `json:"jetpack"`
		Module  string `json:"module"`
	} `json:"board"`

	Libraries map[string]string `json:"libraries"`

	NVPModel struct {
		Name   string   `json:"name"`
		ID     int      `json:"id"`
		Models []string `json:"models"`
	} `json:"nvpmodel"`

	JetsonClocks struct {
		Active bool   `json:"active"`
		Status string `json:"status"`
		Boot   bool   `json:"boot"`
	} `json:"jetson_clocks"`

	RAM struct {
		Total uint64 `json:"total"`
		Used  uint64 `json:"used"`
		Free  uint64 `json:"free"`
	} `json:"ram"`

	Swap struct {
		Total uint64 `json:"total"`
		Used  uint64 `json:"used"`
	} `json:"swap"`

	Temperature map[string]float64 `json:"temperature"`

	Fan struct {
		Speed   float64 `json:"speed"`
		Profile string  `json:"profile"`
	} `json:"fan"`

	Disk struct {
		Total     float64 `json:"total"`
		Used      float64 `json:"used"`
		Available float64 `json:"available"`
	} `json:"disk"`
}

// ReadInfo invokes the helper and decodes its JSON. A helper-level error
// (jtop service down, jtop not installed) comes back as an error here.
func ReadInfo(ctx context.Context, r runner.Runner) (Info, error) {
	out, err := r.Run(ctx, "python3", HelperPath)
	if err != nil {
		return Info{}, fmt.Errorf("run jtop helper: %w", err)
	}
	return ParseInfo(out)
}

func ParseInfo(data []byte) (Info, error) {
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return Info{}, fmt.Errorf("decode jtop helper output: %w", err)
	}
	if info.Error != "" {
		return info, fmt.Errorf("jtop helper: %s", info.Error)
	}
	return info, nil
}

// SetPowerMode asks the helper to switch nvpmodel by name or numeric id.
func SetPowerMode(ctx context.Context, r runner.Runner, mode string) error {
	out, err := r.Run(ctx, "python3", HelperPath, "--set-nvpmodel", mode)
	if err != nil {
		return fmt.Errorf("set nvpmodel %s: %w", mode, err)
	}
	var resp struct {
		Action string `json:"nvpmodel_action"`
		Err    string `json:"nvpmodel_action_error"`
	}
	if err := json.Unmarshal(out, &resp); err == nil && resp.Err != "" {
		return fmt.Errorf("set nvpmodel %s: %s", mode, resp.Err)
	}
	return nil
}

// EnableClocks turns on jetson_clocks and marks it to apply at boot.
func EnableClocks(ctx context.Context, r runner.Runner) error {
	if _, err := r.Run(ctx, "python3", HelperPath, "--enable-clocks"); err != nil {
		return fmt.Errorf("enable jetson_clocks: %w", err)
	}
	return nil
}
