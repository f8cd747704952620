package sysinfo

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPrintFullSummary(t *testing.T) {
	s := Summary{
		Hostname:        "orin-nx-01",
		Platform:        "ubuntu",
		PlatformVersion: "20.04",
		KernelVersion:   "5.10.104-tegra",
		Uptime:          3*time.Hour + 12*time.Minute,
		MemTotalBytes:   7_650_000_000,
		MemUsedPercent:  42.3,
	}

	var buf bytes.Buffer
	s.Print(&buf)

	out := buf.String()
	assert.Contains(t, out, "Host:     orin-nx-01 (ubuntu 20.04, kernel 5.10.104-tegra)")
	assert.Contains(t, out, "Memory:   7.7GB total, 42% used")
	assert.Contains(t, out, "Uptime:   3h12m0s")
}

func TestPrintSkipsMissingProbes(t *testing.T) {
	var buf bytes.Buffer
	Summary{}.Print(&buf)
	assert.Empty(t, buf.String(), "nothing to report when every probe failed")
}

func TestCollectFillsHostname(t *testing.T) {
	s := Collect()
	assert.NotEmpty(t, s.Hostname)
	assert.NotZero(t, s.MemTotalBytes)
}
