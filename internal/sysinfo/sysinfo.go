// Package sysinfo reads the host identity printed ahead of a sanity run.
package sysinfo

import (
	"fmt"
	"io"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// Summary is the slice of host state shown in the sanity header. Collection
// is best-effort: fields a probe could not fill stay zero and Print skips
// them.
type Summary struct {
	Hostname        string
	Platform        string
	PlatformVersion string
	KernelVersion   string
	Uptime          time.Duration

	MemTotalBytes  uint64
	MemUsedPercent float64
}

func Collect() Summary {
	var s Summary
	if hi, err := host.Info(); err == nil {
		s.Hostname = hi.Hostname
		s.Platform = hi.Platform
		s.PlatformVersion = hi.PlatformVersion
		s.KernelVersion = hi.KernelVersion
		s.Uptime = time.Duration(hi.Uptime) * time.Second
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		s.MemTotalBytes = vm.Total
		s.MemUsedPercent = vm.UsedPercent
	}
	return s
}

func (s Summary) Print(w io.Writer) {
	if s.Hostname != "" {
		fmt.Fprintf(w, "Host:     %s (%s %s, kernel %s)\n",
			s.Hostname, s.Platform, s.PlatformVersion, s.KernelVersion)
	}
	if s.MemTotalBytes > 0 {
		fmt.Fprintf(w, "Memory:   %.1fGB total, %.0f%% used\n",
			float64(s.MemTotalBytes)/1_000_000_000, s.MemUsedPercent)
	}
	if s.Uptime > 0 {
		fmt.Fprintf(w, "Uptime:   %s\n", s.Uptime.Round(time.Minute))
	}
}
