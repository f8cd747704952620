package blockdev

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Window is the inclusive size filter for candidate disks.
type Window struct {
	Min Bytes
	Max Bytes
}

func (w Window) Contains(size Bytes) bool {
	return size >= w.Min && size <= w.Max
}

// Candidates filters the scan down to whole disks inside the window.
// Partitions never qualify. The result is sorted by name so the interactive
// menu indices are reproducible: lsblk order is not.
func Candidates(devs []BlockDevice, w Window) []BlockDevice {
	var out []BlockDevice
	for _, d := range devs {
		if d.Type != "disk" {
			continue
		}
		if !w.Contains(d.Size) {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ErrNoCandidate is returned when no attached disk matches the window.
type ErrNoCandidate struct {
	Window Window
}

func (e ErrNoCandidate) Error() string {
	return fmt.Sprintf("no disk between %s and %s found; attach the SSD and re-check with: lsblk -d -b -o NAME,SIZE,TYPE",
		humanSize(e.Window.Min), humanSize(e.Window.Max))
}

// Select picks the target disk. One candidate selects itself with no prompt.
// Several candidates render an enumerated menu and read exactly one integer
// choice; anything not a valid in-range index is a hard failure with no retry.
// Zero candidates fail with remediation guidance.
func Select(devs []BlockDevice, w Window, in io.Reader, out io.Writer) (BlockDevice, error) {
	cands := Candidates(devs, w)
	switch len(cands) {
	case 0:
		return BlockDevice{}, ErrNoCandidate{Window: w}
	case 1:
		return cands[0], nil
	}

	fmt.Fprintf(out, "Multiple matching disks found:\n")
	for i, d := range cands {
		fmt.Fprintf(out, "  %d) %s  %s  %s %s\n", i+1, d.Path(), humanSize(d.Size), d.Model, d.Serial)
	}
	fmt.Fprintf(out, "Select disk [1-%d]: ", len(cands))

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return BlockDevice{}, fmt.Errorf("read selection: %w", err)
	}
	choice, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return BlockDevice{}, fmt.Errorf("invalid selection %q: expected a number between 1 and %d", strings.TrimSpace(line), len(cands))
	}
	if choice < 1 || choice > len(cands) {
		return BlockDevice{}, fmt.Errorf("selection %d out of range 1-%d", choice, len(cands))
	}
	return cands[choice-1], nil
}

func humanSize(b Bytes) string {
	switch {
	case b >= 1000*1000*1000*1000:
		return fmt.Sprintf("%.1fTB", float64(b)/1e12)
	case b >= 1000*1000*1000:
		return fmt.Sprintf("%.0fGB", float64(b)/1e9)
	case b >= 1000*1000:
		return fmt.Sprintf("%.0fMB", float64(b)/1e6)
	}
	return fmt.Sprintf("%dB", uint64(b))
}
