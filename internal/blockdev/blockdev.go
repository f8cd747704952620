package blockdev

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/HenryPDT/edgeprov/internal/runner"
)

// Bytes is a size in bytes. lsblk emits SIZE as a bare number on recent
// util-linux and as a quoted string on older releases, so both are accepted.
type Bytes uint64

func (b *Bytes) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*b = 0
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("parse size %q: %w", s, err)
	}
	*b = Bytes(v)
	return nil
}

// BlockDevice mirrors one entry of `lsblk -J` output. Partitions appear as
// children of their disk. Optional fields stay zero-valued when lsblk omits
// them. Discovered fresh on every scan; never persisted.
type BlockDevice struct {
	Name       string        `json:"name"`
	Size       Bytes         `json:"size"`
	Type       string        `json:"type"`
	MountPoint string        `json:"mountpoint"`
	FSType     string        `json:"fstype"`
	Model      string        `json:"model"`
	Serial     string        `json:"serial"`
	Children   []BlockDevice `json:"children"`
}

// Path returns the /dev node for the device.
func (d BlockDevice) Path() string {
	if strings.HasPrefix(d.Name, "/dev/") {
		return d.Name
	}
	return "/dev/" + d.Name
}

// PartitionPath returns the /dev node of the n-th partition, following the
// kernel naming convention: nvme/mmcblk devices get a "p" separator.
func (d BlockDevice) PartitionPath(n int) string {
	name := strings.TrimPrefix(d.Path(), "/dev/")
	if strings.HasPrefix(name, "nvme") || strings.HasPrefix(name, "mmcblk") {
		return fmt.Sprintf("/dev/%sp%d", name, n)
	}
	return fmt.Sprintf("/dev/%s%d", name, n)
}

// MountedPartitions lists children that report a non-empty mount point, as
// "device -> mountpoint" strings for error messages.
func (d BlockDevice) MountedPartitions() []string {
	var mounted []string
	for _, c := range d.Children {
		if c.MountPoint != "" {
			mounted = append(mounted, fmt.Sprintf("%s -> %s", c.Path(), c.MountPoint))
		}
	}
	return mounted
}

const lsblkColumns = "NAME,SIZE,TYPE,MOUNTPOINT,FSTYPE,MODEL,SERIAL"

// Scan enumerates the attached block devices via lsblk. Ordering follows the
// enumeration order of the tool and is not stable across runs.
func Scan(ctx context.Context, r runner.Runner) ([]BlockDevice, error) {
	out, err := r.Run(ctx, "lsblk", "-J", "-b", "-o", lsblkColumns)
	if err != nil {
		return nil, fmt.Errorf("scan block devices: %w", err)
	}
	return UnmarshalDevices(out)
}

func UnmarshalDevices(data []byte) ([]BlockDevice, error) {
	var report struct {
		BlockDevices []BlockDevice `json:"blockdevices"`
	}
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("unmarshal lsblk output: %w", err)
	}
	return report.BlockDevices, nil
}
