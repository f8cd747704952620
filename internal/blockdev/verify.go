package blockdev

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/disk"
)

// VerifyReport describes the state of an already-provisioned SSD.
type VerifyReport struct {
	Device     string
	Partition  string
	MountPoint string
	FreeBytes  uint64
	TotalBytes uint64
	Writable   bool
}

// FirstMountedPartition returns the first partition of the disk that reports
// a mount point.
func FirstMountedPartition(d BlockDevice) (BlockDevice, bool) {
	for _, c := range d.Children {
		if c.MountPoint != "" {
			return c, true
		}
	}
	return BlockDevice{}, false
}

// Verify inspects a provisioned disk without touching its data: confirms the
// first mounted partition is a live mount, probes write permission with a
// create-then-delete file, and reads free space.
func Verify(dev BlockDevice) (VerifyReport, error) {
	part, ok := FirstMountedPartition(dev)
	if !ok {
		return VerifyReport{}, fmt.Errorf("%s has no mounted partition; provision it first", dev.Path())
	}

	rep := VerifyReport{
		Device:     dev.Path(),
		Partition:  part.Path(),
		MountPoint: part.MountPoint,
	}

	if !isLiveMount(part.MountPoint) {
		return rep, fmt.Errorf("%s reports mount point %s but nothing is mounted there", part.Path(), part.MountPoint)
	}

	rep.Writable = probeWrite(part.MountPoint) == nil

	usage, err := disk.Usage(part.MountPoint)
	if err != nil {
		return rep, fmt.Errorf("read usage of %s: %w", part.MountPoint, err)
	}
	rep.FreeBytes = usage.Free
	rep.TotalBytes = usage.Total
	return rep, nil
}

// isLiveMount cross-checks the mount point against the kernel's mount list
// rather than trusting the lsblk snapshot.
func isLiveMount(target string) bool {
	parts, err := disk.Partitions(true)
	if err != nil {
		return false
	}
	for _, p := range parts {
		if p.Mountpoint == target {
			return true
		}
	}
	return false
}

// probeWrite is a best-effort write-then-delete of a scratch file.
func probeWrite(dir string) error {
	probe := filepath.Join(dir, ".edgeprov-probe")
	if err := os.WriteFile(probe, []byte("probe"), 0644); err != nil {
		return err
	}
	return os.Remove(probe)
}
