package blockdev

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/HenryPDT/edgeprov/internal/runner"
)

// confirmToken must be typed byte-for-byte before any destructive step runs.
const confirmToken = "YES"

// Provisioner formats a disk and mounts it as the recording SSD. The sequence
// is ordered, fail-fast and non-resumable: a failed step aborts everything
// after it and nothing is rolled back.
type Provisioner struct {
	Runner runner.Runner
	Log    *logrus.Logger

	// In/Out carry the confirmation dialogue. The confirmation is always
	// read interactively; there is no way to pre-answer it.
	In  io.Reader
	Out io.Writer

	// Owner receives the mount directory (chown user:group), empty to skip.
	Owner string

	// FstabPath is overridable for tests; empty means /etc/fstab.
	FstabPath string

	// Partition-node polling budget. The node for a freshly created
	// partition materialises with variable latency, so the provisioner
	// re-probes instead of sleeping a fixed duration.
	PollAttempts int
	PollInterval time.Duration
}

func (p *Provisioner) pollBudget() (int, time.Duration) {
	attempts, interval := p.PollAttempts, p.PollInterval
	if attempts <= 0 {
		attempts = 10
	}
	if interval <= 0 {
		interval = time.Second
	}
	return attempts, interval
}

// Provision runs the destructive sequence against dev, mounting it at
// mountPoint. It refuses to start while any partition of dev is mounted, and
// refuses to start without the typed confirmation.
func (p *Provisioner) Provision(ctx context.Context, dev BlockDevice, mountPoint string) error {
	if mounted := dev.MountedPartitions(); len(mounted) > 0 {
		return fmt.Errorf("refusing to format %s: partitions still mounted: %s", dev.Path(), strings.Join(mounted, ", "))
	}

	fmt.Fprintf(p.Out, "Target disk: %s\n", dev.Path())
	fmt.Fprintf(p.Out, "  Model:  %s\n", dev.Model)
	fmt.Fprintf(p.Out, "  Serial: %s\n", dev.Serial)
	fmt.Fprintf(p.Out, "  Size:   %s\n", humanSize(dev.Size))
	fmt.Fprintf(p.Out, "\nALL DATA ON %s WILL BE DESTROYED.\n", dev.Path())
	fmt.Fprintf(p.Out, "Type %s to continue: ", confirmToken)

	line, _ := bufio.NewReader(p.In).ReadString('\n')
	if strings.TrimRight(line, "\r\n") != confirmToken {
		fmt.Fprintln(p.Out, "Cancelled, no changes made.")
		return fmt.Errorf("confirmation not given")
	}

	if p.Log != nil {
		p.Log.Infof("provisioning %s as %s", dev.Path(), mountPoint)
	}

	if _, err := p.Runner.Run(ctx, "wipefs", "-a", dev.Path()); err != nil {
		return fmt.Errorf("wipe signatures: %w", err)
	}
	if _, err := p.Runner.Run(ctx, "parted", "-s", dev.Path(), "mklabel", "gpt", "mkpart", "primary", "ext4", "0%", "100%"); err != nil {
		return fmt.Errorf("create partition: %w", err)
	}

	part := dev.PartitionPath(1)
	if err := p.waitForPartition(ctx, dev, part); err != nil {
		return err
	}

	if _, err := p.Runner.Run(ctx, "mkfs.ext4", "-F", part); err != nil {
		return fmt.Errorf("create filesystem on %s: %w", part, err)
	}

	if err := os.MkdirAll(mountPoint, 0755); err != nil {
		return fmt.Errorf("create mount directory %s: %w", mountPoint, err)
	}
	if p.Owner != "" {
		if _, err := p.Runner.Run(ctx, "chown", p.Owner, mountPoint); err != nil {
			return fmt.Errorf("own mount directory: %w", err)
		}
	}

	fstab := p.FstabPath
	if fstab == "" {
		fstab = "/etc/fstab"
	}
	added, err := EnsureFstabEntry(fstab, part, mountPoint)
	if err != nil {
		return fmt.Errorf("update fstab: %w", err)
	}
	if !added {
		fmt.Fprintf(p.Out, "fstab already has an entry for %s, leaving it alone\n", mountPoint)
	}

	if _, err := p.Runner.Run(ctx, "mount", part, mountPoint); err != nil {
		return fmt.Errorf("mount %s on %s: %w", part, mountPoint, err)
	}

	fmt.Fprintf(p.Out, "%s formatted and mounted at %s\n", part, mountPoint)
	return nil
}

// waitForPartition re-probes the device until the new partition shows up in
// lsblk, within the polling budget.
func (p *Provisioner) waitForPartition(ctx context.Context, dev BlockDevice, part string) error {
	attempts, interval := p.pollBudget()
	want := strings.TrimPrefix(part, "/dev/")

	for i := 0; i < attempts; i++ {
		devs, err := Scan(ctx, p.Runner)
		if err == nil {
			for _, d := range devs {
				if d.Name != dev.Name {
					continue
				}
				for _, c := range d.Children {
					if c.Name == want {
						return nil
					}
				}
			}
		}
		if i < attempts-1 {
			time.Sleep(interval)
		}
	}
	return fmt.Errorf("partition %s did not appear after %d probes", part, attempts)
}
