package blockdev

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// EnsureFstabEntry appends a mount-table line for the device unless an entry
// for the mount point already exists. Re-running it never duplicates a line.
// Returns whether a line was added.
func EnsureFstabEntry(path, device, mountPoint string) (bool, error) {
	f, err := os.Open(path)
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			fields := strings.Fields(line)
			if len(fields) >= 2 && fields[1] == mountPoint {
				f.Close()
				return false, nil
			}
		}
		if err := scanner.Err(); err != nil {
			f.Close()
			return false, fmt.Errorf("read %s: %w", path, err)
		}
		f.Close()
	}

	out, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, fmt.Errorf("append to %s: %w", path, err)
	}
	defer out.Close()

	if _, err := fmt.Fprintf(out, "%s %s ext4 defaults 0 2\n", device, mountPoint); err != nil {
		return false, fmt.Errorf("append to %s: %w", path, err)
	}
	return true, nil
}
