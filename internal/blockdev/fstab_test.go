package blockdev

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureFstabEntryAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fstab")
	require.NoError(t, os.WriteFile(path, []byte("/dev/root / ext4 defaults 0 1\n"), 0644))

	added, err := EnsureFstabEntry(path, "/dev/nvme0n1p1", "/mnt/1tb")
	require.NoError(t, err)
	assert.True(t, added)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "/dev/nvme0n1p1 /mnt/1tb ext4 defaults 0 2")
}

func TestEnsureFstabEntryIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fstab")
	existing := "/dev/root / ext4 defaults 0 1\n/dev/nvme0n1p1 /mnt/1tb ext4 defaults 0 2\n"
	require.NoError(t, os.WriteFile(path, []byte(existing), 0644))

	added, err := EnsureFstabEntry(path, "/dev/nvme0n1p1", "/mnt/1tb")
	require.NoError(t, err)
	assert.False(t, added)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, existing, string(data), "re-running must not duplicate the entry")
	assert.Equal(t, 1, strings.Count(string(data), "/mnt/1tb"))
}

func TestEnsureFstabEntryIgnoresComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fstab")
	require.NoError(t, os.WriteFile(path, []byte("# /mnt/1tb used to live here\n"), 0644))

	added, err := EnsureFstabEntry(path, "/dev/sda1", "/mnt/1tb")
	require.NoError(t, err)
	assert.True(t, added)
}

func TestEnsureFstabEntryCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fstab")

	added, err := EnsureFstabEntry(path, "/dev/sda1", "/mnt/1tb")
	require.NoError(t, err)
	assert.True(t, added)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/sda1 /mnt/1tb ext4 defaults 0 2\n", string(data))
}
