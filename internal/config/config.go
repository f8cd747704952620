package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config carries everything the checks need: no check reads the ambient
// environment directly. Built once in Load and passed down by the commands.
type Config struct {
	// DeviceKind is "jetson" or "nessvms"; empty means detect from the
	// device tree at startup.
	DeviceKind string

	// SSD selection window and mount target.
	MountPoint   string
	MinDiskBytes uint64
	MaxDiskBytes uint64
	// MinFreeBytes is the free-space floor for the read-only verify.
	MinFreeBytes uint64

	// Container registry credentials for the VMS images.
	RegistryHost  string
	RegistryUser  string
	RegistryToken string

	// LAN scan settings.
	ScanCIDR    string
	SSHUser     string
	SSHPassword string

	// EEPROM bus for the module identification dump.
	EEPROMBus int

	// Recording split settings.
	RecordingsDir string
	SegmentBytes  int64

	Verbose bool
}

const (
	defaultMountPoint  = "/mnt/1tb"
	defaultMinDiskGB   = 800
	defaultMaxDiskGB   = 1100
	defaultMinFreeGB   = 50
	defaultSegmentGB   = 4
	defaultEEPROMBus   = 0
	defaultSecretsFile = "/etc/edgeprov/secrets.env"
)

// Load builds the Config from defaults, the optional secrets file and the
// process environment, in that order of precedence (environment wins).
func Load() (*Config, error) {
	cfg := &Config{
		MountPoint:    defaultMountPoint,
		MinDiskBytes:  defaultMinDiskGB * 1000 * 1000 * 1000,
		MaxDiskBytes:  defaultMaxDiskGB * 1000 * 1000 * 1000,
		MinFreeBytes:  defaultMinFreeGB * 1000 * 1000 * 1000,
		SegmentBytes:  defaultSegmentGB * 1000 * 1000 * 1000,
		EEPROMBus:     defaultEEPROMBus,
		RecordingsDir: "/mnt/1tb/recordings",
		ScanCIDR:      "192.168.1.0/24",
		SSHUser:       "nvidia",
	}

	secrets := os.Getenv("EDGEPROV_SECRETS")
	if secrets == "" {
		secrets = defaultSecretsFile
	}
	if err := cfg.applySecretsFile(secrets); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applySecretsFile reads flat KEY=value lines. A missing file is fine; a
// present but unreadable one is not.
func (c *Config) applySecretsFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open secrets file %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		if err := c.set(strings.TrimSpace(key), strings.Trim(strings.TrimSpace(value), `"`)); err != nil {
			return fmt.Errorf("secrets file %s: %w", path, err)
		}
	}
	return scanner.Err()
}

func (c *Config) applyEnv() error {
	for _, key := range []string{
		"EDGEPROV_DEVICE_KIND",
		"EDGEPROV_MOUNT_POINT",
		"EDGEPROV_MIN_DISK_GB",
		"EDGEPROV_MAX_DISK_GB",
		"EDGEPROV_MIN_FREE_GB",
		"REGISTRY_HOST",
		"REGISTRY_USER",
		"REGISTRY_TOKEN",
		"EDGEPROV_SCAN_CIDR",
		"EDGEPROV_SSH_USER",
		"EDGEPROV_SSH_PASSWORD",
		"EDGEPROV_EEPROM_BUS",
		"EDGEPROV_RECORDINGS_DIR",
		"EDGEPROV_SEGMENT_GB",
	} {
		if v, ok := os.LookupEnv(key); ok {
			if err := c.set(key, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Config) set(key, value string) error {
	switch key {
	case "EDGEPROV_DEVICE_KIND":
		c.DeviceKind = value
	case "EDGEPROV_MOUNT_POINT":
		c.MountPoint = value
	case "EDGEPROV_MIN_DISK_GB":
		gb, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.MinDiskBytes = gb * 1000 * 1000 * 1000
	case "EDGEPROV_MAX_DISK_GB":
		gb, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.MaxDiskBytes = gb * 1000 * 1000 * 1000
	case "EDGEPROV_MIN_FREE_GB":
		gb, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.MinFreeBytes = gb * 1000 * 1000 * 1000
	case "REGISTRY_HOST":
		c.RegistryHost = value
	case "REGISTRY_USER":
		c.RegistryUser = value
	case "REGISTRY_TOKEN":
		c.RegistryToken = value
	case "EDGEPROV_SCAN_CIDR":
		c.ScanCIDR = value
	case "EDGEPROV_SSH_USER":
		c.SSHUser = value
	case "EDGEPROV_SSH_PASSWORD":
		c.SSHPassword = value
	case "EDGEPROV_EEPROM_BUS":
		bus, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.EEPROMBus = bus
	case "EDGEPROV_RECORDINGS_DIR":
		c.RecordingsDir = value
	case "EDGEPROV_SEGMENT_GB":
		gb, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.SegmentBytes = gb * 1000 * 1000 * 1000
	}
	return nil
}
