// Package eeprom reads the Jetson module identification EEPROM over I2C and
// validates its checksum.
package eeprom

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/HenryPDT/edgeprov/internal/runner"
)

// The module EEPROM sits at address 0x50 and holds one 256-byte page whose
// last byte is a CRC-8 over the preceding 255.
const (
	deviceAddr = "0x50"
	pageSize   = 256
)

// Dump reads the full EEPROM page via i2cdump.
func Dump(ctx context.Context, r runner.Runner, bus int) ([]byte, error) {
	out, err := r.Run(ctx, "i2cdump", "-y", strconv.Itoa(bus), deviceAddr, "b")
	if err != nil {
		return nil, fmt.Errorf("dump EEPROM on bus %d: %w", bus, err)
	}
	return ParseDump(out)
}

// ParseDump decodes the i2cdump hex grid: lines of "<offset>: <16 hex
// bytes>  <ascii>". The header line and the ascii column are skipped.
func ParseDump(out []byte) ([]byte, error) {
	data := make([]byte, 0, pageSize)
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 17 || !strings.HasSuffix(fields[0], ":") {
			continue
		}
		for _, f := range fields[1:17] {
			b, err := strconv.ParseUint(f, 16, 8)
			if err != nil {
				return nil, fmt.Errorf("bad hex byte %q in dump", f)
			}
			data = append(data, byte(b))
		}
	}
	if len(data) != pageSize {
		return nil, fmt.Errorf("EEPROM dump has %d bytes, want %d", len(data), pageSize)
	}
	return data, nil
}

// Checksum computes CRC-8 (poly 0x07, init 0) over the data.
func Checksum(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x07
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// Report is the outcome of inspecting one EEPROM page.
type Report struct {
	Valid       bool
	Stored      byte
	Computed    byte
	Fingerprint string
}

// Inspect validates the stored checksum and derives a stable identity
// fingerprint for the module.
func Inspect(dump []byte) (Report, error) {
	if len(dump) != pageSize {
		return Report{}, fmt.Errorf("EEPROM page has %d bytes, want %d", len(dump), pageSize)
	}
	sum := sha256.Sum256(dump)
	computed := Checksum(dump[:pageSize-1])
	return Report{
		Valid:       computed == dump[pageSize-1],
		Stored:      dump[pageSize-1],
		Computed:    computed,
		Fingerprint: hex.EncodeToString(sum[:8]),
	}, nil
}
