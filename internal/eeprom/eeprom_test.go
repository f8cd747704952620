package eeprom

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildDump renders 256 bytes the way i2cdump prints them.
func buildDump(data []byte) string {
	var sb strings.Builder
	sb.WriteString("     0  1  2  3  4  5  6  7  8  9  a  b  c  d  e  f    0123456789abcdef\n")
	for off := 0; off < len(data); off += 16 {
		sb.WriteString(fmt.Sprintf("%02x:", off))
		for _, b := range data[off : off+16] {
			sb.WriteString(fmt.Sprintf(" %02x", b))
		}
		sb.WriteString("    ................\n")
	}
	return sb.String()
}

func validPage() []byte {
	page := make([]byte, 256)
	for i := range page[:255] {
		page[i] = byte(i * 3)
	}
	page[255] = Checksum(page[:255])
	return page
}

func TestParseDumpRoundTrip(t *testing.T) {
	page := validPage()
	parsed, err := ParseDump([]byte(buildDump(page)))
	require.NoError(t, err)
	assert.Equal(t, page, parsed)
}

func TestParseDumpShortPage(t *testing.T) {
	page := validPage()
	_, err := ParseDump([]byte(buildDump(page[:128])))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "128 bytes")
}

func TestParseDumpBadHex(t *testing.T) {
	dump := strings.Replace(buildDump(validPage()), " 00 ", " zz ", 1)
	_, err := ParseDump([]byte(dump))
	assert.Error(t, err)
}

func TestChecksumKnownVectors(t *testing.T) {
	// CRC-8 poly 0x07 reference values.
	assert.Equal(t, byte(0x00), Checksum(nil))
	assert.Equal(t, byte(0xF4), Checksum([]byte("123456789")))
}

func TestInspectValid(t *testing.T) {
	rep, err := Inspect(validPage())
	require.NoError(t, err)
	assert.True(t, rep.Valid)
	assert.Equal(t, rep.Stored, rep.Computed)
	assert.Len(t, rep.Fingerprint, 16)
}

func TestInspectCorrupted(t *testing.T) {
	page := validPage()
	page[10] ^= 0xFF

	rep, err := Inspect(page)
	require.NoError(t, err)
	assert.False(t, rep.Valid)
	assert.NotEqual(t, rep.Stored, rep.Computed)
}

func TestInspectWrongSize(t *testing.T) {
	_, err := Inspect(make([]byte, 100))
	assert.Error(t, err)
}

func TestFingerprintStable(t *testing.T) {
	a, err := Inspect(validPage())
	require.NoError(t, err)
	b, err := Inspect(validPage())
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint, b.Fingerprint)
}
