// Package video splits oversized recordings so no single file spans more
// than the configured slice of the SSD. Transcoding stays in ffmpeg; this
// package only plans the work and validates its output.
package video

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/HenryPDT/edgeprov/internal/runner"
)

// Recording is one file in the recordings directory.
type Recording struct {
	Path string
	Size int64
}

// videoExtensions are the container formats the recorders produce.
var videoExtensions = map[string]bool{
	".mp4": true,
	".mkv": true,
	".ts":  true,
}

// ScanDir lists recordings directly under dir, largest first.
func ScanDir(dir string) ([]Recording, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read recordings dir %s: %w", dir, err)
	}

	var recs []Recording
	for _, e := range entries {
		if e.IsDir() || !videoExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		recs = append(recs, Recording{Path: filepath.Join(dir, e.Name()), Size: info.Size()})
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Size > recs[j].Size })
	return recs, nil
}

// Plan selects the recordings larger than maxBytes.
func Plan(recs []Recording, maxBytes int64) []Recording {
	var out []Recording
	for _, r := range recs {
		if r.Size > maxBytes {
			out = append(out, r)
		}
	}
	return out
}

type Splitter struct {
	Runner runner.Runner
	Log    *logrus.Logger
	// MaxBytes is the size bound one segment may not exceed.
	MaxBytes int64
}

// probeDuration asks ffprobe for the recording length in seconds.
func (s *Splitter) probeDuration(ctx context.Context, path string) (float64, error) {
	out, err := s.Runner.Run(ctx, "ffprobe", "-v", "error", "-show_entries", "format=duration", "-of", "csv=p=0", path)
	if err != nil {
		return 0, fmt.Errorf("probe %s: %w", path, err)
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("bad duration %q for %s", strings.TrimSpace(string(out)), path)
	}
	return d, nil
}

// SegmentSeconds derives a segment length that keeps each piece under the
// byte bound, assuming roughly constant bitrate, with a floor of one minute.
func SegmentSeconds(durationSec float64, size, maxBytes int64) int {
	if size <= maxBytes {
		return int(math.Ceil(durationSec))
	}
	sec := int(durationSec * float64(maxBytes) / float64(size))
	if sec < 60 {
		sec = 60
	}
	return sec
}

// OutputPattern is the ffmpeg segment filename pattern for a source file:
// recording.mp4 -> recording-%03d.mp4.
func OutputPattern(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-%03d" + ext
}

// segmentName renders the pattern for one index. The recording name may
// contain percent signs or glob metacharacters, so this is a plain substring
// replace on the %03d placeholder, not Sprintf or Glob.
func segmentName(pattern string, i int) string {
	return strings.Replace(pattern, "%03d", fmt.Sprintf("%03d", i), 1)
}

// clearStaleSegments removes leftovers of an earlier interrupted split so
// they cannot be mistaken for fresh output. ffmpeg numbers segments
// contiguously from zero, so stopping at the first missing index is safe.
func clearStaleSegments(pattern string) error {
	for i := 0; ; i++ {
		p := segmentName(pattern, i)
		if err := os.Remove(p); err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("remove stale segment %s: %w", p, err)
		}
	}
}

// collectSegments walks the contiguous index sequence ffmpeg wrote,
// requiring every segment to be non-empty.
func collectSegments(pattern, source string) ([]string, error) {
	var segments []string
	for i := 0; ; i++ {
		p := segmentName(pattern, i)
		info, err := os.Stat(p)
		if os.IsNotExist(err) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("stat segment %s: %w", p, err)
		}
		if info.Size() == 0 {
			return nil, fmt.Errorf("segment %s is empty, keeping original", p)
		}
		segments = append(segments, p)
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("no segments produced for %s", source)
	}
	return segments, nil
}

// Split cuts one recording into segments without re-encoding, verifies every
// produced segment exists and is non-empty, and only then removes the
// original. An invalid segment set keeps the original in place.
func (s *Splitter) Split(ctx context.Context, rec Recording) ([]string, error) {
	duration, err := s.probeDuration(ctx, rec.Path)
	if err != nil {
		return nil, err
	}
	segSec := SegmentSeconds(duration, rec.Size, s.MaxBytes)

	pattern := OutputPattern(rec.Path)
	if err := clearStaleSegments(pattern); err != nil {
		return nil, err
	}
	if s.Log != nil {
		s.Log.Infof("splitting %s (%d bytes) into %ds segments", rec.Path, rec.Size, segSec)
	}
	_, err = s.Runner.Run(ctx, "ffmpeg", "-hide_banner", "-y", "-i", rec.Path,
		"-c", "copy", "-map", "0", "-f", "segment",
		"-segment_time", strconv.Itoa(segSec), "-reset_timestamps", "1", pattern)
	if err != nil {
		return nil, fmt.Errorf("split %s: %w", rec.Path, err)
	}

	segments, err := collectSegments(pattern, rec.Path)
	if err != nil {
		return nil, err
	}

	if err := os.Remove(rec.Path); err != nil {
		return segments, fmt.Errorf("remove original %s: %w", rec.Path, err)
	}
	return segments, nil
}
