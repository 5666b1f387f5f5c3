package debug

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	scopeColumns   = 64
	scopePNGHeight = 64
)

// ScopeLine renders a batch as a single line of width characters, each
// character covering an equal slice of the batch: '▀' all high, '▄' all low,
// '▒' mixed.
func ScopeLine(batch []int8, width int) string {
	if len(batch) == 0 || width <= 0 {
		return ""
	}
	width = min(width, len(batch))

	var sb strings.Builder
	for col := range width {
		from := col * len(batch) / width
		to := (col + 1) * len(batch) / width
		high, low := false, false
		for _, c := range batch[from:to] {
			if c > 0 {
				high = true
			} else {
				low = true
			}
		}
		switch {
		case high && low:
			sb.WriteRune('▒')
		case high:
			sb.WriteRune('▀')
		default:
			sb.WriteRune('▄')
		}
	}
	return sb.String()
}

// FormatSnapshot renders the snapshot as plain text: configuration tables,
// counters and the scope batch at one character per sample.
func FormatSnapshot(s *Snapshot) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "snapshot %s  rate=%.0fHz  ticks=%d  enabled=%v\n\n",
		s.Taken.Format(time.RFC3339), s.SampleRate, s.Ticks, s.Enabled)

	sb.WriteString("oscillators\n")
	for _, o := range s.Oscillators {
		fmt.Fprintf(&sb, "  %d  %10.2fHz %-4s amp=%.2f %-9s out=%v\n",
			o.ID, o.Frequency, o.Note, o.Amplitude, o.Kind, o.Output)
	}

	sb.WriteString("logic blocks\n")
	for _, b := range s.Blocks {
		fmt.Fprintf(&sb, "  %d  %-4s %-12s %-12s result=%v\n",
			b.ID, b.Operation, b.Input1, b.Input2, b.Result)
	}

	fmt.Fprintf(&sb, "\nfinal=%v code=%d\n", s.Final, s.Code)
	fmt.Fprintf(&sb, "delivered=%d dropped=%d overruns=%d avg=%s max=%s\n",
		s.Delivered, s.Dropped, s.Overruns, s.AvgCycle, s.MaxCycle)
	fmt.Fprintf(&sb, "batches=%d overwritten=%d duty=%.3f\n", s.Batches, s.Overwritten, s.Duty())

	if len(s.Scope) > 0 {
		sb.WriteString("\nscope\n")
		for i := 0; i < len(s.Scope); i += scopeColumns {
			end := min(i+scopeColumns, len(s.Scope))
			sb.WriteString("  ")
			for _, c := range s.Scope[i:end] {
				if c > 0 {
					sb.WriteByte('#')
				} else {
					sb.WriteByte('_')
				}
			}
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// SaveSnapshotText writes the text form of s to a timestamped file in
// directory (current directory when empty) and returns its path.
func SaveSnapshotText(s *Snapshot, baseName, directory string) (string, error) {
	path, err := snapshotPath(baseName, directory, "txt")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(FormatSnapshot(s)), 0o644); err != nil {
		return "", errors.Wrapf(err, "write %s", path)
	}
	slog.Info("Snapshot saved", "path", path, "format", "text")
	return path, nil
}

// SaveScopePNG draws a batch as a two-level trace, one pixel column per
// sample, and returns the file path.
func SaveScopePNG(batch []int8, baseName, directory string) (string, error) {
	if len(batch) == 0 {
		return "", errors.New("empty scope batch")
	}

	path, err := snapshotPath(baseName, directory, "png")
	if err != nil {
		return "", err
	}

	img := image.NewGray(image.Rect(0, 0, len(batch), scopePNGHeight))
	const top, bottom = 4, scopePNGHeight - 5
	for x, c := range batch {
		y := bottom
		if c > 0 {
			y = top
		}
		img.SetGray(x, y, color.Gray{Y: 0xFF})
		// vertical edge on transitions
		if x > 0 && (batch[x-1] > 0) != (c > 0) {
			for yy := top; yy <= bottom; yy++ {
				img.SetGray(x, yy, color.Gray{Y: 0xFF})
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return "", errors.Wrap(err, "encode png")
	}
	slog.Info("Snapshot saved", "path", path, "size", fmt.Sprintf("%dx%d", len(batch), scopePNGHeight), "format", "PNG")
	return path, nil
}

func snapshotPath(baseName, directory, ext string) (string, error) {
	if directory == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", errors.Wrap(err, "failed to get current directory")
		}
		directory = cwd
	}
	timestamp := time.Now().Format("20060102_150405.000")
	return filepath.Join(directory, fmt.Sprintf("%s_%s.%s", baseName, timestamp, ext)), nil
}
