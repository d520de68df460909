package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

// ErrEmptyLog is returned when there is nothing to write.
var ErrEmptyLog = errors.New("log is empty")

const filePrefix = "logdeck_"

// Exporter writes a log snapshot to a timestamped file.
type Exporter struct {
	Dir      string
	Compress bool
	Now      func() time.Time
}

// FileName returns the name used for an export taken at t.
func (e Exporter) FileName(t time.Time) string {
	name := fmt.Sprintf("%s%d.txt", filePrefix, t.Unix())
	if e.Compress {
		name += ".zst"
	}
	return name
}

// Export joins descriptions with newlines and writes them atomically. It
// returns the path of the written file.
func (e Exporter) Export(descriptions []string) (string, error) {
	log := strings.Join(descriptions, "\n")
	if strings.TrimSpace(log) == "" {
		return "", ErrEmptyLog
	}

	dir := strings.TrimSpace(e.Dir)
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	path := filepath.Join(dir, e.FileName(now()))

	tmp, err := os.CreateTemp(dir, "."+filePrefix+"*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if err := e.write(tmp, log); err != nil {
		cleanup()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename export: %w", err)
	}
	return path, nil
}

func (e Exporter) write(w io.Writer, log string) error {
	if !e.Compress {
		if _, err := io.WriteString(w, log); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		return nil
	}

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("init zstd: %w", err)
	}
	if _, err := io.WriteString(enc, log); err != nil {
		_ = enc.Close()
		return fmt.Errorf("write export: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush export: %w", err)
	}
	return nil
}
