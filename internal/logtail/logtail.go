package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/five82/logdeck/internal/logline"
)

// Read returns at most maxLines from the end of the file at path. A missing
// file yields no lines and no error.
func Read(path string, maxLines int) ([]string, error) {
	lines, _, err := readTail(path, maxLines)
	return lines, err
}

// ReadParsed is Read followed by ParseLayout on every line. It also returns
// the offset the read stopped at; a Follower started there with FromStart
// misses nothing written in between.
func ReadParsed(path string, maxLines int, layout string) ([]fmt.Stringer, int64, error) {
	lines, offset, err := readTail(path, maxLines)
	if err != nil {
		return nil, 0, err
	}
	out := make([]fmt.Stringer, 0, len(lines))
	for _, line := range lines {
		out = append(out, ParseLayout(line, layout))
	}
	return out, offset, nil
}

// ParseLayout is Parse with structured lines rendered using layout. An empty
// layout keeps the default.
func ParseLayout(text, layout string) fmt.Stringer {
	parsed := Parse(text)
	if line, ok := parsed.(logline.Line); ok && layout != "" {
		return logline.Formatted{Line: line, Layout: layout}
	}
	return parsed
}

func readTail(path string, maxLines int) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	if maxLines <= 0 {
		offset, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, fmt.Errorf("seek log: %w", err)
		}
		return nil, offset, nil
	}

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log: %w", err)
	}
	// The scanner stops at EOF, so the position is everything consumed.
	offset, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, fmt.Errorf("seek log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, offset, nil
}
