package logtail

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/five82/logdeck/internal/logline"
)

func TestRead(t *testing.T) {
	// Create a temporary log file
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	// Write 10 lines of content
	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "none (0)",
			maxLines: 0,
			expected: nil,
		},
		{
			name:     "none (negative)",
			maxLines: -1,
			expected: nil,
		},
		{
			name:     "read partial (5)",
			maxLines: 5,
			expected: expectedAll[5:],
		},
		{
			name:     "read exactly all (10)",
			maxLines: 10,
			expected: expectedAll,
		},
		{
			name:     "read more than exists (20)",
			maxLines: 20,
			expected: expectedAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != nil {
		t.Fatalf("Read() = %v, want nil", got)
	}
}

func TestReadParsed(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "mixed.log")
	body := "plain text\n{\"msg\":\"hello\",\"file\":\"main.go\",\"line\":3,\"func\":\"main\",\"ts\":1700000000}\n"
	if err := os.WriteFile(logPath, []byte(body), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, offset, err := ReadParsed(logPath, 10, "")
	if err != nil {
		t.Fatalf("ReadParsed() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadParsed() returned %d lines, want 2", len(got))
	}
	if offset != int64(len(body)) {
		t.Errorf("ReadParsed() offset = %d, want %d", offset, len(body))
	}
	if _, ok := got[0].(logline.Raw); !ok {
		t.Errorf("line 0 = %T, want logline.Raw", got[0])
	}
	if _, ok := got[1].(logline.Line); !ok {
		t.Errorf("line 1 = %T, want logline.Line", got[1])
	}
}

func TestReadParsed_UsesLayout(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	body := "{\"msg\":\"hello\",\"file\":\"main.go\",\"line\":3,\"func\":\"main\",\"ts\":\"2024-01-02T03:04:05Z\"}\n"
	if err := os.WriteFile(logPath, []byte(body), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, _, err := ReadParsed(logPath, 10, "15:04:05")
	if err != nil {
		t.Fatalf("ReadParsed() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ReadParsed() returned %d lines, want 1", len(got))
	}
	formatted, ok := got[0].(logline.Formatted)
	if !ok {
		t.Fatalf("line = %T, want logline.Formatted", got[0])
	}
	if formatted.Layout != "15:04:05" {
		t.Fatalf("Layout = %q, want 15:04:05", formatted.Layout)
	}
	if s := formatted.String(); !strings.HasPrefix(s, "03:04:05 -- ") {
		t.Fatalf("String() = %q, want it to start with the short layout", s)
	}
}

func TestParseLayout_KeepsRawText(t *testing.T) {
	if _, ok := ParseLayout("plain", "15:04:05").(logline.Raw); !ok {
		t.Fatalf("ParseLayout(plain) is not logline.Raw")
	}
}

func TestParse(t *testing.T) {
	fallback := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text",
			input: "2025-10-08 21:01:05 INFO [encoder] – starting",
			want:  "2025-10-08 21:01:05 INFO [encoder] – starting",
		},
		{
			name:  "broken json",
			input: `{"msg": "oops"`,
			want:  `{"msg": "oops"`,
		},
		{
			name:  "json without known fields",
			input: `{"foo":1}`,
			want:  `{"foo":1}`,
		},
		{
			name:  "json array",
			input: `["msg"]`,
			want:  `["msg"]`,
		},
		{
			name:  "full record",
			input: `{"time":"2024-05-06T07:08:09.123Z","thread":"worker","file":"/src/app/run.go","line":42,"func":"app.Run","msg":"started"}`,
			want:  `2024-05-06 07:08:09.123 -- [worker] run (42) -> app.Run | "started"`,
		},
		{
			name:  "caller with line and level",
			input: `{"level":"warn","caller":"internal/poll/poller.go:17","message":"slow","goroutine":7}`,
			want:  `2024-01-02 03:04:05.000 -- [7] poller (17) ->  | "WARN slow"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAt(tt.input, fallback)
			desc := got.String()
			if line, ok := got.(logline.Line); ok {
				line.Time = line.Time.UTC()
				desc = line.String()
			}
			if desc != tt.want {
				t.Errorf("ParseAt() = %q, want %q", desc, tt.want)
			}
		})
	}
}

func TestParse_NumericTimestamp(t *testing.T) {
	got := ParseAt(`{"msg":"x","ts":1700000000.5}`, time.Time{})
	line, ok := got.(logline.Line)
	if !ok {
		t.Fatalf("ParseAt() = %T, want logline.Line", got)
	}
	want := time.Unix(1700000000, 500000000)
	if !line.Time.Equal(want) {
		t.Fatalf("Time = %v, want %v", line.Time, want)
	}
}

func TestSplitCaller(t *testing.T) {
	tests := []struct {
		in       string
		wantFile string
		wantLine int
	}{
		{"a/b.go:12", "a/b.go", 12},
		{"b.go", "b.go", 0},
		{"b.go:x", "b.go:x", 0},
		{"C:/src/b.go:9", "C:/src/b.go", 9},
	}
	for _, tt := range tests {
		file, line := splitCaller(tt.in)
		if file != tt.wantFile || line != tt.wantLine {
			t.Errorf("splitCaller(%q) = (%q, %d), want (%q, %d)", tt.in, file, line, tt.wantFile, tt.wantLine)
		}
	}
}

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 200; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

func appendFile(t *testing.T, path, text string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if _, err := f.WriteString(text); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

// waitForLine keeps producing until want arrives on lines.
func waitForLine(t *testing.T, lines <-chan string, want string, produce func()) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	produce()
	for {
		select {
		case got := <-lines:
			if got == want {
				return
			}
		case <-tick.C:
			produce()
		case <-deadline:
			t.Fatalf("line %q never arrived", want)
		}
	}
}

func TestFollow_StreamsAppendedLines(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "app.log")
	existing := strings.Repeat("old line that must not be replayed\n", 4)
	if err := os.WriteFile(logPath, []byte(existing), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	lines := make(chan string, 256)
	done := make(chan error, 1)
	go func() {
		done <- Follow(ctx, logPath, func(line string) { lines <- line })
	}()

	waitForLine(t, lines, "fresh", func() { appendFile(t, logPath, "fresh\n") })

	// Truncation restarts from the beginning of the file.
	waitForLine(t, lines, "after truncate", func() {
		if err := os.WriteFile(logPath, []byte("after truncate\n"), 0644); err != nil {
			t.Errorf("WriteFile: %v", err)
		}
	})

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Follow() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Follow did not stop after cancel")
	}

	close(lines)
	for line := range lines {
		if strings.HasPrefix(line, "old line") {
			t.Fatalf("existing content was replayed: %q", line)
		}
	}
}

func TestFollow_PartialLinesAreBuffered(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "partial.log")
	appendFile(t, logPath, "hel")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	lines := make(chan string, 16)
	f := &Follower{Path: logPath, Handle: func(line string) { lines <- line }, FromStart: true}
	go func() { _ = f.Run(ctx) }()

	appendFile(t, logPath, "lo\r\nnext\n")

	for _, want := range []string{"hello", "next"} {
		select {
		case got := <-lines:
			if got != want {
				t.Fatalf("line = %q, want %q", got, want)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("line %q never arrived", want)
		}
	}
}

func TestFollow_ResumesFromOffset(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "resume.log")
	appendFile(t, logPath, "loaded\n")

	_, offset, err := ReadParsed(logPath, 10, "")
	if err != nil {
		t.Fatalf("ReadParsed() error = %v", err)
	}
	// Written after the read but before the follower starts.
	appendFile(t, logPath, "in between\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	lines := make(chan string, 16)
	f := &Follower{Path: logPath, Handle: func(line string) { lines <- line }, FromStart: true, Offset: offset}
	go func() { _ = f.Run(ctx) }()

	select {
	case got := <-lines:
		if got != "in between" {
			t.Fatalf("first line = %q, want %q", got, "in between")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("line written after the read never arrived")
	}
}

func TestFollow_TruncationResetsOffset(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "truncate.log")
	appendFile(t, logPath, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	lines := make(chan string, 256)
	go func() { _ = Follow(ctx, logPath, func(line string) { lines <- line }) }()

	waitForLine(t, lines, "a long line written before the file is truncated", func() {
		appendFile(t, logPath, "a long line written before the file is truncated\n")
	})

	waitForLine(t, lines, "short", func() {
		if err := os.Truncate(logPath, 0); err != nil {
			t.Errorf("Truncate: %v", err)
		}
		appendFile(t, logPath, "short\n")
	})
}

func TestFollow_RotationReopens(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "app.log")
	appendFile(t, logPath, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	lines := make(chan string, 256)
	go func() { _ = Follow(ctx, logPath, func(line string) { lines <- line }) }()

	waitForLine(t, lines, "before rotation", func() { appendFile(t, logPath, "before rotation\n") })

	rotated := false
	waitForLine(t, lines, "after rotation", func() {
		if !rotated {
			rotated = true
			if err := os.Rename(logPath, logPath+".1"); err != nil {
				t.Errorf("Rename: %v", err)
			}
		}
		appendFile(t, logPath, "after rotation\n")
	})

	// The rotated file is no longer followed.
	appendFile(t, logPath+".1", "stale\n")
	waitForLine(t, lines, "latest", func() { appendFile(t, logPath, "latest\n") })
	for {
		select {
		case line := <-lines:
			if line == "stale" {
				t.Fatalf("line from the rotated file was streamed")
			}
		default:
			return
		}
	}
}

func TestFollow_NilHandler(t *testing.T) {
	if err := Follow(context.Background(), "x.log", nil); err == nil {
		t.Fatalf("Follow() error = nil, want error")
	}
}

func TestFollow_MissingDirectoryRetries(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "later", "app.log")

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 16)
	f := &Follower{
		Path:    missing,
		Handle:  func(string) {},
		OnError: func(err error) {
			select {
			case errs <- err:
			default:
			}
		},
		Retry:   10 * time.Millisecond,
	}
	done := make(chan error, 1)
	go func() { done <- f.Run(ctx) }()

	select {
	case err := <-errs:
		if !strings.Contains(err.Error(), "watch") {
			t.Fatalf("OnError got %v, want a watch error", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("OnError was never called")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
