package logline

import (
	"testing"
	"time"
)

func TestLine_StringWithMessage(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 123_000_000, time.UTC)
	line := New(CallSite{File: "/src/app/ViewController.go", Line: 42, Function: "viewDidLoad"}, "", "hello", ts)

	want := `2024-03-09 14:05:07.123 -- [Main] ViewController (42) -> viewDidLoad | "hello"`
	if got := line.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestLine_MessageIsNotEscaped(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	line := New(CallSite{File: "a.go", Line: 1, Function: "f"}, "", "say \"hi\"\ttab", ts)

	want := "2024-03-09 14:05:07.000 -- [Main] a (1) -> f | \"say \"hi\"\ttab\""
	if got := line.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestLine_StringWithoutMessage(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	line := New(CallSite{File: "worker.go", Line: 7, Function: "run"}, "worker-1", "", ts)

	want := "2024-03-09 14:05:07.000 -- [worker-1] worker (7) -> run"
	if got := line.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestLine_FormatCustomLayout(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	line := New(CallSite{File: "a.go", Line: 1, Function: "f"}, "Main", "m", ts)

	f := Formatted{Line: line, Layout: "15:04:05"}
	want := `14:05:07 -- [Main] a (1) -> f | "m"`
	if got := f.String(); got != want {
		t.Fatalf("Formatted.String() = %q, want %q", got, want)
	}
	if f.LineID() != line.ID {
		t.Fatalf("Formatted.LineID() = %v, want %v", f.LineID(), line.ID)
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "Unknown"},
		{"   ", "Unknown"},
		{"main.go", "main"},
		{"/a/b/c/console.go", "console"},
		{`C:\src\brain.swift`, "brain"},
		{"Makefile", "Makefile"},
		{"/", "Unknown"},
	}
	for _, tt := range tests {
		if got := FileName(tt.in); got != tt.want {
			t.Errorf("FileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNew_AssignsDistinctIDs(t *testing.T) {
	now := time.Now()
	a := New(CallSite{}, "", "", now)
	b := New(CallSite{}, "", "", now)
	if a.ID == b.ID {
		t.Fatalf("New() returned duplicate IDs %v", a.ID)
	}
}

func TestRaw(t *testing.T) {
	r := NewRaw("plain text")
	if r.String() != "plain text" {
		t.Fatalf("Raw.String() = %q, want %q", r.String(), "plain text")
	}
	var id Identified = r
	if id.LineID() != r.ID {
		t.Fatalf("LineID() = %v, want %v", id.LineID(), r.ID)
	}
}
