package tui

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "absolute", in: "/data/oee.xlsx", want: "/data/oee.xlsx"},
		{name: "quoted", in: `  "/data/my oee.xlsx" `, want: "/data/my oee.xlsx"},
		{name: "home", in: "~/oee.csv", want: filepath.Join(home, "oee.csv")},
		{name: "relative", in: "oee.csv", want: filepath.Join(cwd, "oee.csv")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandPath(tt.in)
			if err != nil {
				t.Fatalf("expandPath(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("expandPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	if _, err := expandPath("  ''  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestReadDatasetJob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oee.csv")
	if err := os.WriteFile(path, []byte("device_id\nPACK001\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	msg, err := readDatasetJob(path)(context.Background())
	if err != nil {
		t.Fatalf("read job: %v", err)
	}
	read, ok := msg.(datasetReadMsg)
	if !ok {
		t.Fatalf("expected datasetReadMsg, got %T", msg)
	}
	if read.path != path || string(read.data) != "device_id\nPACK001\n" {
		t.Fatalf("unexpected read result: %+v", read)
	}

	msg, err = readDatasetJob(filepath.Join(t.TempDir(), "missing.csv"))(context.Background())
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	if read := msg.(datasetReadMsg); read.err == nil {
		t.Fatalf("expected message to carry the error")
	}
}

func TestFetchFiltersJobWithoutBackend(t *testing.T) {
	msg, err := fetchFiltersJob(nil, 3)(context.Background())
	if err == nil {
		t.Fatalf("expected error without backend")
	}
	result := msg.(catalogResultMsg)
	if result.err == nil {
		t.Fatalf("expected catalogResultMsg to carry the error")
	}
	if result.generation != 3 {
		t.Fatalf("generation not stamped: %d", result.generation)
	}
}
