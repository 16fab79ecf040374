package tui

import (
	"strings"
	"testing"
)

func TestPageLayoutUpdate(t *testing.T) {
	cases := []struct {
		name             string
		width            int
		height           int
		sideBySide       bool
		transcriptWidth  int
		transcriptHeight int
		dashboardWidth   int
		composerWidth    int
	}{
		{name: "narrow", width: 80, height: 24, transcriptWidth: 76, transcriptHeight: 8, dashboardWidth: 76, composerWidth: 72},
		{name: "wide", width: 200, height: 40, sideBySide: true, transcriptWidth: 150, transcriptHeight: 32, dashboardWidth: 44, composerWidth: 192},
		{name: "tiny", width: 30, height: 10, transcriptWidth: 40, transcriptHeight: 6, dashboardWidth: 40, composerWidth: 36},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			layout := newPageLayout()
			layout.Update(tc.width, tc.height)
			if layout.sideBySide != tc.sideBySide {
				t.Fatalf("side by side mismatch: got %v want %v", layout.sideBySide, tc.sideBySide)
			}
			if layout.transcriptWidth != tc.transcriptWidth {
				t.Fatalf("transcript width mismatch: got %d want %d", layout.transcriptWidth, tc.transcriptWidth)
			}
			if layout.transcriptHeight != tc.transcriptHeight {
				t.Fatalf("transcript height mismatch: got %d want %d", layout.transcriptHeight, tc.transcriptHeight)
			}
			if layout.dashboardWidth != tc.dashboardWidth {
				t.Fatalf("dashboard width mismatch: got %d want %d", layout.dashboardWidth, tc.dashboardWidth)
			}
			if layout.composerWidth != tc.composerWidth {
				t.Fatalf("composer width mismatch: got %d want %d", layout.composerWidth, tc.composerWidth)
			}
		})
	}
}

func TestRenderBarClampsLengthOnly(t *testing.T) {
	cases := []struct {
		value  float64
		filled int
	}{
		{value: 150, filled: 10},
		{value: -5, filled: 0},
		{value: 55, filled: 6},
		{value: 100, filled: 10},
	}
	for _, tc := range cases {
		bar := renderBar(tc.value, 10)
		if got := strings.Count(bar, "█"); got != tc.filled {
			t.Fatalf("value %v: filled %d want %d", tc.value, got, tc.filled)
		}
		if got := strings.Count(bar, "█") + strings.Count(bar, "░"); got != 10 {
			t.Fatalf("value %v: bar length %d", tc.value, got)
		}
	}
	if row := barRow("OEE", 150); !strings.Contains(row, "150%") {
		t.Fatalf("out-of-range figure should print as received: %q", row)
	}
}
