package ui

import "testing"

func TestDetermineLayoutMode(t *testing.T) {
	cases := []struct {
		cols, rows int
		want       LayoutMode
	}{
		{120, 32, LayoutWide},
		{110, 28, LayoutWide},
		{90, 24, LayoutCompact},
		{109, 40, LayoutCompact},
		{71, 40, LayoutTooSmall},
		{100, 19, LayoutTooSmall},
	}
	for _, tc := range cases {
		if got := DetermineLayoutMode(tc.cols, tc.rows); got != tc.want {
			t.Fatalf("DetermineLayoutMode(%d, %d) = %v, want %v", tc.cols, tc.rows, got, tc.want)
		}
	}
}
