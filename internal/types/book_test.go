package types

import "testing"

func TestRangeStart(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"5-10", 5},
		{"0-3", 0},
		{"120", 120},
		{" 42 - 50 ", 42},
		{"", 0},
		{"abc-def", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := RangeStart(tt.in); got != tt.want {
				t.Errorf("RangeStart(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestReview_Start(t *testing.T) {
	if got := (Review{}).Start(); got != -1 {
		t.Errorf("expected -1 for review without range, got %d", got)
	}
	if got := (Review{Range: "7-9"}).Start(); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}
}

func TestReadInfo_Finished(t *testing.T) {
	if !(ReadInfo{MarkedStatus: MarkedStatusFinished}).Finished() {
		t.Error("expected markedStatus 4 to be finished")
	}
	if (ReadInfo{MarkedStatus: 2}).Finished() {
		t.Error("expected markedStatus 2 to be in progress")
	}
}

func TestReview_IsSummary(t *testing.T) {
	if !(Review{Type: ReviewTypeSummary}).IsSummary() {
		t.Error("type 4 should be a summary")
	}
	if (Review{Type: 1}).IsSummary() {
		t.Error("type 1 should not be a summary")
	}
}
