package domain

import "testing"

func TestReviewState(t *testing.T) {
	tests := []struct {
		state    ReviewState
		valid    bool
		terminal bool
	}{
		{ReviewUnreviewed, true, false},
		{ReviewConfirmed, true, true},
		{ReviewRejected, true, true},
		{ReviewState("both"), false, false},
		{ReviewState(""), false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
			if got := tt.state.Terminal(); got != tt.terminal {
				t.Errorf("Terminal() = %v, want %v", got, tt.terminal)
			}
		})
	}
}

func TestTrainingPhoto_PositionOf(t *testing.T) {
	photo := TrainingPhoto{PhotoID: 1, Tags: []int64{10, 20, 30}}

	if got := photo.PositionOf(10); got != 0 {
		t.Errorf("PositionOf(10) = %d, want 0", got)
	}
	if got := photo.PositionOf(30); got != 2 {
		t.Errorf("PositionOf(30) = %d, want 2", got)
	}
	if got := photo.PositionOf(99); got != -1 {
		t.Errorf("PositionOf(99) = %d, want -1", got)
	}
}

func TestBoundingBox_Size(t *testing.T) {
	box := BoundingBox{Top: 10, Right: 90, Bottom: 110, Left: 40}
	if box.Width() != 50 || box.Height() != 100 {
		t.Errorf("size = %dx%d, want 50x100", box.Width(), box.Height())
	}
}
