package gesture

import (
	"testing"

	"github.com/ayusman/mudra/internal/landmark"
)

func TestClassifier_SpecialPose(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	tests := []struct {
		name string
		hand landmark.Hand
		want bool
	}{
		{"special", landmark.SpecialPose(), true},
		{"special tilted", landmark.SpecialPose().Rotate(45), true},
		{"open palm", landmark.OpenPalm(), false},
		{"fist", landmark.ClosedHand(), false},
		{"pointing", landmark.Pointing(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.SpecialPose(pixels(tt.hand)); got != tt.want {
				t.Errorf("SpecialPose = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifier_SpecialPatterns(t *testing.T) {
	digits := DefaultConfig()
	digits.Special = SpecialDigits
	digits.SpecialMinDigits = 4
	off := DefaultConfig()
	off.Special = SpecialOff

	tests := []struct {
		name string
		cfg  Config
		hand landmark.Hand
		want bool
	}{
		{"digits: open palm has five", digits, landmark.OpenPalm(), true},
		{"digits: upside-down palm", digits, landmark.OpenPalm().Rotate(180), true},
		{"digits: horns has three", digits, landmark.SpecialPose(), false},
		{"digits: fist", digits, landmark.ClosedHand(), false},
		{"off: horns", off, landmark.SpecialPose(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifier(tt.cfg)
			if got := c.SpecialPose(pixels(tt.hand)); got != tt.want {
				t.Errorf("SpecialPose = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSpecialVotes(t *testing.T) {
	// window 6: forming from 3 votes, majority from 5.
	s := newSpecialVotes(DefaultConfig())

	steps := []struct {
		flag                  bool
		votes                 int
		forming, majorityHeld bool
	}{
		{true, 1, false, false},
		{true, 2, false, false},
		{true, 3, true, false},
		{true, 4, true, false},
		{true, 5, true, true},
		{false, 5, true, true},
		{false, 4, true, false},
		{false, 3, true, false},
		{false, 2, false, false},
	}
	for i, st := range steps {
		votes, forming, maj := s.push(st.flag)
		if votes != st.votes || forming != st.forming || maj != st.majorityHeld {
			t.Errorf("step %d: got (%d, %v, %v), want (%d, %v, %v)",
				i, votes, forming, maj, st.votes, st.forming, st.majorityHeld)
		}
	}
}
