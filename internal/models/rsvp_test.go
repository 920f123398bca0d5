package models

import "testing"

func TestValidRSVPStatus(t *testing.T) {
	tests := []struct {
		status RSVPStatus
		want   bool
	}{
		{RSVPGoing, true},
		{RSVPMaybe, true},
		{RSVPNotGoing, true},
		{"", false},
		{"attending", false},
		{"GOING", false},
	}
	for _, tt := range tests {
		if got := ValidRSVPStatus(tt.status); got != tt.want {
			t.Errorf("ValidRSVPStatus(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
