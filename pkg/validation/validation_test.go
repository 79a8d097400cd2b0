package validation

import (
	"strings"
	"testing"
)

func TestValidateMeetingID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "m1", false},
		{"with dash and underscore", "team-standup_42", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"too long", strings.Repeat("a", 101), true},
		{"illegal characters", "room/1", true},
		{"spaces inside", "room 1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMeetingID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMeetingID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePeerID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "a1b2c3d4", false},
		{"empty", "", true},
		{"too short", "a1b2", true},
		{"too long", "a1b2c3d4e5", true},
		{"uppercase hex", "A1B2C3D4", true},
		{"non hex", "z1b2c3d4", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePeerID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePeerID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSource(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"local", "local", false},
		{"remote with dot", "remote.cam1", false},
		{"empty", "", true},
		{"too long", strings.Repeat("s", 65), true},
		{"illegal characters", "feed one", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSource(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSource(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
