package models_test

import (
	"errors"
	"testing"

	"printwatch/internal/models"
)

func TestNormalizeDeviceID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"already canonical", "Sf36", "Sf36", false},
		{"all lower", "sf36", "Sf36", false},
		{"all upper", "SF36", "Sf36", false},
		{"mixed case", "sF36", "Sf36", false},
		{"surrounding whitespace", "  sf36  ", "Sf36", false},
		{"single rune", "x", "X", false},
		{"empty", "", "", true},
		{"whitespace only", "   ", "", true},
		{"invalid utf8", string([]byte{0xff, 0xfe}), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := models.NormalizeDeviceID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeDeviceID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, models.ErrInvalidDeviceID) {
					t.Errorf("expected ErrInvalidDeviceID, got %v", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("NormalizeDeviceID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeDeviceIDIdempotent(t *testing.T) {
	inputs := []string{"sf36", "SF36", "Sf36", " printer-7 ", "X"}

	for _, in := range inputs {
		once, err := models.NormalizeDeviceID(in)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", in, err)
		}
		twice, err := models.NormalizeDeviceID(once)
		if err != nil {
			t.Fatalf("unexpected error normalizing %q twice: %v", in, err)
		}
		if once != twice {
			t.Errorf("normalization not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}
