package errors

import (
	"math"
	"testing"
)

func TestValidatePositive(t *testing.T) {
	tests := []struct {
		v       int
		wantErr bool
	}{
		{1, false},
		{500000, false},
		{0, true},
		{-3, true},
	}

	for _, tt := range tests {
		err := ValidatePositive("cutoff", tt.v)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePositive(%d) error = %v, wantErr %v", tt.v, err, tt.wantErr)
		}
		if err != nil && !Is(err, ErrCodeInvalidInput) {
			t.Errorf("ValidatePositive(%d) code = %v, want %v", tt.v, GetCode(err), ErrCodeInvalidInput)
		}
	}
}

func TestValidateNonNegative(t *testing.T) {
	if err := ValidateNonNegative("workers", 0); err != nil {
		t.Errorf("ValidateNonNegative(0) error = %v", err)
	}
	if err := ValidateNonNegative("workers", -1); err == nil {
		t.Error("ValidateNonNegative(-1) should fail")
	}
}

func TestValidateFactor(t *testing.T) {
	tests := []struct {
		name    string
		v       float64
		wantErr bool
	}{
		{"one", 1, false},
		{"fraction", 0.25, false},
		{"zero", 0, true},
		{"negative", -2, true},
		{"nan", math.NaN(), true},
		{"inf", math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFactor("factor", tt.v)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFactor(%v) error = %v, wantErr %v", tt.v, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFilePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "out/components.txt", false},
		{"absolute", "/tmp/graph.json", false},
		{"empty", "", true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
		{"too long", string(make([]byte, 5000)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFilePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateCacheURL(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"redis://localhost:6379/0", false},
		{"rediss://cache.example.org:6380", false},
		{"", true},
		{"http://localhost", true},
		{"localhost:6379", true},
	}

	for _, tt := range tests {
		err := ValidateCacheURL(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateCacheURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}
