package util

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// Basic cases
		{"Hello World", "hello-world"},
		{"Push-ups", "push-ups"},
		{"Glasses of water", "glasses-of-water"},

		// Special characters
		{"Laps: morning", "laps-morning"},
		{"Reps (set 2)", "reps-set-2"},
		{"Coffee!!", "coffee"},

		// Multiple spaces/hyphens
		{"Multiple   spaces", "multiple-spaces"},
		{"Already--hyphenated", "already-hyphenated"},
		{"  Leading spaces", "leading-spaces"},
		{"Trailing spaces  ", "trailing-spaces"},

		// Unicode and accents
		{"Café au lait", "cafe-au-lait"},
		{"Crêpes eaten", "crepes-eaten"},

		// Numbers
		{"Day #12", "day-12"},
		{"Sets 3.5", "sets-3-5"},

		// Edge cases
		{"", ""},
		{"   ", ""},
		{"---", ""},
		{"a", "a"},
		{"A", "a"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := Slugify(tt.input)
			if result != tt.expected {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSlugHasPrefix(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		want bool
	}{
		{"Push-ups", "push", true},
		{"Push-ups", "Push Ups", true},
		{"Push-ups", "pus", false},
		{"Push-ups", "push-ups-daily", false},
		{"Glasses of water", "glasses-of", true},
		{"Café au lait", "cafe", true},
		{"Laps", "", false},
		{"", "laps", false},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.ref, func(t *testing.T) {
			if got := SlugHasPrefix(tt.name, tt.ref); got != tt.want {
				t.Errorf("SlugHasPrefix(%q, %q) = %v, want %v", tt.name, tt.ref, got, tt.want)
			}
		})
	}
}
