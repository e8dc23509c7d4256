package units

import (
	"testing"
)

func TestPatternFindAll(t *testing.T) {
	p, err := NewPattern(Default().Aliases())
	if err != nil {
		t.Fatalf("NewPattern failed: %v", err)
	}

	tests := []struct {
		name     string
		text     string
		expected []Match
	}{
		{
			name:     "attached and spaced units",
			text:     "net wt 2.5kg, gross 10 lb",
			expected: []Match{{"2.5", "kg"}, {"10", "lb"}},
		},
		{
			name:     "multi-word token wins over its suffix",
			text:     "capacity 3 cu ft",
			expected: []Match{{"3", "cu ft"}},
		},
		{
			name:     "multi-word token with extra whitespace",
			text:     "3 imp   gal",
			expected: []Match{{"3", "imp   gal"}},
		},
		{
			name:     "longest single token first",
			text:     "12 mm and 4 m",
			expected: []Match{{"12", "mm"}, {"4", "m"}},
		},
		{
			name:     "case insensitive",
			text:     "120 V / 60 W",
			expected: []Match{{"120", "V"}, {"60", "W"}},
		},
		{
			name:     "no partial words",
			text:     "5 incoming cmd",
			expected: nil,
		},
		{
			name:     "duplicates kept in order",
			text:     "5 cm 5 cm",
			expected: []Match{{"5", "cm"}, {"5", "cm"}},
		},
		{
			name:     "micro sign",
			text:     "200 µg",
			expected: []Match{{"200", "µg"}},
		},
		{
			name:     "no measurement",
			text:     "no readable measurement",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.FindAll(tt.text)
			if len(got) != len(tt.expected) {
				t.Fatalf("Expected %d matches, got %d: %v", len(tt.expected), len(got), got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("Match %d: expected %+v, got %+v", i, tt.expected[i], got[i])
				}
			}
		})
	}
}

func TestOrderTokens(t *testing.T) {
	got := orderTokens([]string{"m", "mm", "cu ft", "ft", "FT", "in", "inch"})
	expected := []string{"cu ft", "inch", "ft", "in", "mm", "m"}
	if len(got) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("Expected %v, got %v", expected, got)
		}
	}
}

func TestEmptyPattern(t *testing.T) {
	p, err := NewPattern(nil)
	if err != nil {
		t.Fatalf("NewPattern(nil) failed: %v", err)
	}
	if got := p.FindAll("5 cm"); got != nil {
		t.Errorf("Expected no matches from empty pattern, got %v", got)
	}
}
