package units

import (
	"errors"
	"fmt"
	"testing"
)

func TestExtractorPredict(t *testing.T) {
	for _, mode := range []Mode{ModeCatalog, ModeEntity} {
		e, err := NewExtractor(Default(), mode)
		if err != nil {
			t.Fatalf("NewExtractor(%v) failed: %v", mode, err)
		}

		tests := []struct {
			name     string
			entity   string
			text     string
			expected string
			ok       bool
		}{
			{"weight example", "item_weight", "net wt 2.5kg, gross 10 lb", "10 pound", true},
			{"nothing readable", "height", "no readable measurement", "", false},
			{"unknown entity", "colour", "5 cm", "", false},
			{"decimal formatting", "voltage", "input 3.5 V, output 1.25v", "3.50 volt", true},
			{"volume multi-word", "item_volume", "holds 2 cu ft or 1 cup", "2 cubic foot", true},
			{"wrong units only", "wattage", "230 V", "", false},
		}

		for _, tt := range tests {
			t.Run(fmt.Sprintf("%s/%s", mode, tt.name), func(t *testing.T) {
				got, ok := e.Predict(tt.entity, tt.text)
				if ok != tt.ok || got != tt.expected {
					t.Errorf("Predict(%q, %q) = (%q, %v), expected (%q, %v)", tt.entity, tt.text, got, ok, tt.expected, tt.ok)
				}
			})
		}
	}
}

func TestExtractorEveryAlias(t *testing.T) {
	c := Default()
	e, err := NewExtractor(c, ModeCatalog)
	if err != nil {
		t.Fatalf("NewExtractor failed: %v", err)
	}

	for _, entity := range c.Entities() {
		aliases, err := c.AliasesFor(entity)
		if err != nil {
			t.Fatalf("AliasesFor(%s) failed: %v", entity, err)
		}
		for _, alias := range aliases {
			text := "about 7 " + alias + " total"
			m, err := e.Extract(entity, text)
			if err != nil {
				t.Errorf("Extract(%s, %q) failed: %v", entity, text, err)
				continue
			}
			want := "7 " + c.Canonicalize(alias)
			if m.String() != want {
				t.Errorf("Extract(%s, %q) = %q, expected %q", entity, text, m, want)
			}
		}
	}
}

func TestExtractorUnknownEntity(t *testing.T) {
	e, err := NewExtractor(Default(), ModeEntity)
	if err != nil {
		t.Fatalf("NewExtractor failed: %v", err)
	}
	if _, err := e.Extract("colour", "5 cm"); !errors.Is(err, ErrUnknownEntity) {
		t.Errorf("Expected ErrUnknownEntity, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in       string
		expected Mode
		wantErr  bool
	}{
		{"", ModeCatalog, false},
		{"catalog", ModeCatalog, false},
		{"Entity", ModeEntity, false},
		{"fuzzy", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.expected {
			t.Errorf("ParseMode(%q) = %v, expected %v", tt.in, got, tt.expected)
		}
	}
}
