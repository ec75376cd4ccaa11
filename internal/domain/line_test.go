package domain

import (
	"errors"
	"testing"
)

func TestNewLineValidation(t *testing.T) {
	tests := []struct {
		name      string
		lineName  string
		color     string
		extraFare int
		wantErr   bool
	}{
		{"valid", "Line 2", "green", 0, false},
		{"surcharge", "Shinbundang", "red", 900, false},
		{"blank name", "  ", "green", 0, true},
		{"blank color", "Line 2", "", 0, true},
		{"negative fare", "Line 2", "green", -1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, err := NewLine(7, tt.lineName, tt.color, tt.extraFare)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidLine) {
					t.Fatalf("expected ErrInvalidLine, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewLine: %v", err)
			}
			if !line.Sections.IsEmpty() {
				t.Fatal("a new line must have no sections")
			}
		})
	}
}

func TestLineSectionsCarryLineID(t *testing.T) {
	line, err := NewLine(42, "Line 1", "blue", 0)
	if err != nil {
		t.Fatalf("NewLine: %v", err)
	}
	if err := line.AddSection(sec(st1, st2, 10)); err != nil {
		t.Fatalf("AddSection: %v", err)
	}
	if err := line.AddSection(sec(st1, st3, 4)); err != nil {
		t.Fatalf("AddSection: %v", err)
	}
	for _, s := range pathOrder(t, line.Sections) {
		if s.LineID != 42 {
			t.Fatalf("expected line id 42, got %d", s.LineID)
		}
	}

	err = line.RemoveStation(st5)
	var te *TopologyError
	if !errors.As(err, &te) || te.LineID != 42 {
		t.Fatalf("expected TopologyError for line 42, got %v", err)
	}
}

func TestLineUpdateKeepsSections(t *testing.T) {
	line, err := RestoreLine(3, "Line 3", "orange", 0, []Section{sec(st1, st2, 5)})
	if err != nil {
		t.Fatalf("RestoreLine: %v", err)
	}

	if err := line.Update("Line 3 Ext", "amber", 300); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if line.Name != "Line 3 Ext" || line.Color != "amber" || line.ExtraFare != 300 {
		t.Fatalf("unexpected metadata %+v", line)
	}
	if line.Sections.Len() != 1 {
		t.Fatalf("expected 1 section, got %d", line.Sections.Len())
	}

	if err := line.Update("Line 3", "amber", -5); !errors.Is(err, ErrInvalidLine) {
		t.Fatalf("expected ErrInvalidLine, got %v", err)
	}
	if line.ExtraFare != 300 {
		t.Fatalf("rejected update changed extra fare to %d", line.ExtraFare)
	}
}

func TestLineClone(t *testing.T) {
	line, err := RestoreLine(3, "Line 3", "orange", 0, []Section{sec(st1, st2, 5)})
	if err != nil {
		t.Fatalf("RestoreLine: %v", err)
	}
	c := line.Clone()
	if err := c.RemoveStation(st1); err != nil {
		t.Fatalf("RemoveStation: %v", err)
	}
	if line.Sections.Len() != 1 {
		t.Fatal("mutating the clone changed the original")
	}
}
