package domain

import (
	"errors"
	"testing"
)

func TestParsePathType(t *testing.T) {
	tests := []struct {
		input   string
		want    PathType
		wantErr bool
	}{
		{"", PathTypeDistance, false},
		{"DISTANCE", PathTypeDistance, false},
		{"distance", PathTypeDistance, false},
		{" Duration ", PathTypeDuration, false},
		{"COST", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePathType(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPathType) {
					t.Fatalf("expected ErrInvalidPathType, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePathType(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("ParsePathType(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTopologyErrorMessage(t *testing.T) {
	s := sec(st1, st2, 3)
	err := &TopologyError{Op: "add section", LineID: 9, Section: &s, Err: ErrDuplicateSection}

	want := "add section: duplicate section (line=9) (section=1->2 distance=3)"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, ErrDuplicateSection) {
		t.Fatal("expected errors.Is to match the sentinel")
	}
}
