package fingerprints

import (
	"slices"
	"testing"
)

func TestMatchRelease(t *testing.T) {
	tests := []struct {
		major, minor int
		want         string
	}{
		{45, 3, "Java 1.0"},
		{46, 0, "Java 1.2"},
		{49, 0, "Java 5"},
		{52, 0, "Java 8"},
		{55, 0, "Java 11"},
		{65, 0, "Java 21"},
		{69, 0, "Java 25"},
		{52, 1, "Unrecognized min/maj"},
		{99, 0, "Unrecognized min/maj"},
	}
	for _, tt := range tests {
		if got := MatchRelease(tt.major, tt.minor).Name; got != tt.want {
			t.Errorf("MatchRelease(%d, %d) = %q, want %q", tt.major, tt.minor, got, tt.want)
		}
	}
}

func TestMatchRelease_ParseErrorIsDistinct(t *testing.T) {
	if ParseError == Unrecognized || ParseError.Name == Unrecognized.Name {
		t.Fatal("ParseError must not be confused with Unrecognized")
	}
	if MatchRelease(-1, -1) != Unrecognized {
		t.Error("the synthetic versions must not match ParseError")
	}
}

func TestCompare_TableOrder(t *testing.T) {
	got := []*Release{ParseError, MatchRelease(55, 0), Unrecognized, MatchRelease(52, 0), MatchRelease(45, 3)}
	slices.SortFunc(got, Compare)

	var names []string
	for _, r := range got {
		names = append(names, r.Name)
	}
	want := []string{"Java 1.0", "Java 8", "Java 11", "Unrecognized min/maj", "Parsing error"}
	if !slices.Equal(names, want) {
		t.Errorf("sorted = %v, want %v", names, want)
	}
}
