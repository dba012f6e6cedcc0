package region

import "testing"

func TestFromZip(t *testing.T) {
	cases := []struct {
		zip  string
		want string
	}{
		{"10001", "NY"},
		{"90210", "CA"},
		{"60614", "IL"},
		{"98101", "WA"},
		{"02134", "MA"},
		{"00001", ""}, // below every range
		{"abcde", ""},
		{"12", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := FromZip(c.zip); got != c.want {
			t.Errorf("FromZip(%q) = %q, want %q", c.zip, got, c.want)
		}
	}
}

func TestFullName(t *testing.T) {
	if got := FullName("NY"); got != "New York" {
		t.Errorf("expected New York, got %q", got)
	}
	if got := FullName("ny"); got != "New York" {
		t.Errorf("expected case-insensitive lookup, got %q", got)
	}
	if got := FullName("ZZ"); got != "" {
		t.Errorf("expected empty string for unknown code, got %q", got)
	}
}

func TestIsAbbreviation(t *testing.T) {
	if !IsAbbreviation("NY") {
		t.Error("NY should be recognized as an abbreviation")
	}
	if IsAbbreviation("New York") {
		t.Error("full names are not abbreviations")
	}
	if IsAbbreviation("ZZ") {
		t.Error("unknown two-letter strings are not abbreviations")
	}
	if IsAbbreviation("") {
		t.Error("empty string is not an abbreviation")
	}
}
