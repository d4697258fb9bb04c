package utils

import "testing"

func TestCleanText(t *testing.T) {
	cases := map[string]string{
		"  Brook Trout \n":     "Brook Trout",
		"Rock\x00fish\x1b":     "Rockfish",
		"line one\nline two\t": "line one\nline two",
		"\x7f":                 "",
	}
	for in, want := range cases {
		if got := CleanText(in); got != want {
			t.Errorf("CleanText(%q) = %q, want %q", in, got, want)
		}
	}
}
