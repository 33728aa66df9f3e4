package services

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Go for Beginners", "go-for-beginners"},
		{"  Advanced   SQL!!", "advanced-sql"},
		{"C++ & Rust: Systems Programming", "c-rust-systems-programming"},
		{"---", ""},
		{"Ünicode Títle", "nicode-t-tle"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
