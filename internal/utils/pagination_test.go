package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		{"", 10, 10},
		{"42", 0, 42},
		{"-13", 1, -13},
		{"0012", 99, 12},
		{"x", 5, 5},
		{" 42", 7, 7},
		{"999999999999999999999999", -1, -1},
	}
	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestLimit(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"", 20},
		{" 5 ", 5},
		{"0", 20},
		{"-4", 20},
		{"abc", 20},
		{"500", 50},
		{"50", 50},
	}
	for _, tc := range cases {
		if got := Limit(tc.raw, 20, 50); got != tc.want {
			t.Fatalf("Limit(%q) = %d; want %d", tc.raw, got, tc.want)
		}
	}
}
