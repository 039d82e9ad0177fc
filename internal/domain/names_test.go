package domain

import "testing"

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"  maria   da silva ", "Maria da Silva"},
		{"JOÃO DOS SANTOS E SOUZA", "João dos Santos e Souza"},
		{"ana", "Ana"},
		{"de", "de"},
		{"", ""},
		{"pedro\tdas\nneves", "Pedro das Neves"},
	}
	for _, tc := range cases {
		if got := NormalizeName(tc.in); got != tc.want {
			t.Fatalf("NormalizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
