package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "already clean", in: "laboratoriemedicin", want: "laboratoriemedicin"},
		{name: "mixed case", in: "Laboratoriemedicin VÅR T3", want: "laboratoriemedicin vår t3"},
		{name: "whitespace runs", in: "  a\t\tb \n c  ", want: "a b c"},
		{name: "only whitespace", in: " \t\n ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestTitleExtractor_CoreTitle(t *testing.T) {
	t.Parallel()

	x := TitleExtractor{Anchor: "laboratoriemedicin", Delimiters: []string{"sign:", "moment:"}}

	tests := []struct {
		name    string
		summary string
		want    string
	}{
		{
			name:    "anchor with sign delimiter",
			summary: "Program: X Laboratoriemedicin vår T3 [BMA401 VT25] sign: abc",
			want:    "laboratoriemedicin vår t3 [bma401 vt25]",
		},
		{
			name:    "anchor with moment delimiter",
			summary: "Kurs Laboratoriemedicin vår T3 moment: föreläsning",
			want:    "laboratoriemedicin vår t3",
		},
		{
			name:    "earliest delimiter wins",
			summary: "Laboratoriemedicin moment: x sign: y",
			want:    "laboratoriemedicin",
		},
		{
			name:    "anchor without delimiter runs to end",
			summary: "Intro Laboratoriemedicin vår T3",
			want:    "laboratoriemedicin vår t3",
		},
		{
			name:    "no anchor returns trimmed original",
			summary: "  Examination BMA401  ",
			want:    "Examination BMA401",
		},
		{
			name:    "empty summary",
			summary: "",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, x.CoreTitle(tt.summary))
		})
	}
}

func TestTitleExtractor_CoreTitleIdempotentUnderNormalization(t *testing.T) {
	t.Parallel()

	x := TitleExtractor{Anchor: "laboratoriemedicin", Delimiters: DefaultDelimiters}

	summaries := []string{
		"Program: X Laboratoriemedicin vår T3 [BMA401 VT25] sign: abc",
		"LABORATORIEMEDICIN   vår\tT3 moment: seminarium",
		"Helt annan rubrik",
	}

	for _, s := range summaries {
		direct := x.CoreTitle(s)
		renormalized := x.CoreTitle(Normalize(s))
		assert.Equal(t, Normalize(direct), Normalize(renormalized), "summary %q", s)
	}
}
