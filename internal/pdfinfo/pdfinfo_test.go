package pdfinfo

import "testing"

func TestFindRange(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "full citation line",
			text: "Survey Research Methods (2024)\nVol. 18, No. 2, pp. 101-120\ndoi:10.18148/srm",
			want: "101-120",
		},
		{
			name: "en dash",
			text: "Vol. 18, No. 2, pp. 101–120",
			want: "101-120",
		},
		{
			name: "em dash",
			text: "pp. 101—120",
			want: "101-120",
		},
		{
			name: "pages keyword",
			text: "Pages 33-48",
			want: "33-48",
		},
		{
			name: "page singular",
			text: "Page 33-48",
			want: "33-48",
		},
		{
			name: "german style",
			text: "Jahrgang 18, S. 101-120",
			want: "101-120",
		},
		{
			name: "case insensitive",
			text: "PP. 7-9",
			want: "7-9",
		},
		{
			name: "spaces around dash",
			text: "pp. 101 - 120",
			want: "101-120",
		},
		{
			name: "no range",
			text: "An article about surveys",
			want: "",
		},
		{
			name: "single page number only",
			text: "p. 12",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindRange(tt.text); got != tt.want {
				t.Errorf("FindRange(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestFindRangePrefersCitationLine(t *testing.T) {
	// The full volume citation wins over a later bare pp. occurrence.
	text := "see pp. 1-5 of the appendix\nVol. 18, No. 2, pp. 101-120"
	if got := FindRange(text); got != "101-120" {
		t.Errorf("FindRange = %q, want 101-120", got)
	}
}
