package vector

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestPreprocess(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses whitespace", "a \t\n  b", "a b"},
		{"trims", "   lidar  ", "lidar"},
		{"keeps punctuation", `heat (50%) & "flow" a/b, c.d; e:f! g? h+i=j-k`, `heat (50%) & "flow" a/b, c.d; e:f! g? h+i=j-k`},
		{"strips symbols", "5G™ antenna @ 28GHz #mmWave", "5G antenna  28GHz mmWave"},
		{"keeps unicode letters", "Größe 電池", "Größe 電池"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Preprocess(tt.in); got != tt.want {
				t.Errorf("Preprocess(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPreprocess_Truncates(t *testing.T) {
	in := strings.Repeat("é", MaxTextRunes+10)
	got := Preprocess(in)
	if !strings.HasSuffix(got, TruncationMarker) {
		t.Fatal("missing truncation marker")
	}
	if n := utf8.RuneCountInString(got); n != MaxTextRunes+len(TruncationMarker) {
		t.Errorf("rune count = %d", n)
	}
}

func TestPreprocess_ExactLimitNotMarked(t *testing.T) {
	in := strings.Repeat("x", MaxTextRunes)
	if got := Preprocess(in); got != in {
		t.Error("text at the limit should be unchanged")
	}
}

func TestPreprocess_ReportsTruncation(t *testing.T) {
	if _, cut := preprocess(strings.Repeat("a", MaxTextRunes+1)); !cut {
		t.Error("expected truncation flag")
	}
	if _, cut := preprocess("short text"); cut {
		t.Error("short text must not be flagged")
	}
}
