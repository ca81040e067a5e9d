package domain

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   string
	}{
		{
			name:   "short prompt kept as-is",
			prompt: "explain go channels",
			want:   "explain go channels",
		},
		{
			name:   "whitespace flattened",
			prompt: "  explain\n\tgo   channels  ",
			want:   "explain go channels",
		},
		{
			name:   "empty prompt gets placeholder",
			prompt: "   \n ",
			want:   "New chat",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveTitle(tt.prompt); got != tt.want {
				t.Errorf("DeriveTitle(%q) = %q, want %q", tt.prompt, got, tt.want)
			}
		})
	}
}

func TestDeriveTitleTruncates(t *testing.T) {
	prompt := strings.Repeat("word ", 40)

	got := DeriveTitle(prompt)
	if utf8.RuneCountInString(got) > TitleMaxLen+1 {
		t.Fatalf("title too long: %d runes", utf8.RuneCountInString(got))
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("expected ellipsis suffix, got %q", got)
	}
	if strings.HasSuffix(strings.TrimSuffix(got, "…"), " ") {
		t.Errorf("expected trimmed word boundary, got %q", got)
	}
}
