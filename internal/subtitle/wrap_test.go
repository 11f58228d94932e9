package subtitle

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		lines int
		width int
		want  string
	}{
		{
			name:  "short text is returned unchanged",
			text:  "hello",
			lines: 2,
			width: 42,
			want:  "hello",
		},
		{
			name:  "empty text",
			text:  "",
			lines: 2,
			width: 42,
			want:  "",
		},
		{
			name:  "exactly at width",
			text:  "Hello, world.",
			lines: 2,
			width: 13,
			want:  "Hello, world.",
		},
		{
			name:  "breaks after punctuation",
			text:  "Hello, world. This is a test.",
			lines: 2,
			width: 15,
			want:  "Hello, world.\n This is a test.",
		},
		{
			name:  "overflow merged and truncated",
			text:  "One. Two. Three. Four. Five.",
			lines: 2,
			width: 10,
			want:  "One. Two.\n Three....",
		},
		{
			name:  "single line limit",
			text:  "Alpha, beta, gamma, delta.",
			lines: 1,
			width: 12,
			want:  "Alpha, be...",
		},
		{
			name:  "full-width punctuation counted in runes",
			text:  "你好，世界。这是一个测试。",
			lines: 2,
			width: 6,
			want:  "你好，世界。\n这是一个测试。",
		},
		{
			name:  "chunk longer than width is never split",
			text:  "abcdefghijklmnop",
			lines: 2,
			width: 5,
			want:  "abcdefghijklmnop",
		},
		{
			name:  "width below ellipsis length",
			text:  "a. b. c.",
			lines: 1,
			width: 2,
			want:  "..",
		},
		{
			name:  "overflow keeps leading space of merged chunk",
			text:  "Hi. Yo. Ok.",
			lines: 2,
			width: 4,
			want:  "Hi.\n ...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.text, tt.lines, tt.width)
			if got != tt.want {
				t.Errorf("Wrap(%q, %d, %d) = %q, want %q",
					tt.text, tt.lines, tt.width, got, tt.want)
			}
		})
	}
}

func TestWrapLineCountBound(t *testing.T) {
	texts := []string{
		"One. Two. Three. Four. Five. Six. Seven.",
		"a,b,c,d,e,f,g,h,i,j,k,l,m,n,o,p",
		"No punctuation at all but quite a long sentence anyway",
		"第一句。第二句！第三句？第四句；第五句，第六句。",
		"Mixed, 中文，and English. 再来一句。",
	}

	for _, text := range texts {
		for lines := 1; lines <= 5; lines++ {
			for width := 1; width <= 30; width++ {
				got := Wrap(text, lines, width)
				if n := strings.Count(got, "\n") + 1; n > lines {
					t.Fatalf("Wrap(%q, %d, %d) produced %d lines", text, lines, width, n)
				}
			}
		}
	}
}

func TestWrapTruncatedLastLine(t *testing.T) {
	text := "First part. Second part. Third part. Fourth part. Fifth part."

	for width := 12; width <= 30; width++ {
		got := Wrap(text, 2, width)
		parts := strings.Split(got, "\n")
		last := parts[len(parts)-1]

		if utf8.RuneCountInString(last) > width {
			t.Errorf("width %d: last line %q exceeds width", width, last)
		}
		if !strings.HasSuffix(last, "...") {
			t.Errorf("width %d: last line %q should end with an ellipsis", width, last)
		}
	}
}

func TestWrapClampsLimits(t *testing.T) {
	got := Wrap("Hello, world. Again.", 0, 0)
	if strings.Contains(got, "\n") {
		t.Errorf("expected a single line with clamped limits, got %q", got)
	}
}
