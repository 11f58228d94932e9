package subtitle

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ASCII and full-width sentence punctuation
var breakRegex = regexp.MustCompile(`[,.!?;，。！？；]`)

const ellipsis = "..."

// Wrap lays text out in at most maxLineCount lines of maxLineWidth runes,
// breaking only after punctuation. A chunk longer than the width is never
// split and ends up alone on an over-long line. Overflow lines are merged
// into the last line and truncated with an ellipsis.
func Wrap(text string, maxLineCount, maxLineWidth int) string {
	if maxLineCount < 1 {
		maxLineCount = 1
	}
	if maxLineWidth < 1 {
		maxLineWidth = 1
	}

	if utf8.RuneCountInString(text) <= maxLineWidth {
		return text
	}

	var lines []string
	var current strings.Builder
	currentLen := 0

	for _, chunk := range splitChunks(text) {
		chunkLen := utf8.RuneCountInString(chunk)
		if currentLen+chunkLen <= maxLineWidth {
			current.WriteString(chunk)
			currentLen += chunkLen
			continue
		}
		if currentLen > 0 {
			lines = append(lines, current.String())
		}
		current.Reset()
		current.WriteString(chunk)
		currentLen = chunkLen
	}
	if currentLen > 0 {
		lines = append(lines, current.String())
	}

	if len(lines) > maxLineCount {
		overflow := strings.Join(lines[maxLineCount-1:], " ")
		lines = lines[:maxLineCount-1]
		lines = append(lines, truncate(overflow, maxLineWidth))
	}

	return strings.Join(lines, "\n")
}

// splits text after every delimiter, keeping the delimiter on the left
func splitChunks(text string) []string {
	matches := breakRegex.FindAllStringIndex(text, -1)
	chunks := make([]string, 0, len(matches)+1)

	prev := 0
	for _, m := range matches {
		chunks = append(chunks, text[prev:m[1]])
		prev = m[1]
	}
	if prev < len(text) {
		chunks = append(chunks, text[prev:])
	}
	return chunks
}

func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	keep := width - len(ellipsis)
	if keep < 0 {
		return ellipsis[:width]
	}
	runes := []rune(s)
	return string(runes[:keep]) + ellipsis
}
