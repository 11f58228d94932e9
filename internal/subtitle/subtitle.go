package subtitle

import (
	"fmt"
	"strings"
)

// represents transcribed audio segment, offsets in seconds
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// represents single subtitle cue
type Cue struct {
	Index int
	Start float64
	End   float64
	Body  string
}

// String renders the cue as one SubRip block, trailing blank line included.
func (c Cue) String() string {
	return fmt.Sprintf("%d\n%s --> %s\n%s\n\n",
		c.Index,
		FormatTimestamp(c.Start),
		FormatTimestamp(c.End),
		c.Body,
	)
}

// represents supported output kinds
type OutputKind string

const (
	KindSRT  OutputKind = "srt"
	KindText OutputKind = "text"
)

// ParseOutputKind accepts "srt", "text" and "txt" in any case.
func ParseOutputKind(s string) (OutputKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "srt", "":
		return KindSRT, nil
	case "text", "txt":
		return KindText, nil
	default:
		return "", fmt.Errorf("unsupported output format %q: use srt or text", s)
	}
}

// file extension for an output kind
func (k OutputKind) Extension() string {
	if k == KindText {
		return ".txt"
	}
	return ".srt"
}

// line limits applied to each cue body
type Layout struct {
	MaxLineCount int
	MaxLineWidth int
}

func DefaultLayout() Layout {
	return Layout{
		MaxLineCount: 2,  // Most players support 2 lines
		MaxLineWidth: 42, // Standard subtitle line length
	}
}
