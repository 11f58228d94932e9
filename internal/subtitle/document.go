package subtitle

import "strings"

// FallbackCue keeps an empty transcription from producing an empty file.
var FallbackCue = Cue{
	Index: 1,
	Start: 0,
	End:   60,
	Body:  "[no content recognized]",
}

// BuildCues numbers the non-empty segments and wraps their text. Segments
// whose text is blank are skipped and do not consume an index.
func BuildCues(segments []Segment, layout Layout) []Cue {
	cues := make([]Cue, 0, len(segments))
	index := 1

	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}

		cues = append(cues, Cue{
			Index: index,
			Start: seg.Start,
			End:   seg.End,
			Body:  Wrap(text, layout.MaxLineCount, layout.MaxLineWidth),
		})
		index++
	}

	return cues
}

// BuildDocument renders segments as a SubRip document or, for KindText,
// as the verbatim concatenation of their text.
func BuildDocument(segments []Segment, kind OutputKind, layout Layout) string {
	if kind == KindText {
		return PlainText(segments)
	}
	return RenderSRT(BuildCues(segments, layout))
}

// RenderSRT serializes cues; an empty list renders the fallback cue.
func RenderSRT(cues []Cue) string {
	if len(cues) == 0 {
		return FallbackCue.String()
	}

	var sb strings.Builder
	for _, cue := range cues {
		sb.WriteString(cue.String())
	}
	return sb.String()
}

// PlainText concatenates segment text exactly as received, without
// separators or trimming.
func PlainText(segments []Segment) string {
	var sb strings.Builder
	for _, seg := range segments {
		sb.WriteString(seg.Text)
	}
	return sb.String()
}
