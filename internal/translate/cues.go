package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/mgpai22/scribe/internal/subtitle"
)

// TranslateCues translates cue bodies and re-wraps them with layout. Cue
// numbering and timing are kept.
func TranslateCues(
	ctx context.Context,
	tr Translator,
	cues []subtitle.Cue,
	concurrency int,
	layout subtitle.Layout,
) ([]subtitle.Cue, error) {
	items := make([]TranslationItem, len(cues))
	for i, cue := range cues {
		// wrapped lines are rejoined so the model sees whole sentences
		items[i] = TranslationItem{Index: i, Text: joinLines(cue.Body)}
	}

	var (
		results []TranslationResult
		err     error
	)
	if ct, ok := tr.(ConcurrentTranslator); ok && concurrency > 1 {
		results, err = ct.TranslateWithConcurrency(ctx, items, concurrency)
	} else {
		results, err = tr.Translate(ctx, items)
	}
	if err != nil {
		return nil, err
	}

	translated := make(map[int]string, len(results))
	for _, r := range results {
		translated[r.Index] = r.Text
	}

	out := make([]subtitle.Cue, len(cues))
	for i, cue := range cues {
		text, ok := translated[i]
		if !ok {
			return nil, fmt.Errorf("missing translation for cue %d", cue.Index)
		}
		cue.Body = subtitle.Wrap(strings.TrimSpace(text), layout.MaxLineCount, layout.MaxLineWidth)
		out[i] = cue
	}
	return out, nil
}

func joinLines(body string) string {
	lines := strings.Split(body, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return strings.Join(lines, " ")
}
