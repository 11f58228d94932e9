package translate

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mgpai22/scribe/internal/subtitle"
)

// upper answers every prompt by upper-casing the input items.
func upper(calls *atomic.Int32) completeFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		calls.Add(1)
		start := strings.Index(prompt, "Input JSON:\n") + len("Input JSON:\n")
		end := strings.Index(prompt, "\n\nOutput the translated")

		var items []TranslationItem
		if err := json.Unmarshal([]byte(prompt[start:end]), &items); err != nil {
			return "", err
		}
		for i := range items {
			items[i].Text = strings.ToUpper(items[i].Text)
		}
		out, _ := json.Marshal(items)
		return "```json\n" + string(out) + "\n```", nil
	}
}

func TestBatcherSplitsAndOrders(t *testing.T) {
	var calls atomic.Int32
	b := &batcher{complete: upper(&calls), options: Options{TargetLanguage: "X", BatchSize: 2}}

	items := []TranslationItem{
		{Index: 0, Text: "a"},
		{Index: 1, Text: "b"},
		{Index: 2, Text: "c"},
		{Index: 3, Text: "d"},
		{Index: 4, Text: "e"},
	}

	results, err := b.TranslateWithConcurrency(context.Background(), items, 3)
	if err != nil {
		t.Fatalf("TranslateWithConcurrency() error = %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 batch requests, got %d", calls.Load())
	}
	if len(results) != 5 {
		t.Fatalf("got %d results", len(results))
	}
	for i, r := range results {
		if r.Index != i || r.Text != strings.ToUpper(items[i].Text) {
			t.Errorf("result %d = %+v", i, r)
		}
	}
}

func TestBatcherPropagatesError(t *testing.T) {
	boom := errors.New("overloaded")
	b := &batcher{
		complete: func(context.Context, string) (string, error) { return "", boom },
		options:  Options{TargetLanguage: "X", BatchSize: 1},
	}

	_, err := b.TranslateWithConcurrency(context.Background(), []TranslationItem{
		{Index: 0, Text: "a"},
		{Index: 1, Text: "b"},
	}, 2)
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want %v", err, boom)
	}

	results, err := b.Translate(context.Background(), nil)
	if err != nil || len(results) != 0 {
		t.Errorf("empty input: %v, %v", results, err)
	}
}

func TestTranslateCues(t *testing.T) {
	var calls atomic.Int32
	b := &batcher{complete: upper(&calls), options: Options{TargetLanguage: "X"}}

	cues := []subtitle.Cue{
		{Index: 1, Start: 0, End: 1.5, Body: "hello,\n world."},
		{Index: 2, Start: 1.5, End: 3, Body: "bye"},
	}

	got, err := TranslateCues(context.Background(), b, cues, 1, subtitle.Layout{MaxLineCount: 2, MaxLineWidth: 42})
	if err != nil {
		t.Fatalf("TranslateCues() error = %v", err)
	}

	if got[0].Body != "HELLO, WORLD." {
		t.Errorf("cue 1 body = %q", got[0].Body)
	}
	if got[1].Index != 2 || got[1].Start != 1.5 || got[1].End != 3 || got[1].Body != "BYE" {
		t.Errorf("cue 2 = %+v", got[1])
	}
	if cues[0].Body != "hello,\n world." {
		t.Error("input cues must not be modified")
	}
}
