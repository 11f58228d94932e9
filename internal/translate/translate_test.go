package translate

import (
	"context"
	"os"
	"strings"
	"sync/atomic"
	"testing"
)

func TestFactory(t *testing.T) {
	tests := []struct {
		provider Provider
		check    func(Translator) bool
	}{
		{ProviderGemini, func(tr Translator) bool { _, ok := tr.(*GeminiTranslator); return ok }},
		{ProviderOpenAI, func(tr Translator) bool { _, ok := tr.(*OpenAITranslator); return ok }},
		{ProviderAnthropic, func(tr Translator) bool { _, ok := tr.(*AnthropicTranslator); return ok }},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			tr, err := Factory(context.Background(), tt.provider, "fake-key", Options{
				TargetLanguage: "Japanese",
				BatchSize:      7,
			})
			if err != nil {
				t.Fatalf("Factory(%s) error = %v", tt.provider, err)
			}
			if !tt.check(tr) {
				t.Errorf("Factory(%s) returned %T", tt.provider, tr)
			}
			if _, ok := tr.(ConcurrentTranslator); !ok {
				t.Errorf("%T should implement ConcurrentTranslator", tr)
			}

			_, err = Factory(context.Background(), tt.provider, "", Options{TargetLanguage: "Japanese"})
			if err == nil {
				t.Error("expected an error without an API key")
			}
		})
	}
}

func TestFactoryOptionsReachBatcher(t *testing.T) {
	tr, err := NewAnthropicTranslator(context.Background(), "fake-key", Options{
		TargetLanguage: "German",
		BatchSize:      7,
	})
	if err != nil {
		t.Fatal(err)
	}
	if tr.model != "claude-haiku-4-5" {
		t.Errorf("default model = %q", tr.model)
	}
	if tr.batchSize() != 7 || tr.options.TargetLanguage != "German" {
		t.Errorf("batcher options not wired: size %d, %+v", tr.batchSize(), tr.options)
	}

	custom, err := NewAnthropicTranslator(context.Background(), "fake-key", Options{
		TargetLanguage: "German",
		Model:          "claude-sonnet-4-5",
	})
	if err != nil {
		t.Fatal(err)
	}
	if custom.model != "claude-sonnet-4-5" || custom.batchSize() != DefaultBatchSize {
		t.Errorf("got model %q, batch size %d", custom.model, custom.batchSize())
	}
}

func TestFactoryRejects(t *testing.T) {
	if _, err := Factory(context.Background(), ProviderGemini, "fake-key", Options{}); err == nil {
		t.Error("expected error for missing target language")
	}
	if _, err := Factory(context.Background(), Provider("unknown"), "fake-key", Options{TargetLanguage: "French"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestBatcherChecksResultsPerBatch(t *testing.T) {
	items := []TranslationItem{
		{Index: 0, Text: "a"},
		{Index: 1, Text: "b"},
		{Index: 2, Text: "c"},
		{Index: 3, Text: "d"},
	}

	tests := []struct {
		name    string
		answer  func(prompt string) string
		wantErr string
	}{
		{
			name: "second batch drops an item",
			answer: func(prompt string) string {
				if strings.Contains(prompt, `"index": 2`) {
					return `[{"index": 2, "text": "C"}]`
				}
				return `[{"index": 0, "text": "A"}, {"index": 1, "text": "B"}]`
			},
			wantErr: "expected 2 results, got 1",
		},
		{
			name: "batch answers with another batch's index",
			answer: func(prompt string) string {
				if strings.Contains(prompt, `"index": 2`) {
					return `[{"index": 2, "text": "C"}, {"index": 0, "text": "A"}]`
				}
				return `[{"index": 0, "text": "A"}, {"index": 1, "text": "B"}]`
			},
			wantErr: "unexpected or duplicate index 0",
		},
		{
			name: "duplicate index inside a batch",
			answer: func(prompt string) string {
				if strings.Contains(prompt, `"index": 2`) {
					return `[{"index": 3, "text": "D"}, {"index": 3, "text": "D"}]`
				}
				return `[{"index": 0, "text": "A"}, {"index": 1, "text": "B"}]`
			},
			wantErr: "unexpected or duplicate index 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			b := &batcher{
				complete: func(_ context.Context, prompt string) (string, error) {
					calls.Add(1)
					return tt.answer(prompt), nil
				},
				options: Options{TargetLanguage: "X", BatchSize: 2},
			}

			_, err := b.Translate(context.Background(), items)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
			if calls.Load() == 0 {
				t.Error("no batch was sent")
			}
		})
	}
}

// Integration test: only runs if ANTHROPIC_API_KEY is set
func TestAnthropicTranslatorIntegration(t *testing.T) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		t.Skip("ANTHROPIC_API_KEY not set; skipping integration test")
	}

	ctx := context.Background()
	translator, err := NewAnthropicTranslator(ctx, apiKey, Options{TargetLanguage: "Spanish"})
	if err != nil {
		t.Fatalf("NewAnthropicTranslator error: %v", err)
	}

	results, err := translator.Translate(ctx, []TranslationItem{
		{Index: 0, Text: "Hello"},
		{Index: 1, Text: "Goodbye"},
	})
	if err != nil {
		t.Fatalf("Translate error: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Text == "" {
			t.Errorf("result index %d has empty text", r.Index)
		}
	}
}
