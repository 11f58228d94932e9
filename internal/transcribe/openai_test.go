package transcribe

import (
	"context"
	"testing"
	"time"
)

func TestParseVerboseJSON(t *testing.T) {
	tests := []struct {
		name      string
		rawJSON   string
		wantCount int
		wantErr   bool
	}{
		{
			name: "valid verbose_json with segments",
			rawJSON: `{
				"text": "Hello world. How are you today?",
				"segments": [
					{"start": 0.0, "end": 1.5, "text": "Hello world."},
					{"start": 1.5, "end": 3.0, "text": "How are you today?"}
				],
				"language": "en",
				"duration": 3.0
			}`,
			wantCount: 2,
		},
		{
			name: "verbose_json with no segments but has text",
			rawJSON: `{
				"text": "This is a transcription without segments.",
				"segments": [],
				"language": "en",
				"duration": 2.5
			}`,
			wantCount: 1,
		},
		{
			name: "verbose_json with null segments",
			rawJSON: `{
				"text": "Transcription text only.",
				"segments": null,
				"language": "en",
				"duration": 1.0
			}`,
			wantCount: 1,
		},
		{
			name: "empty text segments are kept for the formatter",
			rawJSON: `{
				"text": "Hello world",
				"segments": [
					{"start": 0.0, "end": 0.5, "text": ""},
					{"start": 0.5, "end": 1.5, "text": "Hello world"},
					{"start": 1.5, "end": 2.0, "text": "   "}
				],
				"language": "en",
				"duration": 2.0
			}`,
			wantCount: 3,
		},
		{
			name:    "empty response",
			rawJSON: "",
			wantErr: true,
		},
		{
			name:    "invalid JSON",
			rawJSON: `{"text": "incomplete`,
			wantErr: true,
		},
		{
			name: "no segments and no text",
			rawJSON: `{
				"text": "",
				"segments": [],
				"language": "en",
				"duration": 0
			}`,
			wantErr: true,
		},
		{
			name: "real whisper response format",
			rawJSON: `{
				"task": "transcribe",
				"language": "english",
				"duration": 8.470000267028809,
				"text": "The stale smell of old beer lingers. It takes heat to bring out the odor.",
				"segments": [
					{
						"id": 0,
						"seek": 0,
						"start": 0.0,
						"end": 3.319999933242798,
						"text": " The stale smell of old beer lingers.",
						"tokens": [50364, 440, 23025, 7966, 295, 1331, 8388, 22949, 404, 13, 50530],
						"temperature": 0.0,
						"avg_logprob": -0.2860786020755768,
						"compression_ratio": 1.2363636493682861,
						"no_speech_prob": 0.009231
					},
					{
						"id": 1,
						"seek": 0,
						"start": 3.319999933242798,
						"end": 6.190000057220459,
						"text": " It takes heat to bring out the odor.",
						"tokens": [50530, 467, 2516, 3738, 281, 1565, 484, 264, 10602, 13, 50673],
						"temperature": 0.0,
						"avg_logprob": -0.2860786020755768,
						"compression_ratio": 1.2363636493682861,
						"no_speech_prob": 0.009231
					}
				]
			}`,
			wantCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVerboseJSON(tt.rawJSON)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(result.Segments) != tt.wantCount {
				t.Errorf(
					"got %d segments, want %d",
					len(result.Segments),
					tt.wantCount,
				)
			}
		})
	}
}

func TestParseVerboseJSONKeepsText(t *testing.T) {
	rawJSON := `{
		"text": " Hello world. Goodbye.",
		"segments": [
			{"start": 1.5, "end": 3.0, "text": " Hello world."},
			{"start": 3.0, "end": 5.5, "text": " Goodbye."}
		],
		"language": "en",
		"duration": 5.5
	}`

	result, err := parseVerboseJSON(rawJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(result.Segments))
	}
	if result.Segments[0].Start != 1.5 || result.Segments[0].End != 3.0 {
		t.Errorf("segment 0 times: %+v", result.Segments[0])
	}
	if result.Segments[1].Text != " Goodbye." {
		t.Errorf("segment text should be kept verbatim, got %q", result.Segments[1].Text)
	}
	if result.Language != "en" {
		t.Errorf("language = %q", result.Language)
	}
	if result.Duration != 5500*time.Millisecond {
		t.Errorf("duration = %v", result.Duration)
	}
}

func TestFallbackSingleSegment(t *testing.T) {
	tests := []struct {
		name    string
		rawJSON string
		wantEnd float64
	}{
		{
			name:    "reported duration is used",
			rawJSON: `{"text": "No segments here.", "duration": 10.5}`,
			wantEnd: 10.5,
		},
		{
			name:    "unknown duration uses the placeholder span",
			rawJSON: `{"text": "No segments here."}`,
			wantEnd: 300,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVerboseJSON(tt.rawJSON)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(result.Segments) != 1 {
				t.Fatalf("expected 1 fallback segment, got %d", len(result.Segments))
			}
			seg := result.Segments[0]
			if seg.Start != 0 || seg.End != tt.wantEnd {
				t.Errorf("fallback span = [%v, %v], want [0, %v]", seg.Start, seg.End, tt.wantEnd)
			}
			if seg.Text != "No segments here." {
				t.Errorf("fallback segment text incorrect: %q", seg.Text)
			}
		})
	}
}

func TestShouldUseTranslation(t *testing.T) {
	tests := []struct {
		transcriptLang string
		translate      bool
		want           bool
	}{
		{"english", false, true},
		{"English", false, true},
		{"EN", false, true},
		{" english ", false, true},
		{"native", false, false},
		{"", false, false},
		{"", true, true},
		{"spanish", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.transcriptLang, func(t *testing.T) {
			transcriber := &OpenAITranscriber{
				options: Options{
					TranscriptLanguage: tt.transcriptLang,
					Translate:          tt.translate,
				},
			}
			if got := transcriber.shouldUseTranslation(); got != tt.want {
				t.Errorf("shouldUseTranslation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewGroqTranscriberDefaults(t *testing.T) {
	tr, err := NewGroqTranscriber(context.Background(), "gsk-test", Options{})
	if err != nil {
		t.Fatalf("NewGroqTranscriber() error = %v", err)
	}
	if tr.model != "whisper-large-v3" {
		t.Errorf("model = %q", tr.model)
	}
	if tr.options.BaseURL != groqBaseURL {
		t.Errorf("base URL = %q", tr.options.BaseURL)
	}

	if _, err := NewGroqTranscriber(context.Background(), "", Options{}); err == nil {
		t.Error("expected error without API key")
	}
	if _, err := NewOpenAITranscriber(context.Background(), "sk", Options{Proxy: "ftp://x"}); err == nil {
		t.Error("expected error for unsupported proxy scheme")
	}
}
