package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mgpai22/scribe/internal/subtitle"
)

const groqBaseURL = "https://api.groq.com/openai/v1/"

// implements Transcriber over the OpenAI audio API; Groq serves the same
// API under its own base URL
type OpenAITranscriber struct {
	client  openai.Client
	model   string
	options Options
}

// segment from Whisper verbose_json response
type whisperSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type whisperVerboseResponse struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
	Language string           `json:"language"`
	Duration float64          `json:"duration"`
}

func NewOpenAITranscriber(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*OpenAITranscriber, error) {
	return newWhisperTranscriber(apiKey, "whisper-1", opts)
}

func NewGroqTranscriber(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*OpenAITranscriber, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = groqBaseURL
	}
	return newWhisperTranscriber(apiKey, "whisper-large-v3", opts)
}

func newWhisperTranscriber(apiKey, defaultModel string, opts Options) (*OpenAITranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	client, err := httpClient(opts.Proxy, 10*time.Minute)
	if err != nil {
		return nil, err
	}
	if client != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(client))
	}

	model := opts.Model
	if model == "" {
		model = defaultModel
	}

	return &OpenAITranscriber{
		client:  openai.NewClient(reqOpts...),
		model:   model,
		options: opts,
	}, nil
}

// transcribes single audio file
func (t *OpenAITranscriber) Transcribe(
	ctx context.Context,
	audioPath string,
) (*Result, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	if t.shouldUseTranslation() {
		return t.translate(ctx, file)
	}
	return t.transcribe(ctx, file)
}

func (t *OpenAITranscriber) shouldUseTranslation() bool {
	if t.options.Translate {
		return true
	}
	lang := strings.ToLower(strings.TrimSpace(t.options.TranscriptLanguage))
	return lang == "english" || lang == "en"
}

func (t *OpenAITranscriber) translate(ctx context.Context, file *os.File) (*Result, error) {
	params := openai.AudioTranslationNewParams{
		File:           file,
		Model:          openai.AudioModel(t.model),
		ResponseFormat: openai.AudioTranslationNewParamsResponseFormatVerboseJSON,
	}
	if t.options.Prompt != "" {
		params.Prompt = openai.String(t.options.Prompt)
	}
	if t.options.Temperature > 0 {
		params.Temperature = openai.Float(t.options.Temperature)
	}

	resp, err := t.client.Audio.Translations.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("translation failed: %w", err)
	}

	result, err := parseVerboseJSON(resp.RawJSON())
	if err != nil {
		return &Result{Segments: flatSegment(resp.Text, 0), Text: resp.Text, Language: "en"}, nil
	}
	result.Language = "en"
	return result, nil
}

func (t *OpenAITranscriber) transcribe(ctx context.Context, file *os.File) (*Result, error) {
	params := openai.AudioTranscriptionNewParams{
		File:                   file,
		Model:                  openai.AudioModel(t.model),
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"segment"},
	}
	if t.options.Language != "" {
		params.Language = openai.String(t.options.Language)
	}
	if t.options.Prompt != "" {
		params.Prompt = openai.String(t.options.Prompt)
	}
	if t.options.Temperature > 0 {
		params.Temperature = openai.Float(t.options.Temperature)
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	result, err := parseVerboseJSON(resp.RawJSON())
	if err != nil {
		return &Result{Segments: flatSegment(resp.Text, 0), Text: resp.Text, Language: t.options.Language}, nil
	}
	if result.Language == "" {
		result.Language = t.options.Language
	}
	return result, nil
}

// parseVerboseJSON reads a verbose_json body. Segment text is kept as
// returned; a body with text but no segments becomes one segment.
func parseVerboseJSON(rawJSON string) (*Result, error) {
	if rawJSON == "" {
		return nil, fmt.Errorf("empty response")
	}

	var resp whisperVerboseResponse
	if err := json.Unmarshal([]byte(rawJSON), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse verbose_json response: %w", err)
	}

	result := &Result{
		Text:     resp.Text,
		Language: resp.Language,
		Duration: secondsToDuration(resp.Duration),
	}

	if len(resp.Segments) == 0 {
		if strings.TrimSpace(resp.Text) == "" {
			return nil, fmt.Errorf("no segments or text in response")
		}
		result.Segments = flatSegment(resp.Text, result.Duration)
		return result, nil
	}

	result.Segments = make([]subtitle.Segment, len(resp.Segments))
	for i, seg := range resp.Segments {
		result.Segments[i] = subtitle.Segment{Start: seg.Start, End: seg.End, Text: seg.Text}
	}
	return result, nil
}
