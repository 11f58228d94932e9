package transcribe

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mgpai22/scribe/internal/subtitle"
)

// placeholder span for a flat transcript without a known duration
const flatTextSpan = 300 * time.Second

// transcription result
type Result struct {
	Segments []subtitle.Segment
	Text     string
	Language string
	Duration time.Duration
}

// interface for audio transcription
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*Result, error)
}

// transcription service provider
type Provider string

const (
	ProviderGroq     Provider = "groq"
	ProviderOpenAI   Provider = "openai"
	ProviderDeepgram Provider = "deepgram"
	ProviderGemini   Provider = "gemini"
)

func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderGroq, ProviderOpenAI, ProviderDeepgram, ProviderGemini:
		return p, nil
	case "":
		return ProviderGroq, nil
	default:
		return "", fmt.Errorf("unsupported provider: %s", s)
	}
}

// transcription options
type Options struct {
	Language           string // source language of the audio, "" to detect
	TranscriptLanguage string // output language, "native" keeps the source
	Model              string
	Prompt             string
	Temperature        float64
	Translate          bool   // translate to English instead of transcribing
	Proxy              string // http:// or socks5:// URL
	BaseURL            string
	Deepgram           DeepgramOptions
}

// creates transcriber based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Transcriber, error) {
	switch provider {
	case ProviderGroq:
		return NewGroqTranscriber(ctx, apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAITranscriber(ctx, apiKey, opts)
	case ProviderDeepgram:
		return NewDeepgramTranscriber(apiKey, opts)
	case ProviderGemini:
		return NewGeminiTranscriber(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

// httpClient returns a client routed through proxy, or nil when proxy is
// empty so SDK defaults apply.
func httpClient(proxy string, timeout time.Duration) (*http.Client, error) {
	if proxy == "" {
		return nil, nil
	}

	u, err := url.Parse(proxy)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy %q: %w", proxy, err)
	}
	switch u.Scheme {
	case "http", "https", "socks5":
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = http.ProxyURL(u)
	return &http.Client{Transport: transport, Timeout: timeout}, nil
}

// flatSegment covers a transcript that came back without timing.
func flatSegment(text string, duration time.Duration) []subtitle.Segment {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if duration <= 0 {
		duration = flatTextSpan
	}
	return []subtitle.Segment{{Start: 0, End: duration.Seconds(), Text: text}}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
