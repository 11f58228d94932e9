package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mgpai22/scribe/internal/subtitle"
)

const (
	deepgramBaseURL      = "https://api.deepgram.com/v1/"
	defaultDeepgramModel = "nova-2"
	defaultConfidence    = 0.7
)

// request options of the Deepgram prerecorded API
type DeepgramOptions struct {
	Version        string
	SmartFormat    bool
	Punctuate      bool
	Diarize        bool
	DetectLanguage bool
	Multichannel   bool
	Keywords       []string
	Tier           string
	SampleRate     int
	Timestamps     string
	// utterances below this confidence are dropped; 0 means the default
	Confidence float64
}

// implements Transcriber using the Deepgram listen endpoint
type DeepgramTranscriber struct {
	client  *http.Client
	apiKey  string
	baseURL string
	model   string
	options Options
}

type deepgramResponse struct {
	Metadata struct {
		Duration float64 `json:"duration"`
	} `json:"metadata"`
	Results struct {
		Channels []struct {
			DetectedLanguage string `json:"detected_language"`
			Alternatives     []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
		Utterances []struct {
			Start      float64 `json:"start"`
			End        float64 `json:"end"`
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"utterances"`
	} `json:"results"`
}

type deepgramError struct {
	ErrCode string `json:"err_code"`
	ErrMsg  string `json:"err_msg"`
}

func NewDeepgramTranscriber(apiKey string, opts Options) (*DeepgramTranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := httpClient(opts.Proxy, 10*time.Minute)
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Minute}
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = deepgramBaseURL
	}

	model := opts.Model
	if model == "" {
		model = defaultDeepgramModel
	}

	return &DeepgramTranscriber{
		client:  client,
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		options: opts,
	}, nil
}

// transcribes single audio file
func (t *DeepgramTranscriber) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	endpoint := strings.TrimRight(t.baseURL, "/") + "/listen?" + t.query().Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, file)
	if err != nil {
		return nil, fmt.Errorf("deepgram: build request: %w", err)
	}

	req.Header.Set("Authorization", "Token "+t.apiKey)
	req.Header.Set("Content-Type", contentTypeFor(audioPath))

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deepgram: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, decodeDeepgramError(resp)
	}

	var body deepgramResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("deepgram: decode response: %w", err)
	}

	return t.toResult(&body), nil
}

func (t *DeepgramTranscriber) query() url.Values {
	dg := t.options.Deepgram
	q := url.Values{}

	q.Set("model", t.model)
	q.Set("smart_format", strconv.FormatBool(dg.SmartFormat))
	q.Set("punctuate", strconv.FormatBool(dg.Punctuate))
	q.Set("diarize", strconv.FormatBool(dg.Diarize))
	q.Set("multichannel", strconv.FormatBool(dg.Multichannel))
	q.Set("utterances", "true")

	if dg.Tier != "" {
		q.Set("tier", dg.Tier)
	}
	if dg.Version != "" && dg.Version != "latest" {
		q.Set("version", dg.Version)
	}

	// an explicit language wins over detection
	switch {
	case t.options.Language != "" && !dg.DetectLanguage:
		q.Set("language", t.options.Language)
	case dg.DetectLanguage:
		q.Set("detect_language", "true")
	}

	if dg.SampleRate > 0 {
		q.Set("sample_rate", strconv.Itoa(dg.SampleRate))
	}
	for _, kw := range dg.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			q.Add("keywords", kw)
		}
	}
	if dg.Timestamps != "" {
		q.Set("timestamps", dg.Timestamps)
	}
	return q
}

func (t *DeepgramTranscriber) toResult(body *deepgramResponse) *Result {
	threshold := t.options.Deepgram.Confidence
	if threshold <= 0 {
		threshold = defaultConfidence
	}

	result := &Result{
		Language: t.options.Language,
		Duration: secondsToDuration(body.Metadata.Duration),
	}

	if len(body.Results.Channels) > 0 {
		channel := body.Results.Channels[0]
		if channel.DetectedLanguage != "" {
			result.Language = channel.DetectedLanguage
		}
		if len(channel.Alternatives) > 0 {
			result.Text = channel.Alternatives[0].Transcript
		}
	}

	for _, u := range body.Results.Utterances {
		if u.Confidence < threshold {
			continue
		}
		result.Segments = append(result.Segments, subtitle.Segment{
			Start: u.Start,
			End:   u.End,
			Text:  u.Transcript,
		})
	}

	// no usable utterances: fall back to the channel transcript
	if len(result.Segments) == 0 {
		result.Segments = flatSegment(result.Text, 0)
	}
	return result
}

func decodeDeepgramError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var apiErr deepgramError
	if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.ErrMsg != "" {
		return fmt.Errorf("deepgram: %s (%s): %s", resp.Status, apiErr.ErrCode, apiErr.ErrMsg)
	}

	msg := strings.TrimSpace(string(data))
	if msg == "" {
		return fmt.Errorf("deepgram: %s", resp.Status)
	}
	return fmt.Errorf("deepgram: %s: %s", resp.Status, msg)
}

var audioContentTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".opus": "audio/ogg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".webm": "audio/webm",
}

func contentTypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct, ok := audioContentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
