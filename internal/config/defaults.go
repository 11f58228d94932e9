package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultProvider       = "groq"
	DefaultMaxLineCount   = 2
	DefaultMaxLineWidth   = 42
	DefaultConcurrency    = 3
	DefaultSegmentSeconds = 1800
	DefaultHistoryDB      = "~/.local/share/scribe/history.db"
)

// Default returns a Config populated with built-in defaults.
func Default() Config {
	return Config{
		Transcription: Transcription{
			Provider:     DefaultProvider,
			OutputFormat: "srt",
			MaxLineCount: DefaultMaxLineCount,
			MaxLineWidth: DefaultMaxLineWidth,
			Concurrency:  DefaultConcurrency,
			Timestamps:   "segment",
		},
		Keys:  map[string]KeyRing{},
		Proxy: map[string]Proxy{},
		Deepgram: Deepgram{
			Version:     "latest",
			SmartFormat: true,
			Punctuate:   true,
			Tier:        "nova",
			Confidence:  0.7,
		},
		Split: Split{
			Enabled:        true,
			SegmentSeconds: DefaultSegmentSeconds,
			Format:         "auto",
		},
		Paths: Paths{
			HistoryDB: DefaultHistoryDB,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

func (c *Config) normalize() error {
	c.Transcription.Provider = strings.ToLower(strings.TrimSpace(c.Transcription.Provider))
	if c.Transcription.Provider == "" {
		c.Transcription.Provider = DefaultProvider
	}
	c.Transcription.OutputFormat = strings.ToLower(strings.TrimSpace(c.Transcription.OutputFormat))
	if c.Transcription.OutputFormat == "" {
		c.Transcription.OutputFormat = "srt"
	}
	c.Transcription.Timestamps = strings.ToLower(strings.TrimSpace(c.Transcription.Timestamps))
	if c.Transcription.Timestamps == "" {
		c.Transcription.Timestamps = "segment"
	}
	if c.Transcription.MaxLineCount == 0 {
		c.Transcription.MaxLineCount = DefaultMaxLineCount
	}
	if c.Transcription.MaxLineWidth == 0 {
		c.Transcription.MaxLineWidth = DefaultMaxLineWidth
	}
	if c.Transcription.Concurrency == 0 {
		c.Transcription.Concurrency = DefaultConcurrency
	}

	if c.Keys == nil {
		c.Keys = map[string]KeyRing{}
	}
	if c.Proxy == nil {
		c.Proxy = map[string]Proxy{}
	}
	proxies := make(map[string]Proxy, len(c.Proxy))
	for name, p := range c.Proxy {
		p.Type = strings.ToLower(strings.TrimSpace(p.Type))
		if p.Type == "" {
			p.Type = "http"
		}
		proxies[strings.ToLower(name)] = p
	}
	c.Proxy = proxies

	if c.Split.SegmentSeconds == 0 {
		c.Split.SegmentSeconds = DefaultSegmentSeconds
	}
	c.Split.Format = strings.ToLower(strings.TrimSpace(c.Split.Format))
	if c.Split.Format == "" {
		c.Split.Format = "auto"
	}

	if c.Paths.HistoryDB != "" {
		expanded, err := expandPath(c.Paths.HistoryDB)
		if err != nil {
			return fmt.Errorf("paths.history_db: %w", err)
		}
		c.Paths.HistoryDB = expanded
	}
	if c.Paths.LanguageFile != "" {
		expanded, err := expandPath(c.Paths.LanguageFile)
		if err != nil {
			return fmt.Errorf("paths.language_file: %w", err)
		}
		c.Paths.LanguageFile = expanded
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	return nil
}

// Validate reports configuration values that are out of range.
func (c *Config) Validate() error {
	var errs []error

	switch c.Transcription.Provider {
	case "groq", "openai", "deepgram", "gemini":
	default:
		errs = append(errs, fmt.Errorf("transcription.provider: unsupported provider %q", c.Transcription.Provider))
	}
	switch c.Transcription.OutputFormat {
	case "srt", "text", "txt":
	default:
		errs = append(errs, fmt.Errorf("transcription.output_format: unsupported format %q", c.Transcription.OutputFormat))
	}
	switch c.Transcription.Timestamps {
	case "segment", "word":
	default:
		errs = append(errs, fmt.Errorf("transcription.timestamps: must be segment or word"))
	}
	if n := c.Transcription.MaxLineCount; n < 1 || n > 5 {
		errs = append(errs, fmt.Errorf("transcription.max_line_count: %d is outside 1-5", n))
	}
	if n := c.Transcription.MaxLineWidth; n < 30 || n > 100 {
		errs = append(errs, fmt.Errorf("transcription.max_line_width: %d is outside 30-100", n))
	}
	if c.Transcription.Concurrency < 1 {
		errs = append(errs, errors.New("transcription.concurrency: must be at least 1"))
	}
	if t := c.Transcription.Temperature; t < 0 || t > 1 {
		errs = append(errs, fmt.Errorf("transcription.temperature: %v is outside 0-1", t))
	}

	for name, p := range c.Proxy {
		if p.Type != "http" && p.Type != "socks5" {
			errs = append(errs, fmt.Errorf("proxy.%s.type: must be http or socks5", name))
		}
		if p.Enabled && (p.Host == "" || p.Port == "") {
			errs = append(errs, fmt.Errorf("proxy.%s: host and port are required when enabled", name))
		}
	}

	if c.Deepgram.Confidence < 0 || c.Deepgram.Confidence > 1 {
		errs = append(errs, errors.New("deepgram.confidence: must be between 0 and 1"))
	}

	if c.Split.SegmentSeconds < 1 {
		errs = append(errs, errors.New("split.segment_seconds: must be positive"))
	}
	switch c.Split.Format {
	case "auto", "mp3", "m4a", "aac", "opus", "ogg", "flac", "wav":
	default:
		errs = append(errs, fmt.Errorf("split.format: unsupported format %q", c.Split.Format))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level: unsupported level %q", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format: unsupported format %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
