package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgpai22/scribe/internal/audio"
	"github.com/mgpai22/scribe/internal/config"
	"github.com/mgpai22/scribe/internal/history"
	"github.com/mgpai22/scribe/internal/pipeline"
	"github.com/mgpai22/scribe/internal/subtitle"
	"github.com/mgpai22/scribe/internal/transcribe"
	"github.com/spf13/cobra"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [media_file...]",
	Short: "Transcribe audio or video files into subtitles",
	Long: `Transcribe one or more audio or video files into SubRip subtitles
or plain-text transcripts.

Video files have their audio extracted first. Long recordings are split
into pieces (30 minutes by default) that are transcribed in parallel and
merged back in order. Each output is written next to its input as
<name>.srt or <name>.txt; existing files are never overwritten.

Examples:
  scribe transcribe talk.mp3
  scribe transcribe lecture.mp4 --provider openai --format text
  scribe transcribe *.m4a --provider deepgram --concurrency 4
  scribe transcribe interview.wav --translate --max-width 36 -o subs/`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTranscribe,
}

func init() {
	rootCmd.AddCommand(transcribeCmd)

	transcribeCmd.Flags().
		StringP("provider", "p", "", "Transcription provider (groq, openai, deepgram, gemini)")
	transcribeCmd.Flags().
		StringP("api-key", "k", "", "API key (or set the provider's *_API_KEY env var)")
	transcribeCmd.Flags().
		String("model", "", "Model to use (provider-specific, uses sensible defaults)")
	transcribeCmd.Flags().
		StringP("format", "f", "", "Output format (srt, text)")
	transcribeCmd.Flags().
		Int("max-lines", 0, "Maximum lines per subtitle (1-5)")
	transcribeCmd.Flags().
		Int("max-width", 0, "Maximum characters per subtitle line (30-100)")
	transcribeCmd.Flags().
		Int("concurrency", 0, "Number of files processed in parallel")
	transcribeCmd.Flags().
		Int("chunk-concurrency", 2, "Number of parallel requests per split file")
	transcribeCmd.Flags().
		Float64("temperature", 0, "Sampling temperature (0-1)")
	transcribeCmd.Flags().
		Bool("translate", false, "Translate speech to English")
	transcribeCmd.Flags().
		String("transcript-language", "native", "Output language for the transcript ('native' keeps the spoken language)")
	transcribeCmd.Flags().
		String("prompt", "", "Prompt to guide the transcription style")
	transcribeCmd.Flags().
		String("proxy", "", "Proxy URL (http://host:port or socks5://host:port)")
	transcribeCmd.Flags().
		Int("split-seconds", 0, "Length of each split piece in seconds")
	transcribeCmd.Flags().
		Bool("no-split", false, "Upload each file whole instead of splitting long audio")
	transcribeCmd.Flags().
		Bool("no-history", false, "Do not record jobs in the history database")
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	settings := *cfg
	if err := applyTranscribeFlags(cmd, &settings); err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	for _, path := range args {
		if !audio.IsMediaFile(path) {
			return fmt.Errorf("unsupported file type: %s (expected audio or video file)", filepath.Ext(path))
		}
	}

	provider, err := transcribe.ParseProvider(settings.Transcription.Provider)
	if err != nil {
		return err
	}

	apiKeyFlag, _ := cmd.Flags().GetString("api-key")
	apiKey := settings.APIKey(string(provider), apiKeyFlag)
	if apiKey == "" {
		return fmt.Errorf(
			"API key is required: use --api-key flag or set %s environment variable",
			config.EnvVarForProvider(string(provider)),
		)
	}

	transcriptLang, _ := cmd.Flags().GetString("transcript-language")
	if (provider == transcribe.ProviderGroq || provider == transcribe.ProviderOpenAI) &&
		!isValidOpenAITranscriptLanguage(transcriptLang) {
		return fmt.Errorf(
			"%s can only transcribe natively or translate to English, got transcript language %q",
			provider,
			transcriptLang,
		)
	}

	prompt, _ := cmd.Flags().GetString("prompt")
	proxy, _ := cmd.Flags().GetString("proxy")
	if proxy == "" {
		proxy = settings.ProxyURL(string(provider))
	}

	topts := transcribe.Options{
		Language:           settings.Transcription.Language,
		TranscriptLanguage: transcriptLang,
		Model:              settings.Transcription.Model,
		Prompt:             prompt,
		Temperature:        settings.Transcription.Temperature,
		Translate:          settings.Transcription.Translate,
		Proxy:              proxy,
		Deepgram:           deepgramOptions(settings),
	}
	// the configured default model belongs to the default provider
	if !cmd.Flags().Changed("model") && provider != transcribe.Provider(cfg.Transcription.Provider) {
		topts.Model = ""
	}

	transcriber, err := transcribe.Factory(ctx, provider, apiKey, topts)
	if err != nil {
		return fmt.Errorf("failed to create transcriber: %w", err)
	}

	kind, err := subtitle.ParseOutputKind(settings.Transcription.OutputFormat)
	if err != nil {
		return err
	}

	outputDir, _ := cmd.Flags().GetString("output")
	chunkConcurrency, _ := cmd.Flags().GetInt("chunk-concurrency")
	noSplit, _ := cmd.Flags().GetBool("no-split")

	ropts := pipeline.Options{
		Kind: kind,
		Layout: subtitle.Layout{
			MaxLineCount: settings.Transcription.MaxLineCount,
			MaxLineWidth: settings.Transcription.MaxLineWidth,
		},
		Concurrency:      settings.Transcription.Concurrency,
		ChunkConcurrency: chunkConcurrency,
		OutputDir:        outputDir,
		Provider:         string(provider),
	}

	runnerOpts := []pipeline.RunnerOption{
		pipeline.WithLogger(logger),
		pipeline.WithPreparer(pipeline.FFmpegPreparer{
			Extract: audio.DefaultExtractOptions(),
			Split: audio.SplitOptions{
				SegmentSeconds: settings.Split.SegmentSeconds,
				Format:         settings.Split.Format,
				SampleRate:     settings.Split.SampleRate,
				Channels:       settings.Split.Channels,
				Bitrate:        settings.Split.Bitrate,
				Concurrency:    chunkConcurrency,
			},
			SplitEnabled: settings.Split.Enabled && !noSplit,
		}),
		pipeline.WithProgress(func(p pipeline.Progress) {
			logger.Debugw("progress",
				"file", filepath.Base(p.File),
				"stage", p.Stage,
				"percent", p.Percent,
			)
		}),
	}

	if noHistory, _ := cmd.Flags().GetBool("no-history"); !noHistory {
		store, err := history.Open(settings.Paths.HistoryDB)
		if err != nil {
			logger.Warnw("history disabled", "path", settings.Paths.HistoryDB, "error", err)
		} else {
			defer func() { _ = store.Close() }()
			runnerOpts = append(runnerOpts, pipeline.WithRecorder(store))
		}
	}

	logger.Infow("Starting transcription",
		"files", len(args),
		"provider", provider,
		"format", kind,
		"max_lines", ropts.Layout.MaxLineCount,
		"max_width", ropts.Layout.MaxLineWidth,
		"concurrency", ropts.Concurrency,
	)

	runner := pipeline.NewRunner(transcriber, ropts, runnerOpts...)
	results := runner.Run(ctx, args)

	var failed []error
	for _, res := range results {
		if res.Err != nil {
			failed = append(failed, fmt.Errorf("%s: %w", res.Input, res.Err))
			fmt.Printf("FAILED  %s: %v\n", res.Input, res.Err)
			continue
		}
		absOutput, _ := filepath.Abs(res.Output)
		fmt.Printf("OK      %s -> %s (%d cues)\n", res.Input, absOutput, res.Cues)
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d files failed: %w", len(failed), len(results), errors.Join(failed...))
	}
	return nil
}

// applyTranscribeFlags overlays explicitly set flags on the loaded config.
func applyTranscribeFlags(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()
	t := &c.Transcription

	if flags.Changed("provider") {
		t.Provider, _ = flags.GetString("provider")
		t.Provider = strings.ToLower(strings.TrimSpace(t.Provider))
	}
	if flags.Changed("model") {
		t.Model, _ = flags.GetString("model")
	}
	if flags.Changed("language") {
		t.Language, _ = flags.GetString("language")
	}
	if flags.Changed("format") {
		format, _ := flags.GetString("format")
		t.OutputFormat = strings.ToLower(strings.TrimSpace(format))
	}
	if flags.Changed("max-lines") {
		t.MaxLineCount, _ = flags.GetInt("max-lines")
	}
	if flags.Changed("max-width") {
		t.MaxLineWidth, _ = flags.GetInt("max-width")
	}
	if flags.Changed("concurrency") {
		t.Concurrency, _ = flags.GetInt("concurrency")
	}
	if flags.Changed("temperature") {
		t.Temperature, _ = flags.GetFloat64("temperature")
	}
	if flags.Changed("translate") {
		t.Translate, _ = flags.GetBool("translate")
	}
	if flags.Changed("split-seconds") {
		c.Split.SegmentSeconds, _ = flags.GetInt("split-seconds")
	}

	if flags.Changed("chunk-concurrency") {
		if n, _ := flags.GetInt("chunk-concurrency"); n <= 0 {
			return fmt.Errorf("chunk-concurrency must be positive, got %d", n)
		}
	}
	return nil
}

func deepgramOptions(c config.Config) transcribe.DeepgramOptions {
	d := c.Deepgram
	timestamps := ""
	if c.Transcription.Timestamps == "word" {
		timestamps = "word"
	}
	return transcribe.DeepgramOptions{
		Version:        d.Version,
		SmartFormat:    d.SmartFormat,
		Punctuate:      d.Punctuate,
		Diarize:        d.Diarize,
		DetectLanguage: d.DetectLanguage,
		Multichannel:   d.Multichannel,
		Keywords:       d.Keywords,
		Tier:           d.Tier,
		SampleRate:     d.SampleRate,
		Timestamps:     timestamps,
		Confidence:     d.Confidence,
	}
}

// whisper endpoints only transcribe natively or translate to English
func isValidOpenAITranscriptLanguage(lang string) bool {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "", "native", "english", "en":
		return true
	default:
		return false
	}
}

func fileMustExist(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", path)
	}
	return nil
}
