package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mgpai22/scribe/internal/config"
	"github.com/mgpai22/scribe/internal/logging"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	configFile string // resolved path of the loaded config
	configRead bool
	cfg        *config.Config
	logger     *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "scribe",
	Short: "Speech-to-subtitle toolkit",
	Long: `Scribe transcribes audio and video files through speech-to-text
providers (Groq, OpenAI, Deepgram, Gemini) and writes SubRip subtitles
or plain-text transcripts.

It also formats raw transcription segments, converts multilingual JSON
subtitles, splits and extracts audio, and translates existing subtitles.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, path, read, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg, configFile, configRead = loaded, path, read

		opts := logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format}
		if verbose {
			opts.Level = "debug"
		}
		logger, err = logging.New(opts)
		if err != nil {
			logger = logging.NewLogger(verbose)
			logger.Warnw("invalid logging config, using defaults", "error", err)
		}
		return nil
	},
}

// Execute runs the root command; an interrupt cancels in-flight work.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", "", "Config file (default ~/.config/scribe/config.toml)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path")
	rootCmd.PersistentFlags().
		StringP("language", "l", "", "Language code (e.g., en, es, fr)")
}
