package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mgpai22/scribe/internal/subtitle"
	"github.com/spf13/cobra"
)

var formatCmd = &cobra.Command{
	Use:   "format [segments.json]",
	Short: "Format transcription segments as subtitles",
	Long: `Format a JSON array of transcription segments ({"start", "end", "text"},
offsets in seconds) as SubRip subtitles or a plain-text transcript.

The verbose_json response of a Whisper-style API can be passed as is.
Output goes to stdout unless --output is given; a .txt output path
selects the text format.

Examples:
  scribe format segments.json
  scribe format response.json --max-lines 1 --max-width 32 -o talk.srt
  scribe format segments.json --format text`,
	Args: cobra.ExactArgs(1),
	RunE: runFormat,
}

func init() {
	rootCmd.AddCommand(formatCmd)

	formatCmd.Flags().
		StringP("format", "f", "", "Output format (srt, text)")
	formatCmd.Flags().
		Int("max-lines", 0, "Maximum lines per subtitle")
	formatCmd.Flags().
		Int("max-width", 0, "Maximum characters per subtitle line")
}

func runFormat(cmd *cobra.Command, args []string) error {
	segmentsPath := args[0]
	if err := fileMustExist(segmentsPath); err != nil {
		return err
	}

	kind, err := subtitle.ParseOutputKind(cfg.Transcription.OutputFormat)
	if err != nil {
		return err
	}
	outputPath, _ := cmd.Flags().GetString("output")
	switch {
	case cmd.Flags().Changed("format"):
		formatStr, _ := cmd.Flags().GetString("format")
		if kind, err = subtitle.ParseOutputKind(formatStr); err != nil {
			return err
		}
	case outputPath != "" && outputPath != "-":
		kind = subtitle.KindFromExtension(outputPath)
	}

	file, err := os.Open(segmentsPath)
	if err != nil {
		return fmt.Errorf("failed to open segments: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	segments, err := subtitle.DecodeSegments(file)
	if err != nil {
		return err
	}

	layout := layoutFromFlags(cmd)
	logger.Debugw("Formatting segments",
		"segments", len(segments),
		"format", kind,
		"max_lines", layout.MaxLineCount,
		"max_width", layout.MaxLineWidth,
	)

	return writeOutput(cmd, subtitle.BuildDocument(segments, kind, layout))
}

// layoutFromFlags applies --max-lines and --max-width over the configured
// layout. Out-of-range values are clamped by the formatter.
func layoutFromFlags(cmd *cobra.Command) subtitle.Layout {
	layout := subtitle.Layout{
		MaxLineCount: cfg.Transcription.MaxLineCount,
		MaxLineWidth: cfg.Transcription.MaxLineWidth,
	}
	if cmd.Flags().Changed("max-lines") {
		layout.MaxLineCount, _ = cmd.Flags().GetInt("max-lines")
	}
	if cmd.Flags().Changed("max-width") {
		layout.MaxLineWidth, _ = cmd.Flags().GetInt("max-width")
	}
	return layout
}

// writeOutput writes content to --output, or stdout when it is empty or "-".
func writeOutput(cmd *cobra.Command, content string) error {
	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" || outputPath == "-" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), content)
		return err
	}

	if err := subtitle.WriteFile(outputPath, content); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	logger.Infow("Output written", "path", absOutput)
	return nil
}
