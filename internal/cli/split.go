package cli

import (
	"fmt"
	"strconv"

	"github.com/mgpai22/scribe/internal/audio"
	"github.com/mgpai22/scribe/internal/subtitle"
	"github.com/spf13/cobra"
)

var splitCmd = &cobra.Command{
	Use:   "split [audio_file]",
	Short: "Split long audio into upload-sized pieces",
	Long: `Split an audio file into pieces of a fixed length, as done before
transcribing long recordings. At most 9 pieces are produced; the piece
length is stretched when needed. Pieces are named <name>_part<N>.<ext>.

The "auto" format copies the source codec without re-encoding.

Examples:
  scribe split podcast.mp3
  scribe split lecture.m4a --segment-seconds 600 --format flac -o parts/`,
	Args: cobra.ExactArgs(1),
	RunE: runSplit,
}

func init() {
	rootCmd.AddCommand(splitCmd)

	splitCmd.Flags().
		Int("segment-seconds", 0, "Length of each piece in seconds")
	splitCmd.Flags().
		StringP("format", "f", "", "Output format (auto, mp3, m4a, aac, opus, ogg, flac, wav)")
	splitCmd.Flags().
		Int("concurrency", 4, "Number of pieces encoded in parallel")
}

func runSplit(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	if err := fileMustExist(inputPath); err != nil {
		return err
	}

	settings := *cfg
	if cmd.Flags().Changed("segment-seconds") {
		settings.Split.SegmentSeconds, _ = cmd.Flags().GetInt("segment-seconds")
	}
	if cmd.Flags().Changed("format") {
		settings.Split.Format, _ = cmd.Flags().GetString("format")
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	outputDir, _ := cmd.Flags().GetString("output")
	concurrency, _ := cmd.Flags().GetInt("concurrency")

	logger.Infow("Splitting audio",
		"input", inputPath,
		"segment_seconds", settings.Split.SegmentSeconds,
		"format", settings.Split.Format,
	)

	chunks, err := audio.Split(cmd.Context(), inputPath, audio.SplitOptions{
		SegmentSeconds: settings.Split.SegmentSeconds,
		Format:         settings.Split.Format,
		SampleRate:     settings.Split.SampleRate,
		Channels:       settings.Split.Channels,
		Bitrate:        settings.Split.Bitrate,
		OutputDir:      outputDir,
		Concurrency:    concurrency,
	})
	if err != nil {
		return fmt.Errorf("split failed: %w", err)
	}

	if len(chunks) == 1 && chunks[0].Path == inputPath {
		fmt.Printf("No split needed: %s fits in a single piece\n", inputPath)
		return nil
	}

	rows := make([][]string, len(chunks))
	for i, c := range chunks {
		rows[i] = []string{
			strconv.Itoa(c.Index + 1),
			subtitle.FormatTimestamp(c.StartTime.Seconds()),
			subtitle.FormatTimestamp(c.EndTime.Seconds()),
			c.Path,
		}
	}
	fmt.Println(renderTable(
		[]string{"Part", "Start", "End", "File"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	))
	return nil
}
