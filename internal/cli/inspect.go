package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mgpai22/scribe/internal/audio"
	"github.com/mgpai22/scribe/internal/subtitle"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Show the cues of a subtitle file or the details of a media file",
	Long: `Print a table of the cues of a SubRip file, or the duration and codec
of an audio or video file.

Examples:
  scribe inspect talk.srt
  scribe inspect talk.srt --limit 20
  scribe inspect talk.mp3`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().
		Int("limit", 0, "Show at most this many cues (0 for all)")
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	if err := fileMustExist(path); err != nil {
		return err
	}

	if audio.IsMediaFile(path) {
		return inspectMedia(cmd, path)
	}

	cues, err := subtitle.ReadSRTFile(path)
	if err != nil {
		return err
	}

	limit, _ := cmd.Flags().GetInt("limit")
	shown := cues
	if limit > 0 && limit < len(cues) {
		shown = cues[:limit]
	}

	fmt.Println(renderTable(
		[]string{"#", "Start", "End", "Lines", "Text"},
		cueRows(shown),
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	))

	if len(cues) > 0 {
		last := cues[len(cues)-1]
		fmt.Printf("  Cues: %d\n", len(cues))
		fmt.Printf("  Ends: %s\n", subtitle.FormatTimestamp(last.End))
	}
	return nil
}

func cueRows(cues []subtitle.Cue) [][]string {
	rows := make([][]string, len(cues))
	for i, c := range cues {
		lines := strings.Split(c.Body, "\n")
		rows[i] = []string{
			strconv.Itoa(c.Index),
			subtitle.FormatTimestamp(c.Start),
			subtitle.FormatTimestamp(c.End),
			strconv.Itoa(len(lines)),
			strings.Join(lines, " / "),
		}
	}
	return rows
}

func inspectMedia(cmd *cobra.Command, path string) error {
	info, err := audio.Probe(cmd.Context(), path)
	if err != nil {
		return err
	}

	video := "no"
	if info.HasVideo {
		video = "yes"
	}
	rows := [][]string{
		{"Duration", info.Duration.String()},
		{"Codec", info.Codec},
		{"Sample rate", strconv.Itoa(info.SampleRate)},
		{"Channels", strconv.Itoa(info.Channels)},
		{"Video", video},
	}
	fmt.Println(renderTable([]string{"Property", "Value"}, rows, nil))
	return nil
}
