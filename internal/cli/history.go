package cli

import (
	"fmt"
	"strconv"

	"github.com/mgpai22/scribe/internal/history"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent transcription jobs",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().
		IntP("limit", "n", 20, "Number of jobs to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	jobs, err := store.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Println("No jobs recorded yet")
		return nil
	}

	rows := make([][]string, len(jobs))
	for i, job := range jobs {
		detail := job.Output
		if job.Status == history.StatusFailed {
			detail = job.Error
		}
		rows[i] = []string{
			job.CreatedAt.Local().Format("2006-01-02 15:04"),
			string(job.Status),
			job.Provider,
			strconv.Itoa(job.Cues),
			job.Input,
			detail,
		}
	}

	fmt.Println(renderTable(
		[]string{"Started", "Status", "Provider", "Cues", "Input", "Output / Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	))
	return nil
}
