package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/mgpai22/scribe/internal/subtitle"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert [subtitles.json]",
	Short: "Convert multilingual JSON subtitles to SRT",
	Long: `Convert a JSON array of multilingual subtitle items to SubRip.

Each item carries "start" and "end" (seconds or timestamps such as
"01:23.5") plus one text field per language, keyed by a code or a name
("en", "english", "zh-CN", "chinese"). The texts of the selected languages
are stacked in the order given.

Language names are resolved through an alias table; pass --language-file
(or set paths.language_file) to use your own.

Examples:
  scribe convert movie.json --langs en
  scribe convert movie.json --langs zh,en -o movie.srt`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().
		StringSlice("langs", []string{"en"}, "Languages to include, top to bottom")
	convertCmd.Flags().
		String("language-file", "", "JSON language alias table")
}

func runConvert(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	if err := fileMustExist(inputPath); err != nil {
		return err
	}

	langs, _ := cmd.Flags().GetStringSlice("langs")
	var selected []string
	for _, l := range langs {
		if l = strings.TrimSpace(l); l != "" {
			selected = append(selected, l)
		}
	}

	aliases := subtitle.DefaultLanguageAliases()
	aliasPath, _ := cmd.Flags().GetString("language-file")
	if aliasPath == "" {
		aliasPath = cfg.Paths.LanguageFile
	}
	if aliasPath != "" {
		loaded, err := subtitle.LoadLanguageAliases(aliasPath)
		if err != nil {
			return err
		}
		aliases = loaded
	}

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open subtitle JSON: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	logger.Debugw("Converting subtitles",
		"input", inputPath,
		"langs", selected,
		"aliases", len(aliases.Languages),
	)

	content, err := subtitle.ConvertJSON(file, selected, aliases)
	if err != nil {
		return err
	}
	return writeOutput(cmd, content)
}
