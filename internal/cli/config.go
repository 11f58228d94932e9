package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/mgpai22/scribe/internal/config"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the scribe configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		if configRead && !force {
			return fmt.Errorf("config already exists at %s (use --force to overwrite)", configFile)
		}

		defaults := config.Default()
		if err := defaults.Save(configFile); err != nil {
			return err
		}
		fmt.Printf("Config written: %s\n", configFile)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration (API keys masked)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		shown := *cfg
		shown.Keys = make(map[string]config.KeyRing, len(cfg.Keys))
		for provider, ring := range cfg.Keys {
			masked := config.KeyRing{LastUsed: ring.LastUsed, Named: map[string]string{}}
			for name, key := range ring.Named {
				masked.Named[name] = maskKey(key)
			}
			shown.Keys[provider] = masked
		}

		data, err := toml.Marshal(shown)
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}

		source := configFile
		if !configRead {
			source += " (not found, showing defaults)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", source, data)
		return nil
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage named API keys",
}

var keysAddCmd = &cobra.Command{
	Use:   "add [provider] [name] [key]",
	Short: "Store a named API key and make it the active one",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := strings.ToLower(args[0])
		if config.EnvVarForProvider(provider) == "" {
			return fmt.Errorf("unsupported provider: %s", args[0])
		}

		cfg.AddKey(provider, args[1], args[2])
		if err := cfg.Save(configFile); err != nil {
			return err
		}
		fmt.Printf("Key %q saved for %s\n", args[1], provider)
		return nil
	},
}

var keysRemoveCmd = &cobra.Command{
	Use:   "remove [provider] [name]",
	Short: "Delete a named API key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.RemoveKey(args[0], args[1]) {
			return fmt.Errorf("no key named %q for %s", args[1], args[0])
		}
		if err := cfg.Save(configFile); err != nil {
			return err
		}
		fmt.Printf("Key %q removed\n", args[1])
		return nil
	},
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored API keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var rows [][]string
		for _, provider := range slices.Sorted(maps.Keys(cfg.Keys)) {
			ring := cfg.Keys[provider]
			for _, name := range slices.Sorted(maps.Keys(ring.Named)) {
				active := ""
				if name == ring.LastUsed {
					active = "*"
				}
				rows = append(rows, []string{provider, name, maskKey(ring.Named[name]), active})
			}
		}
		if len(rows) == 0 {
			fmt.Println("No keys stored")
			return nil
		}
		fmt.Println(renderTable([]string{"Provider", "Name", "Key", "Active"}, rows, nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd)
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing config file")

	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysAddCmd, keysRemoveCmd, keysListCmd)
}

// keeps the last four characters
func maskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", 8) + key[len(key)-4:]
}
