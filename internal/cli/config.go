package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/donewatch/internal/storage"
	"github.com/valter-silva-au/donewatch/pkg/models"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Settings == nil {
			return fmt.Errorf("settings not initialized")
		}
		cfg := Settings.Current()
		data, err := storage.MarshalSettings(cfg)
		if err != nil {
			return err
		}
		if ConfigMgr != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", ConfigMgr.Path())
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}

// configSetters maps each settable key to a function applying a string value.
var configSetters = map[string]func(cfg *models.MonitorConfig, value string) error{
	"default_script": func(cfg *models.MonitorConfig, value string) error {
		cfg.DefaultScript = value
		return nil
	},
	"enable_done_heading_trigger": func(cfg *models.MonitorConfig, value string) error {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("enable_done_heading_trigger must be true or false: %w", err)
		}
		cfg.EnableDoneHeadingTrigger = b
		return nil
	},
	"calendar_name": func(cfg *models.MonitorConfig, value string) error {
		cfg.CalendarName = value
		return nil
	},
	"vault_path": func(cfg *models.MonitorConfig, value string) error {
		cfg.VaultPath = value
		return nil
	},
	"interpreter": func(cfg *models.MonitorConfig, value string) error {
		cfg.Interpreter = value
		return nil
	},
	"interpreter_args": func(cfg *models.MonitorConfig, value string) error {
		cfg.InterpreterArgs = strings.Fields(value)
		return nil
	},
	"debounce": func(cfg *models.MonitorConfig, value string) error {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("debounce must be a duration such as 500ms: %w", err)
		}
		cfg.Debounce = d
		return nil
	},
	"prime_on_start": func(cfg *models.MonitorConfig, value string) error {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("prime_on_start must be true or false: %w", err)
		}
		cfg.PrimeOnStart = b
		return nil
	},
}

func configKeys() []string {
	keys := make([]string, 0, len(configSetters))
	for k := range configSetters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting and save it",
	Long: `Change one setting and write .donewatch.yaml.

Keys: default_script, enable_done_heading_trigger, calendar_name, vault_path,
interpreter, interpreter_args, debounce, prime_on_start.

A running 'donewatch watch' picks up the change automatically, except for
vault_path which needs a restart.`,
	Args: cobra.ExactArgs(2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return configKeys(), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if Settings == nil {
			return fmt.Errorf("settings not initialized")
		}

		key, value := args[0], args[1]
		setter, ok := configSetters[key]
		if !ok {
			return fmt.Errorf("unknown setting %q (valid: %s)", key, strings.Join(configKeys(), ", "))
		}

		if err := Settings.Update(func(cfg *models.MonitorConfig) error {
			return setter(cfg, value)
		}); err != nil {
			return fmt.Errorf("config set %s: %w", key, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s updated\n", key)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
