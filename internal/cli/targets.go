package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/donewatch/internal/core"
	"github.com/valter-silva-au/donewatch/pkg/models"
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Manage the monitored task boards",
}

var targetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List target files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Settings == nil {
			return fmt.Errorf("settings not initialized")
		}
		cfg := Settings.Current()
		out := cmd.OutOrStdout()
		if len(cfg.TargetFiles) == 0 {
			fmt.Fprintln(out, "No target files configured.")
			fmt.Fprintln(out, "Add one with 'donewatch targets add <file>'.")
			return nil
		}
		for _, t := range cfg.TargetFiles {
			fmt.Fprintln(out, t)
		}
		return nil
	},
}

var targetsAddCmd = &cobra.Command{
	Use:   "add [file...]",
	Short: "Add target files",
	Long: `Add one or more boards to the monitored set. Paths are stored relative
to the vault with forward slashes. Without arguments an interactive picker
lists the Markdown files of the vault.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Settings == nil {
			return fmt.Errorf("settings not initialized")
		}

		vault := vaultPath(Settings.Current().VaultPath)
		var paths []string
		if len(args) == 0 {
			picked, err := pickTargetFiles()
			if err != nil {
				return err
			}
			paths = picked
		} else {
			for _, a := range args {
				paths = append(paths, normalizeTarget(vault, a))
			}
		}
		if len(paths) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing selected.")
			return nil
		}

		var added []string
		err := Settings.Update(func(cfg *models.MonitorConfig) error {
			for _, p := range paths {
				if cfg.IsTarget(p) {
					continue
				}
				cfg.TargetFiles = append(cfg.TargetFiles, p)
				added = append(added, p)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("adding targets: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(added) == 0 {
			fmt.Fprintln(out, "All files were already targets.")
			return nil
		}
		for _, p := range added {
			fmt.Fprintf(out, "Added %s\n", p)
		}
		return nil
	},
}

var targetsRemoveCmd = &cobra.Command{
	Use:   "remove <file...>",
	Short: "Remove target files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Settings == nil {
			return fmt.Errorf("settings not initialized")
		}

		vault := vaultPath(Settings.Current().VaultPath)
		var removed []string
		err := Settings.Update(func(cfg *models.MonitorConfig) error {
			for _, a := range args {
				p := normalizeTarget(vault, a)
				idx := slices.Index(cfg.TargetFiles, p)
				if idx < 0 {
					return fmt.Errorf("%s is not a target", p)
				}
				cfg.TargetFiles = slices.Delete(cfg.TargetFiles, idx, idx+1)
				removed = append(removed, p)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("removing targets: %w", err)
		}
		for _, p := range removed {
			if Detector != nil {
				Detector.State().Reset(p)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", p)
		}
		return nil
	},
}

// normalizeTarget converts user input into the vault-relative slash form the
// watcher reports, since target membership is exact string equality.
func normalizeTarget(vault, arg string) string {
	return core.NormalizeTarget(vault, arg)
}

// pickTargetFiles opens the interactive picker over the vault's documents,
// excluding files that are already targets.
func pickTargetFiles() ([]string, error) {
	if Enumerator == nil {
		return nil, fmt.Errorf("file enumerator not initialized")
	}
	docs, err := Enumerator.ListDocuments()
	if err != nil {
		return nil, err
	}

	cfg := Settings.Current()
	candidates := make([]string, 0, len(docs))
	for _, d := range docs {
		if !cfg.IsTarget(d) {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no Markdown files left to add in %s", cfg.VaultPath)
	}

	return runTargetPicker(candidates)
}

func init() {
	targetsCmd.AddCommand(targetsListCmd)
	targetsCmd.AddCommand(targetsAddCmd)
	targetsCmd.AddCommand(targetsRemoveCmd)
	rootCmd.AddCommand(targetsCmd)
}
