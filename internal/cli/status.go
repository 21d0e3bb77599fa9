package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/donewatch/internal/observability"
	"github.com/valter-silva-au/donewatch/pkg/models"
)

var statusSince string

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	enabledStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show settings, targets and recent dispatch activity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Settings == nil {
			return fmt.Errorf("settings not initialized")
		}

		window, err := parseSince(statusSince)
		if err != nil {
			return err
		}

		var summary *observability.Summary
		if Summaries != nil {
			summary, err = Summaries.Calculate(time.Now().UTC().Add(-window))
			if err != nil {
				return fmt.Errorf("summarizing events: %w", err)
			}
		}

		fmt.Fprintln(cmd.OutOrStdout(), renderStatus(Settings.Current(), summary, statusSince))
		return nil
	},
}

func renderStatus(cfg *models.MonitorConfig, summary *observability.Summary, window string) string {
	trigger := enabledStyle.Render("enabled")
	if !cfg.EnableDoneHeadingTrigger {
		trigger = disabledStyle.Render("disabled")
	}

	var settings strings.Builder
	settings.WriteString(headerStyle.Render("Settings") + "\n")
	fmt.Fprintf(&settings, "trigger:     %s\n", trigger)
	fmt.Fprintf(&settings, "calendar:    %s\n", cfg.CalendarName)
	fmt.Fprintf(&settings, "vault:       %s\n", cfg.VaultPath)
	fmt.Fprintf(&settings, "interpreter: %s %s\n", cfg.Interpreter, strings.Join(cfg.InterpreterArgs, " "))
	script := firstLine(cfg.DefaultScript)
	if script == "" {
		script = dimStyle.Render("(empty)")
	}
	fmt.Fprintf(&settings, "script:      %s", script)

	var targets strings.Builder
	fmt.Fprintf(&targets, "%s\n", headerStyle.Render(fmt.Sprintf("Targets (%d)", len(cfg.TargetFiles))))
	if len(cfg.TargetFiles) == 0 {
		targets.WriteString(dimStyle.Render("none"))
	}
	for i, t := range cfg.TargetFiles {
		if i > 0 {
			targets.WriteString("\n")
		}
		line := t
		if summary != nil && summary.DispatchByPath[t] > 0 {
			line += dimStyle.Render(fmt.Sprintf("  %d dispatched", summary.DispatchByPath[t]))
		}
		targets.WriteString(line)
	}

	var activity strings.Builder
	fmt.Fprintf(&activity, "%s\n", headerStyle.Render("Activity (last "+window+")"))
	if summary == nil {
		activity.WriteString(dimStyle.Render("event log unavailable"))
	} else {
		fmt.Fprintf(&activity, "dispatched:      %d\n", summary.Dispatched)
		fmt.Fprintf(&activity, "dispatch failed: %d\n", summary.DispatchFailed)
		fmt.Fprintf(&activity, "read failures:   %d\n", summary.ReadFailed)
		fmt.Fprintf(&activity, "script runs:     %d", summary.ScriptRuns)
		if summary.LastDispatch != nil {
			title, _ := summary.LastDispatch.Data["title"].(string)
			fmt.Fprintf(&activity, "\nlast:            %s %s",
				title, dimStyle.Render(summary.LastDispatch.Time.Local().Format("2006-01-02 15:04")))
		}
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		panelStyle.Render(settings.String()),
		panelStyle.Render(targets.String()),
		panelStyle.Render(activity.String()),
	)
	return titleStyle.Render(" donewatch ") + "\n\n" + body
}

func firstLine(s string) string {
	line, rest, found := strings.Cut(strings.TrimSpace(s), "\n")
	if found && rest != "" {
		return line + " ..."
	}
	return line
}

// parseSince parses a duration like "7d", "30d" or "24h".
func parseSince(s string) (time.Duration, error) {
	if strings.HasSuffix(s, "d") {
		days, err := time.ParseDuration(strings.TrimSuffix(s, "d") + "h")
		if err != nil || days <= 0 {
			return 0, fmt.Errorf("invalid window %q: use e.g. 7d or 24h", s)
		}
		return days * 24, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid window %q: use e.g. 7d or 24h", s)
	}
	return d, nil
}

func init() {
	statusCmd.Flags().StringVar(&statusSince, "since", "7d", "activity window (e.g. 24h, 7d)")
	rootCmd.AddCommand(statusCmd)
}
