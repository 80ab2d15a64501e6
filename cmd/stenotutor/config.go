package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/stenotutor/internal/config"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := configPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	d := config.Defaults()
	return fmt.Sprintf(`# stenotutor configuration
# Uncomment a value to enable it. Environment variables such as
# STENOTUTOR_PRACTICE_LENGTH override the file; CLI flags override both.

[practice]
# dictionary = %q
# word-list = ""          # Practise only words listed in this file
# rules = %q
# lang = %q               # Language filter for dictionary words
# length = %d             # Strokes per exercise
# enabled = []            # Rules to practise (default: all)
# recent-window = %d      # Exercises whose strokes are not repeated
# unique-words = false    # Keep only the first outline of every word

[engine]
# workers = 0             # Classification workers (0: one per CPU)
# stats-mode = %q      # decay or window
# half-life = %.1f        # Exercises until a result weighs half (decay)
# stats-window = %d       # Exercises considered (window)
# skip-first = %t       # Leave the first stroke of an exercise out of timings

[log]
# level = "info"          # debug, info, warn, error
# format = "text"         # text or json
`,
		d.Dictionary,
		d.RulesPath,
		d.Lang,
		d.Length,
		d.RecentWindow,
		d.StatsMode,
		d.HalfLife,
		d.StatsWindow,
		d.SkipFirst,
	)
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage the practice history",
	}
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every logged exercise",
		Args:  cobra.NoArgs,
		RunE:  runHistoryClearCmd,
	}
	clearCmd.Flags().BoolVar(&historyYes, "yes", false, "do not ask for confirmation")
	cmd.AddCommand(clearCmd)
	return cmd
}
