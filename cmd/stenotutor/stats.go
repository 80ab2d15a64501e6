package main

import (
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/stenotutor/internal/config"
	"github.com/verte-zerg/stenotutor/internal/model"
	"github.com/verte-zerg/stenotutor/internal/rules"
	"github.com/verte-zerg/stenotutor/internal/stats"
	"github.com/verte-zerg/stenotutor/internal/statsui"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-rule statistics",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N exercises")
	cmd.Flags().StringVar(&statsRules, "rule", "", "comma separated rules to report")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a text report instead of the interactive view")
	return cmd
}

func statsConfig(cat *rules.Catalogue) (model.StatsConfig, error) {
	var cfg model.StatsConfig
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return cfg, fmt.Errorf("invalid --since value: %w", err)
		}
		cfg.Since = &parsed
	}
	if statsLast < 0 {
		return cfg, fmt.Errorf("--last must be >= 0")
	}
	cfg.Last = statsLast
	cfg.Rules = config.ParseRuleList(statsRules)
	for _, id := range cfg.Rules {
		if _, ok := cat.Rule(id); !ok && id != rules.Uncategorized {
			return cfg, fmt.Errorf("unknown rule %q (see: stenotutor rules list)", id)
		}
	}
	return cfg, nil
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	interactive := !statsPlain && term.IsTerminal(int(os.Stdout.Fd()))

	var logTo io.Writer
	if interactive {
		f, err := openLogFile()
		if err != nil {
			return err
		}
		defer func() {
			_ = f.Close()
		}()
		logTo = f
	}
	a, err := openApp(cmd, logTo)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg, err := statsConfig(a.cat)
	if err != nil {
		return err
	}
	ix, err := a.engine.Reclassify(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to classify dictionary: %w", err)
	}

	if !interactive {
		rep, err := stats.BuildReport(cmd.Context(), a.store, ix, cfg, statsOptions(a.cfg)...)
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
		return stats.RenderReport(cmd.OutOrStdout(), rep, stats.TerminalWidth())
	}

	m := statsui.NewModel(a.store, ix, cfg, statsOptions(a.cfg)...)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}
