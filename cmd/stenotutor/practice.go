package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/stenotutor/internal/rules"
	"github.com/verte-zerg/stenotutor/internal/tui"
)

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	logFile, err := openLogFile()
	if err != nil {
		return err
	}
	defer func() {
		_ = logFile.Close()
	}()

	a, err := openApp(cmd, logFile)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := prepare(cmd.Context(), a); err != nil {
		return err
	}
	a.logger.Info("practice started",
		slog.String("rules", strings.Join(a.cfg.Settings().EnabledIDs(), ",")),
		slog.Int("length", a.cfg.Length))

	model := tui.NewModel(a.engine, a.cfg.Settings())
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print one exercise without practising it",
		Args:  cobra.NoArgs,
		RunE:  runGenerateCmd,
	}
	cmd.Flags().Int64Var(&generateSeed, "seed", 0, "random seed (default: current time)")
	return cmd
}

func runGenerateCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := prepare(cmd.Context(), a); err != nil {
		return err
	}
	seed := time.Now().UnixNano()
	if cmd.Flags().Changed("seed") {
		seed = generateSeed
	}
	strokes, err := a.engine.Next(cmd.Context(), a.cfg.Settings(), seed)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, s := range strokes {
		ids := []string{rules.Uncategorized}
		if ix := a.engine.Index(); ix != nil {
			if _, matched, ok := ix.Lookup(s.Outline(), s.Word()); ok && len(matched) > 0 {
				ids = matched
			}
		}
		if _, err := fmt.Fprintf(out, "%-24s %-20s %s\n", s.Outline(), s.Word(), strings.Join(ids, ",")); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newClassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify the dictionary and show strokes per rule",
		Args:  cobra.NoArgs,
		RunE:  runClassifyCmd,
	}
	cmd.Flags().StringVar(&classifyRule, "rule", "", "list the strokes of this rule")
	cmd.Flags().IntVar(&classifyLimit, "limit", 20, "strokes listed with --rule (0: all)")
	return cmd
}

func runClassifyCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	start := time.Now()
	ix, err := a.engine.Reclassify(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to classify dictionary: %w", err)
	}
	out := cmd.OutOrStdout()

	if classifyRule != "" {
		id := strings.ToUpper(strings.TrimSpace(classifyRule))
		if _, ok := a.cat.Rule(id); !ok && id != rules.Uncategorized {
			return fmt.Errorf("unknown rule %q (see: stenotutor rules list)", id)
		}
		positions := ix.Strokes(id)
		if classifyLimit > 0 && len(positions) > classifyLimit {
			positions = positions[:classifyLimit]
		}
		for _, i := range positions {
			s := ix.Stroke(i)
			if _, err := fmt.Fprintf(out, "%-24s %s\n", s.Outline(), s.Word()); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
		return nil
	}

	counts := ix.Counts()
	ids := append(a.cat.IDs(), rules.Uncategorized)
	for _, id := range ids {
		if _, err := fmt.Fprintf(out, "%-24s %d\n", id, counts[id]); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	_, err = fmt.Fprintf(out, "\n%d strokes, %d rules, %d faults in %s\n",
		ix.Len(), a.cat.Len(), len(ix.Faults()), time.Since(start).Round(time.Millisecond))
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
