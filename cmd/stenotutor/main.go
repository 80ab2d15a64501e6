// Package main provides the CLI entrypoint for stenotutor.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/stenotutor/internal/config"
	"github.com/verte-zerg/stenotutor/internal/metrics"
)

var (
	configPath  string
	logLevel    string
	logFormat   string
	metricsFile string

	practiceDict        string
	practiceWordList    string
	practiceRules       string
	practiceLang        string
	practiceLength      int
	practiceEnabled     string
	practiceRecent      int
	practiceUniqueWords bool
	practiceWorkers     int

	generateSeed int64

	classifyRule  string
	classifyLimit int

	statsSince string
	statsLast  int
	statsRules string
	statsPlain bool

	historyYes bool

	metricsManager = metrics.NewManager()
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaults := config.Defaults()
	rootCmd := &cobra.Command{
		Use:                "stenotutor",
		Short:              "Steno practice trainer driven by word-formation rules",
		SilenceUsage:       true,
		SilenceErrors:      false,
		RunE:               runPracticeCmd,
		PersistentPostRunE: writeMetrics,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", config.DefaultConfigPath(), "config file path")
	pf.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	pf.StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")
	pf.StringVar(&practiceDict, "dict", defaults.Dictionary, "Plover JSON dictionary")
	pf.StringVar(&practiceWordList, "word-list", "", "practise only words listed in this file")
	pf.StringVar(&practiceRules, "rules", defaults.RulesPath, "rule file (built-in rules when missing)")
	pf.StringVar(&practiceLang, "lang", defaults.Lang, "language filter for dictionary words")
	pf.BoolVar(&practiceUniqueWords, "unique-words", false, "keep only the first outline of every word")
	pf.IntVar(&practiceWorkers, "workers", 0, "classification workers (0: one per CPU)")
	pf.IntVar(&practiceLength, "length", defaults.Length, "strokes per exercise")
	pf.StringVar(&practiceEnabled, "enable", "", "comma separated rules to practise (default: all rules)")
	pf.IntVar(&practiceRecent, "recent", defaults.RecentWindow, "exercises whose strokes are not repeated")

	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newClassifyCmd())
	rootCmd.AddCommand(newRulesCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newHistoryCmd())

	return rootCmd
}

func writeMetrics(_ *cobra.Command, _ []string) error {
	if metricsFile == "" {
		return nil
	}
	if err := metricsManager.WriteTextfile(metricsFile); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
