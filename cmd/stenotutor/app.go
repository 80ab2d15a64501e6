package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/stenotutor/internal/classify"
	"github.com/verte-zerg/stenotutor/internal/config"
	"github.com/verte-zerg/stenotutor/internal/dictionary"
	"github.com/verte-zerg/stenotutor/internal/engine"
	"github.com/verte-zerg/stenotutor/internal/logging"
	"github.com/verte-zerg/stenotutor/internal/model"
	"github.com/verte-zerg/stenotutor/internal/rules"
	"github.com/verte-zerg/stenotutor/internal/stats"
	"github.com/verte-zerg/stenotutor/internal/store"
)

// app holds everything a command needs once settings are resolved.
type app struct {
	cfg    model.Config
	store  *store.Store
	dict   *dictionary.Dictionary
	cat    *rules.Catalogue
	engine *engine.Engine
	logger *slog.Logger
}

// loadSettings layers defaults, the config file, the environment and finally
// the flags the user set explicitly.
func loadSettings(cmd *cobra.Command) (model.Config, config.FileConfig, error) {
	fc, err := config.LoadConfig(configPath)
	if err != nil {
		return model.Config{}, fc, fmt.Errorf("failed to load config: %w", err)
	}
	fc, err = config.ApplyEnv(fc)
	if err != nil {
		return model.Config{}, fc, err
	}
	cfg := config.Defaults()
	fc.Apply(&cfg)

	applyFlag(cmd, "dict", &cfg.Dictionary, practiceDict)
	applyFlag(cmd, "word-list", &cfg.WordList, practiceWordList)
	applyFlag(cmd, "rules", &cfg.RulesPath, practiceRules)
	applyFlag(cmd, "lang", &cfg.Lang, practiceLang)
	applyFlag(cmd, "length", &cfg.Length, practiceLength)
	applyFlag(cmd, "recent", &cfg.RecentWindow, practiceRecent)
	applyFlag(cmd, "unique-words", &cfg.UniqueWords, practiceUniqueWords)
	applyFlag(cmd, "workers", &cfg.Workers, practiceWorkers)
	if cmd.Flags().Changed("enable") {
		cfg.Enabled = config.ParseRuleList(practiceEnabled)
	}
	applyFlag(cmd, "log-level", &fc.Log.Level, &logLevel)
	applyFlag(cmd, "log-format", &fc.Log.Format, &logFormat)

	if err := validateConfig(cfg); err != nil {
		return model.Config{}, fc, err
	}
	return cfg, fc, nil
}

func applyFlag[T any](cmd *cobra.Command, name string, target *T, value T) {
	if !cmd.Flags().Changed(name) {
		return
	}
	*target = value
}

func validateConfig(cfg model.Config) error {
	if cfg.Length <= 0 {
		return fmt.Errorf("--length must be > 0")
	}
	if cfg.RecentWindow < 0 {
		return fmt.Errorf("--recent must be >= 0")
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("--workers must be >= 0")
	}
	if _, ok := stats.ParseMode(cfg.StatsMode); !ok {
		return fmt.Errorf("invalid stats mode %q (use decay or window)", cfg.StatsMode)
	}
	return nil
}

// setupLogging configures the default logger. When w is nil logs go to
// stderr.
func setupLogging(fc config.FileConfig, w io.Writer) error {
	levelName, format := "info", "text"
	if fc.Log.Level != nil {
		levelName = *fc.Log.Level
	}
	if fc.Log.Format != nil {
		format = *fc.Log.Format
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}
	logging.Init(level, format, w)
	return nil
}

func statsOptions(cfg model.Config) []stats.Option {
	mode, _ := stats.ParseMode(cfg.StatsMode)
	return []stats.Option{
		stats.WithMode(mode),
		stats.WithHalfLife(cfg.HalfLife),
		stats.WithWindow(cfg.StatsWindow),
		stats.WithFirstStroke(!cfg.SkipFirst),
	}
}

func loadCatalogue(cmd *cobra.Command, path string) (*rules.Catalogue, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("rules") {
			return rules.Default()
		}
		return nil, fmt.Errorf("failed to stat rule file: %w", err)
	}
	return rules.LoadFile(path)
}

func loadDictionary(cfg model.Config) (*dictionary.Dictionary, error) {
	filters := []dictionary.FilterFunc{dictionary.PracticeFilter, dictionary.FilterForLang(cfg.Lang)}
	if cfg.WordList != "" {
		words, err := dictionary.LoadWordList(cfg.WordList)
		if err != nil {
			return nil, err
		}
		filters = append(filters, dictionary.InWords(words))
	}
	opts := []dictionary.Option{dictionary.WithFilter(dictionary.All(filters...))}
	if cfg.UniqueWords {
		opts = append(opts, dictionary.UniqueWords())
	}
	dict, err := dictionary.LoadFile(cfg.Dictionary, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load dictionary %s: %w", cfg.Dictionary, err)
	}
	return dict, nil
}

// openApp resolves settings, loads the dictionary and rules and opens the
// history log. logTo receives log output; nil means stderr.
func openApp(cmd *cobra.Command, logTo io.Writer) (*app, error) {
	cfg, fc, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	if err := setupLogging(fc, logTo); err != nil {
		return nil, err
	}
	logger := logging.New("cli")

	cat, err := loadCatalogue(cmd, cfg.RulesPath)
	if err != nil {
		return nil, err
	}
	dict, err := loadDictionary(cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("dictionary loaded",
		slog.String("path", cfg.Dictionary),
		slog.Int("strokes", dict.Len()),
		slog.Int("skipped", len(dict.Skipped())))

	enabled := cfg.Enabled
	if len(enabled) == 0 {
		enabled = cat.IDs()
	}
	for _, id := range enabled {
		if _, ok := cat.Rule(id); !ok && id != rules.Uncategorized {
			return nil, fmt.Errorf("unknown rule %q (see: stenotutor rules list)", id)
		}
	}
	cfg.Enabled = enabled

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	var classifyOpts []classify.Option
	if cfg.Workers > 0 {
		classifyOpts = append(classifyOpts, classify.WithWorkers(cfg.Workers))
	}
	eng := engine.New(cat, dict, st,
		engine.WithMetrics(metricsManager),
		engine.WithClassifyOptions(classifyOpts...),
		engine.WithStatsOptions(statsOptions(cfg)...),
	)
	return &app{cfg: cfg, store: st, dict: dict, cat: cat, engine: eng, logger: logger}, nil
}

func (a *app) Close() {
	a.engine.Wait()
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close db", slog.String("error", err.Error()))
	}
}

// openLogFile opens the log file used while a full-screen UI owns the
// terminal.
func openLogFile() (*os.File, error) {
	path := filepath.Join(filepath.Dir(config.DefaultDBPath()), "stenotutor.log")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

func prepare(ctx context.Context, a *app) error {
	if _, err := a.engine.Reclassify(ctx); err != nil {
		return fmt.Errorf("failed to classify dictionary: %w", err)
	}
	if _, err := a.engine.RefreshStats(ctx); err != nil {
		return fmt.Errorf("failed to compute statistics: %w", err)
	}
	return nil
}
