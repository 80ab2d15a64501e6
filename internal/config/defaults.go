package config

import (
	"strings"

	"github.com/verte-zerg/stenotutor/internal/model"
)

// Defaults returns the built-in practice configuration.
func Defaults() model.Config {
	return model.Config{
		Dictionary:   DefaultDictionaryPath(),
		RulesPath:    DefaultRulesPath(),
		Lang:         "en",
		Length:       20,
		RecentWindow: 3,
		StatsMode:    "decay",
		HalfLife:     20,
		StatsWindow:  20,
		SkipFirst:    true,
	}
}

// Apply copies every value set in fc onto cfg.
func (fc FileConfig) Apply(cfg *model.Config) {
	p := fc.Practice
	if p.Dictionary != nil {
		cfg.Dictionary = *p.Dictionary
	}
	if p.WordList != nil {
		cfg.WordList = *p.WordList
	}
	if p.Rules != nil {
		cfg.RulesPath = *p.Rules
	}
	if p.Lang != nil {
		cfg.Lang = *p.Lang
	}
	if p.Length != nil {
		cfg.Length = *p.Length
	}
	if p.Enabled != nil {
		cfg.Enabled = normalizeIDs(p.Enabled)
	}
	if p.RecentWindow != nil {
		cfg.RecentWindow = *p.RecentWindow
	}
	if p.UniqueWords != nil {
		cfg.UniqueWords = *p.UniqueWords
	}

	e := fc.Engine
	if e.Workers != nil {
		cfg.Workers = *e.Workers
	}
	if e.StatsMode != nil {
		cfg.StatsMode = *e.StatsMode
	}
	if e.HalfLife != nil {
		cfg.HalfLife = *e.HalfLife
	}
	if e.StatsWindow != nil {
		cfg.StatsWindow = *e.StatsWindow
	}
	if e.SkipFirst != nil {
		cfg.SkipFirst = *e.SkipFirst
	}
}

// ParseRuleList splits a comma separated list of rule ids.
func ParseRuleList(s string) []string {
	return normalizeIDs(strings.Split(s, ","))
}

func normalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.ToUpper(strings.TrimSpace(id))
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}
