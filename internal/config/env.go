package config

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes the environment variables read by ApplyEnv.
const EnvPrefix = "STENOTUTOR_"

// ApplyEnv overlays STENOTUTOR_<SECTION>_<KEY> environment variables on cfg,
// for example STENOTUTOR_PRACTICE_RECENT_WINDOW=5 or
// STENOTUTOR_PRACTICE_ENABLED=BRIEF,PHONETIC. Values from the environment win
// over the file.
func ApplyEnv(cfg FileConfig) (FileConfig, error) {
	k := koanf.New(".")
	provider := env.Provider(EnvPrefix, ".", envKey)
	if err := k.Load(provider, nil); err != nil {
		return cfg, fmt.Errorf("failed to read environment: %w", err)
	}
	var fromEnv FileConfig
	conf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook:       mapstructure.StringToSliceHookFunc(","),
			Result:           &fromEnv,
			TagName:          "koanf",
			WeaklyTypedInput: true,
		},
	}
	if err := k.UnmarshalWithConf("", &fromEnv, conf); err != nil {
		return cfg, fmt.Errorf("failed to decode environment: %w", err)
	}
	return Merge(cfg, fromEnv), nil
}

// envKey maps STENOTUTOR_PRACTICE_RECENT_WINDOW to practice.recent-window.
// Variables without a section are ignored.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, key, ok := strings.Cut(s, "_")
	if !ok || key == "" {
		return ""
	}
	return section + "." + strings.ReplaceAll(key, "_", "-")
}

// Merge returns base with every field set in over replacing it.
func Merge(base, over FileConfig) FileConfig {
	out := base
	p, o := &out.Practice, over.Practice
	setIf(&p.Dictionary, o.Dictionary)
	setIf(&p.WordList, o.WordList)
	setIf(&p.Rules, o.Rules)
	setIf(&p.Lang, o.Lang)
	setIf(&p.Length, o.Length)
	setIf(&p.RecentWindow, o.RecentWindow)
	setIf(&p.UniqueWords, o.UniqueWords)
	if o.Enabled != nil {
		p.Enabled = append([]string(nil), o.Enabled...)
	}

	e, oe := &out.Engine, over.Engine
	setIf(&e.Workers, oe.Workers)
	setIf(&e.StatsMode, oe.StatsMode)
	setIf(&e.HalfLife, oe.HalfLife)
	setIf(&e.StatsWindow, oe.StatsWindow)
	setIf(&e.SkipFirst, oe.SkipFirst)

	setIf(&out.Log.Level, over.Log.Level)
	setIf(&out.Log.Format, over.Log.Format)
	return out
}

func setIf[T any](dst **T, src *T) {
	if src != nil {
		v := *src
		*dst = &v
	}
}
