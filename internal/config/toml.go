// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/dualtask/internal/model"
)

// Defaults applied before the config file and CLI flags.
const (
	DefaultExperiment         = "dualtask"
	DefaultPracticeSize       = 6
	DefaultPracticeSeed       = 424
	DefaultTestSeed           = 6667
	DefaultMaxShuffleAttempts = 10000
	DefaultSampleRate         = 48000
	DefaultFallbackHz         = 60.0
	DefaultRecordCmd          = "arecord -q -f S16_LE -c 1 -t raw"
	DefaultPlayCmd            = "aplay -q"
)

// DefaultTasks is the block order of a full session.
var DefaultTasks = []string{
	"practice_single", "test_single",
	"practice_number_dots", "test_number_dots",
	"practice_beep_count_dots", "test_beep_count_dots",
	"practice_number_beep_press", "test_number_beep_press",
	"practice_nback", "test_nback",
	"practice_flanker", "test_flanker",
}

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Experiment ExperimentConfig `toml:"experiment"`
	Paths      PathsConfig      `toml:"paths"`
	Audio      AudioConfig      `toml:"audio"`
	Display    DisplayConfig    `toml:"display"`
	Metrics    MetricsConfig    `toml:"metrics"`
}

// ExperimentConfig maps session-level settings.
type ExperimentConfig struct {
	Name               *string   `toml:"name"`
	Tasks              *[]string `toml:"tasks"`
	PracticeSize       *int      `toml:"practice-size"`
	PracticeSeed       *int64    `toml:"practice-seed"`
	TestSeed           *int64    `toml:"test-seed"`
	MaxShuffleAttempts *int      `toml:"max-shuffle-attempts"`
}

// PathsConfig maps input and output locations.
type PathsConfig struct {
	Stimuli    *string `toml:"stimuli"`
	Results    *string `toml:"results"`
	Recordings *string `toml:"recordings"`
	DB         *string `toml:"db"`
}

// AudioConfig maps capture and playback settings.
type AudioConfig struct {
	Enabled    *bool   `toml:"enabled"`
	SampleRate *int    `toml:"sample-rate"`
	RecordCmd  *string `toml:"record-cmd"`
	PlayCmd    *string `toml:"play-cmd"`
}

// DisplayConfig maps display settings.
type DisplayConfig struct {
	FallbackHz *float64 `toml:"fallback-hz"`
}

// MetricsConfig maps the optional Prometheus endpoint.
type MetricsConfig struct {
	Addr *string `toml:"addr"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Defaults returns the built-in configuration rooted at the XDG directories.
func Defaults() model.Config {
	return model.Config{
		Experiment:         DefaultExperiment,
		Tasks:              append([]string(nil), DefaultTasks...),
		StimuliDir:         DefaultStimuliDir(),
		ResultsDir:         DefaultResultsDir(),
		RecordingsDir:      DefaultRecordingsDir(),
		DBPath:             DefaultDBPath(),
		PracticeSize:       DefaultPracticeSize,
		PracticeSeed:       DefaultPracticeSeed,
		TestSeed:           DefaultTestSeed,
		MaxShuffleAttempts: DefaultMaxShuffleAttempts,
		Audio:              true,
		SampleRate:         DefaultSampleRate,
		RecordCmd:          DefaultRecordCmd,
		PlayCmd:            DefaultPlayCmd,
		FallbackHz:         DefaultFallbackHz,
	}
}

// Apply overlays the values set in the file onto cfg.
func (f FileConfig) Apply(cfg *model.Config) {
	setValue(&cfg.Experiment, f.Experiment.Name)
	if f.Experiment.Tasks != nil {
		cfg.Tasks = append([]string(nil), (*f.Experiment.Tasks)...)
	}
	setValue(&cfg.PracticeSize, f.Experiment.PracticeSize)
	setValue(&cfg.PracticeSeed, f.Experiment.PracticeSeed)
	setValue(&cfg.TestSeed, f.Experiment.TestSeed)
	setValue(&cfg.MaxShuffleAttempts, f.Experiment.MaxShuffleAttempts)
	setValue(&cfg.StimuliDir, f.Paths.Stimuli)
	setValue(&cfg.ResultsDir, f.Paths.Results)
	setValue(&cfg.RecordingsDir, f.Paths.Recordings)
	setValue(&cfg.DBPath, f.Paths.DB)
	setValue(&cfg.Audio, f.Audio.Enabled)
	setValue(&cfg.SampleRate, f.Audio.SampleRate)
	setValue(&cfg.RecordCmd, f.Audio.RecordCmd)
	setValue(&cfg.PlayCmd, f.Audio.PlayCmd)
	setValue(&cfg.FallbackHz, f.Display.FallbackHz)
	setValue(&cfg.MetricsAddr, f.Metrics.Addr)
}

func setValue[T any](target *T, value *T) {
	if value == nil {
		return
	}
	*target = *value
}

// Template returns a commented config file listing every key and its default.
func Template() string {
	return fmt.Sprintf(`# dualtask configuration
# Uncomment a value to enable it. CLI flags override config values.

[experiment]
# name = %q
# tasks = ["practice_single", "test_single"]  # Blocks to run, in order
# practice-size = %d       # Stimuli reserved for practice blocks
# practice-seed = %d      # Random seed of practice blocks
# test-seed = %d         # Random seed of test blocks
# max-shuffle-attempts = %d

[paths]
# stimuli = %q
# results = %q
# recordings = %q
# db = %q

[audio]
# enabled = true
# sample-rate = %d
# record-cmd = %q
# play-cmd = %q

[display]
# fallback-hz = %.1f       # Used when the refresh rate cannot be measured

[metrics]
# addr = "127.0.0.1:9464"  # Serve Prometheus metrics while running
`,
		DefaultExperiment,
		DefaultPracticeSize,
		DefaultPracticeSeed,
		DefaultTestSeed,
		DefaultMaxShuffleAttempts,
		DefaultStimuliDir(),
		DefaultResultsDir(),
		DefaultRecordingsDir(),
		DefaultDBPath(),
		DefaultSampleRate,
		DefaultRecordCmd,
		DefaultPlayCmd,
		DefaultFallbackHz,
	)
}
