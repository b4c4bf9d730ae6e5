package infra

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// BotConfig holds operator-facing settings that change more often than the
// deployment: trainer display names for the selection keyboard and the
// daily schedule. Loaded from a YAML file when BOT_CONFIG_PATH is set.
type BotConfig struct {
	Trainers TrainerNames   `yaml:"trainers"`
	Schedule ScheduleConfig `yaml:"schedule"`
}

// TrainerNames maps the three fixed trainer slots to display names.
type TrainerNames struct {
	Trainer1 string `yaml:"trainer_1"`
	Trainer2 string `yaml:"trainer_2"`
	Trainer3 string `yaml:"trainer_3"`
}

// Name resolves a slot key to its display name, falling back to the key.
func (t TrainerNames) Name(key string) string {
	switch key {
	case "trainer_1":
		if t.Trainer1 != "" {
			return t.Trainer1
		}
	case "trainer_2":
		if t.Trainer2 != "" {
			return t.Trainer2
		}
	case "trainer_3":
		if t.Trainer3 != "" {
			return t.Trainer3
		}
	}
	return key
}

// ScheduleConfig defines when the scheduled publish flow fires.
type ScheduleConfig struct {
	Times    []string `yaml:"times"`
	Timezone string   `yaml:"timezone"`
}

// Location resolves the schedule timezone, defaulting to UTC.
func (s ScheduleConfig) Location() *time.Location {
	if s.Timezone != "" {
		if loc, err := time.LoadLocation(s.Timezone); err == nil {
			return loc
		}
	}
	return time.UTC
}

// DefaultBotConfig mirrors the settings the product shipped with before
// they became configurable.
func DefaultBotConfig() BotConfig {
	return BotConfig{
		Trainers: TrainerNames{
			Trainer1: "Janettsy",
			Trainer2: "Rafael",
			Trainer3: "Sandry",
		},
		Schedule: ScheduleConfig{
			Times:    []string{"07:30", "11:30"},
			Timezone: "America/New_York",
		},
	}
}

// LoadBotConfig reads the YAML file at path, layering it over the defaults.
// An empty path returns the defaults untouched.
func LoadBotConfig(path string) (BotConfig, error) {
	cfg := DefaultBotConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read bot config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse bot config: %w", err)
	}
	if len(cfg.Schedule.Times) == 0 {
		cfg.Schedule.Times = DefaultBotConfig().Schedule.Times
	}
	return cfg, nil
}
