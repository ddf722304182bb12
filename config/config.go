// Package config loads the settings of the controller binaries from the
// environment (and an optional .env file), with per-demo timings
// optionally overridden by a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/librescoot/loopfsm/demo/robot"
	"github.com/librescoot/loopfsm/demo/trafficlight"
)

var (
	ErrParsingConfig = errors.New("failed to parse configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config holds everything a controller binary needs
type Config struct {
	Tick         time.Duration `env:"LOOPFSM_TICK" envDefault:"10ms"`
	LogLevel     string        `env:"LOOPFSM_LOG_LEVEL" envDefault:"info"`
	LogFormat    string        `env:"LOOPFSM_LOG_FORMAT" envDefault:"text"`
	MachineID    string        `env:"LOOPFSM_MACHINE_ID"`
	JournalPath  string        `env:"LOOPFSM_JOURNAL"`
	RedisAddr    string        `env:"LOOPFSM_REDIS_ADDR"`
	RedisChannel string        `env:"LOOPFSM_REDIS_CHANNEL" envDefault:"loopfsm:transitions"`
	TraceFile    string        `env:"LOOPFSM_TRACE_FILE"`
	ConfigFile   string        `env:"LOOPFSM_CONFIG_FILE"`

	Timings Timings
}

// Timings is the part of the configuration read from the YAML file
type Timings struct {
	TrafficLight trafficlight.Durations `yaml:"trafficlight"`
	Robot        robot.Timing           `yaml:"robot"`
}

// Load reads .env (if present) and the environment, then applies the
// YAML file named by LOOPFSM_CONFIG_FILE.
func Load() (Config, error) {
	// The .env file is optional
	_ = godotenv.Load()

	cfg := Config{
		Timings: Timings{
			TrafficLight: trafficlight.DefaultDurations(),
			Robot:        robot.DefaultTiming(),
		},
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}

	if cfg.ConfigFile != "" {
		if err := cfg.applyFile(cfg.ConfigFile); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyFile overlays the timings found in a YAML file. Keys missing from
// the file keep their current values.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &c.Timings); err != nil {
		return errors.Join(ErrParsingConfig, fmt.Errorf("yaml %s: %w", path, err))
	}
	return nil
}

// Validate rejects non-positive tick and phase durations
func (c Config) Validate() error {
	checks := []struct {
		name string
		d    time.Duration
	}{
		{"tick", c.Tick},
		{"trafficlight.green", c.Timings.TrafficLight.Green},
		{"trafficlight.yellow", c.Timings.TrafficLight.Yellow},
		{"trafficlight.red", c.Timings.TrafficLight.Red},
		{"robot.blink", c.Timings.Robot.Blink},
		{"robot.avoid", c.Timings.Robot.Avoid},
	}
	for _, chk := range checks {
		if chk.d <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidConfig, chk.name, chk.d)
		}
	}
	return nil
}
