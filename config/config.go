// Package config loads the minicpu configuration: built-in defaults,
// overridden by a minicpu.toml file, overridden by MINICPU_* environment
// variables (optionally loaded from a .env file).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the full configuration of one minicpu process.
type Config struct {
	Machine MachineConfig `toml:"machine"`
	Cache   CacheConfig   `toml:"cache"`
	Monitor MonitorConfig `toml:"monitor"`
	Game    GameConfig    `toml:"game"`
}

// MachineConfig sizes the simulated machine.
type MachineConfig struct {
	MemorySize     int  `toml:"memory_size"`
	StepDurationMS int  `toml:"step_duration_ms"`
	StrictDecode   bool `toml:"strict_decode"`
}

// CacheConfig sizes the cache hierarchy.
type CacheConfig struct {
	L1Lines int `toml:"l1_lines"`
	L2Lines int `toml:"l2_lines"`
	L3Lines int `toml:"l3_lines"`
}

// MonitorConfig configures the monitoring server.
type MonitorConfig struct {
	Port int `toml:"port"`
}

// GameConfig configures the resource-constrained driver.
type GameConfig struct {
	Difficulty int `toml:"difficulty"`
}

// Default returns the reference configuration. Memory holds 512 cells so
// the canonical addition program, which stores at 0x100, fits.
func Default() Config {
	return Config{
		Machine: MachineConfig{
			MemorySize:     512,
			StepDurationMS: 800,
		},
		Cache: CacheConfig{
			L1Lines: 8,
			L2Lines: 16,
			L3Lines: 32,
		},
		Game: GameConfig{
			Difficulty: 1,
		},
	}
}

// Load reads the configuration file at path over the defaults. A missing
// file is not an error; the defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("cannot parse %s: %w", path, err)
	}

	return cfg, nil
}

// FromEnvironment applies MINICPU_* environment overrides to cfg. A .env
// file in the working directory is loaded first when present.
func FromEnvironment(cfg Config) Config {
	_ = godotenv.Load()

	intEnv("MINICPU_MEMORY_SIZE", &cfg.Machine.MemorySize)
	intEnv("MINICPU_STEP_DURATION_MS", &cfg.Machine.StepDurationMS)
	boolEnv("MINICPU_STRICT_DECODE", &cfg.Machine.StrictDecode)
	intEnv("MINICPU_L1_LINES", &cfg.Cache.L1Lines)
	intEnv("MINICPU_L2_LINES", &cfg.Cache.L2Lines)
	intEnv("MINICPU_L3_LINES", &cfg.Cache.L3Lines)
	intEnv("MINICPU_MONITOR_PORT", &cfg.Monitor.Port)
	intEnv("MINICPU_DIFFICULTY", &cfg.Game.Difficulty)

	return cfg
}

// Geometry returns the cache sizing as a line count per level, L1 first.
func (c Config) Geometry() []int {
	return []int{c.Cache.L1Lines, c.Cache.L2Lines, c.Cache.L3Lines}
}

// StepDuration returns the step duration as a time.Duration.
func (c Config) StepDuration() time.Duration {
	return time.Duration(c.Machine.StepDurationMS) * time.Millisecond
}

func intEnv(name string, target *int) {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return
	}

	*target = v
}

func boolEnv(name string, target *bool) {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return
	}

	*target = v
}
