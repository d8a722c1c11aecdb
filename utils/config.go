package utils

import (
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/pkg/errors"
)

// ErrInvalidConfig is wrapped by every Validate failure
var ErrInvalidConfig = errors.New("invalid config")

// Duration is a time.Duration that decodes from "150ms" style strings or integer nanoseconds
type Duration time.Duration

// MarshalJSON encodes the duration as a string
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts either a duration string or a number of nanoseconds
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return errors.Wrapf(err, "[Duration] failed to parse: %+v", s)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Wrapf(err, "[Duration] expected string or integer, got: %s", data)
	}
	*d = Duration(n)
	return nil
}

// Config holds the configuration for a simulation run
type Config struct {
	Rows                int      `json:"rows"`
	Cols                int      `json:"cols"`
	Interval            Duration `json:"interval"`
	MinInterval         Duration `json:"min_interval"`
	IntervalStep        Duration `json:"interval_step"`
	AliveProbability    float64  `json:"alive_probability"`
	Seed                int64    `json:"seed"`
	Workers             int      `json:"workers"`
	UseParallel         bool     `json:"use_parallel"`
	UseMemoryPool       bool     `json:"use_memory_pool"`
	MaxGenerations      int      `json:"max_generations"`
	AutoRestart         bool     `json:"auto_restart"`
	StagnationThreshold int      `json:"stagnation_threshold"`
	Pattern             string   `json:"pattern"`
	LogLevel            string   `json:"log_level"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Rows:                30,
		Cols:                30,
		Interval:            Duration(100 * time.Millisecond),
		MinInterval:         Duration(50 * time.Millisecond),
		IntervalStep:        Duration(50 * time.Millisecond),
		AliveProbability:    0.3,
		Seed:                42,
		Workers:             0, // one band per CPU
		UseParallel:         false,
		UseMemoryPool:       true,
		MaxGenerations:      0,
		AutoRestart:         true,
		StagnationThreshold: 5,
		LogLevel:            "info",
	}
}

// LoadConfig loads configuration from JSON file on top of the defaults
func LoadConfig(filename string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, errors.Wrapf(err, "[LoadConfig] failed to read file: %+v", filename)
	}

	if err = json.Unmarshal(data, &config); err != nil {
		return config, errors.Wrapf(err, "[LoadConfig] failed to unmarshal data from file: %+v", filename)
	}

	return config, nil
}

// Bind attaches the configuration to the provided FlagSet. Flags parsed after
// LoadConfig override values from the file.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.IntVar(&c.Rows, "rows", c.Rows, "grid rows")
	fs.IntVar(&c.Cols, "cols", c.Cols, "grid columns")
	fs.Var((*durationFlag)(&c.Interval), "interval", "delay between generations")
	fs.Var((*durationFlag)(&c.MinInterval), "min-interval", "fastest allowed delay")
	fs.Var((*durationFlag)(&c.IntervalStep), "interval-step", "delay change per speed adjustment")
	fs.Float64Var(&c.AliveProbability, "alive-probability", c.AliveProbability, "chance a cell starts alive when randomizing")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "seed for randomization")
	fs.IntVar(&c.Workers, "workers", c.Workers, "row bands for parallel evolution (0 = one per CPU)")
	fs.BoolVar(&c.UseParallel, "parallel", c.UseParallel, "evolve row bands concurrently")
	fs.BoolVar(&c.UseMemoryPool, "pool", c.UseMemoryPool, "recycle superseded grids")
	fs.IntVar(&c.MaxGenerations, "max-generations", c.MaxGenerations, "stop after this many generations (0 = run forever)")
	fs.BoolVar(&c.AutoRestart, "auto-restart", c.AutoRestart, "re-randomize on extinction or stagnation")
	fs.IntVar(&c.StagnationThreshold, "stagnation-threshold", c.StagnationThreshold, "stagnant frames before a restart")
	fs.StringVar(&c.Pattern, "pattern", c.Pattern, "plaintext pattern file or built-in name to seed the grid")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
}

// Validate reports the first out-of-range setting
func (c Config) Validate() error {
	switch {
	case c.Rows < 0 || c.Cols < 0:
		return errors.Wrapf(ErrInvalidConfig, "grid dimensions must be non-negative, got %dx%d", c.Rows, c.Cols)
	case c.Interval <= 0:
		return errors.Wrapf(ErrInvalidConfig, "interval must be positive, got %v", time.Duration(c.Interval))
	case c.MinInterval <= 0 || c.MinInterval > c.Interval:
		return errors.Wrapf(ErrInvalidConfig, "min_interval must be in (0, interval], got %v", time.Duration(c.MinInterval))
	case c.IntervalStep <= 0:
		return errors.Wrapf(ErrInvalidConfig, "interval_step must be positive, got %v", time.Duration(c.IntervalStep))
	case c.AliveProbability < 0 || c.AliveProbability > 1:
		return errors.Wrapf(ErrInvalidConfig, "alive_probability must be in [0, 1], got %v", c.AliveProbability)
	case c.Workers < 0:
		return errors.Wrapf(ErrInvalidConfig, "workers must be non-negative, got %d", c.Workers)
	case c.MaxGenerations < 0:
		return errors.Wrapf(ErrInvalidConfig, "max_generations must be non-negative, got %d", c.MaxGenerations)
	case c.StagnationThreshold < 1:
		return errors.Wrapf(ErrInvalidConfig, "stagnation_threshold must be at least 1, got %d", c.StagnationThreshold)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}
	return nil
}

type durationFlag Duration

func (d *durationFlag) String() string {
	return time.Duration(*d).String()
}

func (d *durationFlag) Set(s string) error {
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = durationFlag(parsed)
	return nil
}
