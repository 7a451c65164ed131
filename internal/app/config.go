package app

import "errors"

// Config holds the command-line settings of a run.
type Config struct {
	ConfigPath string // .hcl file or directory

	LogFormat string
	LogLevel  string
	LogEvery  int

	// Overrides of the training block. Zero values and nil keep the
	// configured settings.
	Epochs int
	Seed   *int64

	// Checkpoints of the trainable inputs. Empty paths disable them.
	LoadPath string // Read before training
	SavePath string // Written after training
}

// NewConfig validates cfg and returns a copy.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" {
		return nil, errors.New("ConfigPath is a required configuration field and cannot be empty")
	}
	if cfg.Epochs < 0 {
		return nil, errors.New("epochs must not be negative")
	}
	if cfg.LogEvery < 0 {
		return nil, errors.New("log-every must not be negative")
	}
	return &cfg, nil
}
