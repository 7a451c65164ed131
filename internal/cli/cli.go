// Package cli parses the miniflow command line into an app.Config.
package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/born-ml/miniflow/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("miniflow", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
MiniFlow - Train small neural networks declared as computation graphs.

Usage:
  miniflow [options] CONFIG_PATH
  miniflow version

Arguments:
  CONFIG_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to the configuration file or directory.")
	cFlag := flagSet.String("c", "", "Path to the configuration file or directory (shorthand).")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	logEveryFlag := flagSet.Int("log-every", 100, "Log the loss every N epochs. 0 logs every epoch.")
	epochsFlag := flagSet.Int("epochs", 0, "Override the number of training epochs. 0 keeps the configured value.")
	seedFlag := flagSet.Int64("seed", 0, "Override the random seed.")
	loadFlag := flagSet.String("load", "", "Initialize trainable inputs from a .safetensors checkpoint.")
	saveFlag := flagSet.String("save", "", "Write the trained inputs to a .safetensors checkpoint.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := ""
	if *configFlag != "" {
		path = *configFlag
	} else if *cFlag != "" {
		path = *cFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Config path determined.", "path", path)

	if path == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	var seed *int64
	flagSet.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			seed = seedFlag
		}
	})

	config, err := app.NewConfig(app.Config{
		ConfigPath: path,
		LogFormat:  logFormat,
		LogLevel:   logLevel,
		LogEvery:   *logEveryFlag,
		Epochs:     *epochsFlag,
		Seed:       seed,
		LoadPath:   *loadFlag,
		SavePath:   *saveFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
