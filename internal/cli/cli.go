package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/pointpipe/internal/app"
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
	flagSet := flag.NewFlagSet("pointpipe", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
Pointpipe - a point cloud pipeline runner.

Usage:
  pointpipe [options] [PIPELINE_PATH]

Arguments:
  PIPELINE_PATH
    Path to a pipeline .hcl document.

Options:
`)
		flagSet.PrintDefaults()
	}

	pipelineFlag := flagSet.String("pipeline", "", "Path to the pipeline document.")
	pFlag := flagSet.String("p", "", "Path to the pipeline document (shorthand).")
	driverPathFlag := flagSet.String("driver-path", "", "Colon-separated plugin search path; overrides PDAL_DRIVER_PATH.")
	noPluginsFlag := flagSet.Bool("no-plugins", false, "Skip dynamic plugin discovery.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	concurrentFlag := flagSet.Int("max-concurrent", 0, "Maximum runners in flight. 0 means unlimited.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := ""
	if *pipelineFlag != "" {
		path = *pipelineFlag
	} else if *pFlag != "" {
		path = *pFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}

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
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if *concurrentFlag < 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid max-concurrent: must not be negative"}
	}

	config, err := app.NewConfig(app.Config{
		PipelinePath:  path,
		DriverPath:    *driverPathFlag,
		NoPlugins:     *noPluginsFlag,
		LogFormat:     logFormat,
		LogLevel:      logLevel,
		MaxConcurrent: *concurrentFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return config, false, nil
}
