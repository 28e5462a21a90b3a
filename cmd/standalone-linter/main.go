package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/osfbuildersuite/standalone-linter/builder"
)

const (
	exitAborted = 1
	exitError   = 2
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(handleError(os.Stdout, err))
	}
}

// handleError reports err and returns the exit code for it. Aborts are part of
// the build log; anything else is a diagnostics failure.
func handleError(out io.Writer, err error) int {
	var abortErr *builder.AbortError
	if errors.As(err, &abortErr) {
		fmt.Fprintf(out, "ERROR: %s\n", abortErr.Message)
		return exitAborted
	}

	log.Error().Err(err).Msg("Step failed")
	return exitError
}

func setupLogger(level, format string) {
	zerolog.TimeFieldFormat = time.RFC3339

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if format == "text" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}
