package common

import (
	"os"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Route the global logger to stderr in a human readable format.
// Colours are only used when stderr is a terminal
func SetupLogging(verbose bool) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	writer := zerolog.ConsoleWriter{
		Out:        colorable.NewColorableStderr(),
		NoColor:    !IsTerminal(os.Stderr),
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(writer).With().Timestamp().Logger()
}

// Report whether the file is attached to a terminal
func IsTerminal(file *os.File) bool {
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
