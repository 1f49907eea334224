// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	colorRed     = 31
	colorGreen   = 32
	colorYellow  = 33
	colorMagenta = 35
	colorBold    = 1
)

func colorize(s interface{}, c int, disabled bool) string {
	if disabled {
		return fmt.Sprintf("%s", s)
	}
	return fmt.Sprintf("\x1b[%dm%v\x1b[0m", c, s)
}

// Init points the global logger at a colored console writer on stdout.
func Init(debug bool) {
	Setup(colorable.NewColorable(os.Stdout), false, debug)
}

// Setup points the global logger at w. Color is disabled when noColor is set.
func Setup(w io.Writer, noColor, debug bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	output := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    noColor,
		TimeFormat: time.RFC3339,
	}
	output.FormatLevel = func(i interface{}) string {
		return fmt.Sprintf("| %s |", formatLevel(i, noColor))
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(output)
}

func formatLevel(i interface{}, noColor bool) string {
	ll, ok := i.(string)
	if !ok {
		if i == nil {
			return colorize("???  ", colorBold, noColor)
		}
		return strings.ToUpper(fmt.Sprintf("%-5s", i))[0:5]
	}

	switch ll {
	case zerolog.LevelTraceValue:
		return colorize("TRACE", colorMagenta, noColor)
	case zerolog.LevelDebugValue:
		return colorize("DEBUG", colorYellow, noColor)
	case zerolog.LevelInfoValue:
		return colorize("INFO ", colorGreen, noColor)
	case zerolog.LevelWarnValue:
		return colorize("WARN ", colorRed, noColor)
	case zerolog.LevelErrorValue, zerolog.LevelFatalValue, zerolog.LevelPanicValue:
		return colorize(colorize(strings.ToUpper(ll), colorRed, noColor), colorBold, noColor)
	default:
		return colorize(ll, colorBold, noColor)
	}
}
