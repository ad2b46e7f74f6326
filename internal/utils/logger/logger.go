package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	base   = newLogger(os.Stderr, zerolog.InfoLevel)
	levels = map[string]zerolog.Level{
		"debug": zerolog.DebugLevel,
		"info":  zerolog.InfoLevel,
		"warn":  zerolog.WarnLevel,
		"error": zerolog.ErrorLevel,
	}
)

func newLogger(out io.Writer, level zerolog.Level) zerolog.Logger {
	color := false
	if f, ok := out.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    !color,
		TimeFormat: time.RFC3339,
	}
	consoleWriter.FormatLevel = func(i interface{}) string {
		tag := strings.ToUpper(fmt.Sprintf("[%s]", i))
		if !color {
			return tag
		}
		switch i {
		case "info":
			return "\033[32m" + tag + "\033[0m" // Green
		case "error":
			return "\033[31m" + tag + "\033[0m" // Red
		case "debug":
			return "\033[36m" + tag + "\033[0m" // Cyan
		case "warn":
			return "\033[33m" + tag + "\033[0m" // Yellow
		case "fatal":
			return "\033[35m" + tag + "\033[0m" // Magenta
		default:
			return tag
		}
	}
	consoleWriter.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("%s", i)
	}
	consoleWriter.FormatFieldName = func(i interface{}) string {
		if !color {
			return fmt.Sprintf("%s:", i)
		}
		return fmt.Sprintf("\033[1m%s:\033[0m", i) // Bold field names
	}
	consoleWriter.FormatFieldValue = func(i interface{}) string {
		return fmt.Sprintf("%v", i)
	}

	return zerolog.New(consoleWriter).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// Configure replaces the output and level of the package logger.
// An unknown level keeps info.
func Configure(out io.Writer, level string) {
	lvl, ok := levels[strings.ToLower(strings.TrimSpace(level))]
	if !ok {
		lvl = zerolog.InfoLevel
	}
	mu.Lock()
	base = newLogger(out, lvl)
	mu.Unlock()
}

// With returns a child logger carrying a field, for callers that log with structured context
func With(key, value string) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base.With().Str(key, value).Logger()
}

func get() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func Info(message string, args ...interface{}) {
	logger := get()
	if len(args) == 0 {
		logger.Info().Msg(message)
	} else {
		logger.Info().Msgf(message, args...)
	}
}

func Warn(message string, args ...interface{}) {
	logger := get()
	if len(args) == 0 {
		logger.Warn().Msg(message)
	} else {
		logger.Warn().Msgf(message, args...)
	}
}

func Error(message string, args ...interface{}) {
	logger := get()
	if len(args) == 0 {
		logger.Error().Msg(message)
	} else {
		logger.Error().Msgf(message, args...)
	}
}

func Fatal(message string, args ...interface{}) {
	logger := get()
	if len(args) == 0 {
		logger.Fatal().Msg(message)
	} else {
		logger.Fatal().Msgf(message, args...)
	}
}

func Debug(message string, args ...interface{}) {
	logger := get()
	if len(args) == 0 {
		logger.Debug().Msg(message)
	} else {
		logger.Debug().Msgf(message, args...)
	}
}
