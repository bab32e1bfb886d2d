// Package logging configures the slog default logger of the simulator.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel converts DEBUG, INFO, WARN or ERROR, in any case, to a level.
// Unknown names give INFO and an error.
func ParseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q, using INFO", levelStr)
	}
}

// New returns a text logger writing to w at the named level. An unknown
// level is reported through the returned logger itself.
func New(w io.Writer, levelStr string) *slog.Logger {
	level, err := ParseLevel(levelStr)

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))

	if err != nil {
		logger.Warn(err.Error())
	}

	return logger
}

// Init makes the default logger write to stdout and, if logPath is not
// empty, to the file at logPath. The returned file must be closed by the
// caller once logging is done; it is nil when logPath is empty.
func Init(logPath string, levelStr string) (*os.File, error) {
	if logPath == "" {
		slog.SetDefault(New(os.Stdout, levelStr))
		return nil, nil
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o666)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, logFile)
	slog.SetDefault(New(multiWriter, levelStr))

	slog.Debug("logger configured", "file", logPath)

	return logFile, nil
}
