package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// FileLogger writes JSON lines to path and human-readable text to stdout.
// The returned file must be closed by the caller on shutdown.
func FileLogger(level logrus.Level, path string) (*os.File, *logrus.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetOutput(io.Discard)
	logger.AddHook(&writerHook{
		Writer:    f,
		Formatter: &logrus.JSONFormatter{},
	})
	logger.AddHook(&writerHook{
		Writer:    os.Stdout,
		Formatter: &logrus.TextFormatter{FullTimestamp: true},
	})
	return f, logger, nil
}

// ConsoleLogger is the fallback when no log file is configured.
func ConsoleLogger(level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger
}

type writerHook struct {
	Writer    io.Writer
	Formatter logrus.Formatter
}

func (h *writerHook) Fire(entry *logrus.Entry) error {
	line, err := h.Formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.Writer.Write(line)
	return err
}

func (h *writerHook) Levels() []logrus.Level {
	return logrus.AllLevels
}
