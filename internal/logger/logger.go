// Copyright 2026 The CurveFS Client Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logger is a small leveled wrapper around log/slog with a
// five-rung severity ladder (TRACE, DEBUG, INFO, WARNING, ERROR) instead of
// slog's default four, matching what operators expect from this client's
// logs. Output can be rotated to a file via lumberjack, or left on stderr
// for interactive use.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	levelTrace   = slog.Level(-8)
	levelWarning = slog.Level(2)
)

var severityNames = map[slog.Leveler]string{
	levelTrace:      "TRACE",
	slog.LevelDebug: "DEBUG",
	slog.LevelInfo:  "INFO",
	levelWarning:    "WARNING",
	slog.LevelError: "ERROR",
}

var defaultLogger = slog.New(newHandler(os.Stderr, slog.LevelInfo, false))

func newHandler(w io.Writer, level slog.Leveler, json bool) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				lvl := a.Value.Any().(slog.Level)
				if name, ok := severityNames[lvl]; ok {
					a.Value = slog.StringValue(name)
				}
				a.Key = "severity"
			}
			return a
		},
	}
	if json {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// Config selects where logs go and how verbose they are.
type Config struct {
	// FilePath, if non-empty, rotates logs through lumberjack instead of
	// writing to stderr.
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	JSON       bool
	Level      string
}

// Init replaces the package-level logger per cfg. Safe to call once at
// process startup; not safe for concurrent use with logging calls.
func Init(cfg Config) error {
	var w io.Writer = os.Stderr
	if cfg.FilePath != "" {
		w = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
	}

	level, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}

	defaultLogger = slog.New(newHandler(w, level, cfg.JSON))
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "", "info":
		return slog.LevelInfo, nil
	case "trace":
		return levelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warning", "warn":
		return levelWarning, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("logger: unrecognized level %q", s)
	}
}

func Tracef(format string, args ...any) {
	defaultLogger.Log(context.Background(), levelTrace, fmt.Sprintf(format, args...))
}

func Debugf(format string, args ...any) {
	defaultLogger.Debug(fmt.Sprintf(format, args...))
}

func Infof(format string, args ...any) {
	defaultLogger.Info(fmt.Sprintf(format, args...))
}

func Warnf(format string, args ...any) {
	defaultLogger.Log(context.Background(), levelWarning, fmt.Sprintf(format, args...))
}

func Errorf(format string, args ...any) {
	defaultLogger.Error(fmt.Sprintf(format, args...))
}
