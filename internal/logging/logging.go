// Package logging builds the zap logger used by the experiment runner.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the rotating log file written under the log directory.
const FileName = "dualtask.log"

// Options configures New.
type Options struct {
	// Dir receives the JSON log file. Empty disables the file core.
	Dir string
	// Console receives human-readable logs. Nil disables the console core;
	// it must stay nil while the terminal UI owns the screen.
	Console io.Writer
	Debug   bool
}

// New returns a logger tee of a rotating JSON file and an optional console.
// The returned closer flushes and closes the file.
func New(opts Options) (*zap.Logger, func() error, error) {
	level := zapcore.InfoLevel
	if opts.Debug {
		level = zapcore.DebugLevel
	}
	var cores []zapcore.Core
	closer := func() error { return nil }

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("could not create log directory: %w", err)
		}
		file := &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, FileName),
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		encoderConfig := zapcore.EncoderConfig{
			MessageKey:   "message",
			LevelKey:     "level",
			TimeKey:      "time",
			CallerKey:    "caller",
			EncodeLevel:  zapcore.LowercaseLevelEncoder,
			EncodeTime:   zapcore.ISO8601TimeEncoder,
			EncodeCaller: zapcore.ShortCallerEncoder,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(file), level))
		closer = file.Close
	}
	if opts.Console != nil {
		consoleConfig := zap.NewDevelopmentEncoderConfig()
		consoleConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		consoleConfig.CallerKey = ""
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(consoleConfig), zapcore.AddSync(opts.Console), level))
	}
	if len(cores) == 0 {
		return zap.NewNop(), closer, nil
	}
	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return logger, func() error {
		// Best-effort sync before close.
		_ = logger.Sync()
		return closer()
	}, nil
}
