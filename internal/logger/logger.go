// internal/logger/logger.go
//
// Structured JSON logger (Zap + Lumberjack).
//
// Context
// -------
// The gateway logs lifecycle and error events as JSON.  When LOG_DIR is set
// the JSON core writes to `<LOG_DIR>/gateway.log`, rotated, compressed, and
// pruned by Lumberjack.  Without LOG_DIR the JSON goes to stdout, which is
// what container runtimes collect.  When running in an interactive TTY we
// tee the same events, colorized, to stdout instead.
//
// Usage
// -----
//
//	log, err := logger.New(logger.Options{Level: cfg.Runtime.LogLevel, Dir: dir, Tee: runningInTTY()})
//	if err != nil { … }
//	log.Infow("gateway online", "addr", cfg.ListenAddr())
//
// Notes
// -----
// • Zap core uses ISO-8601 timestamps and lowercase levels.
// • LOG_LEVEL uses the platform names (WARNING, CRITICAL); ParseLevel maps
//   them onto zap levels.
// • Oxford commas, two spaces after periods.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FileName is the active log file under Options.Dir.
const FileName = "gateway.log"

// Options selects the sinks and level.
type Options struct {
	Level string // LOG_LEVEL value; empty means INFO
	Dir   string // rotate JSON logs here; empty writes JSON to stdout
	Tee   bool   // add a colored console core
}

// New returns a *zap.SugaredLogger built from opts.  The logger is installed
// as the process-wide default via zap.ReplaceGlobals.
func New(opts Options) (*zap.SugaredLogger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	var (
		cores   []zapcore.Core
		errSink zapcore.WriteSyncer = zapcore.Lock(os.Stderr)
	)

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("logger: %w", err)
		}
		fileSink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, FileName),
			MaxSize:    50, // MB
			MaxBackups: 7,  // keep last seven files
			MaxAge:     14, // days
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), fileSink, level))
		errSink = fileSink
	}

	switch {
	case opts.Tee:
		enc := encoderConfig()
		enc.EncodeLevel = zapcore.LowercaseColorLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stdout), level))
	case opts.Dir == "":
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.Lock(os.Stdout), level))
	}

	z := zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.ErrorOutput(errSink),
	).Sugar()

	// Make this the global logger so zap.S() works everywhere after startup.
	zap.ReplaceGlobals(z.Desugar())

	z.Infow("logger online", "level", level.String(), "dir", opts.Dir, "tee", opts.Tee)
	return z, nil
}

// ParseLevel maps a LOG_LEVEL value onto a zap level.  Matching is
// case-insensitive.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return zap.DebugLevel, nil
	case "", "INFO":
		return zap.InfoLevel, nil
	case "WARNING", "WARN":
		return zap.WarnLevel, nil
	case "ERROR":
		return zap.ErrorLevel, nil
	case "CRITICAL":
		return zap.DPanicLevel, nil
	}
	return zap.InfoLevel, fmt.Errorf("logger: unknown level %q", s)
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:      "ts",
		LevelKey:     "level",
		NameKey:      "logger",
		MessageKey:   "msg",
		CallerKey:    "caller",
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeLevel:  zapcore.LowercaseLevelEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	}
}
