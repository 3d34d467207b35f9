package logger

import (
	"fmt"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	flagLogEncoding = "log-encoding"
	flagLogLevel    = "log-level"
)

var levelStrings = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
}

// Options задаёт формат и уровень логов процесса.
type Options struct {
	LogEncoding string
	LogLevel    string
}

// BindFlags регистрирует флаги логгера в наборе fs.
func (o *Options) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.LogEncoding, flagLogEncoding, "json",
		"Log encoding format. Can be 'json' or 'console'.")
	fs.StringVar(&o.LogLevel, flagLogLevel, "info",
		"Log verbosity level. Can be one of 'debug', 'info', 'warn', 'error'.")
}

// ValidLevel сообщает, знаком ли логгеру уровень level.
func ValidLevel(level string) bool {
	_, ok := levelStrings[level]
	return ok
}

// NewLogger строит zap-логгер с временем в ISO8601.
func NewLogger(opts Options) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Sampling = nil

	switch opts.LogEncoding {
	case "", "json":
		cfg.Encoding = "json"
	case "console":
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	default:
		return nil, fmt.Errorf("unknown log encoding %q", opts.LogEncoding)
	}

	if opts.LogLevel != "" {
		l, ok := levelStrings[opts.LogLevel]
		if !ok {
			return nil, fmt.Errorf("unknown log level %q", opts.LogLevel)
		}
		cfg.Level = zap.NewAtomicLevelAt(l)
	}

	return cfg.Build()
}
