/*
Package logging wraps zap the way packetd-packetd's logger package does:
a small Options struct decoded from configuration, an optional rotating
file sink via lumberjack, and a thin Logger facade so the rest of
rediskit never imports zap directly.
*/
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level mirrors zapcore's levels without leaking the zapcore type into
// every caller's imports.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

func toZapLevel(l Level) zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Options configures a Logger. Filename left empty disables the
// rotating file sink and logs to stdout only.
type Options struct {
	Level      Level  `config:"level"`
	Stdout     bool   `config:"stdout"`
	Filename   string `config:"filename"`
	MaxSizeMB  int    `config:"maxSize"`
	MaxAgeDays int    `config:"maxAge"`
	MaxBackups int    `config:"maxBackups"`
}

// Logger is the facade every rediskit package logs through.
type Logger struct {
	sugar *zap.SugaredLogger
}

// New builds a Logger from Options, matching packetd-packetd's
// logger.New construction (production encoder, optional lumberjack
// WriteSyncer alongside stdout).
func New(opt Options) Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	var syncers []zapcore.WriteSyncer
	if opt.Stdout || opt.Filename == "" {
		syncers = append(syncers, zapcore.AddSync(os.Stdout))
	}
	if opt.Filename != "" {
		syncers = append(syncers, zapcore.AddSync(&lumberjack.Logger{
			Filename:   opt.Filename,
			MaxSize:    opt.MaxSizeMB,
			MaxAge:     opt.MaxAgeDays,
			MaxBackups: opt.MaxBackups,
		}))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(syncers...), toZapLevel(opt.Level))
	return Logger{sugar: zap.New(core).Sugar()}
}

// Noop returns a Logger that discards everything, for callers (mostly
// tests) that don't want log output.
func Noop() Logger {
	return Logger{sugar: zap.NewNop().Sugar()}
}

func (l Logger) Debugf(template string, args ...any) { l.sugar.Debugf(template, args...) }
func (l Logger) Infof(template string, args ...any)  { l.sugar.Infof(template, args...) }
func (l Logger) Warnf(template string, args ...any)  { l.sugar.Warnf(template, args...) }
func (l Logger) Errorf(template string, args ...any) { l.sugar.Errorf(template, args...) }

// With returns a Logger annotated with structured key/value pairs,
// carried on every subsequent log line (e.g. host="10.0.0.1:6379").
func (l Logger) With(kv ...any) Logger {
	return Logger{sugar: l.sugar.With(kv...)}
}

// Sync flushes any buffered log entries; callers should defer it at
// process shutdown.
func (l Logger) Sync() error {
	return l.sugar.Sync()
}
