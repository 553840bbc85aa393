package logger

import (
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

var defaultLogger atomic.Pointer[zap.SugaredLogger]

func init() {
	SetLogger(zap.NewNop())
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// InitLogger writes console output to stdout, or JSON lines to filePath when set.
func InitLogger(level, filePath string) error {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	var core zapcore.Core
	if filePath != "" {
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return err
		}
		core = zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(file), parseLevel(level))
	} else {
		core = zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(os.Stdout), parseLevel(level))
	}

	SetLogger(zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)))
	return nil
}

// SetLogger replaces the package logger.
func SetLogger(l *zap.Logger) {
	defaultLogger.Store(l.Sugar())
}

func Sync() {
	_ = defaultLogger.Load().Sync()
}

func Debug(msg string, fields ...interface{}) {
	defaultLogger.Load().Debugw(msg, fields...)
}

func Info(msg string, fields ...interface{}) {
	defaultLogger.Load().Infow(msg, fields...)
}

func Warn(msg string, fields ...interface{}) {
	defaultLogger.Load().Warnw(msg, fields...)
}

func Error(msg string, fields ...interface{}) {
	defaultLogger.Load().Errorw(msg, fields...)
}

// With creates a child logger with fields.
func With(fields ...interface{}) *zap.SugaredLogger {
	return defaultLogger.Load().With(fields...)
}
