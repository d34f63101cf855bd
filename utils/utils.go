package utils

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func AddToLogMessage(logMessagesBuilder *strings.Builder, strToAdd string) {

	if logMessagesBuilder.Len() == logMessagesBuilder.Cap() {

		logMessagesBuilder.Grow(len(strToAdd))
	}

	logMessagesBuilder.WriteString(strToAdd)
	logMessagesBuilder.WriteString(";")
	logMessagesBuilder.WriteString("\n")
}

// FlushLogMessage writes a handler's accumulated log trail as one entry.
func FlushLogMessage(logger *zap.Logger, logMessagesBuilder *strings.Builder) {
	if logMessagesBuilder.Len() == 0 {
		return
	}
	logger.Info("request trail", zap.String("trail", logMessagesBuilder.String()))
}

// NewLogger builds the process logger. Production emits JSON at info level; every other
// environment logs at debug level.
func NewLogger(env string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if env != "prod" {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		config.Development = true
	}
	return config.Build()
}
