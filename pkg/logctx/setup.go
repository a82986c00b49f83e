package logctx

import (
	"os"

	"github.com/sirupsen/logrus"
)

// ConfigureLambda prepares a logger for Lambda execution: JSON records with
// platform-friendly field names, ambient context merging, and the level
// taken from AWS_LAMBDA_LOG_LEVEL when set.
func ConfigureLambda(logger *logrus.Logger) {
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "timestamp",
			logrus.FieldKeyMsg:  "message",
		},
	})
	logger.AddHook(ContextHook{})
	if raw := os.Getenv("AWS_LAMBDA_LOG_LEVEL"); raw != "" {
		if level, err := logrus.ParseLevel(raw); err == nil {
			logger.SetLevel(level)
		}
	}
}

// ConfigureLocal prepares a logger for local development: human-readable
// output with the same ambient context merging as in Lambda.
func ConfigureLocal(logger *logrus.Logger) {
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.AddHook(ContextHook{})
}
