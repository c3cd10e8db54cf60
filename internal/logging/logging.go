package logging

import (
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Setup configures the global logrus logger: JSON lines in production,
// timestamped text otherwise. An unknown level falls back to info.
func Setup(level string, isProd bool) {
	if isProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.WithField("level", level).Warn("Unknown log level, using info")
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}
