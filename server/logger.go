package server

import (
	"os"

	"github.com/goto/salt/log"
	"github.com/sirupsen/logrus"

	"github.com/goto/changelogger/config"
)

func NewLogger(level string) log.Logger {
	return log.NewLogrus(
		log.LogrusWithLevel(level),
		log.LogrusWithWriter(os.Stdout),
		log.LogrusWithFormatter(&logrus.JSONFormatter{}),
	)
}

// NewLoggerFrom creates the logger for a loaded configuration, defaulting to info.
func NewLoggerFrom(conf config.LogConfig) log.Logger {
	level := conf.Level.String()
	if level == "" {
		level = config.LogLevelInfo.String()
	}
	return NewLogger(level)
}
