package logger

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/goto/salt/log"
	"github.com/sirupsen/logrus"

	"github.com/goto/changelogger/config"
)

// plainFormatter prints the message followed by its fields, without timestamp or level.
type plainFormatter struct{}

func (*plainFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var sb strings.Builder
	sb.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, entry.Data[k])
	}

	sb.WriteByte('\n')
	return []byte(sb.String()), nil
}

// NewClientLogger creates a logger for command line output.
func NewClientLogger() log.Logger {
	return NewClientLoggerWithLevel(config.LogLevelInfo)
}

func NewClientLoggerWithLevel(level config.LogLevel) log.Logger {
	if level == "" {
		level = config.LogLevelInfo
	}
	return log.NewLogrus(
		log.LogrusWithLevel(level.String()),
		log.LogrusWithWriter(os.Stderr),
		log.LogrusWithFormatter(new(plainFormatter)),
	)
}
