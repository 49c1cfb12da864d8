package config

import (
	"strings"
)

const (
	EmptyPath = ""

	ProviderGithub = "github"
	ProviderGitlab = "gitlab"

	GeneratorGemini = "gemini"
	GeneratorOpenAI = "openai"
)

var (
	BuildVersion = "dev"
	BuildCommit  = ""
	BuildDate    = ""
)

type LogLevel string

const (
	LogLevelDebug   LogLevel = "DEBUG"
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARNING"
	LogLevelError   LogLevel = "ERROR"
	LogLevelFatal   LogLevel = "FATAL"
)

func (l LogLevel) String() string {
	return strings.ToUpper(string(l))
}
