package config

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "CHANGELOGGER"
	configFileName = "config"
	configFileType = "yaml"
)

// LoadServerConfig reads the server configuration from filePath, or from ./config.yaml when
// filePath is empty. Values in a local .env file and CHANGELOGGER_ prefixed environment
// variables override the file.
func LoadServerConfig(filePath string) (*ServerConfig, error) {
	// a missing .env is not an error
	_ = godotenv.Load()

	v := viper.New()
	// env overrides only apply to keys viper knows about
	for key, value := range defaultsOf() {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if filePath != EmptyPath {
		v.SetConfigFile(filePath)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if filePath != EmptyPath || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	conf := &ServerConfig{}
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(conf, hooks); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Validate checks the values that have no usable default.
func (c *ServerConfig) Validate() error {
	if err := validation.ValidateStruct(&c.Git,
		validation.Field(&c.Git.Provider, validation.Required, validation.In(ProviderGithub, ProviderGitlab)),
		validation.Field(&c.Git.CacheSize, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("git: %w", err)
	}

	if err := validation.ValidateStruct(&c.Generator,
		validation.Field(&c.Generator.Provider, validation.Required, validation.In(GeneratorGemini, GeneratorOpenAI)),
		validation.Field(&c.Generator.Temperature, validation.Min(float32(0)), validation.Max(float32(2))),
	); err != nil {
		return fmt.Errorf("generator: %w", err)
	}

	return validation.ValidateStruct(&c.Compare,
		validation.Field(&c.Compare.Concurrency, validation.Min(1)),
		validation.Field(&c.Compare.ContextRadius, validation.Min(0)),
		validation.Field(&c.Compare.TreeRetryMax, validation.Min(1)),
	)
}

// RequireDB reports whether the database settings needed by serve and migrate are present.
func (c *ServerConfig) RequireDB() error {
	return validation.ValidateStruct(&c.Serve.DB,
		validation.Field(&c.Serve.DB.DSN, validation.Required),
	)
}

func defaultsOf() map[string]any {
	return map[string]any{
		"log.level":                     string(LogLevelInfo),
		"serve.port":                    8080,
		"serve.request_timeout":         "2m",
		"serve.db.dsn":                  "",
		"serve.db.min_open_connection":  5,
		"serve.db.max_open_connection":  20,
		"git.provider":                  ProviderGithub,
		"git.base_url":                  "",
		"git.token":                     "",
		"git.cache_size":                1024,
		"git.cache_ttl":                 "10m",
		"generator.provider":            GeneratorGemini,
		"generator.model":               "",
		"generator.api_key":             "",
		"generator.base_url":            "",
		"generator.temperature":         0.3,
		"generator.max_tokens":          2048,
		"summary.max_chars":             12000,
		"compare.concurrency":           10,
		"compare.context_radius":        3,
		"compare.tree_retry_max":        3,
		"compare.tree_retry_backoff_ms": 500,
		"telemetry.jaeger_addr":         "",
	}
}
