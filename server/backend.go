package server

import (
	"context"
	"fmt"

	"github.com/goto/salt/log"

	"github.com/goto/changelogger/config"
	"github.com/goto/changelogger/core/changelog/service"
	"github.com/goto/changelogger/ext/git"
	"github.com/goto/changelogger/ext/git/github"
	"github.com/goto/changelogger/ext/git/gitlab"
	"github.com/goto/changelogger/ext/llm/gemini"
	"github.com/goto/changelogger/ext/llm/openai"
)

// NewGitHost builds the repository host named by the git provider, wrapped with the content cache.
func NewGitHost(l log.Logger, conf config.GitConfig) (git.Host, error) {
	var (
		host git.Host
		err  error
	)

	switch conf.Provider {
	case config.ProviderGithub:
		host, err = github.NewGithub(l, conf.BaseURL, conf.Token)
	case config.ProviderGitlab:
		host, err = gitlab.NewGitlab(conf.BaseURL, conf.Token)
	default:
		return nil, fmt.Errorf("git provider [%s] is not recognized", conf.Provider)
	}
	if err != nil {
		return nil, err
	}

	return git.NewCachedHost(host, conf.CacheSize, conf.CacheTTL), nil
}

// NewTextGenerator builds the text generation backend named by the generator provider.
func NewTextGenerator(ctx context.Context, conf config.GeneratorConfig) (service.TextGenerator, error) {
	temperature := conf.Temperature
	switch conf.Provider {
	case config.GeneratorGemini:
		return gemini.NewClient(ctx, gemini.Config{
			APIKey:      conf.APIKey,
			Model:       conf.Model,
			BaseURL:     conf.BaseURL,
			Temperature: &temperature,
			MaxTokens:   int(conf.MaxTokens),
		})
	case config.GeneratorOpenAI:
		return openai.NewClient(openai.Config{
			APIKey:      conf.APIKey,
			Model:       conf.Model,
			BaseURL:     conf.BaseURL,
			Temperature: &temperature,
			MaxTokens:   int(conf.MaxTokens),
		}, nil)
	default:
		return nil, fmt.Errorf("generator provider [%s] is not recognized", conf.Provider)
	}
}

// ComparisonConfigFrom maps the server configuration to the comparison settings.
func ComparisonConfigFrom(conf *config.ServerConfig) service.ComparisonConfig {
	return service.ComparisonConfig{
		Concurrency:        conf.Compare.Concurrency,
		SummaryBudget:      conf.Summary.MaxChars,
		TreeRetryMax:       conf.Compare.TreeRetryMax,
		TreeRetryBackoffMs: conf.Compare.TreeRetryBackoffMs,
	}
}
