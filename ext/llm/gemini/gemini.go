package gemini

import (
	"context"
	"strings"

	genai "google.golang.org/genai"

	"github.com/goto/changelogger/internal/errors"
)

const (
	EntityGemini = "gemini"

	DefaultModel = "gemini-2.5-flash"
)

// Client generates text with the Gemini API through the official genai client.
type Client struct {
	cli         *genai.Client
	model       string
	temperature *float32
	maxTokens   int32
}

type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	// Temperature is left to the model default when nil.
	Temperature *float32
	MaxTokens   int
}

func NewClient(ctx context.Context, conf Config) (*Client, error) {
	if conf.APIKey == "" {
		return nil, errors.InvalidArgument(EntityGemini, "api key is empty")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  conf.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if conf.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: conf.BaseURL}
	}

	cli, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, errors.Wrap(EntityGemini, "unable to create genai client", err)
	}

	model := conf.Model
	if model == "" {
		model = DefaultModel
	}

	return &Client{cli: cli, model: model, temperature: conf.Temperature, maxTokens: int32(conf.MaxTokens)}, nil
}

// Generate sends one request with the system prompt as system instruction and returns the text answer.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
		Temperature:       c.temperature,
	}
	if c.maxTokens > 0 {
		config.MaxOutputTokens = c.maxTokens
	}

	resp, err := c.cli.Models.GenerateContent(ctx, c.model, genai.Text(userPrompt), config)
	if err != nil {
		return "", errors.Wrap(EntityGemini, "generate content failed", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.InternalError(EntityGemini, "model returned no text", nil)
	}
	return text, nil
}
