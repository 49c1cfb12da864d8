package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goto/changelogger/internal/errors"
)

const (
	EntityOpenAI = "openai"

	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"

	defaultTimeout = 60 * time.Second
)

type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	// Temperature is left to the backend default when nil.
	Temperature *float32
	MaxTokens   int
}

// Client is a minimal client for OpenAI compatible chat completion APIs.
type Client struct {
	apiKey      string
	model       string
	baseURL     string
	temperature *float32
	maxTokens   int
	httpClient  *http.Client
}

func NewClient(conf Config, httpClient *http.Client) (*Client, error) {
	if conf.APIKey == "" {
		return nil, errors.InvalidArgument(EntityOpenAI, "api key is empty")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	c := &Client{
		apiKey:      conf.APIKey,
		model:       conf.Model,
		baseURL:     strings.TrimSuffix(conf.BaseURL, "/"),
		temperature: conf.Temperature,
		maxTokens:   conf.MaxTokens,
		httpClient:  httpClient,
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	return c, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature *float32  `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends the system and user prompts as one chat completion request and returns the answer.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", errors.Wrap(EntityOpenAI, "unable to marshal chat request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(EntityOpenAI, "unable to build chat request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(EntityOpenAI, "chat request failed", err)
	}
	defer resp.Body.Close()

	var parsed chatResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&parsed)

	if resp.StatusCode >= http.StatusBadRequest {
		msg := fmt.Sprintf("chat request responded with status %s", resp.Status)
		if decodeErr == nil && parsed.Error != nil {
			msg += ": " + parsed.Error.Message
		}
		return "", errors.InternalError(EntityOpenAI, msg, nil)
	}
	if decodeErr != nil {
		return "", errors.Wrap(EntityOpenAI, "unable to decode chat response", decodeErr)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.InternalError(EntityOpenAI, "chat response has no choices", nil)
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
