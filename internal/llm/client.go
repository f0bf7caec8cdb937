// Package llm talks to an OpenAI-compatible chat completion service for the
// assistant commands. Analytics commands never touch it; a missing API key
// only fails the chat surface.
package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	clierr "github.com/polkaguardian/guardian-cli/internal/errors"
	"github.com/polkaguardian/guardian-cli/internal/httpx"
)

const (
	DefaultBaseURL     = "https://api.openai.com"
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.3

	// ChatMaxTokens bounds interactive answers; SummaryMaxTokens gives
	// proposal analyses a little more room.
	ChatMaxTokens    = 800
	SummaryMaxTokens = 1000
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Client struct {
	http        *httpx.Client
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	logger      *zap.Logger
}

func New(httpClient *httpx.Client, apiKey, baseURL, model string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:        httpClient,
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		temperature: DefaultTemperature,
		logger:      logger,
	}
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends one chat completion request and returns the first choice.
func (c *Client) Complete(ctx context.Context, messages []Message, maxTokens int) (string, error) {
	if c.apiKey == "" {
		return "", clierr.New(clierr.CodeAuth, "completion service API key is not configured")
	}
	if maxTokens <= 0 {
		maxTokens = ChatMaxTokens
	}

	body, err := json.Marshal(completionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", clierr.Wrap(clierr.CodeInternal, "encode completion request", err)
	}

	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}
	var resp completionResponse
	url := c.baseURL + "/v1/chat/completions"
	if _, err := httpx.DoBodyJSON(ctx, c.http, http.MethodPost, url, body, headers, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", clierr.New(clierr.CodeUpstream, "completion service error: "+resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", clierr.New(clierr.CodeUnavailable, "completion service returned no choices")
	}
	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	c.logger.Debug("completion served", zap.String("model", c.model), zap.Int("answer_len", len(answer)))
	return answer, nil
}
