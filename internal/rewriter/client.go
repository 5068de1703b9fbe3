// Package rewriter calls an OpenAI-compatible chat completions API to turn
// a raw chat message into delimited reminder statements.
package rewriter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"telegram-reminder-bot/internal/calendar"
	"telegram-reminder-bot/internal/models"
	"telegram-reminder-bot/internal/splitter"
)

type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Separator   string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     zerolog.Logger
}

func New(cfg Config, logger zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Separator == "" {
		cfg.Separator = splitter.DefaultSeparator
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 500
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Rewrite sends raw together with the calendar window and returns the
// model's reply. Every failure is a *models.RewriteError.
func (c *Client) Rewrite(ctx context.Context, raw string, w calendar.Window) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt(w, c.cfg.Separator)},
			{Role: "user", Content: raw},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", &models.RewriteError{Reason: "marshal request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &models.RewriteError{Reason: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	c.logger.Debug().Str("model", c.cfg.Model).Int("chars", len(raw)).Msg("rewrite request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &models.RewriteError{Reason: "request", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &models.RewriteError{Reason: "read response", Err: err}
	}

	var out chatResponse
	decodeErr := json.Unmarshal(respBody, &out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(respBody))
		if decodeErr == nil && out.Error != nil {
			msg = out.Error.Message
		}
		return "", &models.RewriteError{Reason: fmt.Sprintf("status %d", resp.StatusCode), Err: fmt.Errorf("%s", msg)}
	}
	if decodeErr != nil {
		return "", &models.RewriteError{Reason: "decode response", Err: decodeErr}
	}
	if len(out.Choices) == 0 {
		return "", &models.RewriteError{Reason: "no choices in response"}
	}

	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", &models.RewriteError{Reason: "empty reply"}
	}
	c.logger.Debug().Str("finish_reason", out.Choices[0].FinishReason).Msg("rewrite response")
	return text, nil
}
