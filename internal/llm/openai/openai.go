// Package openai calls OpenAI-compatible chat completion APIs (OpenAI, Groq).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/batpad/ll-html/internal/llm"
)

const (
	OpenAIURL = "https://api.openai.com/v1/chat/completions"
	GroqURL   = "https://api.groq.com/openai/v1/chat/completions"
)

// Client requests JSON objects from a chat completions endpoint.
type Client struct {
	http    *http.Client
	apiKey  string
	model   string
	baseURL string
	label   string
}

// New creates a client. An empty baseURL targets OpenAI; a nil httpClient
// uses a 60s timeout client.
func New(baseURL, apiKey, model string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = OpenAIURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	label := "openai"
	if strings.Contains(baseURL, "groq.com") {
		label = "groq"
	}
	return &Client{http: httpClient, apiKey: apiKey, model: model, baseURL: baseURL, label: label}
}

func (c *Client) Name() string { return c.label + ":" + c.model }
func (c *Client) Close() error { return nil }

type chatReq struct {
	Model          string            `json:"model"`
	Messages       []message         `json:"messages"`
	Temperature    float32           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResp struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Complete sends the system and user prompt and returns the message content.
func (c *Client) Complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	msgs := make([]message, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		msgs = append(msgs, message{Role: "system", Content: req.System})
	}
	msgs = append(msgs, message{Role: "user", Content: req.Prompt})
	body, err := json.Marshal(chatReq{
		Model:          c.model,
		Messages:       msgs,
		Temperature:    0.2,
		MaxTokens:      req.MaxOutputTokens,
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		return llm.Completion{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return llm.Completion{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return llm.Completion{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		err := fmt.Errorf("%s: unexpected status %s: %s", c.label, resp.Status, string(raw))
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return llm.Completion{}, &llm.RateLimitError{RetryAfter: retryAfter(resp.Header.Get("Retry-After")), Err: err}
		case resp.StatusCode == http.StatusBadRequest && strings.Contains(string(raw), "context_length_exceeded"):
			return llm.Completion{}, llm.NewPermanentError(err)
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return llm.Completion{}, llm.NewPermanentError(err)
		}
		return llm.Completion{}, err
	}

	var out chatResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return llm.Completion{}, err
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return llm.Completion{}, llm.ErrEmptyResponse
	}
	return llm.Completion{
		Text:         out.Choices[0].Message.Content,
		Model:        firstNonEmpty(out.Model, c.model),
		InputTokens:  out.Usage.PromptTokens,
		OutputTokens: out.Usage.CompletionTokens,
	}, nil
}

// retryAfter parses delta-seconds or an HTTP date.
func retryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second))
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
