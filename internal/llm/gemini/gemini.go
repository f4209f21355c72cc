// Package gemini is the Gemini provider for llm.Client.
package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"

	genai "google.golang.org/genai"

	"github.com/batpad/ll-html/internal/llm"
)

// Client is a thin wrapper around the official genai client. It only makes
// the API call; retries and rate limiting are layered by the llm package.
type Client struct {
	cli   *genai.Client
	model string
}

// New creates a Gemini client. An empty apiKey lets genai read GEMINI_API_KEY.
func New(ctx context.Context, apiKey, model string) (*Client, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &Client{cli: cli, model: model}, nil
}

func (g *Client) Name() string { return "gemini:" + g.model }
func (g *Client) Close() error { return nil }

// Complete asks for application/json output bounded by req.MaxOutputTokens.
func (g *Client) Complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	if req.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxOutputTokens)
	}
	if strings.TrimSpace(req.System) != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: req.Prompt}}}},
		cfg,
	)
	if err != nil {
		return llm.Completion{}, classify(err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return llm.Completion{}, llm.ErrEmptyResponse
	}
	var text strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			text.WriteString(p.Text)
		}
	}
	if text.Len() == 0 {
		return llm.Completion{}, llm.ErrEmptyResponse
	}
	out := llm.Completion{Text: text.String(), Model: g.model}
	if u := resp.UsageMetadata; u != nil {
		out.InputTokens = int(u.PromptTokenCount)
		out.OutputTokens = int(u.CandidatesTokenCount)
	}
	return out, nil
}

// classify maps genai failures onto llm error types. genai formats API
// errors as "Error <code>, Message: ..., Status: ...".
func classify(err error) error {
	code := 0
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		code = apiErr.Code
	} else {
		msg := err.Error()
		switch {
		case strings.Contains(msg, "Error 429") || strings.Contains(msg, "RESOURCE_EXHAUSTED"):
			code = http.StatusTooManyRequests
		case strings.Contains(msg, "Error 400"), strings.Contains(msg, "Error 401"), strings.Contains(msg, "Error 403"):
			code = http.StatusBadRequest
		}
	}
	switch code {
	case http.StatusTooManyRequests:
		return &llm.RateLimitError{Err: err}
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return llm.NewPermanentError(err)
	}
	return err
}
