package provider

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/batpad/ll-html/internal/config"
	"github.com/batpad/ll-html/internal/llm"
)

func TestNewFake(t *testing.T) {
	c, err := New(context.Background(), config.ModelConfig{Provider: "fake"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Name() != "fake" {
		t.Fatalf("Name = %q", c.Name())
	}
	out, err := c.Complete(context.Background(), llm.Request{Purpose: llm.PurposeReasoning})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out.Text == "" {
		t.Fatalf("empty completion")
	}
}

func TestNewGroqName(t *testing.T) {
	c, err := New(context.Background(), config.ModelConfig{Provider: "groq", Name: "llama"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Name() != "groq:llama" {
		t.Fatalf("Name = %q", c.Name())
	}
}

func TestNewUnknown(t *testing.T) {
	if _, err := New(context.Background(), config.ModelConfig{Provider: "nope"}, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}
