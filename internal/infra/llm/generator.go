// Package llm adapts a hosted language model to the app.Generator
// interface. Output is raw text; validation lives with the caller.
package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generator produces quiz content through a langchaingo-backed model.
type Generator struct {
	model llms.Model
}

func New(token, model string) (*Generator, error) {
	opts := []openai.Option{openai.WithToken(token)}
	if model != "" {
		opts = append(opts, openai.WithModel(model))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init llm: %w", err)
	}
	return &Generator{model: llm}, nil
}

// NewWithModel wraps an existing model; used by tests with a fake.
func NewWithModel(model llms.Model) *Generator {
	return &Generator{model: model}
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return out, nil
}
