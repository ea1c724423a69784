// Package generator adapts hosted language models to ports.TextGenerator.
package generator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/wadjakorntonsri/seo-audit-engine/pkg/ports"
)

// ErrEmptyResponse is returned when the model answers without any text block
var ErrEmptyResponse = errors.New("generator returned no text")

type AnthropicConfig struct {
	APIKey    string
	Model     string
	MaxTokens int64
	Timeout   time.Duration
}

// AnthropicGenerator calls the Messages API. The SDK's own retries are
// disabled; retrying is left to callers.
type AnthropicGenerator struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	timeout   time.Duration
}

func NewAnthropicGenerator(cfg AnthropicConfig, opts ...option.RequestOption) *AnthropicGenerator {
	base := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	return &AnthropicGenerator{
		client:    anthropic.NewClient(append(base, opts...)...),
		model:     anthropic.Model(cfg.Model),
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
	}
}

func (g *AnthropicGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	msg, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return b.String(), nil
}

var _ ports.TextGenerator = (*AnthropicGenerator)(nil)
