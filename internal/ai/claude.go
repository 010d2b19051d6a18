package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultClaudeMaxTokens = 2048

type claudeConfig struct {
	APIKey    string `json:"api_key"`
	MaxTokens int    `json:"max_tokens"`
}

type claudeProvider struct {
	client    anthropic.Client
	apiKey    string
	maxTokens int
}

func (p *claudeProvider) Name() string {
	return "claude"
}

func (p *claudeProvider) Generate(ctx context.Context, model string, system string, prompt string) (string, error) {
	if p.apiKey == "" {
		return "", ErrUnavailable
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(p.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, block := range msg.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", fmt.Errorf("claude response has no text content")
	}
	return out, nil
}

func createClaudeFactory(args interface{}) (IAIProvider, error) {
	cfg := &claudeConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultClaudeMaxTokens
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	provider := &claudeProvider{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		apiKey:    apiKey,
		maxTokens: maxTokens,
	}
	return provider, nil
}

func init() {
	Register("claude", createClaudeFactory)
}
