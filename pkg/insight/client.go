package insight

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Config holds the API settings for the SDK-backed generator.
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int64
}

// sdkGenerator implements Generator using the official anthropic-sdk-go.
type sdkGenerator struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

// NewGenerator creates a Generator backed by the Anthropic API.
func NewGenerator(cfg Config) Generator {
	return &sdkGenerator{
		client: sdk.NewClient(
			option.WithAPIKey(cfg.APIKey),
		),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

func (g *sdkGenerator) Generate(ctx context.Context, sum Summary) (string, error) {
	prompt := BuildPrompt(sum)

	msg, err := g.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(g.model),
		MaxTokens: g.maxTokens,
		System:    []sdk.TextBlockParam{{Text: systemPrompt}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "insight: create message")
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", eris.New("insight: empty model response")
	}

	zap.L().Debug("insight generated",
		zap.String("dataset", sum.DatasetName),
		zap.String("model", g.model),
		zap.Int64("input_tokens", msg.Usage.InputTokens),
		zap.Int64("output_tokens", msg.Usage.OutputTokens),
	)
	return text, nil
}
