package claude

import (
	"context"
	"fmt"
	"io"

	"github.com/liushuangls/go-anthropic/v2"

	"potterylog/internal/vision"
)

type ClaudeCaptioner struct {
	client *anthropic.Client
	model  string
}

func NewClaudeCaptioner(apiKey, model string) *ClaudeCaptioner {
	return &ClaudeCaptioner{
		client: anthropic.NewClient(apiKey),
		model:  model,
	}
}

func (c *ClaudeCaptioner) Caption(ctx context.Context, r io.Reader, mimeType string) (*vision.Caption, error) {
	imageData, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model: anthropic.Model(c.model),
		// A single stage|note line is tiny; 256 tokens leaves room for
		// verbose models.
		MaxTokens: 256,
		Messages: []anthropic.Message{{
			Role: anthropic.RoleUser,
			Content: []anthropic.MessageContent{
				anthropic.NewImageMessageContent(anthropic.NewMessageContentSource(
					anthropic.MessagesContentSourceTypeBase64,
					normaliseMIME(mimeType),
					imageData,
				)),
				anthropic.NewTextMessageContent(vision.CaptionPrompt),
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call claude: %w", err)
	}

	caption := vision.ParseCaption(resp.GetFirstContentText())
	if caption == nil {
		return nil, fmt.Errorf("claude returned no usable caption")
	}
	return caption, nil
}

// normaliseMIME maps browser MIME types to the values the Anthropic API
// accepts. Unknown types are coerced to jpeg as the most universally supported
// lossy fallback; callers validate MIME types before reaching this layer.
func normaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
