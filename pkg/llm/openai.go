package llm

import (
	"context"
	stderrors "errors"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/scholarshare/scholarshare/pkg/config"
	"github.com/scholarshare/scholarshare/pkg/errors"
	"github.com/scholarshare/scholarshare/pkg/observability"
)

// TierResolver maps a tier to its current model configuration. Resolution
// happens per call so runtime credential overrides take effect immediately.
type TierResolver func(tier Tier) config.ModelConfig

// OpenAIClient implements Client using the official openai-go SDK
// (chat completions). One client serves all tiers; the resolver supplies
// per-tier credentials.
type OpenAIClient struct {
	resolve TierResolver
	timeout time.Duration
}

// NewOpenAIClient creates a client. timeout bounds each completion call;
// zero means no bound.
func NewOpenAIClient(resolve TierResolver, timeout time.Duration) *OpenAIClient {
	return &OpenAIClient{resolve: resolve, timeout: timeout}
}

// Complete implements Client.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	mc := c.resolve(req.Tier)
	if !mc.Configured() {
		return "", errors.New(errors.ErrCodeCapabilityUnavailable,
			"no credentials configured for %s model tier", req.Tier)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	opts := []option.RequestOption{option.WithAPIKey(mc.APIKey)}
	if mc.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(mc.BaseURL))
	}
	client := openai.NewClient(opts...)

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, toOpenAIMessage(m))
	}

	start := time.Now()
	observability.Completion().OnCompletionStart(ctx, string(req.Tier))

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(mc.Model),
		Messages:    msgs,
		Temperature: openai.Float(req.Temperature),
	})
	observability.Completion().OnCompletionComplete(ctx, string(req.Tier), time.Since(start), err)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return "", errors.Wrap(errors.ErrCodeTimeout, err, "%s completion timed out", req.Tier)
		}
		return "", errors.Wrap(errors.ErrCodeProvider, err, "%s completion failed", req.Tier)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(errors.ErrCodeProvider, "%s completion returned no choices", req.Tier)
	}
	return resp.Choices[0].Message.Content, nil
}

// toOpenAIMessage converts a Message to the SDK union type. Multi-part user
// messages carry both text and inline image parts for vision models.
func toOpenAIMessage(m Message) openai.ChatCompletionMessageParamUnion {
	switch m.Role {
	case RoleSystem:
		return openai.SystemMessage(joinText(m))
	case RoleAssistant:
		return openai.AssistantMessage(joinText(m))
	default:
		if hasImage(m) {
			parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(m.Parts))
			for _, p := range m.Parts {
				if p.ImageURL != "" {
					parts = append(parts, openai.ImageContentPart(
						openai.ChatCompletionContentPartImageImageURLParam{URL: p.ImageURL}))
				} else {
					parts = append(parts, openai.TextContentPart(p.Text))
				}
			}
			return openai.UserMessage(parts)
		}
		return openai.UserMessage(joinText(m))
	}
}

func joinText(m Message) string {
	var out string
	for _, p := range m.Parts {
		if p.Text != "" {
			if out != "" {
				out += "\n"
			}
			out += p.Text
		}
	}
	return out
}

func hasImage(m Message) bool {
	for _, p := range m.Parts {
		if p.ImageURL != "" {
			return true
		}
	}
	return false
}

// Ensure OpenAIClient implements Client.
var _ Client = (*OpenAIClient)(nil)
