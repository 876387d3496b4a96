package llm

import (
	"context"
	"encoding/base64"
	stderrors "errors"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/scholarshare/scholarshare/pkg/config"
	"github.com/scholarshare/scholarshare/pkg/errors"
)

// OpenAIImageGenerator implements ImageGenerator via the provider's image
// endpoint. Social cards are decorative, so failures here are expected to be
// absorbed by the caller's fallback path.
type OpenAIImageGenerator struct {
	resolve func() config.ModelConfig
	model   string
	timeout time.Duration
}

// NewOpenAIImageGenerator creates an image generator. resolve supplies the
// credentials (the light tier's key is reused for image calls); model is the
// image model name, defaulting to dall-e-3.
func NewOpenAIImageGenerator(resolve func() config.ModelConfig, model string, timeout time.Duration) *OpenAIImageGenerator {
	if model == "" {
		model = "dall-e-3"
	}
	return &OpenAIImageGenerator{resolve: resolve, model: model, timeout: timeout}
}

// GenerateImage implements ImageGenerator.
func (g *OpenAIImageGenerator) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	mc := g.resolve()
	if mc.APIKey == "" {
		return nil, errors.New(errors.ErrCodeCapabilityUnavailable, "no credentials configured for image generation")
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	opts := []option.RequestOption{option.WithAPIKey(mc.APIKey)}
	if mc.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(mc.BaseURL))
	}
	client := openai.NewClient(opts...)

	resp, err := client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          openai.ImageModel(g.model),
		N:              openai.Int(1),
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
	})
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.Wrap(errors.ErrCodeTimeout, err, "image generation timed out")
		}
		return nil, errors.Wrap(errors.ErrCodeProvider, err, "image generation failed")
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, errors.New(errors.ErrCodeProvider, "image generation returned no data")
	}

	png, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeProvider, err, "decode generated image")
	}
	return png, nil
}

// Ensure OpenAIImageGenerator implements ImageGenerator.
var _ ImageGenerator = (*OpenAIImageGenerator)(nil)
