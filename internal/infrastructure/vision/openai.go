package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
)

// OpenAIConfig configures the cloud provider.
type OpenAIConfig struct {
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
	Detail    string `mapstructure:"detail"` // "low" | "high" | "auto"
	// InlineImages embeds the image as a data URL instead of sending a
	// presigned link, for buckets the model cannot reach.
	InlineImages  bool          `mapstructure:"inline_images"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
	MaxImageBytes int64         `mapstructure:"max_image_bytes"`
}

const systemPrompt = `You inspect product photos for counterfeit screening.
Answer with one JSON object and nothing else, using exactly this shape:
{"labels":[{"description":string,"score":0..1}],
 "logos":[{"description":string,"score":0..1}],
 "text":{"content":string,"confidence":0..1},
 "colors":[{"red":0..255,"green":0..255,"blue":0..255,"pixel_fraction":0..1,"score":0..1}],
 "safe_search":{"spoof":"VERY_UNLIKELY"|"UNLIKELY"|"POSSIBLE"|"LIKELY"|"VERY_LIKELY"}}
List at most 10 labels, every visible brand logo, all legible text verbatim, and the 3 dominant colors.
Set spoof to LIKELY or higher only for screenshots, photos of screens or edited images.`

// OpenAIProvider asks a vision-capable chat model for a signature.
type OpenAIProvider struct {
	client *openai.Client
	cfg    OpenAIConfig
	images ImageSource
	logger logging.Logger
}

var _ scan.VisionProvider = (*OpenAIProvider)(nil)

// NewOpenAIProvider builds the provider. images may be nil when image paths
// are already public URLs.
func NewOpenAIProvider(cfg OpenAIConfig, images ImageSource, log logging.Logger) *OpenAIProvider {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4o
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 800
	}
	if cfg.Detail == "" {
		cfg.Detail = string(openai.ImageURLDetailAuto)
	}
	if cfg.PresignExpiry == 0 {
		cfg.PresignExpiry = 10 * time.Minute
	}
	if cfg.MaxImageBytes == 0 {
		cfg.MaxImageBytes = 10 * 1024 * 1024
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		images: images,
		logger: log.Named("vision.openai"),
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

// Analyze sends the image to the model and decodes its JSON answer.
func (p *OpenAIProvider) Analyze(ctx context.Context, imagePath string) (scan.VisionSignature, error) {
	imageURL, err := p.imageURL(ctx, imagePath)
	if err != nil {
		return scan.VisionSignature{}, err
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:          p.cfg.Model,
		MaxTokens:      p.cfg.MaxTokens,
		Temperature:    0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: "Analyse this product photo."},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
						URL:    imageURL,
						Detail: openai.ImageURLDetail(p.cfg.Detail),
					}},
				},
			},
		},
	})
	if err != nil {
		return scan.VisionSignature{}, errors.Wrap(err, errors.ErrCodeVisionUnavailable, "openai vision request failed")
	}
	if len(resp.Choices) == 0 {
		return scan.VisionSignature{}, errors.New(errors.ErrCodeVisionBadResponse, "openai returned no choices")
	}

	p.logger.Debug("openai vision answered",
		logging.String("model", resp.Model),
		logging.Int("total_tokens", resp.Usage.TotalTokens))
	return decodeSignature([]byte(stripFences(resp.Choices[0].Message.Content)), p.Name())
}

func (p *OpenAIProvider) imageURL(ctx context.Context, imagePath string) (string, error) {
	if strings.HasPrefix(imagePath, "https://") || strings.HasPrefix(imagePath, "http://") {
		return imagePath, nil
	}
	if p.images == nil {
		return "", errors.New(errors.ErrCodeFeatureDisabled, "no image source configured for openai vision")
	}
	if !p.cfg.InlineImages {
		u, err := p.images.PresignedURL(ctx, imagePath, p.cfg.PresignExpiry)
		if err != nil {
			return "", err
		}
		return u, nil
	}

	rc, contentType, err := p.images.Open(ctx, imagePath)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, p.cfg.MaxImageBytes+1))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorage, "read scan image")
	}
	if int64(len(data)) > p.cfg.MaxImageBytes {
		return "", errors.New(errors.ErrCodeVisionImageTooLarge, fmt.Sprintf("image exceeds %d bytes", p.cfg.MaxImageBytes))
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// stripFences removes a ```json fence some models wrap around JSON output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

//Personal.AI order the ending
