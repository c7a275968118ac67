package extract

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/xxxsen/docqa/internal/config"
)

const (
	defaultGeminiOCRModel = "gemini-2.0-flash"
	geminiOCRPrompt       = `Transcribe all text visible in this image.
- Output ONLY the transcribed text, in reading order.
- Do not describe the image.
- If there is no text, output nothing.`
)

type geminiOCRConfig struct {
	APIKey string `json:"api_key"`
	Model  string `json:"model"`
}

type geminiOCR struct {
	client *genai.Client
	model  string
}

func init() {
	Register("gemini", createGeminiOCR)
}

func createGeminiOCR(args interface{}) (Extractor, error) {
	cfg := &geminiOCRConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	apiKey := config.Resolve(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini extractor api_key is required")
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultGeminiOCRModel
	}
	return &geminiOCR{client: client, model: model}, nil
}

func (e *geminiOCR) Reads(kind Kind) bool {
	return kind == KindImage
}

func (e *geminiOCR) Extract(ctx context.Context, data []byte) (string, error) {
	mime, err := imageMIMEType(data)
	if err != nil {
		return "", err
	}
	resp, err := e.client.Models.GenerateContent(
		ctx,
		e.model,
		[]*genai.Content{{
			Role: "user",
			Parts: []*genai.Part{
				{Text: geminiOCRPrompt},
				{InlineData: &genai.Blob{Data: data, MIMEType: mime}},
			},
		}},
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("gemini ocr: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}
