package tryon

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.5-flash-image"

const prompt = "Show this person naturally wearing this clothing item. " +
	"Maintain pose, lighting and background. Seamless integration."

// ErrNoImage is returned when the model answers without an image part.
var ErrNoImage = errors.New("model returned no image")

// Image is a generated picture.
type Image struct {
	Data     []byte
	MIMEType string
}

// Model renders a person photo wearing a garment.
type Model interface {
	Render(ctx context.Context, person, garment Image) (Image, error)
}

// GeminiModel calls a Gemini image model.
type GeminiModel struct {
	client *genai.Client
	model  string
}

// NewGeminiModel opens a client with an API key.
func NewGeminiModel(ctx context.Context, apiKey, model string) (*GeminiModel, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is not set")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiModel{client: client, model: model}, nil
}

// Close releases the underlying client.
func (g *GeminiModel) Close() error {
	return g.client.Close()
}

// Render sends the prompt with both images and returns the first image part.
func (g *GeminiModel) Render(ctx context.Context, person, garment Image) (Image, error) {
	model := g.client.GenerativeModel(g.model)
	resp, err := model.GenerateContent(ctx,
		genai.Text(prompt),
		genai.ImageData(imageFormat(person.MIMEType), person.Data),
		genai.ImageData(imageFormat(garment.MIMEType), garment.Data),
	)
	if err != nil {
		return Image{}, fmt.Errorf("generate content: %w", err)
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if blob, ok := part.(genai.Blob); ok && len(blob.Data) > 0 {
				return Image{Data: blob.Data, MIMEType: blob.MIMEType}, nil
			}
		}
	}
	return Image{}, ErrNoImage
}

// imageFormat turns "image/png" into the "png" genai.ImageData expects.
func imageFormat(mimeType string) string {
	mimeType, _, _ = strings.Cut(mimeType, ";")
	if f, ok := strings.CutPrefix(mimeType, "image/"); ok && f != "" {
		return f
	}
	return "jpeg"
}
