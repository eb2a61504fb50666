package gemini

import (
	"context"

	"github.com/tesfayh/ulss9-assistant/internal/core/ports"
)

// Generator adapts the client to the generation ports. Every method is a
// single attempt: the chat and selection paths have their own fallback
// semantics and must not retry.
type Generator struct {
	provider *Provider
}

func NewGenerator(provider *Provider) *Generator {
	return &Generator{provider: provider}
}

func (g *Generator) GenerateGrounded(ctx context.Context, req ports.GroundedRequest) (*ports.GroundedResponse, error) {
	client, err := g.provider.Client()
	if err != nil {
		return nil, err
	}

	text, chunks, err := client.generateContent(ctx, req.Message, generateOptions{
		systemInstruction: req.SystemInstruction,
		storeNames:        req.StoreNames,
		temperature:       req.Temperature,
	})
	if err != nil {
		return nil, err
	}
	return &ports.GroundedResponse{Text: text, Chunks: chunks}, nil
}

func (g *Generator) GenerateFromPrompt(ctx context.Context, prompt string, temperature float64) (string, error) {
	client, err := g.provider.Client()
	if err != nil {
		return "", err
	}
	text, _, err := client.generateContent(ctx, prompt, generateOptions{temperature: temperature})
	return text, err
}

func (g *Generator) GenerateJSONFromPrompt(ctx context.Context, prompt string, schema any, temperature float64) (string, error) {
	client, err := g.provider.Client()
	if err != nil {
		return "", err
	}
	text, _, err := client.generateContent(ctx, prompt, generateOptions{
		temperature: temperature,
		jsonSchema:  schema,
	})
	return text, err
}
