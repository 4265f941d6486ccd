package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient completes chats with a Gemini model.
type GeminiClient struct {
	Client    *genai.Client
	ModelName string
}

func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &GeminiClient{Client: client, ModelName: modelName}, nil
}

func (g *GeminiClient) Close() error {
	return g.Client.Close()
}

func (g *GeminiClient) Complete(ctx context.Context, messages []Message, jsonMode bool) (string, error) {
	// 1. Configure the model for this request
	model := g.Client.GenerativeModel(g.ModelName)
	model.SetTemperature(0.3)
	if jsonMode {
		model.ResponseMIMEType = "application/json"
	}

	// 2. System turns become the system instruction, the rest become history
	var system []string
	var turns []Message
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(strings.Join(system, "\n\n"))},
		}
	}
	if len(turns) == 0 {
		return "", fmt.Errorf("gemini: no user message")
	}

	cs := model.StartChat()
	for _, m := range turns[:len(turns)-1] {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}

	// 3. Send the final turn
	res, err := cs.SendMessage(ctx, genai.Text(turns[len(turns)-1].Content))
	if err != nil {
		return "", fmt.Errorf("error sending message: %w", err)
	}

	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}
	var b strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return b.String(), nil
}
