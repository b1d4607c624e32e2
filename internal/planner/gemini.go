package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/wolfman30/ai-receptionist/pkg/logging"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

const plannerSlowThreshold = 3 * time.Second

// Generator produces a raw JSON plan from a system instruction, prior
// transcript and the latest caller text.
type Generator interface {
	Generate(ctx context.Context, system string, history []Message, latest string) (string, error)
}

// LLMPlanner asks a language model for the next action.
type LLMPlanner struct {
	gen          Generator
	businessName string
	logger       *logging.Logger
}

// NewLLMPlanner wraps a Generator.
func NewLLMPlanner(gen Generator, businessName string, logger *logging.Logger) *LLMPlanner {
	if gen == nil {
		panic("planner: generator required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LLMPlanner{gen: gen, businessName: businessName, logger: logger}
}

// Plan sends the transcript and captured state to the model and decodes its
// JSON decision.
func (p *LLMPlanner) Plan(ctx context.Context, req Request) (Plan, error) {
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}
	system := SystemPrompt(p.businessName, now) + "\n\n" + statePrompt(req)

	history := req.History
	latest := ""
	if n := len(history); n > 0 && history[n-1].Role == RoleCaller {
		latest = history[n-1].Text
		history = history[:n-1]
	}

	started := time.Now()
	raw, err := p.gen.Generate(ctx, system, history, latest)
	p.logger.CallCompleted("planner", "plan", started, err, "messages", len(req.History))
	p.logger.SlowCall("planner.plan", time.Since(started), plannerSlowThreshold)
	if err != nil {
		return Plan{}, fmt.Errorf("planner: generate: %w", err)
	}
	return ParsePlan(raw)
}

// GeminiGenerator implements Generator with Google's Gemini API.
type GeminiGenerator struct {
	client  *genai.Client
	modelID string
}

// NewGeminiGenerator creates a Gemini-backed generator.
func NewGeminiGenerator(ctx context.Context, apiKey, modelID string) (*GeminiGenerator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("planner: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("planner: failed to create gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, modelID: modelID}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, system string, history []Message, latest string) (string, error) {
	model := g.client.GenerativeModel(g.modelID)
	model.SetTemperature(0.3)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = genai.NewUserContent(genai.Text(system))

	cs := model.StartChat()
	for _, msg := range history {
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			continue
		}
		role := "user"
		if msg.Role == RoleAssistant {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(text)}})
	}
	if strings.TrimSpace(latest) == "" {
		latest = "(no speech detected)"
	}

	resp, err := cs.SendMessage(ctx, genai.Text(latest))
	if err != nil {
		return "", fmt.Errorf("planner: gemini completion failed: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("planner: gemini returned no candidates")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("planner: gemini returned empty content")
	}
	var out strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out.WriteString(string(text))
		}
	}
	return out.String(), nil
}

// Close releases the Gemini client.
func (g *GeminiGenerator) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
