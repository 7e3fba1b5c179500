package narrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Response kinds a narrator can produce.
const (
	KindNarrative   = "narrative"
	KindCombat      = "combat"
	KindDialogue    = "dialogue"
	KindDescription = "description"
)

// Canned lines used whenever generation is unavailable or fails.
var fallbacks = map[string]string{
	KindNarrative:   "The party continues their journey, staying alert for any signs of activity...",
	KindCombat:      "The battle continues with both sides exchanging blows...",
	KindDialogue:    "The NPC considers your words carefully before responding...",
	KindDescription: "The area appears much as you'd expect for such a location...",
}

const defaultFallback = "The adventure continues..."

var kindPrompts = map[string]string{
	KindNarrative:   "You are a dungeon master narrating a fantasy adventure. Continue the story after this player action, in 2-3 sentences: %s",
	KindCombat:      "You are a dungeon master running a combat encounter. Describe the outcome of this combat action vividly, in 2-3 sentences: %s",
	KindDialogue:    "You are a dungeon master voicing an NPC. Respond in character to the player saying: %s",
	KindDescription: "You are a dungeon master. Describe the scene the player is examining, in 2-3 sentences: %s",
}

// Narrator produces scene text for AI-DM sessions. Implementations
// never fail: when generation is impossible they fall back to canned
// lines.
type Narrator interface {
	Generate(ctx context.Context, action, kind string) string
}

// Fallback returns the canned line for a response kind.
func Fallback(kind string) string {
	if line, ok := fallbacks[kind]; ok {
		return line
	}
	return defaultFallback
}

// Static is a Narrator that only serves canned lines. Used when no API
// key is configured.
type Static struct{}

func (Static) Generate(ctx context.Context, action, kind string) string {
	return Fallback(kind)
}

// Gemini narrates via the Gemini API, degrading to canned lines on any
// error.
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

func NewGemini(ctx context.Context, apiKey, model string, logger *zap.Logger) (*Gemini, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create narration client: %w", err)
	}

	return &Gemini{
		client:  client,
		model:   model,
		timeout: 10 * time.Second,
		logger:  logger,
	}, nil
}

func (g *Gemini) Generate(ctx context.Context, action, kind string) string {
	promptFmt, ok := kindPrompts[kind]
	if !ok {
		return defaultFallback
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(fmt.Sprintf(promptFmt, action)), nil)
	if err != nil {
		g.logger.Warn("narration failed, using fallback",
			zap.String("kind", kind), zap.Error(err))
		return Fallback(kind)
	}

	text, err := result.Text()
	if err != nil || text == "" {
		return Fallback(kind)
	}
	return text
}
