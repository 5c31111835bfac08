// Package llm generates the optional conversational reply shown next to a
// logged activity. Replies are cosmetic: CO2 values are computed and stored
// before any provider is called, and no reply can change them.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/carbontally/internal/emission"
	"github.com/ppiankov/carbontally/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Reply generates a short reply about logged activities
	Reply(ctx context.Context, req ReplyRequest) (*ReplyResponse, error)

	// IsAvailable checks if the provider is configured and reachable
	IsAvailable(ctx context.Context) bool
}

// ReplyRequest contains the input for reply generation
type ReplyRequest struct {
	// Activities are the interpreted activities, already recorded
	Activities []model.ParsedActivity

	// Total is the user's running total after recording
	Total float64

	// Prompt overrides the default prompt when set
	Prompt string

	// Model overrides the configured model when set
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// ReplyResponse contains the generated reply
type ReplyResponse struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints
	BaseURL string

	// Timeout for API requests in seconds
	Timeout int

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   30,
		MaxTokens: 120,
	}
}

// systemPrompt frames every provider call
const systemPrompt = "You are a friendly carbon footprint coach. Reply in one or two short plain-text sentences."

// BuildPrompt constructs the default reply prompt. The computed figures are
// given verbatim and the model is told not to restate any other number.
func BuildPrompt(acts []model.ParsedActivity, total float64) string {
	var b strings.Builder

	b.WriteString("The user just logged these activities. The CO2 figures are final and already saved.\n\n")
	for _, a := range acts {
		if a.IsUnknown() {
			b.WriteString("- (unrecognized activity)\n")
			continue
		}
		verb := "emitted"
		if a.Saved() {
			verb = "saved"
		}
		fmt.Fprintf(&b, "- %s: %s %s, %s %s kg CO2\n",
			a.Activity, emission.FormatQuantity(a.Quantity), a.Unit, verb, emission.FormatKg(a.CO2))
	}

	direction := "net emitted"
	if total >= 0 {
		direction = "net saved"
	}
	fmt.Fprintf(&b, "\nRunning total: %s %s kg CO2.\n\n", direction, emission.FormatKg(total))

	b.WriteString("RULES:\n")
	b.WriteString("1. Do not recompute, round differently, or invent any CO2 figure.\n")
	b.WriteString("2. If you mention a number, copy it exactly from above.\n")
	b.WriteString("3. Offer one concrete, encouraging tip related to the activities.\n")
	if allUnknown(acts) {
		b.WriteString("4. Nothing was recognized: suggest phrasing like 'drove 5 km' or 'used 2 kWh electricity'.\n")
	}

	return b.String()
}

func allUnknown(acts []model.ParsedActivity) bool {
	for _, a := range acts {
		if !a.IsUnknown() {
			return false
		}
	}
	return true
}

func resolveMaxTokens(req ReplyRequest, config Config) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if config.MaxTokens > 0 {
		return config.MaxTokens
	}
	return 120
}

func resolvePrompt(req ReplyRequest) string {
	if req.Prompt != "" {
		return req.Prompt
	}
	return BuildPrompt(req.Activities, req.Total)
}
