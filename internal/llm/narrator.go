package llm

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ppiankov/carbontally/internal/cache"
	"github.com/ppiankov/carbontally/internal/model"
)

// replyTTL bounds how long a generated reply is reused
const replyTTL = 24 * time.Hour

// Availability results are reused for a while. A failed check is retried
// sooner than a passed one is repeated.
const (
	availTTL     = 5 * time.Minute
	availRetry   = 30 * time.Second
	availTimeout = 5 * time.Second
)

// Narration is the outcome of one reply attempt
type Narration struct {
	Enabled  bool
	Provider string
	Model    string
	Text     string
	Cached   bool
	Warnings []string
}

// Narrator wraps a provider with availability checks, sanitising and a
// reply cache. It never returns an error: failures become warnings.
type Narrator struct {
	provider Provider
	config   Config
	cache    cache.Cache

	mu        sync.Mutex
	checkedAt time.Time
	available bool
	now       func() time.Time
}

// NewNarrator creates a narrator from configuration. A nil cache disables
// memoization.
func NewNarrator(config Config, c cache.Cache) (*Narrator, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}
	return NewNarratorWithProvider(provider, config, c), nil
}

// NewNarratorWithProvider creates a narrator around an existing provider
func NewNarratorWithProvider(provider Provider, config Config, c cache.Cache) *Narrator {
	if c == nil {
		c = cache.NopCache{}
	}
	return &Narrator{provider: provider, config: config, cache: c, now: time.Now}
}

// IsEnabled reports whether a provider is configured
func (n *Narrator) IsEnabled() bool {
	return n != nil && n.provider != nil
}

// ProviderName returns the configured provider name, or ""
func (n *Narrator) ProviderName() string {
	if !n.IsEnabled() {
		return ""
	}
	return n.provider.Name()
}

// Narrate generates a reply for recorded activities. It returns nil when
// no provider is configured.
func (n *Narrator) Narrate(ctx context.Context, acts []model.ParsedActivity, total float64) *Narration {
	if !n.IsEnabled() {
		return nil
	}

	out := &Narration{Provider: n.provider.Name(), Model: n.config.Model}

	if !n.isAvailable() {
		out.Warnings = append(out.Warnings, fmt.Sprintf("LLM provider %s is not available", out.Provider))
		return out
	}
	out.Enabled = true

	key := replyKey(out.Provider, n.config.Model, acts, total)
	if cached, ok := n.cache.Get(key); ok {
		text := string(cached)
		if VerifyFigures(text, acts, total) == nil {
			out.Text = text
			out.Cached = true
			return out
		}
		_ = n.cache.Delete(key)
	}

	resp, err := n.provider.Reply(ctx, ReplyRequest{
		Activities: acts,
		Total:      total,
		Model:      n.config.Model,
		MaxTokens:  n.config.MaxTokens,
	})
	if err != nil {
		log.Warn().Err(err).Str("provider", out.Provider).Msg("reply generation failed")
		out.Warnings = append(out.Warnings, fmt.Sprintf("Reply generation failed: %v", err))
		return out
	}

	text := PlainText(resp.Text)
	if err := VerifyFigures(text, acts, total); err != nil {
		log.Warn().Err(err).Str("provider", out.Provider).Msg("reply discarded")
		out.Warnings = append(out.Warnings, fmt.Sprintf("Reply discarded: %v", err))
		return out
	}
	if text == "" {
		out.Warnings = append(out.Warnings, "Reply was empty")
		return out
	}

	out.Text = text
	if resp.Model != "" {
		out.Model = resp.Model
	}
	if resp.TokensUsed > 0 {
		out.Warnings = append(out.Warnings, fmt.Sprintf("Tokens used: %d", resp.TokensUsed))
	}

	if err := n.cache.Set(key, []byte(text), replyTTL); err != nil {
		log.Debug().Err(err).Msg("reply cache write failed")
	}
	return out
}

// isAvailable checks the provider on its own deadline so a cancelled
// request cannot mark it unavailable for later callers
func (n *Narrator) isAvailable() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	ttl := availRetry
	if n.available {
		ttl = availTTL
	}
	if !n.checkedAt.IsZero() && now.Sub(n.checkedAt) < ttl {
		return n.available
	}

	ctx, cancel := context.WithTimeout(context.Background(), availTimeout)
	defer cancel()
	n.available = n.provider.IsAvailable(ctx)
	n.checkedAt = now
	return n.available
}

// TextOrEmpty returns the reply text, or "" for a nil narration
func (r *Narration) TextOrEmpty() string {
	if r == nil {
		return ""
	}
	return r.Text
}

// replyKey identifies a reply by the activities it describes
func replyKey(provider, model string, acts []model.ParsedActivity, total float64) string {
	parts := []string{"reply", provider, model, strconv.FormatFloat(total, 'f', 2, 64)}
	for _, a := range acts {
		parts = append(parts, a.Activity, string(a.Category), strconv.FormatFloat(a.CO2, 'f', 6, 64))
	}
	return cache.CacheKey(parts...)
}
