// Package pipeline wires interpretation, persistence and the optional
// reply generator into the single "log an activity" operation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ppiankov/carbontally/internal/cache"
	"github.com/ppiankov/carbontally/internal/interpret"
	"github.com/ppiankov/carbontally/internal/ledger"
	"github.com/ppiankov/carbontally/internal/llm"
	"github.com/ppiankov/carbontally/internal/model"
	"github.com/ppiankov/carbontally/internal/worker"
)

// ErrEmptyPrompt is returned for prompts that are blank after trimming
var ErrEmptyPrompt = errors.New("empty prompt")

// Pipeline orchestrates interpret -> record -> narrate
type Pipeline struct {
	interp   *interpret.Interpreter
	store    *ledger.Store
	narrator *llm.Narrator // nil when replies are disabled
}

// New assembles a pipeline from its parts
func New(interp *interpret.Interpreter, store *ledger.Store, narrator *llm.Narrator) *Pipeline {
	if interp == nil {
		interp = interpret.NewDefault()
	}
	return &Pipeline{interp: interp, store: store, narrator: narrator}
}

// NewPipeline opens the ledger and builds the reply generator described by
// cfg. A misconfigured LLM provider only disables replies.
func NewPipeline(ctx context.Context, cfg *model.Config) (*Pipeline, error) {
	store, err := ledger.Open(ctx, cfg.Ledger.Path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	var narrator *llm.Narrator
	if cfg.LLM.Provider != "" {
		n, err := llm.NewNarrator(llm.ConfigFromModel(cfg.LLM), cache.New(cfg.Cache))
		if err != nil {
			log.Warn().Err(err).Msg("LLM replies disabled")
		} else {
			narrator = n
		}
	}

	return New(interpret.New(nil, cfg.Interpreter.FuzzyCutoff), store, narrator), nil
}

// Close releases the ledger
func (p *Pipeline) Close() error {
	if p.store == nil {
		return nil
	}
	return p.store.Close()
}

// Ledger exposes the underlying store for read-only views
func (p *Pipeline) Ledger() *ledger.Store {
	return p.store
}

// Interpret interprets text without recording it
func (p *Pipeline) Interpret(text string) []model.ParsedActivity {
	return p.interp.Interpret(text)
}

// LogResult is the outcome of one logged prompt
type LogResult struct {
	UserID     string                 `json:"user_id"`
	Prompt     string                 `json:"prompt"`
	Activities []model.ParsedActivity `json:"activities"`
	Delta      float64                `json:"co2"`       // Signed CO2 of this prompt
	Total      float64                `json:"total_co2"` // User total after recording
	Message    string                 `json:"message"`
	Reply      string                 `json:"reply"`
	Narration  *llm.Narration         `json:"-"`
}

// Record interprets and persists a prompt without generating a reply
func (p *Pipeline) Record(ctx context.Context, userID, prompt string) (*LogResult, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	// 1. Interpret
	acts := p.interp.Interpret(prompt)

	// 2. Persist
	total, err := p.store.Record(ctx, userID, prompt, acts)
	if err != nil {
		return nil, fmt.Errorf("record activities: %w", err)
	}

	message := Message(acts)
	return &LogResult{
		UserID:     userID,
		Prompt:     prompt,
		Activities: acts,
		Delta:      interpret.Total(acts),
		Total:      total,
		Message:    message,
		Reply:      message,
	}, nil
}

// Log records a prompt and then asks for a reply. The reply is generated
// after recording and its failure never fails the call.
func (p *Pipeline) Log(ctx context.Context, userID, prompt string) (*LogResult, error) {
	res, err := p.Record(ctx, userID, prompt)
	if err != nil {
		return nil, err
	}

	// 3. Reply (AFTER recording, never affects the numbers)
	if p.narrator != nil && p.narrator.IsEnabled() {
		res.Narration = p.narrator.Narrate(ctx, res.Activities, res.Total)
		if text := res.Narration.TextOrEmpty(); text != "" {
			res.Reply = text
		}
	}

	log.Info().
		Str("user", userID).
		Int("activities", len(res.Activities)).
		Float64("co2", res.Delta).
		Float64("total", res.Total).
		Msg("logged prompt")

	return res, nil
}

// RecordBatch interprets lines on workers goroutines and then records them
// one at a time in input order, so the ledger reads like the file. Results
// come back in input order; a line that fails to record carries its error.
func (p *Pipeline) RecordBatch(ctx context.Context, userID string, lines []string, workers int) []*worker.LineResult {
	results := worker.NewBatchProcessor(worker.InterpretHandler(p.interp), workers).ProcessLines(ctx, lines)

	for _, r := range results {
		if r.Error != nil {
			continue
		}
		prompt := strings.TrimSpace(r.Line)
		if prompt == "" {
			r.Error = ErrEmptyPrompt
			continue
		}
		if _, err := p.store.Record(ctx, userID, prompt, r.Activities); err != nil {
			r.Error = fmt.Errorf("record activities: %w", err)
		}
	}

	log.Info().Str("user", userID).Int("lines", len(results)).Msg("recorded batch")
	return results
}

// Message joins the per-activity messages, one per line
func Message(acts []model.ParsedActivity) string {
	msgs := make([]string, 0, len(acts))
	for _, a := range acts {
		msgs = append(msgs, a.Message)
	}
	return strings.Join(msgs, "\n")
}
