package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ppiankov/carbontally/internal/emission"
	"github.com/ppiankov/carbontally/internal/interpret"
	"github.com/ppiankov/carbontally/internal/model"
)

// Handler turns one line of activity text into parsed activities
type Handler func(ctx context.Context, line string) ([]model.ParsedActivity, error)

// InterpretHandler interprets lines without persisting them
func InterpretHandler(interp *interpret.Interpreter) Handler {
	return func(_ context.Context, line string) ([]model.ParsedActivity, error) {
		return interp.Interpret(line), nil
	}
}

// LineJob interprets one input line
type LineJob struct {
	Index   int
	Line    string
	Handler Handler
}

// Execute runs the handler for the line
func (j *LineJob) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &LineResult{Index: j.Index, Line: j.Line, Error: err}
	}

	acts, err := j.Handler(ctx, j.Line)
	if err != nil {
		return &LineResult{Index: j.Index, Line: j.Line, Error: err}
	}
	return &LineResult{
		Index:      j.Index,
		Line:       j.Line,
		Activities: acts,
		CO2:        interpret.Total(acts),
	}
}

// LineResult is the outcome for one input line
type LineResult struct {
	Index      int                    `json:"index"`
	Line       string                 `json:"line"`
	Activities []model.ParsedActivity `json:"activities,omitempty"`
	CO2        float64                `json:"co2"`
	Error      error                  `json:"-"`
}

// GetError returns the handler error, if any
func (r *LineResult) GetError() error {
	return r.Error
}

// BatchProcessor interprets many lines concurrently
type BatchProcessor struct {
	handler     Handler
	concurrency int
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(handler Handler, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		handler:     handler,
		concurrency: concurrency,
	}
}

// ProcessLines handles every line and returns results in input order
func (b *BatchProcessor) ProcessLines(ctx context.Context, lines []string) []*LineResult {
	if len(lines) == 0 {
		return []*LineResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, line := range lines {
		if !pool.Submit(&LineJob{Index: i, Line: line, Handler: b.handler}) {
			break
		}
	}

	results := pool.Wait()

	out := make([]*LineResult, 0, len(results))
	for _, r := range results {
		out = append(out, r.(*LineResult))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })

	log.Debug().Int("lines", len(lines)).Int("results", len(out)).Msg("batch complete")
	return out
}

// ProcessFile reads activity lines from a file and processes them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*LineResult, error) {
	lines, err := ReadLinesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read activities: %w", err)
	}
	return b.ProcessLines(ctx, lines), nil
}

// ReadLinesFromFile reads one activity per line, skipping blanks and
// "#" comments. Repeated lines are kept: the same trip twice is two trips.
func ReadLinesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return lines, nil
}

// Summarize adds up the CO2 of successful results
func Summarize(results []*LineResult) (total float64, failed int) {
	for _, r := range results {
		if r.Error != nil {
			failed++
			continue
		}
		total += r.CO2
	}
	return emission.Round(total), failed
}
