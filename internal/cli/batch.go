package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/carbontally/internal/interpret"
	"github.com/ppiankov/carbontally/internal/pipeline"
	"github.com/ppiankov/carbontally/internal/worker"
)

var (
	concurrency  int
	batchTimeout time.Duration
	dryRun       bool
	batchJSON    bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Log many notes from a file in parallel",
	Long: `Batch reads one note per line (blank lines and lines starting with # are
skipped), interprets them concurrently and records every line for the user
in file order. Results are reported in file order.

Example:
  carbontally batch week.txt --user alice
  carbontally batch week.txt --concurrency 8 --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	addUserFlag(batchCmd)
	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&dryRun, "dry-run", false, "interpret only, do not record")
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "print per-line results as JSON")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	workers := concurrency
	if workers <= 0 {
		workers = cfg.Concurrency.Workers
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
		fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
		fmt.Fprintf(os.Stderr, "  User:         %s\n", userID)
		fmt.Fprintf(os.Stderr, "  Dry run:      %v\n\n", dryRun)
	}

	var results []*worker.LineResult
	if dryRun {
		processor := worker.NewBatchProcessor(worker.InterpretHandler(interpret.New(nil, cfg.Interpreter.FuzzyCutoff)), workers)
		if results, err = processor.ProcessFile(ctx, file); err != nil {
			return fmt.Errorf("process file: %w", err)
		}
	} else {
		lines, err := worker.ReadLinesFromFile(file)
		if err != nil {
			return fmt.Errorf("read activities: %w", err)
		}
		p, err := pipeline.NewPipeline(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = p.Close() }()
		results = p.RecordBatch(ctx, userID, lines, workers)
	}

	out := cmd.OutOrStdout()
	if batchJSON {
		return printJSON(out, batchReport(results))
	}

	for _, r := range results {
		if r.Error != nil {
			fmt.Fprintf(os.Stderr, "✗ line %d: %s: %v\n", r.Index+1, r.Line, r.Error)
			continue
		}
		_, _ = fmt.Fprintf(out, "✓ %-40s %s\n", r.Line, signedKg(r.CO2))
	}

	total, failed := worker.Summarize(results)
	_, _ = fmt.Fprintf(out, "\n  Lines:     %d\n", len(results))
	_, _ = fmt.Fprintf(out, "  Failures:  %d\n", failed)
	_, _ = fmt.Fprintf(out, "  Net CO2:   %s\n", signedKg(total))
	return nil
}

type batchLine struct {
	Line  int     `json:"line"`
	Text  string  `json:"text"`
	CO2   float64 `json:"co2"`
	Error string  `json:"error,omitempty"`
}

func batchReport(results []*worker.LineResult) any {
	lines := make([]batchLine, 0, len(results))
	for _, r := range results {
		bl := batchLine{Line: r.Index + 1, Text: r.Line, CO2: r.CO2}
		if r.Error != nil {
			bl.Error = r.Error.Error()
		}
		lines = append(lines, bl)
	}
	total, failed := worker.Summarize(results)
	return struct {
		Lines    []batchLine `json:"lines"`
		Total    float64     `json:"total_co2"`
		Failures int         `json:"failures"`
	}{lines, total, failed}
}
