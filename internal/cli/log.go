package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/carbontally/internal/interpret"
	"github.com/ppiankov/carbontally/internal/model"
	"github.com/ppiankov/carbontally/internal/pipeline"
)

var (
	userID  string
	logJSON bool
)

// logCmd represents the log command
var logCmd = &cobra.Command{
	Use:   "log <text...>",
	Short: "Record activities from a free-text note",
	Long: `Log interprets a note, stores every recognized activity in the ledger
and prints the CO2 of the note together with the user's running total.

Example:
  carbontally log drove 5 km and cycled 3 km
  carbontally log "ate 200 g chicken" --user alice --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLog,
}

// interpretCmd represents the interpret command
var interpretCmd = &cobra.Command{
	Use:   "interpret <text...>",
	Short: "Interpret a note without recording it",
	Long: `Interpret prints the activities recognized in a note as JSON.
Nothing is written to the ledger.

Example:
  carbontally interpret "used 4 kWh electricity; ate 0.2 kg beef"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInterpret,
}

func init() {
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(interpretCmd)

	addUserFlag(logCmd)
	logCmd.Flags().BoolVar(&logJSON, "json", false, "print the result as JSON")
}

// addUserFlag registers the shared --user flag on cmd
func addUserFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&userID, "user", "u", defaultUser, "ledger user id")
}

func runLog(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p, err := pipeline.NewPipeline(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	res, err := p.Log(cmd.Context(), userID, strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("log activity: %w", err)
	}

	out := cmd.OutOrStdout()
	if logJSON {
		return printJSON(out, res)
	}

	_, _ = fmt.Fprintln(out, res.Reply)
	_, _ = fmt.Fprintf(out, "\nThis note: %s\n", signedKg(res.Delta))
	_, _ = fmt.Fprintf(out, "Total:     %s\n", signedKg(res.Total))
	return nil
}

func runInterpret(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	interp := interpret.New(nil, cfg.Interpreter.FuzzyCutoff)
	acts := interp.Interpret(strings.Join(args, " "))

	return printJSON(cmd.OutOrStdout(), struct {
		Activities []model.ParsedActivity `json:"activities"`
		CO2        float64                `json:"co2"`
		Message    string                 `json:"message"`
	}{
		Activities: acts,
		CO2:        interpret.Total(acts),
		Message:    pipeline.Message(acts),
	})
}
