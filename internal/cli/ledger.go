package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/carbontally/internal/emission"
	"github.com/ppiankov/carbontally/internal/ledger"
	"github.com/ppiankov/carbontally/internal/model"
)

var (
	ledgerJSON bool
	limit      int
	rename     string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the user's most recent ledger entries",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the user's totals",
	Long: `Stats prints the user's running total with the emitted and saved parts.

Example:
  carbontally stats --user alice
  carbontally stats --user alice --name "Alice"`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Rank users by total CO2 saved",
	Args:  cobra.NoArgs,
	RunE:  runLeaderboard,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(leaderboardCmd)

	addUserFlag(historyCmd)
	addUserFlag(statsCmd)

	historyCmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of entries (default: ledger.history_limit)")
	leaderboardCmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of users (default: ledger.leaderboard_size)")
	statsCmd.Flags().StringVar(&rename, "name", "", "set the user's display name first")

	for _, c := range []*cobra.Command{historyCmd, statsCmd, leaderboardCmd} {
		c.Flags().BoolVar(&ledgerJSON, "json", false, "print as JSON")
	}
}

// openLedger opens the configured ledger
func openLedger(cmd *cobra.Command) (*ledger.Store, *model.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := ledger.Open(cmd.Context(), cfg.Ledger.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open ledger: %w", err)
	}
	return store, cfg, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, cfg, err := openLedger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	n := limit
	if n <= 0 {
		n = cfg.Ledger.HistoryLimit
	}

	entries, err := store.History(cmd.Context(), userID, n)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if ledgerJSON {
		if entries == nil {
			entries = []model.LogEntry{}
		}
		return printJSON(out, entries)
	}

	if len(entries) == 0 {
		_, _ = fmt.Fprintf(out, "No entries for %s yet.\n", userID)
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "WHEN\tACTIVITY\tQUANTITY\tCO2\tPROMPT")
	for _, e := range entries {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s %s\t%s\t%s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			e.Activity,
			emission.FormatQuantity(e.Quantity), e.Unit,
			signedKg(e.CO2),
			e.Prompt)
	}
	return tw.Flush()
}

func runStats(cmd *cobra.Command, args []string) error {
	store, _, err := openLedger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	if _, err := store.EnsureUser(ctx, userID); err != nil {
		return err
	}
	if rename != "" {
		if err := store.Rename(ctx, userID, rename); err != nil {
			return err
		}
	}

	st, err := store.Stats(ctx, userID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if ledgerJSON {
		return printJSON(out, st)
	}

	_, _ = fmt.Fprintf(out, "User:     %s (%s)\n", st.User.DisplayName(), st.User.ID)
	_, _ = fmt.Fprintf(out, "Entries:  %d\n", st.Entries)
	_, _ = fmt.Fprintf(out, "Emitted:  %s kg\n", emission.FormatKg(st.EmittedCO2))
	_, _ = fmt.Fprintf(out, "Saved:    %s kg\n", emission.FormatKg(st.SavedCO2))
	_, _ = fmt.Fprintf(out, "Total:    %s\n", signedKg(st.User.TotalCO2))
	return nil
}

func runLeaderboard(cmd *cobra.Command, args []string) error {
	store, cfg, err := openLedger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	n := limit
	if n <= 0 {
		n = cfg.Ledger.LeaderboardSz
	}

	board, err := store.Leaderboard(cmd.Context(), n)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if ledgerJSON {
		if board == nil {
			board = []model.LeaderboardRow{}
		}
		return printJSON(out, board)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "#\tUSER\tTOTAL")
	for _, row := range board {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", row.Rank, row.Name, signedKg(row.TotalCO2))
	}
	return tw.Flush()
}
