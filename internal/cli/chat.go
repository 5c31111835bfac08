package cli

import (
	"github.com/spf13/cobra"

	"github.com/ppiankov/carbontally/internal/pipeline"
	"github.com/ppiankov/carbontally/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat that logs each message",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		p, err := pipeline.NewPipeline(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer func() { _ = p.Close() }()

		return tui.Run(cmd.Context(), p, userID)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	addUserFlag(chatCmd)
}
