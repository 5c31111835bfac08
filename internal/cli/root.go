package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/carbontally/internal/logging"
	"github.com/ppiankov/carbontally/internal/model"
)

// Version is overridden at build time with -ldflags
var Version = "0.1.0"

// defaultUser owns entries logged from the terminal
const defaultUser = "local"

var (
	cfgFile string
	verbose bool
	dbPath  string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "carbontally",
	Short: "carbontally - turn everyday activity notes into a CO2 ledger",
	Long: `carbontally reads short free-text notes such as "drove 5 km and
cycled 3 km", recognizes the activities and quantities in them, and keeps a
running per-user balance of CO2 emitted and saved.

Negative values are emissions, positive values are savings from car-free
travel.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		return logging.Init(level, cfg.Logging.File)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Close()
	},
}

// Execute runs the root command until it finishes or the process is interrupted
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "carbontally v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.carbontally/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "ledger database path (overrides ledger.path)")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// envKeys are the nested settings that may come from CARBONTALLY_* variables
var envKeys = []string{
	"ledger.path",
	"interpreter.fuzzy_cutoff",
	"llm.provider",
	"llm.model",
	"llm.api_key",
	"llm.base_url",
	"cache.enabled",
	"cache.dir",
	"server.addr",
	"logging.level",
	"logging.file",
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".carbontally"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// CARBONTALLY_LLM_PROVIDER -> llm.provider
	viper.SetEnvPrefix("CARBONTALLY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range envKeys {
		_ = viper.BindEnv(key)
	}

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig overlays file, environment and flag settings on the defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// Flags with an empty default would shadow the defaults if bound to viper
	if dbPath != "" {
		cfg.Ledger.Path = dbPath
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	return cfg, nil
}
