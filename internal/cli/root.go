package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jasperwreed/campus-market/internal/config"
	"github.com/jasperwreed/campus-market/internal/logging"
)

var (
	dbPath     string
	configPath string
	verbose    bool
	offline    bool

	appConfig *config.AppConfig
	logger    = zap.NewNop()
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "market",
		Short: "Terminal client for the campus marketplace",
		Long: `Campus Market - Browse, filter, and search campus marketplace listings from the terminal.
Filter the catalog locally by category, price, and title, or ask the AI search in plain English.`,
		Version:           "0.1.0",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to database file (default: ~/.campus-market/market.db)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ./market.yaml or ~/.config/campus-market/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "Use the cached catalog instead of the backend")

	rootCmd.AddCommand(
		NewListCommand(),
		NewSearchCommand(),
		NewAskCommand(),
		NewShowCommand(),
		NewCategoriesCommand(),
		NewStatsCommand(),
		NewHistoryCommand(),
		NewAuthCommand(),
		NewBrowseCommand(),
	)

	return rootCmd
}

func setup(cmd *cobra.Command, args []string) error {
	appConfig = nil
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	appConfig = cfg

	build := logging.New
	if cmd.Name() == "browse" {
		// stderr output would draw over the alternate screen
		build = logging.NewFileOnly
	}
	l, err := build(cfg.Logging, verbose)
	if err != nil {
		return err
	}
	logger = l
	logger.Debug("configuration loaded",
		zap.String("base_url", cfg.BaseURL()),
		zap.Bool("offline", offline),
		zap.Duration("ai_timeout", cfg.Search.AITimeout),
	)
	return nil
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
