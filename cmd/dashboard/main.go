package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bulknepal/bulknepal/internal/apiclient"
	"github.com/bulknepal/bulknepal/internal/config"
	"github.com/bulknepal/bulknepal/internal/localstore"
	"github.com/bulknepal/bulknepal/internal/poller"
)

var (
	cfgFile string
	verbose bool
	logger  *zap.Logger
	cfg     *config.Config
)

func setupLogger(verbose bool, logCfg *config.LoggingConfig) (*zap.Logger, error) {
	var zapConfig zap.Config
	if verbose {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.DisableStacktrace = true
	}

	// The TUI owns stdout; logs go to stderr only.
	zapConfig.OutputPaths = []string{"stderr"}

	if logCfg != nil && logCfg.Level != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(logCfg.Level)); err == nil {
			zapConfig.Level = zap.NewAtomicLevelAt(level)
		}
	}

	return zapConfig.Build()
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "bulknepal",
		Short: "Terminal dashboard for live NEPSE market data",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				var err error
				logger, err = setupLogger(verbose, nil)
				return err
			}

			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return err
			}

			logger, err = setupLogger(verbose, &cfg.Logging)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", os.Getenv("BULKNEPAL_CONFIG"), "config file path (or set BULKNEPAL_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(loginCmd())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func runDashboard(ctx context.Context) error {
	defer logger.Sync()

	client := apiclient.NewClient(cfg.Client.APIBaseURL, logger)

	store, err := localstore.Open(cfg.Client.StateDir, logger)
	if err != nil {
		return fmt.Errorf("opening local state: %w", err)
	}

	sync := poller.New(client, cfg.Client.StatusInterval(), cfg.Client.MarketInterval(), logger)

	pollCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go sync.Run(pollCtx)

	p := tea.NewProgram(
		newApp(client, sync, store, cancel, logger),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}

func loginCmd() *cobra.Command {
	var idToken string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Exchange a Google ID token for a BulkNepal session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer logger.Sync()

			if idToken == "" {
				return fmt.Errorf("--id-token is required")
			}

			client := apiclient.NewClient(cfg.Client.APIBaseURL, logger)
			session, err := client.Login(cmd.Context(), idToken)
			if err != nil {
				return err
			}

			logger.Info("session issued",
				zap.String("email", session.User.Email),
				zap.String("name", session.User.Name),
			)
			fmt.Println(session.Token)
			return nil
		},
	}

	cmd.Flags().StringVar(&idToken, "id-token", "", "Google ID token to exchange")
	return cmd
}
