package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"deskview/internal/config"
	"deskview/internal/demo"
	"deskview/internal/observability"
)

var demoDSN string

var demoServerCmd = &cobra.Command{
	Use:   "demo-server",
	Short: "Run a local stand-in helpdesk service with seeded data",
	Long: `demo-server starts an HTTP service that speaks the same API the
console expects from a real helpdesk deployment, backed by an embedded
sqlite database seeded with sample tickets and workflows.`,
	RunE: runDemoServer,
}

func init() {
	demoServerCmd.Flags().StringVar(&demoDSN, "db", "", "sqlite path (default in-memory)")
	rootCmd.AddCommand(demoServerCmd)
}

func runDemoServer(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := config.InitLogger(&cfg.Log)

	if shutdown, err := observability.SetupTracing(context.Background(), &cfg.Tracing, logger); err == nil {
		defer func() { _ = shutdown(context.Background()) }()
	} else {
		logger.Warnf("init tracing: %v", err)
	}

	store, err := demo.OpenStore(demoDSN)
	if err != nil {
		return err
	}
	stats, err := store.Statistics()
	if err != nil {
		return err
	}
	if stats.Total == 0 {
		if err := demo.Seed(store, cfg.Fallback.Seed); err != nil {
			return err
		}
	}

	source := demo.NewSource(store, logger)
	server := demo.NewServer(source, logger)
	addr := fmt.Sprintf("%s:%d", cfg.Demo.Host, cfg.Demo.Port)
	return server.Run(addr)
}
