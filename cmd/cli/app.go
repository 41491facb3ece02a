package cli

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"deskview/internal/config"
	"deskview/internal/console"
	"deskview/internal/demo"
	"deskview/internal/observability"
	"deskview/internal/services"
	"deskview/pkg/deskapi"
)

// app bundles the wired-up console for one command invocation.
type app struct {
	cfg    *config.Config
	logger *logrus.Logger

	ticketSvc   *services.TicketService
	workflowSvc *services.WorkflowService

	tickets   *console.TicketsView
	workflows *console.WorkflowsView

	shutdownTracing func(context.Context) error
}

// buildApp loads configuration, connects the remote client and builds
// the two view controllers. When the fallback section is enabled, a
// seeded in-memory source is wired in as the tickets view's demo path.
// Callers defer a.close() so buffered spans are flushed on exit.
func buildApp() (*app, error) {
	cfg := config.Load()
	logger := config.InitLogger(&cfg.Log)

	shutdown, err := observability.SetupTracing(context.Background(), &cfg.Tracing, logger)
	if err != nil {
		// the console still works untraced
		logger.Warnf("init tracing: %v", err)
		shutdown = func(context.Context) error { return nil }
	}

	client := deskapi.NewClient(&deskapi.Config{
		BaseURL:    cfg.Service.BaseURL,
		APIKey:     cfg.Service.APIKey,
		Timeout:    cfg.Service.Timeout,
		MaxRetries: cfg.Service.MaxRetries,
		RetryDelay: cfg.Service.RetryDelay,
		Tracing:    cfg.Tracing.Enabled,
	}, logger)

	ticketSvc := services.NewTicketService(client, logger)
	workflowSvc := services.NewWorkflowService(client, logger)

	var fallbackSvc *services.TicketService
	if cfg.Fallback.Enabled {
		store, err := demo.OpenStore("")
		if err != nil {
			return nil, err
		}
		if err := demo.Seed(store, cfg.Fallback.Seed); err != nil {
			return nil, err
		}
		fallbackSvc = services.NewTicketService(demo.NewSource(store, logger), logger)
	}

	auth := console.StaticAuth(cfg.Auth.Admin)

	return &app{
		cfg:             cfg,
		logger:          logger,
		ticketSvc:       ticketSvc,
		workflowSvc:     workflowSvc,
		tickets:         console.NewTicketsView(ticketSvc, fallbackSvc, auth, cfg.Views.TicketPageSize, logger),
		workflows:       console.NewWorkflowsView(workflowSvc, auth, cfg.Views.WorkflowPageSize, logger),
		shutdownTracing: shutdown,
	}, nil
}

// close flushes any buffered trace spans. Best effort with a short cap
// so a dead collector cannot hang command exit.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.shutdownTracing(ctx); err != nil {
		a.logger.Warnf("shutdown tracing: %v", err)
	}
}
