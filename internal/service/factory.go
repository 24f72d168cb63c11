// internal/service/factory.go
package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
	"github.com/xkilldash9x/webpilot-cli/internal/agent"
	"github.com/xkilldash9x/webpilot-cli/internal/browser"
	"github.com/xkilldash9x/webpilot-cli/internal/config"
	"github.com/xkilldash9x/webpilot-cli/internal/engine"
	"github.com/xkilldash9x/webpilot-cli/internal/llm"
	"github.com/xkilldash9x/webpilot-cli/internal/session"
	"github.com/xkilldash9x/webpilot-cli/internal/store"
)

// App bundles the wired application components. Callers own the handle and
// must Close it; nothing here is a package-level singleton.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Pool     *pgxpool.Pool
	Store    schemas.ArtifactStore
	LLM      schemas.LLMClient
	Browser  *browser.Driver
	Sessions *session.Manager
	Agent    *agent.WebAgent
	Engine   *engine.Engine
}

// NewStore connects the artifact store. Separate from New so artifact
// subcommands don't pay for a browser launch.
func NewStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, schemas.ArtifactStore, error) {
	if cfg.Database.URL == "" {
		return nil, nil, fmt.Errorf("database.url is not configured (set WEBPILOT_DATABASE_URL)")
	}
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	st, err := store.New(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pool, st, nil
}

// New wires the full workflow stack: store, LLM router, browser, agent,
// and the four-step engine.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: logger}

	// The store is optional for a pure workflow run; artifact capture is
	// skipped without it.
	if cfg.Database.URL != "" {
		pool, st, err := NewStore(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		app.Pool = pool
		app.Store = st
	} else {
		logger.Warn("No database configured; artifacts will not be persisted")
	}

	llmClient, err := llm.NewClient(ctx, cfg.Agent, logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.LLM = llmClient

	driver, err := browser.NewDriver(ctx, cfg.Browser, logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Browser = driver

	app.Sessions = session.NewManager(logger)
	app.Agent = agent.NewWebAgent(logger, cfg.Agent, llmClient, driver, app.Sessions, cfg.Browser.ArtifactDir)

	app.Engine = engine.New(logger,
		agent.NewNavigationStep(logger, app.Agent, driver),
		agent.NewPlanningStep(logger, app.Agent),
		agent.NewExecutionStep(logger, app.Agent, driver,
			agent.DefaultCompletionPredicate(cfg.Workflow.CompletionPhrases)),
		agent.NewCompletionStep(logger),
	)

	return app, nil
}

// Close tears components down in reverse dependency order. Safe on a
// partially constructed App.
func (a *App) Close() {
	if a.Browser != nil {
		if err := a.Browser.Close(context.Background()); err != nil {
			a.Logger.Warn("Browser shutdown failed", zap.Error(err))
		}
	}
	if a.LLM != nil {
		if err := a.LLM.Close(); err != nil {
			a.Logger.Warn("LLM client shutdown failed", zap.Error(err))
		}
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}
