package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sandevgo/svim/internal/config"
	"github.com/sandevgo/svim/internal/core"
	"github.com/sandevgo/svim/internal/providers/booking"
	"github.com/sandevgo/svim/internal/providers/llm"
	"github.com/sandevgo/svim/internal/providers/tools"
	"github.com/sandevgo/svim/internal/service/agent"
	"github.com/sandevgo/svim/internal/service/governor"
	"github.com/sandevgo/svim/internal/service/memory"
	"github.com/sandevgo/svim/internal/storage/inmemory"
	"github.com/sandevgo/svim/internal/storage/postgres"
	"github.com/sandevgo/svim/internal/storage/qdrant"
	"github.com/sandevgo/svim/internal/storage/sqlite"
	"github.com/sandevgo/svim/pkg/log"
	"github.com/sandevgo/svim/pkg/srv"
)

// app holds everything a command wires. Resources are released through group.
type app struct {
	cfg      *config.Config
	group    srv.Group
	tools    []core.Invokable
	governor *governor.Governor
	agent    *agent.Agent

	db *sql.DB
}

func (a *app) Close(ctx context.Context) {
	a.group.Shutdown(ctx)
}

// newToolsApp wires only the booking tools and the governor.
func newToolsApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, governor: governor.New(cfg.App.ToolMaxCalls)}

	client, err := booking.NewClient(booking.Config{
		BaseURL:         cfg.Booking.BaseURL,
		APIKey:          cfg.Booking.APIKey,
		EstablishmentID: cfg.Booking.EstablishmentID,
		Timeout:         cfg.Booking.Timeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize booking client: %w", err)
	}

	a.tools = tools.Invokables(tools.NewSalon(client).GetDefinitions())
	log.FromCtx(ctx).Info().Int("tools", len(a.tools)).Int("max_calls", a.governor.MaxCalls()).Msg("booking tools ready")
	return a, nil
}

// newAgentApp wires the full turn pipeline.
func newAgentApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a, err := newToolsApp(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger := log.FromCtx(ctx)

	provider, err := llm.NewProvider(ctx, &cfg.OpenAI)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	}

	retriever, store, err := a.initMemory(ctx, provider)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	interactions, err := a.initInteractionLog(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("interaction log disabled")
		interactions = nil
	}

	prompt, err := agent.NewPrompt(cfg.App.GetPromptPath())
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	deps := agent.Deps{
		AI:       provider,
		Tools:    a.tools,
		Governor: a.governor,
		Prompt:   prompt,
	}
	// typed nils must not reach the agent's optional interfaces
	if retriever != nil {
		deps.Retriever = retriever
		deps.Store = store
	}
	if interactions != nil {
		deps.Log = interactions
	}

	a.agent, err = agent.NewAgent(deps, agent.Options{
		RecentK:         cfg.App.RecentK,
		SemanticK:       cfg.App.SemanticK,
		ContextMaxChars: cfg.App.ContextMaxChars,
		StoreMaxChars:   cfg.App.StoreMaxChars,
		MaxSteps:        cfg.App.MaxSteps,
		Profile: agent.Profile{
			SalonName:      cfg.App.SalonName,
			ClientName:     cfg.App.ClientName,
			ClientWhatsApp: cfg.App.ClientWhatsApp,
		},
	})
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	return a, nil
}

// openDB opens the runtime SQLite database once per app.
func (a *app) openDB(ctx context.Context) (*sql.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := sqlite.NewDB(ctx, a.cfg.App.GetDatabasePath())
	if err != nil {
		return nil, err
	}
	a.db = db
	a.group.Add(srv.NewCleanup(db.Close))
	return db, nil
}

func (a *app) initMemory(ctx context.Context, provider *llm.OpenAI) (*memory.Retriever, *memory.Store, error) {
	logger := log.FromCtx(ctx)

	var backend core.VectorBackend
	vectorSize := a.cfg.Qdrant.VectorSize

	switch name := a.cfg.ResolvedMemoryBackend(); name {
	case "qdrant":
		b, err := qdrant.New(qdrant.Config{
			URL:        a.cfg.Qdrant.URL,
			APIKey:     a.cfg.Qdrant.APIKey,
			Collection: a.cfg.Qdrant.Collection,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize qdrant: %w", err)
		}
		backend = b
	case "sqlite":
		db, err := a.openDB(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		backend = sqlite.NewVectors(db, a.cfg.Qdrant.Collection)
	case "memory":
		backend = inmemory.NewVectors()
	default:
		logger.Info().Msg("conversation memory disabled")
		return nil, nil, nil
	}

	embedder, size := llm.NewEmbedder(ctx, a.cfg.ResolvedEmbedder(), provider, vectorSize)
	store := memory.NewStore(backend, embedder, size)
	logger.Info().
		Str("backend", a.cfg.ResolvedMemoryBackend()).
		Str("embedder", a.cfg.ResolvedEmbedder()).
		Int("vector_size", size).
		Msg("conversation memory ready")
	return memory.NewRetriever(store), store, nil
}

func (a *app) initInteractionLog(ctx context.Context) (core.InteractionLog, error) {
	switch {
	case a.cfg.Database.URL != "":
		pg, err := postgres.New(ctx, a.cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		a.group.Add(srv.NewCleanup(pg.Close))
		return pg, nil
	case a.cfg.Database.SQLiteLog:
		db, err := a.openDB(ctx)
		if err != nil {
			return nil, err
		}
		return sqlite.NewInteractions(db), nil
	}
	return nil, nil
}
