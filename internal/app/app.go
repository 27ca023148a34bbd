// Package app wires configuration, storage, the question pipeline and the
// services into one value shared by the CLI commands and the HTTP server.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/mediajel/apidocs/internal/catalog"
	"github.com/mediajel/apidocs/internal/config"
	"github.com/mediajel/apidocs/internal/db"
	"github.com/mediajel/apidocs/internal/domain"
	"github.com/mediajel/apidocs/internal/glossary"
	"github.com/mediajel/apidocs/internal/intelligence"
	"github.com/mediajel/apidocs/internal/llm"
	"github.com/mediajel/apidocs/internal/repository"
	"github.com/mediajel/apidocs/internal/server"
	"github.com/mediajel/apidocs/internal/service"
)

// App holds the long-lived dependencies of one process.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	Pipeline   *intelligence.Pipeline
	Catalog    *catalog.Catalog
	Assistant  service.AssistantService
	Playground service.PlaygroundService
	Metrics    *server.Metrics

	db *sql.DB
}

// Bootstrap loads configuration from configFile (or the default search path
// when empty) and builds an App logging to logOut.
func Bootstrap(configFile string, logOut io.Writer) (*App, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	return New(cfg, cfg.NewLogger(logOut))
}

// New builds an App from a resolved configuration.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	cat, err := catalog.Open(cfg.Catalog.SchemaPath, cfg.Catalog.ConfigPath)
	if err != nil {
		return nil, err
	}
	for _, name := range cat.Unmatched() {
		logger.Warn("operation config names no schema field", "operation", name)
	}

	pipeline := intelligence.NewPipeline(
		glossary.LoadOrEmpty(cfg.Glossary.Path, logger),
		cfg.ContextBuilder(cat, logger),
	)

	conn, err := db.OpenDB(cfg.DB.Path)
	if err != nil {
		return nil, err
	}

	metrics := server.NewMetrics()
	client, err := newChatClient(cfg.LLM, logger, metrics)
	if err != nil {
		conn.Close()
		return nil, err
	}

	useCases := service.NewLogUseCaseObserver(logger)
	assistant := service.NewAssistantService(
		pipeline,
		client,
		repository.NewSQLiteThreadRepo(conn),
		repository.NewSQLiteMessageRepo(conn),
		db.NewSQLiteUnitOfWork(conn),
		cfg.Context.MaxChars,
		useCases, metrics,
	)
	a := &App{
		Config:    cfg,
		Logger:    logger,
		Pipeline:  pipeline,
		Catalog:   cat,
		Assistant: assistant,
		Metrics:   metrics,
		db:        conn,
	}
	a.Playground = service.NewPlaygroundService(
		repository.NewSQLiteRequestHistoryRepo(conn),
		nil,
		service.PlaygroundOptions{
			Timeout:      time.Duration(cfg.Playground.TimeoutMs) * time.Millisecond,
			HistoryLimit: cfg.Playground.HistoryLimit,
			AllowedHosts: a.PlaygroundHosts(),
		},
		useCases, metrics,
	)
	return a, nil
}

// newChatClient returns nil when the assistant is disabled.
func newChatClient(cfg llm.LLMConfig, logger *slog.Logger, metrics *server.Metrics) (llm.ChatClient, error) {
	if !cfg.Enabled {
		logger.Info("assistant disabled")
		return nil, nil
	}
	observers := llm.MultiObserver{metrics}
	if cfg.LogCalls {
		observers = append(observers, llm.NewLogObserver(logger))
	}
	client, err := llm.NewClient(cfg, observers)
	if err != nil {
		return nil, fmt.Errorf("creating llm client: %w", err)
	}
	return client, nil
}

// GraphQLEndpoint is the URL the playground and snippets target.
func (a *App) GraphQLEndpoint() string {
	if a.Config.Playground.Endpoint != "" {
		return a.Config.Playground.Endpoint
	}
	return a.Catalog.Config().BaseURL
}

// PlaygroundHosts are the hosts playground requests may target: the GraphQL
// endpoint's host plus playground.allowed_hosts.
func (a *App) PlaygroundHosts() []string {
	var hosts []string
	if u, err := url.Parse(a.GraphQLEndpoint()); err == nil && u.Host != "" {
		hosts = append(hosts, u.Host)
	}
	return append(hosts, a.Config.Playground.AllowedHosts...)
}

// Server builds the HTTP server for this App.
func (a *App) Server() *server.Server {
	return server.New(server.Options{
		Addr:            a.Config.Server.Addr,
		PlaygroundPath:  a.Config.Server.PlaygroundPath,
		GraphQLEndpoint: a.GraphQLEndpoint(),
	}, server.Deps{
		Pipeline:   a.Pipeline,
		Catalog:    a.Catalog,
		Assistant:  a.Assistant,
		Playground: a.Playground,
		Metrics:    a.Metrics,
		Logger:     a.Logger,
	})
}

// WatchGlossary reloads the glossary file into the pipeline on change until
// ctx is done. It returns immediately when the embedded glossary is in use.
func (a *App) WatchGlossary(ctx context.Context) error {
	path := a.Config.Glossary.Path
	if path == "" {
		return nil
	}
	return glossary.Watch(ctx, path, a.Logger, func(g *domain.DomainGlossary) {
		a.Pipeline.SetGlossary(g)
	})
}

// Close releases the database.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	if err != nil && !errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}
