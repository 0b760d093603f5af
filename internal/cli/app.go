package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jasperwreed/campus-market/internal/api"
	"github.com/jasperwreed/campus-market/internal/config"
	"github.com/jasperwreed/campus-market/internal/search"
	"github.com/jasperwreed/campus-market/internal/storage"
)

// app bundles what a command needs to talk to the backend and the local store.
type app struct {
	cfg     *config.AppConfig
	store   *storage.SQLiteStore
	client  *api.Client
	catalog *storage.CachedCatalog
	tokens  *tokenSource
	logger  *zap.Logger
}

func loadConfig() (*config.AppConfig, error) {
	if appConfig != nil {
		return appConfig, nil
	}
	if configPath != "" {
		return config.Load(configPath)
	}
	cfg, _, err := config.LoadDefault()
	return cfg, err
}

func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	path := dbPath
	if path == "" {
		path = cfg.Storage.Path
	}
	path, err = NewValidator().ResolvePath(path)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	tokens := &tokenSource{env: cfg.Token, store: store}
	client := api.NewClient(api.Config{
		BaseURL:    cfg.BaseURL(),
		Timeout:    cfg.API.Timeout,
		MaxRetries: cfg.API.MaxRetries,
		Tokens:     tokens,
		Logger:     logger,
	})

	return &app{
		cfg:     cfg,
		store:   store,
		client:  client,
		catalog: storage.NewCachedCatalog(client, store, offline, logger),
		tokens:  tokens,
		logger:  logger,
	}, nil
}

func (a *app) newSearcher() *search.Searcher {
	opts := search.Options{
		AITimeout: a.cfg.Search.AITimeout,
		Logger:    a.logger,
	}
	if a.cfg.Search.History {
		opts.History = a.store
	}
	return search.NewSearcher(a.catalog, a.client, a.tokens, opts)
}

func (a *app) Close() error {
	return a.store.Close()
}

// tokenSource prefers MARKET_TOKEN over the stored token.
type tokenSource struct {
	env   string
	store *storage.SQLiteStore
}

func (t *tokenSource) Token() (string, bool) {
	if t.env != "" {
		return t.env, true
	}
	return t.store.Token()
}

func (t *tokenSource) origin() string {
	if t.env != "" {
		return "MARKET_TOKEN environment variable"
	}
	return "local store"
}
