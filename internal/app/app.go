// Package app wires configuration, storage and services into the web
// server, the MCP server and the backup job.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"workbench/internal/config"
	"workbench/internal/dbclient"
	"workbench/internal/logging"
	mcpserver "workbench/internal/mcp"
	"workbench/internal/secret"
	"workbench/internal/server"
	"workbench/internal/service"
	"workbench/internal/storage"
	"workbench/internal/supervisor"
)

// Version is stamped at build time with -ldflags "-X workbench/internal/app.Version=...".
var Version = "dev"

// App owns every long-lived resource of one process.
type App struct {
	cfg *config.Config

	backend storage.Backend
	pools   *dbclient.PoolCache
	emitter service.EventEmitter

	connections *service.ConnectionRegistry
	sql         *service.SQLService
	notes       *service.NotesService
	files       *service.FileService
	signaling   *service.SignalingService
	settings    *service.SettingsService
	requests    *service.RequestService
	backup      *service.BackupService
}

// New opens storage and builds the services. Call Close when done.
func New(cfg *config.Config) (*App, error) {
	initLogging(cfg.Logging)

	backend, err := storage.Open(cfg.Storage.Backend, cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	key, err := masterKey(cfg)
	if err != nil {
		backend.Close()
		return nil, err
	}
	enc, err := secret.NewEncryptor(key)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("create encryptor: %w", err)
	}

	a := &App{
		cfg:     cfg,
		backend: backend,
		pools:   dbclient.NewPoolCache(),
		emitter: service.LogEmitter{},
	}

	a.connections = service.NewConnectionRegistry(
		storage.NewConnectionStore(secret.NewEncryptedStore(backend, enc)), a.emitter)
	a.sql = service.NewSQLService(a.connections, a.pools, storage.NewQueryStore(backend), a.emitter,
		service.SQLOptions{QueryTimeout: cfg.SQL.QueryTimeout, MaxRows: cfg.SQL.MaxRows})
	a.notes = service.NewNotesService(storage.NewNoteStore(backend), a.emitter)
	a.files = service.NewFileService(cfg.Notes.Root, storage.NewBookmarkStore(backend))
	a.signaling = service.NewSignalingService(a.emitter)
	a.settings = service.NewSettingsService(storage.NewSettingsStore(backend), a.emitter)
	a.requests = service.NewRequestService(storage.NewRequestStore(backend),
		service.RequestOptions{CurlPath: cfg.Requests.CurlPath, Timeout: cfg.Requests.Timeout})
	a.backup = service.NewBackupService(backend, service.BackupOptions{
		Schedule: cfg.Backup.Schedule,
		Dir:      cfg.DataPath(cfg.Backup.Dir),
		Keep:     cfg.Backup.Keep,
	})

	if err := os.MkdirAll(cfg.Notes.Root, 0o755); err != nil {
		logging.Warn().Err(err).Str("root", cfg.Notes.Root).Msg("create notes root")
	}

	return a, nil
}

func initLogging(c config.LoggingConfig) {
	lc := logging.DefaultConfig()
	lc.Level = c.Level
	lc.Format = c.Format
	lc.Caller = c.Caller
	logging.Init(lc)
}

// masterKey returns the configured secret, or the one stored in the key
// file (created on first use).
func masterKey(cfg *config.Config) (string, error) {
	if cfg.Secret.Key != "" {
		return cfg.Secret.Key, nil
	}
	if cfg.Secret.KeyFile == "" {
		return "", errors.New("secret.key or secret.key_file must be set")
	}
	key, err := secret.LoadOrCreateKey(cfg.DataPath(cfg.Secret.KeyFile))
	if err != nil {
		return "", fmt.Errorf("load master key: %w", err)
	}
	return key, nil
}

// ============================================================
// Web server
// ============================================================

// Serve runs the web server and background workers until ctx is canceled.
func (a *App) Serve(ctx context.Context) error {
	log := logging.WithComponent("app")

	srv, err := server.New(server.Deps{
		Connections: a.connections,
		SQL:         a.sql,
		Notes:       a.notes,
		Files:       a.files,
		Signaling:   a.signaling,
		Settings:    a.settings,
		Requests:    a.requests,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	httpServer := &http.Server{
		Addr:         a.cfg.Server.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
	})
	tree.AddAPIService(supervisor.NewHTTPServerService(httpServer, a.cfg.Server.Addr, a.cfg.Server.ShutdownTimeout))

	if a.cfg.Notes.Watch {
		if a.cfg.Storage.Backend == "json" {
			tree.AddWorker(service.NewNotesWatcher(a.cfg.DataPath(storage.NotesDoc), a.notes))
		} else {
			tree.AddWorker(newDocPoller(a.backend, map[string]func(context.Context){
				storage.NotesDoc: a.notes.Reload,
			}))
		}
	}
	if a.cfg.Backup.Enabled {
		tree.AddWorker(a.backup)
	}

	log.Info().
		Str("addr", a.cfg.Server.Addr).
		Str("storage", a.cfg.Storage.Backend).
		Str("version", Version).
		Msg("starting workbench")

	err = tree.Serve(ctx)
	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		log.Warn().Int("count", len(report)).Msg("services did not stop in time")
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// ============================================================
// MCP and maintenance
// ============================================================

// ServeMCP serves the MCP tools on stdin/stdout until the client disconnects.
// Logs go to stderr so they never mix with protocol frames.
func (a *App) ServeMCP() error {
	srv := mcpserver.New(mcpserver.Deps{
		Name:        a.cfg.MCP.Name,
		Version:     Version,
		Connections: a.connections,
		SQL:         a.sql,
		Notes:       a.notes,
	})
	return srv.ServeStdio()
}

// Backup writes one snapshot of every stored document and returns its directory.
func (a *App) Backup(ctx context.Context) (string, error) {
	return a.backup.RunOnce(ctx)
}

// Close releases database pools and the storage backend.
func (a *App) Close() error {
	return errors.Join(a.pools.Close(), a.backend.Close())
}
