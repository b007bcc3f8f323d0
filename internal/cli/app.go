package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/lazypower/ephemeral/internal/archive"
	"github.com/lazypower/ephemeral/internal/config"
	"github.com/lazypower/ephemeral/internal/decay"
	"github.com/lazypower/ephemeral/internal/engine"
	"github.com/lazypower/ephemeral/internal/logging"
	"github.com/lazypower/ephemeral/internal/observability"
	"github.com/lazypower/ephemeral/internal/store"
)

// app bundles what every local command needs.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	archive archive.Store
	// dbPath is set for the sqlite backend only.
	dbPath string
}

func loadApp(ctx context.Context) (*app, error) {
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}
	if err := a.openArchive(ctx); err != nil {
		logger.Sync()
		return nil, err
	}
	return a, nil
}

func (a *app) openArchive(ctx context.Context) error {
	cfg := a.cfg.Archive
	switch cfg.Backend {
	case config.BackendSQLite:
		path := cfg.Path
		if path == "" {
			var err error
			path, err = store.DefaultDBPath()
			if err != nil {
				return fmt.Errorf("resolve db path: %w", err)
			}
		}
		db, err := store.Open(path)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		a.archive = db.Archive(cfg.Cap)
		a.dbPath = path
	case config.BackendMemory:
		a.archive = archive.NewMemoryStore(cfg.Cap)
	case config.BackendPostgres:
		s, err := archive.NewPostgresStore(ctx, cfg.PostgresURL, cfg.Cap)
		if err != nil {
			return err
		}
		a.archive = s
	case config.BackendRedis:
		client, err := archive.DialRedis(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		a.archive = archive.NewRedisStore(client, cfg.RedisKey, cfg.Cap)
	default:
		return fmt.Errorf("%w: %q", archive.ErrUnknownBackend, cfg.Backend)
	}
	a.logger.Debug("archive opened", zap.String("backend", cfg.Backend), zap.String("path", a.dbPath))
	return nil
}

func (a *app) newEngine(metrics *observability.Metrics) (*engine.Engine, error) {
	var tables *decay.Tables
	if p := a.cfg.Engine.TablesPath; p != "" {
		t, err := decay.LoadTablesFile(p)
		if err != nil {
			return nil, err
		}
		tables = t
	}
	return engine.New(engine.Options{
		Tables:       tables,
		Rand:         decay.NewRand(a.cfg.Engine.Seed),
		Archive:      a.archive,
		Logger:       a.logger,
		Metrics:      metrics,
		TickInterval: a.cfg.TickInterval(),
		SettleDelay:  a.cfg.SettleDelay(),
	})
}

// lockPath sits next to the sqlite file so two processes sharing an archive
// share a lock.
func (a *app) lockPath() string {
	if a.dbPath != "" {
		return filepath.Join(filepath.Dir(a.dbPath), "ephemeral.lock")
	}
	return filepath.Join(os.TempDir(), "ephemeral.lock")
}

func (a *app) Close() error {
	err := a.archive.Close()
	// Sync fails on stderr for some terminals; nothing useful to report.
	_ = a.logger.Sync()
	return err
}

func isTerminal(w any) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

var errNoInput = errors.New("nothing to forget: pass text, --image, --audio or pipe text on stdin")

func readAllLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("input exceeds %d bytes", limit)
	}
	return data, nil
}
