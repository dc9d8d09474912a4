// Package bootstrap wires the dispatch engine from configuration: stores,
// pipeline stages, HTTP executor, registry and dispatcher.
package bootstrap

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/artpar/relay/adapters/clock"
	relayhttp "github.com/artpar/relay/adapters/http"
	"github.com/artpar/relay/adapters/idgen"
	"github.com/artpar/relay/adapters/memory"
	"github.com/artpar/relay/adapters/metrics"
	"github.com/artpar/relay/adapters/sqlite"
	"github.com/artpar/relay/app"
	"github.com/artpar/relay/config"
	"github.com/artpar/relay/domain/connectivity"
	"github.com/artpar/relay/domain/contract"
	"github.com/artpar/relay/domain/dispatch"
	"github.com/artpar/relay/ports"
)

// Engine is the assembled dispatch engine.
type Engine struct {
	Logger      zerolog.Logger
	Holder      *config.Holder
	Registry    *app.Registry
	Dispatcher  *app.Dispatcher
	Executor    *relayhttp.Executor
	Broadcaster *app.Broadcaster
	Codec       *app.JSONCodec
	Metrics     *metrics.Collector

	offline *app.OfflineStage
	cacheDB *sqlite.DB
	queueDB *sqlite.DB
}

// New loads configuration from path and assembles the engine.
func New(path string) (*Engine, error) {
	logger := setupLogger(nil)

	holder, err := config.NewHolder(path, logger)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg := holder.Get()
	logger = setupLogger(cfg)

	e := &Engine{
		Logger:   logger,
		Holder:   holder,
		Registry: app.NewRegistry(),
		Codec:    app.NewJSONCodec(),
	}

	clk := clock.Real{}
	ids := idgen.UUID{}

	e.Executor = relayhttp.NewExecutor(relayhttp.Config{
		Source: holder,
		Logger: logger,
	})

	cacheStore, err := e.openCacheStore(cfg)
	if err != nil {
		return nil, err
	}
	queueStore, err := e.openQueueStore(cfg)
	if err != nil {
		return nil, err
	}

	stages := []ports.Middleware{
		app.NewRecoveryStage(logger),
		app.NewLoggingStage(logger, clk),
	}
	if cfg.Metrics.Enabled {
		e.Metrics = metrics.New()
		stages = append(stages, metrics.NewStage(e.Metrics, clk))
		logger.Info().Msg("prometheus metrics enabled")
	}

	cacheStage := app.NewCacheStage(app.CacheStageDeps{
		Store:  cacheStore,
		Clock:  clk,
		TTL:    cfg.Cache.TTL,
		Logger: logger,
	})
	cacheStage.ServeStaleOnError = cfg.Cache.ServeStaleOnError
	cacheStage.Skip = func(req dispatch.Request) bool {
		// Events and direct sends are never cached.
		ns := dispatch.Namespace(req.Contract())
		return ns == "Connectivity" || strings.HasPrefix(req.Contract(), "Mediator.Direct.")
	}
	stages = append(stages, cacheStage)

	if cfg.Offline.Enabled {
		e.offline = app.NewOfflineStage(app.OfflineStageDeps{
			Store:  queueStore,
			Conn:   trackerSource{e},
			Codec:  e.Codec,
			IDGen:  ids,
			Clock:  clk,
			Logger: logger,
		})
		stages = append(stages, e.offline)
	}

	e.Dispatcher = app.NewDispatcher(app.DispatcherDeps{
		Registry: e.Registry,
		Pipeline: app.NewPipeline(stages...),
		IDGen:    ids,
		Clock:    clk,
		Logger:   logger,
	})
	e.Broadcaster = app.NewBroadcaster(e.Dispatcher, logger)

	if err := e.Registry.Register(dispatch.ContractDirect, e.Executor); err != nil {
		return nil, fmt.Errorf("register direct handler: %w", err)
	}

	if e.offline != nil {
		e.offline.BindReplayer(e.Dispatcher)
		if err := e.Registry.Subscribe(connectivity.ContractChanged, e.offline.ConnectivityHandler()); err != nil {
			return nil, fmt.Errorf("subscribe offline stage: %w", err)
		}
	}

	if e.Metrics != nil {
		holder.OnChange(func(*config.Config) { e.Metrics.ConfigReloads.Inc() })
		holder.OnError(func(error) { e.Metrics.ConfigReloadErrors.Inc() })
	}

	if err := holder.WatchFile(); err != nil {
		logger.Warn().Err(err).Msg("config hot reload unavailable")
	}
	holder.WatchSignals()

	return e, nil
}

// RegisterHTTP registers an HTTP descriptor and binds the executor as the
// handler for its contract.
func (e *Engine) RegisterHTTP(d *contract.Descriptor) error {
	if err := e.Executor.RegisterDescriptor(d); err != nil {
		return err
	}
	return e.Registry.Register(d.Contract, e.Executor)
}

// Close releases the engine's resources.
func (e *Engine) Close() error {
	e.Holder.Stop()
	_ = e.Executor.Close()
	if e.cacheDB != nil {
		_ = e.cacheDB.Close()
	}
	if e.queueDB != nil {
		_ = e.queueDB.Close()
	}
	return nil
}

func (e *Engine) openCacheStore(cfg *config.Config) (ports.CacheStore, error) {
	if cfg.Cache.Store == "sqlite" {
		db, err := sqlite.Open(cfg.Cache.DSN)
		if err != nil {
			return nil, fmt.Errorf("open cache store: %w", err)
		}
		if err := db.Migrate(); err != nil {
			return nil, fmt.Errorf("migrate cache store: %w", err)
		}
		e.cacheDB = db
		return sqlite.NewCacheStore(db), nil
	}
	return memory.NewCacheStore(), nil
}

func (e *Engine) openQueueStore(cfg *config.Config) (ports.QueueStore, error) {
	if !cfg.Offline.Enabled {
		return memory.NewQueueStore(), nil
	}
	if cfg.Offline.Store == "sqlite" {
		if cfg.Offline.DSN == cfg.Cache.DSN && e.cacheDB != nil {
			return sqlite.NewQueueStore(e.cacheDB), nil
		}
		db, err := sqlite.Open(cfg.Offline.DSN)
		if err != nil {
			return nil, fmt.Errorf("open queue store: %w", err)
		}
		if err := db.Migrate(); err != nil {
			return nil, fmt.Errorf("migrate queue store: %w", err)
		}
		e.queueDB = db
		return sqlite.NewQueueStore(db), nil
	}
	return memory.NewQueueStore(), nil
}

// trackerSource defers to the broadcaster, which does not exist yet when
// the offline stage is constructed.
type trackerSource struct{ e *Engine }

func (t trackerSource) Connected() bool { return t.e.Broadcaster.Connected() }

func setupLogger(cfg *config.Config) zerolog.Logger {
	level := zerolog.InfoLevel
	format := "json"
	if cfg != nil {
		if l, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
			level = l
		}
		format = cfg.Logging.Format
	}

	var logger zerolog.Logger
	if format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}
