package apply

import (
	"context"
	"errors"
	"log/slog"

	"github.com/avolokh/apply-core/api"
	"github.com/avolokh/apply-core/pkg/logger"
)

type coordinatorBuilder struct {
	// required
	engine api.Engine

	// optional with defaults
	cfg *api.CoordinatorConfig
	log *slog.Logger
}

// NewCoordinatorBuilder returns a builder for a Coordinator applying entries
// to the given engine.
func NewCoordinatorBuilder(engine api.Engine) api.CoordinatorBuilder {
	return &coordinatorBuilder{
		engine: engine,
		cfg:    DefaultConfig(),
	}
}

func (cb *coordinatorBuilder) Build() (api.Coordinator, error) {
	if cb.engine == nil {
		return nil, errors.New("builder: engine is required")
	}

	log := cb.log
	if log == nil {
		log = logger.NewLogger(cb.cfg.Log.Env, false)
	}

	ctx, cancel := context.WithCancel(context.Background())

	hooks := NewHooks(cb.cfg.Hooks)
	store := newStateStore(log)
	notifier := newFlushNotifier()

	c := &Coordinator{
		cfg:      cb.cfg,
		engine:   cb.engine,
		store:    store,
		hooks:    hooks,
		notifier: notifier,
		persist:  newPersistEngine(cb.engine, store, hooks, notifier, cb.cfg, log),
		ctx:      ctx,
		cancel:   cancel,
		logger:   log,
	}

	if cb.cfg.Batching.FlushInterval > 0 {
		c.wg.Add(1)
		go c.flusher()
	}
	c.startMonitoringServer()

	return c, nil
}

func (cb *coordinatorBuilder) WithConfig(cfg *api.CoordinatorConfig) api.CoordinatorBuilder {
	if cfg != nil {
		cb.cfg = cfg
	}
	return cb
}

func (cb *coordinatorBuilder) WithLogger(l *slog.Logger) api.CoordinatorBuilder {
	cb.log = l
	return cb
}
