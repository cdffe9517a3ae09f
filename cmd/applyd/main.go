// applyd hosts a single raft-driven group over an in-memory storage engine,
// with the apply coordinator between them and its operator HTTP surface
// enabled. Intended for local runs and integration environments.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/avolokh/apply-core/apply"
	"github.com/avolokh/apply-core/pkg/logger"
	"github.com/avolokh/apply-core/pkg/memstore"
	"github.com/avolokh/apply-core/raftnode"
)

func main() {
	configPath := flag.String("config", "applyd.yaml", "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("applyd failed", logger.ErrAttr(err))
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	env, err := cfg.logEnvironment()
	if err != nil {
		return err
	}
	log := logger.NewLogger(env, cfg.Log.AddSource)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	coord, err := apply.NewCoordinatorBuilder(memstore.New()).
		WithConfig(cfg.coordinatorConfig(env)).
		WithLogger(log).
		Build()
	if err != nil {
		return err
	}

	node, err := raftnode.NewNode(cfg.Node, coord, &raftnode.Loopback{}, log)
	if err != nil {
		_ = coord.Close()
		return err
	}

	log.Info(
		"applyd started",
		slog.Uint64("node", cfg.Node.ID),
		slog.Uint64("group", uint64(cfg.Node.Group)),
		slog.String("monitoring", cfg.MonitoringAddr),
	)

	runErr := node.Run(ctx)
	if runErr == context.Canceled {
		runErr = nil
	}

	if err := coord.Close(); err != nil {
		log.Error("coordinator close failed", logger.ErrAttr(err))
		if runErr == nil {
			runErr = err
		}
	}

	log.Info("applyd stopped")
	return runErr
}
