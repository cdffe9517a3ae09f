package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/avolokh/apply-core/api"
	"github.com/avolokh/apply-core/apply"
	"github.com/avolokh/apply-core/pkg/logger"
	"github.com/avolokh/apply-core/raftnode"
	"github.com/goccy/go-yaml"
)

// daemonConfig is the YAML shape of the applyd config file.
type daemonConfig struct {
	Log struct {
		Env       string `yaml:"env"`
		AddSource bool   `yaml:"add_source"`
	} `yaml:"log"`

	MonitoringAddr string `yaml:"monitoring_addr"`

	Batching struct {
		MaxDirtyEntries int           `yaml:"max_dirty_entries"`
		FlushInterval   time.Duration `yaml:"flush_interval"`
	} `yaml:"batching"`

	Retry struct {
		MaxAttempts int           `yaml:"max_attempts"`
		BaseDelay   time.Duration `yaml:"base_delay"`
	} `yaml:"retry"`

	Node raftnode.Config `yaml:"node"`
}

func defaultDaemonConfig() daemonConfig {
	var cfg daemonConfig
	cfg.Log.Env = "dev"
	cfg.MonitoringAddr = ":8090"
	cfg.Node = raftnode.Config{
		ID:    1,
		Group: 1,
		Peers: []raftnode.Peer{{ID: 1, Address: "local"}},
	}
	return cfg
}

// loadConfig reads the YAML config at path. A missing file is not an error,
// the defaults apply.
func loadConfig(path string) (daemonConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("config file not found, using defaults", "path", path)
			return defaultDaemonConfig(), nil
		}
		return daemonConfig{}, fmt.Errorf("read config: %w", err)
	}

	cfg := defaultDaemonConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return daemonConfig{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c daemonConfig) logEnvironment() (logger.Environment, error) {
	switch c.Log.Env {
	case "prod":
		return logger.Prod, nil
	case "staging":
		return logger.Staging, nil
	case "dev", "":
		return logger.Dev, nil
	default:
		return 0, fmt.Errorf("unknown log env %q", c.Log.Env)
	}
}

// coordinatorConfig overlays the file settings on the coordinator defaults.
func (c daemonConfig) coordinatorConfig(env logger.Environment) *api.CoordinatorConfig {
	cfg := apply.DefaultConfig()
	cfg.Log.Env = env
	cfg.MonitoringAddr = c.MonitoringAddr

	if c.Batching.MaxDirtyEntries > 0 {
		cfg.Batching.MaxDirtyEntries = c.Batching.MaxDirtyEntries
	}
	if c.Batching.FlushInterval > 0 {
		cfg.Batching.FlushInterval = c.Batching.FlushInterval
	}
	if c.Retry.MaxAttempts > 0 {
		cfg.Retry.MaxAttempts = c.Retry.MaxAttempts
	}
	if c.Retry.BaseDelay > 0 {
		cfg.Retry.BaseDelay = c.Retry.BaseDelay
	}
	return cfg
}
