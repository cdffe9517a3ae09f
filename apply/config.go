package apply

import (
	"time"

	"github.com/avolokh/apply-core/api"
	"github.com/avolokh/apply-core/pkg/logger"
)

const (
	defaultMonitoringAddr = ""
)

func DefaultConfig() *api.CoordinatorConfig {
	return &api.CoordinatorConfig{
		Log: api.LoggerCfg{
			Env: logger.Dev,
		},
		Batching: api.BatchingCfg{
			MaxDirtyEntries: 128,
			FlushInterval:   10 * time.Second,
		},
		Retry: api.FlushRetryCfg{
			MaxAttempts: 3,
			BaseDelay:   50 * time.Millisecond,
		},
		CBreaker: api.CircuitBreakerCfg{
			FailureThreshold: 6,
			SuccessThreshold: 4,
			ResetTimeout:     5 * time.Second,
		},
		MonitoringAddr: defaultMonitoringAddr,
	}
}

// TestsConfig disables batching and background flushing so flushes happen
// only at forcing events, keeping test observations deterministic.
func TestsConfig() *api.CoordinatorConfig {
	return &api.CoordinatorConfig{
		Log: api.LoggerCfg{
			Env: logger.Dev,
		},
		Batching: api.BatchingCfg{
			MaxDirtyEntries: 0,
			FlushInterval:   0,
		},
		Retry: api.FlushRetryCfg{
			MaxAttempts: 1,
			BaseDelay:   time.Millisecond,
		},
		CBreaker: api.CircuitBreakerCfg{
			FailureThreshold: 100,
			SuccessThreshold: 1,
			ResetTimeout:     time.Millisecond,
		},
	}
}
