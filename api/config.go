package api

import (
	"time"

	"github.com/avolokh/apply-core/pkg/logger"
)

type CoordinatorConfig struct {
	Log      LoggerCfg
	Batching BatchingCfg
	Retry    FlushRetryCfg
	CBreaker CircuitBreakerCfg

	// MonitoringAddr is the listen address of the HTTP operator surface.
	// Empty disables it.
	MonitoringAddr string

	// Hooks enabled at construction time. All hooks default to off.
	Hooks HooksCfg
}

type LoggerCfg struct {
	Env logger.Environment
}

// BatchingCfg controls when deferred (non-forced) flushes happen.
type BatchingCfg struct {
	// MaxDirtyEntries flushes a group once this many entries were processed
	// since its last flush. Zero disables count-based flushing.
	MaxDirtyEntries int

	// FlushInterval is the period of the background flusher that sweeps
	// dirty groups. Zero disables the sweeper.
	FlushInterval time.Duration
}

// FlushRetryCfg bounds the retry of transient engine flush failures.
type FlushRetryCfg struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

type CircuitBreakerCfg struct {
	FailureThreshold int
	SuccessThreshold int
	ResetTimeout     time.Duration
}

// HooksCfg is the construction-time hook state. Runtime toggling goes
// through Coordinator.SetHook / SetAdminSuppressed.
type HooksCfg struct {
	Enabled         []Hook
	SuppressedAdmin []AdminKind
}
