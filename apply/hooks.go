package apply

import (
	"sync"

	"github.com/avolokh/apply-core/api"
)

// Hooks is the explicit hook configuration object handed to the coordinator
// at construction. Each named toggle is independent and read at dispatch
// time; there is no ambient global state. Safe for concurrent use so the
// operator surface can flip toggles while entries are being applied.
type Hooks struct {
	mu              sync.RWMutex
	enabled         map[api.Hook]bool
	suppressedAdmin map[api.AdminKind]bool
}

func NewHooks(cfg api.HooksCfg) *Hooks {
	h := &Hooks{
		enabled:         make(map[api.Hook]bool),
		suppressedAdmin: make(map[api.AdminKind]bool),
	}
	for _, hook := range cfg.Enabled {
		h.enabled[hook] = true
	}
	for _, kind := range cfg.SuppressedAdmin {
		h.suppressedAdmin[kind] = true
	}
	return h
}

func (h *Hooks) Set(hook api.Hook, enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.enabled[hook] = enabled
}

func (h *Hooks) Enabled(hook api.Hook) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.enabled[hook]
}

// SuppressAdmin bypasses (or restores) the handler of one admin kind.
func (h *Hooks) SuppressAdmin(kind api.AdminKind, suppressed bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.suppressedAdmin[kind] = suppressed
}

func (h *Hooks) AdminSuppressed(kind api.AdminKind) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.suppressedAdmin[kind]
}

// Snapshot returns a copy of the current toggle state, for the operator
// surface.
func (h *Hooks) Snapshot() (hooks map[api.Hook]bool, suppressed map[api.AdminKind]bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	hooks = make(map[api.Hook]bool, len(h.enabled))
	for k, v := range h.enabled {
		hooks[k] = v
	}
	suppressed = make(map[api.AdminKind]bool, len(h.suppressedAdmin))
	for k, v := range h.suppressedAdmin {
		suppressed[k] = v
	}
	return hooks, suppressed
}
