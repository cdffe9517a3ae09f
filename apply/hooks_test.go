package apply

import (
	"testing"

	"github.com/avolokh/apply-core/api"
	"github.com/stretchr/testify/assert"
)

func TestHooks(t *testing.T) {
	h := NewHooks(api.HooksCfg{
		Enabled:         []api.Hook{api.HookSuppressNormalApply},
		SuppressedAdmin: []api.AdminKind{api.AdminCompactLog},
	})

	t.Run("configured toggles are on", func(t *testing.T) {
		assert.True(t, h.Enabled(api.HookSuppressNormalApply))
		assert.False(t, h.Enabled(api.HookForceAlwaysPersist))
		assert.True(t, h.AdminSuppressed(api.AdminCompactLog))
		assert.False(t, h.AdminSuppressed(api.AdminComputeHash))
	})

	t.Run("toggles flip independently", func(t *testing.T) {
		h.Set(api.HookForceAlwaysPersist, true)
		h.Set(api.HookSuppressNormalApply, false)
		h.SuppressAdmin(api.AdminCompactLog, false)

		assert.True(t, h.Enabled(api.HookForceAlwaysPersist))
		assert.False(t, h.Enabled(api.HookSuppressNormalApply))
		assert.False(t, h.AdminSuppressed(api.AdminCompactLog))
	})

	t.Run("snapshot is a copy", func(t *testing.T) {
		hooks, suppressed := h.Snapshot()
		hooks[api.HookSuppressEmptyObservation] = true
		suppressed[api.AdminVerifyHash] = true

		assert.False(t, h.Enabled(api.HookSuppressEmptyObservation))
		assert.False(t, h.AdminSuppressed(api.AdminVerifyHash))
	})
}
