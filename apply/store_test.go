package apply

import (
	"testing"

	"github.com/avolokh/apply-core/api"
	"github.com/avolokh/apply-core/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateStoreGroups(t *testing.T) {
	_, log := logger.NewTestLogger()
	s := newStateStore(log)

	g := s.group(7)
	require.NotNil(t, g)
	assert.Equal(t, api.ApplyState{}, g.inMemory, "new groups start from the zero state")
	assert.Equal(t, api.ApplyState{}, g.onDisk)

	assert.Same(t, g, s.group(7), "second lookup returns the same record")
	assert.NotSame(t, g, s.group(8))
}

func TestStateStoreCheck(t *testing.T) {
	tt := []struct {
		name     string
		inMemory api.ApplyState
		onDisk   api.ApplyState
		wantErr  bool
	}{
		{
			name: "clean group",
		},
		{
			name:     "dirty group within invariants",
			inMemory: api.ApplyState{AppliedIndex: 10, AppliedTerm: 2, TruncatedIndex: 4, TruncatedTerm: 1},
			onDisk:   api.ApplyState{AppliedIndex: 6, AppliedTerm: 2, TruncatedIndex: 4, TruncatedTerm: 1},
		},
		{
			name:     "on-disk applied ahead of memory",
			inMemory: api.ApplyState{AppliedIndex: 5, AppliedTerm: 1},
			onDisk:   api.ApplyState{AppliedIndex: 9, AppliedTerm: 1},
			wantErr:  true,
		},
		{
			name:     "on-disk truncation ahead of memory",
			inMemory: api.ApplyState{AppliedIndex: 9, AppliedTerm: 1, TruncatedIndex: 2},
			onDisk:   api.ApplyState{AppliedIndex: 9, AppliedTerm: 1, TruncatedIndex: 5},
			wantErr:  true,
		},
		{
			name:     "truncation beyond applied",
			inMemory: api.ApplyState{AppliedIndex: 5, AppliedTerm: 1, TruncatedIndex: 8},
			wantErr:  true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			_, log := logger.NewTestLogger()
			s := newStateStore(log)

			g := s.group(1)
			g.mu.Lock()
			defer g.mu.Unlock()
			g.inMemory = tc.inMemory
			g.onDisk = tc.onDisk

			err := s.check(1, g)
			if !tc.wantErr {
				require.NoError(t, err)
				assert.False(t, g.aborted)
				return
			}
			require.ErrorIs(t, err, api.ErrInconsistentState)
			assert.True(t, g.aborted, "a violated group must refuse further work")
		})
	}
}

func TestAbortedGroupRefusesWork(t *testing.T) {
	c, _ := newTestCoordinator(t, nil)

	_, err := c.Apply(1, api.NewPut(1, 1, []byte("k"), []byte("v")))
	require.NoError(t, err)

	// Corrupt the record behind the coordinator's back so the next entry
	// trips the invariant check.
	g := c.store.group(1)
	g.mu.Lock()
	g.onDisk.AppliedIndex = 99
	g.mu.Unlock()

	_, err = c.Apply(1, api.NewPut(1, 2, []byte("k2"), []byte("v")))
	require.ErrorIs(t, err, api.ErrInconsistentState)

	t.Run("stays aborted", func(t *testing.T) {
		_, err := c.Apply(1, api.NewPut(1, 3, []byte("k3"), []byte("v")))
		require.ErrorIs(t, err, api.ErrInconsistentState)
	})

	t.Run("other groups unaffected", func(t *testing.T) {
		_, err := c.Apply(2, api.NewPut(1, 1, []byte("k"), []byte("v")))
		require.NoError(t, err)
	})
}
