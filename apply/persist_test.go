package apply

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/avolokh/apply-core/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchingThreshold(t *testing.T) {
	cfg := TestsConfig()
	cfg.Batching.MaxDirtyEntries = 5

	c, eng := newTestCoordinator(t, cfg)

	for i := 1; i <= 4; i++ {
		out, err := c.Apply(1, api.NewPut(1, uint64(i), []byte(fmt.Sprintf("k%d", i)), []byte("v")))
		require.NoError(t, err)
		assert.False(t, out.Flushed)
	}
	_, onDisk := c.ApplyStateOf(1)
	require.Equal(t, api.ApplyState{}, onDisk, "below the threshold nothing is flushed")

	out, err := c.Apply(1, api.NewPut(1, 5, []byte("k5"), []byte("v")))
	require.NoError(t, err)
	assert.True(t, out.Flushed)

	inMem, onDisk := c.ApplyStateOf(1)
	assert.Equal(t, inMem, onDisk)
	assert.Equal(t, uint64(5), onDisk.AppliedIndex)
	assert.Equal(t, 1, eng.Flushes(1))
}

func TestDeferredFlushFailureKeepsGroupDirty(t *testing.T) {
	cfg := TestsConfig()
	cfg.Batching.MaxDirtyEntries = 1

	c, eng := newTestCoordinator(t, cfg)
	eng.FailFlushes(errors.New("disk full"))

	out, err := c.Apply(1, api.NewPut(1, 1, []byte("k"), []byte("v")))
	require.NoError(t, err, "a deferred flush failure must not fail the apply")
	assert.False(t, out.Flushed)

	_, onDisk := c.ApplyStateOf(1)
	assert.Equal(t, api.ApplyState{}, onDisk)

	t.Run("next boundary retries and succeeds", func(t *testing.T) {
		eng.FailFlushes(nil)

		out, err := c.Apply(1, api.NewPut(1, 2, []byte("k2"), []byte("v")))
		require.NoError(t, err)
		assert.True(t, out.Flushed)

		inMem, onDisk := c.ApplyStateOf(1)
		assert.Equal(t, inMem, onDisk)
		assert.Equal(t, uint64(2), onDisk.AppliedIndex)
	})
}

func TestIntervalFlusher(t *testing.T) {
	cfg := TestsConfig()
	cfg.Batching.FlushInterval = 10 * time.Millisecond

	c, _ := newTestCoordinator(t, cfg)

	events, cancel := c.SubscribeFlushes(1)
	defer cancel()

	_, err := c.Apply(1, api.NewPut(1, 1, []byte("k"), []byte("v")))
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, api.GroupID(1), ev.Group)
		assert.Equal(t, uint64(1), ev.State.AppliedIndex)
	case <-time.After(2 * time.Second):
		t.Fatal("interval flusher never picked up the dirty group")
	}

	inMem, onDisk := c.ApplyStateOf(1)
	assert.Equal(t, inMem, onDisk)
}

func TestFlushCopiesWholeState(t *testing.T) {
	c, _ := newTestCoordinator(t, nil)

	applyPuts(t, c, 1, 2, 1, 7)

	out, err := c.Apply(1, api.NewCompactLog(2, 8, 4, 2))
	require.NoError(t, err)
	require.True(t, out.Flushed)

	_, onDisk := c.ApplyStateOf(1)
	assert.Equal(t, api.ApplyState{
		AppliedIndex:   8,
		AppliedTerm:    2,
		TruncatedIndex: 4,
		TruncatedTerm:  2,
	}, onDisk, "a flush captures applied and truncated positions together")
}
