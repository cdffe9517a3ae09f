package apply

import (
	"testing"

	"github.com/avolokh/apply-core/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlushNotifier(t *testing.T) {
	t.Run("fan-out to subscribers", func(t *testing.T) {
		n := newFlushNotifier()
		a, cancelA := n.subscribe(1)
		b, cancelB := n.subscribe(1)
		defer cancelA()
		defer cancelB()

		ev := api.FlushEvent{Group: 3, State: api.ApplyState{AppliedIndex: 7}}
		n.notify(ev)

		assert.Equal(t, ev, <-a)
		assert.Equal(t, ev, <-b)
	})

	t.Run("full subscriber misses events instead of blocking", func(t *testing.T) {
		n := newFlushNotifier()
		ch, cancel := n.subscribe(1)
		defer cancel()

		n.notify(api.FlushEvent{Group: 1, State: api.ApplyState{AppliedIndex: 1}})
		n.notify(api.FlushEvent{Group: 1, State: api.ApplyState{AppliedIndex: 2}})

		ev := <-ch
		assert.Equal(t, uint64(1), ev.State.AppliedIndex)
		select {
		case ev := <-ch:
			t.Fatalf("unexpected second event: %+v", ev)
		default:
		}
	})

	t.Run("cancel closes the channel", func(t *testing.T) {
		n := newFlushNotifier()
		ch, cancel := n.subscribe(1)

		cancel()
		_, open := <-ch
		assert.False(t, open)

		cancel() // idempotent
		n.notify(api.FlushEvent{Group: 1})
	})

	t.Run("subscribe after close", func(t *testing.T) {
		n := newFlushNotifier()
		before, _ := n.subscribe(1)
		n.close()

		_, open := <-before
		require.False(t, open, "existing subscriptions close with the notifier")

		after, cancel := n.subscribe(1)
		defer cancel()
		_, open = <-after
		assert.False(t, open, "late subscriptions see a closed channel")
	})
}
