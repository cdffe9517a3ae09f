package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo(t *testing.T) {
	t.Run("success on first try", func(t *testing.T) {
		var attempts int
		err := Do(context.Background(), func(ctx context.Context) error {
			attempts++
			return nil
		}, WithMaxAttempts(3))

		require.NoError(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("success after transient failures", func(t *testing.T) {
		var attempts int
		err := Do(context.Background(), func(ctx context.Context) error {
			attempts++
			if attempts < 3 {
				return errors.New("transient")
			}
			return nil
		}, WithMaxAttempts(5), WithBaseDelay(time.Millisecond))

		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("returns last error when budget is spent", func(t *testing.T) {
		var attempts int
		wantErr := errors.New("permanent")
		err := Do(context.Background(), func(ctx context.Context) error {
			attempts++
			return wantErr
		}, WithMaxAttempts(4), WithBaseDelay(time.Millisecond))

		require.ErrorIs(t, err, wantErr)
		assert.Equal(t, 4, attempts)
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		var attempts int

		go func() {
			time.Sleep(5 * time.Millisecond)
			cancel()
		}()

		err := Do(ctx, func(ctx context.Context) error {
			attempts++
			return errors.New("still failing")
		}, WithMaxAttempts(10), WithBaseDelay(10*time.Millisecond))

		require.ErrorIs(t, err, context.Canceled)
		assert.Less(t, attempts, 10)
	})
}
