package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAwaitIdleWaitsForInflightRequests(t *testing.T) {
	watcher := newNetworkWatcher(50 * time.Millisecond)
	watcher.requestStarted()

	done := make(chan struct{})
	go func() {
		time.Sleep(150 * time.Millisecond)
		watcher.requestFinished()
		close(done)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	require.NoError(t, watcher.awaitIdle(ctx))
	<-done
	require.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond,
		"idle must not be reported while a fetch is still in flight")
}

func TestAwaitIdleRequiresQuietWindow(t *testing.T) {
	watcher := newNetworkWatcher(100 * time.Millisecond)
	watcher.requestStarted()
	watcher.requestFinished()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	require.NoError(t, watcher.awaitIdle(ctx))
	require.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestAwaitIdleFailsWhenPageNeverSettles(t *testing.T) {
	watcher := newNetworkWatcher(50 * time.Millisecond)
	watcher.requestStarted()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := watcher.awaitIdle(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAwaitIdleOnQuietPage(t *testing.T) {
	watcher := newNetworkWatcher(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, watcher.awaitIdle(ctx))
}
