package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

// networkQuietWindow is how long the wire must stay quiet before the page
// counts as settled.
const networkQuietWindow = 500 * time.Millisecond

// ChromeConfig configures the headless Chrome runner.
type ChromeConfig struct {
	NavigateTimeout time.Duration
	Logger          zerolog.Logger
}

// ChromeRunner implements Runner on top of a headless Chrome instance driven
// through the DevTools protocol.
type ChromeRunner struct {
	timeout time.Duration
	logger  zerolog.Logger
}

// NewChromeRunner builds a headless Chrome runner.
func NewChromeRunner(cfg ChromeConfig) *ChromeRunner {
	timeout := cfg.NavigateTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &ChromeRunner{
		timeout: timeout,
		logger:  cfg.Logger.With().Str("component", "browser").Logger(),
	}
}

// EvaluateAll navigates to the page, waits for it to settle, then evaluates
// each script expression. Settling means network idle, not just DOM ready:
// the checks inspect content the page fetches asynchronously after load, so
// evaluating earlier would fail correct pages. A script that throws or
// yields a falsy value fails; the page is loaded once for all scripts.
func (r *ChromeRunner) EvaluateAll(parent context.Context, url string, scripts []string) ([]Result, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	navCtx, cancelNav := context.WithTimeout(browserCtx, r.timeout)
	defer cancelNav()

	watcher := newNetworkWatcher(networkQuietWindow)
	chromedp.ListenTarget(navCtx, func(ev interface{}) {
		switch ev.(type) {
		case *network.EventRequestWillBeSent:
			watcher.requestStarted()
		case *network.EventLoadingFinished, *network.EventLoadingFailed:
			watcher.requestFinished()
		}
	})

	if err := chromedp.Run(navCtx,
		network.Enable(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	); err != nil {
		return nil, fmt.Errorf("failed to load page: %w", err)
	}

	if err := watcher.awaitIdle(navCtx); err != nil {
		return nil, fmt.Errorf("failed to load page: %w", err)
	}

	results := make([]Result, 0, len(scripts))
	for _, script := range scripts {
		var pass bool
		wrapped := fmt.Sprintf("(() => { try { return Boolean(%s); } catch (e) { return false; } })()", script)

		evalCtx, cancelEval := context.WithTimeout(browserCtx, r.timeout)
		err := chromedp.Run(evalCtx, chromedp.Evaluate(wrapped, &pass))
		cancelEval()

		result := Result{Script: script, Pass: pass}
		switch {
		case err != nil:
			result.Pass = false
			result.Detail = fmt.Sprintf("Check error: %v", err)
		case pass:
			result.Detail = "Check passed"
		default:
			result.Detail = "Check failed"
		}

		results = append(results, result)
	}

	return results, nil
}

// networkWatcher tracks in-flight requests so evaluation can wait for the
// wire to go quiet after the document itself has loaded.
type networkWatcher struct {
	quiet time.Duration

	mu       sync.Mutex
	inflight int
	lastDone time.Time
}

func newNetworkWatcher(quiet time.Duration) *networkWatcher {
	return &networkWatcher{quiet: quiet, lastDone: time.Now()}
}

func (w *networkWatcher) requestStarted() {
	w.mu.Lock()
	w.inflight++
	w.mu.Unlock()
}

func (w *networkWatcher) requestFinished() {
	w.mu.Lock()
	if w.inflight > 0 {
		w.inflight--
	}
	w.lastDone = time.Now()
	w.mu.Unlock()
}

// awaitIdle blocks until no request has been in flight for the quiet window,
// or the context expires. A page that never goes quiet within the navigation
// timeout is treated as a load failure.
func (w *networkWatcher) awaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for network idle: %w", ctx.Err())
		case <-ticker.C:
			w.mu.Lock()
			idle := w.inflight == 0 && time.Since(w.lastDone) >= w.quiet
			w.mu.Unlock()
			if idle {
				return nil
			}
		}
	}
}
