// internal/browser/driver.go
package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
	"github.com/xkilldash9x/webpilot-cli/internal/config"
)

// Driver owns a headless Chrome instance and implements schemas.BrowserSession.
// Screenshots are written into the artifact directory so the watcher can pick
// them up.
type Driver struct {
	ctx         context.Context
	cancel      context.CancelFunc
	cancelAlloc context.CancelFunc
	logger      *zap.Logger

	navTimeout  time.Duration
	artifactDir string

	mu       sync.Mutex
	isClosed bool
}

var _ schemas.BrowserSession = (*Driver)(nil)

// NewDriver launches a browser and connects a new tab.
func NewDriver(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Driver, error) {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.Flag("headless", cfg.Headless))
	if cfg.IgnoreTLSErrors {
		opts = append(opts, chromedp.Flag("ignore-certificate-errors", true))
	}
	for _, arg := range cfg.Args {
		parts := strings.SplitN(strings.TrimPrefix(arg, "--"), "=", 2)
		if len(parts) == 2 {
			opts = append(opts, chromedp.Flag(parts[0], parts[1]))
		} else {
			opts = append(opts, chromedp.Flag(parts[0], true))
		}
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	navTimeout := cfg.NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = 90 * time.Second
	}
	artifactDir := cfg.ArtifactDir
	if artifactDir == "" {
		artifactDir = "artifacts"
	}

	d := &Driver{
		ctx:         tabCtx,
		cancel:      cancelTab,
		cancelAlloc: cancelAlloc,
		logger:      logger.Named("browser"),
		navTimeout:  navTimeout,
		artifactDir: artifactDir,
	}

	// Connect the target eagerly so launch failures surface here rather
	// than on the first navigation.
	if err := chromedp.Run(tabCtx,
		emulation.SetDeviceMetricsOverride(1280, 900, 1.0, false),
	); err != nil {
		d.closeContexts()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return d, nil
}

// Navigate loads the URL and waits for the document to become ready.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	d.logger.Debug("Navigating", zap.String("url", url))
	return d.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// PageHTML returns the serialized DOM of the current page.
func (d *Driver) PageHTML(ctx context.Context) (string, error) {
	var html string
	if err := d.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to capture page HTML: %w", err)
	}
	return html, nil
}

// clickByTextJS locates a clickable element whose visible text matches the
// target and clicks it. Falls back from exact to prefix matching.
const clickByTextJS = `(() => {
    const target = %q.trim().toLowerCase();
    const candidates = Array.from(document.querySelectorAll('a, button, input[type="submit"], input[type="button"], [role="button"]'));
    const textOf = (el) => (el.innerText || el.value || '').trim().toLowerCase();
    let el = candidates.find((c) => textOf(c) === target) || candidates.find((c) => textOf(c).startsWith(target));
    if (!el) return false;
    el.click();
    return true;
})()`

// Click activates the element identified by target: a CSS selector first,
// then a visible-text lookup.
func (d *Driver) Click(ctx context.Context, target string) error {
	d.logger.Debug("Clicking", zap.String("target", target))

	// Selector syntax is tried first with a short deadline so text targets
	// like "Sign in" don't hang on WaitVisible.
	selCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := d.run(selCtx, chromedp.Click(target, chromedp.ByQuery))
	cancel()
	if err == nil {
		return nil
	}

	var clicked bool
	if err := d.run(ctx, chromedp.Evaluate(fmt.Sprintf(clickByTextJS, target), &clicked)); err != nil {
		return fmt.Errorf("failed to click %q: %w", target, err)
	}
	if !clicked {
		return fmt.Errorf("no clickable element matched %q", target)
	}
	return nil
}

// Type focuses the element and sends the text as keystrokes.
func (d *Driver) Type(ctx context.Context, selector, text string) error {
	d.logger.Debug("Typing", zap.String("selector", selector), zap.Int("chars", len(text)))
	return d.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
}

// CaptureScreenshot takes a full-page screenshot and writes it into the
// artifact directory under the given file name. Returns the written path.
func (d *Driver) CaptureScreenshot(ctx context.Context, fileName string) (string, error) {
	var buf []byte
	err := d.run(ctx, chromedp.ActionFunc(func(c context.Context) error {
		var captureErr error
		buf, captureErr = page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			WithCaptureBeyondViewport(true).
			Do(c)
		return captureErr
	}))
	if err != nil {
		return "", fmt.Errorf("failed to capture screenshot: %w", err)
	}

	if err := os.MkdirAll(d.artifactDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}
	path := filepath.Join(d.artifactDir, fileName)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return "", fmt.Errorf("failed to write screenshot: %w", err)
	}

	d.logger.Debug("Screenshot captured", zap.String("path", path), zap.Int("bytes", len(buf)))
	return path, nil
}

// Close tears down the tab and the browser process. Safe to call twice.
func (d *Driver) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.isClosed {
		return nil
	}
	d.isClosed = true

	// Ask the browser to exit cleanly before cancelling the allocator.
	if err := chromedp.Cancel(d.ctx); err != nil {
		d.logger.Debug("Browser did not shut down cleanly", zap.Error(err))
	}
	d.closeContexts()
	return nil
}

func (d *Driver) closeContexts() {
	d.cancel()
	d.cancelAlloc()
}

// run executes chromedp actions bound to both the tab lifetime and the
// caller's context, with the navigation timeout as an upper bound.
func (d *Driver) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := mergeContexts(d.ctx, ctx)
	defer cancel()
	runCtx, cancelTimeout := context.WithTimeout(runCtx, d.navTimeout)
	defer cancelTimeout()
	return chromedp.Run(runCtx, actions...)
}

// mergeContexts derives a context from the tab context that is also
// cancelled when the caller's context is.
func mergeContexts(tab, caller context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancel(tab)
	stop := context.AfterFunc(caller, cancel)
	return merged, func() {
		stop()
		cancel()
	}
}
