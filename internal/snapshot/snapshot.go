// Package snapshot renders audited pages in headless Chrome.
package snapshot

import (
	"context"
	"fmt"
	"net/netip"
	"net/url"
	"strings"
	"sync"
	"time"

	"apilab/internal/gateway/provider"
	"apilab/internal/logger"

	"github.com/chromedp/chromedp"
	"github.com/gabriel-vasile/mimetype"
)

const (
	defaultWidth   = 1366
	defaultHeight  = 900
	defaultTimeout = 20 * time.Second
	defaultSettle  = 1500 * time.Millisecond
)

type Config struct {
	Width   int
	Height  int
	Timeout time.Duration
	// Settle is how long to wait after load for late scripts and images.
	Settle time.Duration
}

// Capturer takes above-the-fold screenshots. It is safe for concurrent use;
// each capture gets its own browser context.
type Capturer struct {
	cfg Config

	headlessOnce sync.Once
	headlessErr  error
}

func New(cfg Config) *Capturer {
	if cfg.Width <= 0 {
		cfg.Width = defaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = defaultHeight
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Settle < 0 {
		cfg.Settle = 0
	} else if cfg.Settle == 0 {
		cfg.Settle = defaultSettle
	}
	return &Capturer{cfg: cfg}
}

// Available reports whether a headless browser can be started. The probe
// runs once.
func (c *Capturer) Available(ctx context.Context) error {
	c.headlessOnce.Do(func() {
		if ctx == nil {
			ctx = context.Background()
		}
		parent, cancel := chromedp.NewContext(ctx)
		defer cancel()
		c.headlessErr = chromedp.Run(parent)
	})
	return c.headlessErr
}

// Capture navigates to rawURL and returns the viewport as an image.
func (c *Capturer) Capture(ctx context.Context, rawURL string) (provider.InlineData, error) {
	target, err := NormalizeURL(rawURL)
	if err != nil {
		return provider.InlineData{}, err
	}
	if err := c.Available(ctx); err != nil {
		return provider.InlineData{}, fmt.Errorf("headless browser unavailable: %w", err)
	}
	parent, cancel := chromedp.NewContext(ctx)
	defer cancel()
	timeoutCtx, cancelTimeout := context.WithTimeout(parent, c.cfg.Timeout)
	defer cancelTimeout()

	start := time.Now()
	var shot []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(c.cfg.Width), int64(c.cfg.Height)),
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(c.cfg.Settle),
		chromedp.CaptureScreenshot(&shot),
	}
	if err := chromedp.Run(timeoutCtx, tasks...); err != nil {
		return provider.InlineData{}, fmt.Errorf("capture %s: %w", target, err)
	}
	if len(shot) == 0 {
		return provider.InlineData{}, fmt.Errorf("capture %s: empty screenshot", target)
	}
	logger.Debugf("[snapshot] %s captured %d bytes in %s", target, len(shot), time.Since(start).Round(time.Millisecond))
	return provider.InlineData{MIMEType: mimetype.Detect(shot).String(), Data: shot}, nil
}

// NormalizeURL adds https:// to bare hosts and rejects anything that is not
// an http(s) URL with a public host. Loopback, private, link-local and
// unspecified addresses are refused when given literally; names that only
// resolve to such addresses are not checked.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty url")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", raw)
	}
	if err := checkPublicHost(u.Hostname()); err != nil {
		return "", err
	}
	return u.String(), nil
}

func checkPublicHost(host string) error {
	h := strings.TrimSuffix(strings.ToLower(host), ".")
	if h == "localhost" || strings.HasSuffix(h, ".localhost") {
		return fmt.Errorf("refusing to capture local host %q", host)
	}
	addr, err := netip.ParseAddr(h)
	if err != nil {
		return nil
	}
	addr = addr.Unmap()
	if addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() || addr.IsUnspecified() || addr.IsMulticast() {
		return fmt.Errorf("refusing to capture non-public address %s", addr)
	}
	return nil
}
