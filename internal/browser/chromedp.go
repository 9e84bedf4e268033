package browser

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/bibhubhatta/wecare/internal/session"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Chromedp drives a local chrome through the devtools protocol.
type Chromedp struct {
	Headless bool
	// ExecPath overrides the chrome binary, empty means search the PATH.
	ExecPath string
}

func (c Chromedp) Open(ctx context.Context) (session.Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", c.Headless),
		chromedp.WindowSize(1280, 800),
	)
	if c.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(c.ExecPath))
	}

	// the browser outlives the ctx of the call that opened it, it is
	// stopped by Close
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	b := &chromedpBrowser{
		ctx: browserCtx,
		cancel: func() {
			cancelBrowser()
			cancelAlloc()
		},
	}

	// the first run allocates the browser, it must use the browser's own
	// ctx or cancelling it would stop the browser
	err := chromedp.Run(browserCtx)
	if err != nil {
		b.cancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	return b, nil
}

type chromedpBrowser struct {
	ctx    context.Context
	cancel func()
}

// run executes actions in the browser while also honoring the caller's ctx.
func (b *chromedpBrowser) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(b.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (b *chromedpBrowser) Navigate(ctx context.Context, url string) error {
	return b.run(ctx, chromedp.Navigate(url))
}

func (b *chromedpBrowser) Fill(ctx context.Context, selector, value string) error {
	return b.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
}

func (b *chromedpBrowser) Click(ctx context.Context, selector string) error {
	return b.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

func (b *chromedpBrowser) WaitVisible(ctx context.Context, selector string) error {
	return b.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (b *chromedpBrowser) Cookie(ctx context.Context, name string) (session.Cookie, error) {
	var cookies []*network.Cookie
	err := b.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return session.Cookie{}, err
	}

	for _, c := range cookies {
		if c.Name != name {
			continue
		}
		return session.Cookie{
			Name:    c.Name,
			Value:   c.Value,
			Expires: cookieExpiry(c.Session, c.Expires),
		}, nil
	}
	return session.Cookie{}, fmt.Errorf("cookie %s not found", name)
}

func (b *chromedpBrowser) Close() error {
	b.cancel()
	return nil
}

// cookieExpiry converts a devtools expiry (seconds since the epoch, <= 0
// for session cookies) to a time, the zero time marks a session cookie.
func cookieExpiry(isSession bool, seconds float64) time.Time {
	if isSession || seconds <= 0 {
		return time.Time{}
	}
	whole, frac := math.Modf(seconds)
	return time.Unix(int64(whole), int64(frac*1e9))
}
