package browser

import (
	"context"
	"fmt"

	"github.com/bibhubhatta/wecare/internal/session"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Rod drives a local chromium through go-rod.
type Rod struct {
	Headless bool
	// Bin overrides the browser binary, empty lets rod find or download one.
	Bin string
}

func (r Rod) Open(ctx context.Context) (session.Browser, error) {
	l := launcher.New().Headless(r.Headless)
	if r.Bin != "" {
		l = l.Bin(r.Bin)
	}
	controlUrl, err := l.Context(ctx).Launch()
	if err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlUrl)
	err = browser.Connect()
	if err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		browser.Close()
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("open page: %w", err)
	}

	return &rodBrowser{launcher: l, browser: browser, page: page}, nil
}

type rodBrowser struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

func (b *rodBrowser) Navigate(ctx context.Context, url string) error {
	page := b.page.Context(ctx)
	err := page.Navigate(url)
	if err != nil {
		return err
	}
	return page.WaitLoad()
}

func (b *rodBrowser) element(ctx context.Context, selector string) (*rod.Element, error) {
	// Element retries until the selector matches or ctx is done
	return b.page.Context(ctx).Element(selector)
}

func (b *rodBrowser) Fill(ctx context.Context, selector, value string) error {
	el, err := b.element(ctx, selector)
	if err != nil {
		return err
	}
	return el.Input(value)
}

func (b *rodBrowser) Click(ctx context.Context, selector string) error {
	el, err := b.element(ctx, selector)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (b *rodBrowser) WaitVisible(ctx context.Context, selector string) error {
	el, err := b.element(ctx, selector)
	if err != nil {
		return err
	}
	return el.WaitVisible()
}

func (b *rodBrowser) Cookie(ctx context.Context, name string) (session.Cookie, error) {
	cookies, err := b.page.Context(ctx).Cookies(nil)
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
			Expires: cookieExpiry(c.Session, float64(c.Expires)),
		}, nil
	}
	return session.Cookie{}, fmt.Errorf("cookie %s not found", name)
}

func (b *rodBrowser) Close() error {
	err := b.browser.Close()
	b.launcher.Kill()
	b.launcher.Cleanup()
	return err
}
