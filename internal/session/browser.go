package session

import (
	"context"
	"time"
)

// Cookie is a browser cookie. A zero Expires marks a session cookie.
type Cookie struct {
	Name    string
	Value   string
	Expires time.Time
}

// Browser is a single open browser session. Close releases every resource
// held by it and must be safe to call once on any exit path.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	Fill(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	// WaitVisible blocks until the element matching selector is visible
	// or ctx is done.
	WaitVisible(ctx context.Context, selector string) error
	Cookie(ctx context.Context, name string) (Cookie, error)
	Close() error
}

// Driver launches browser sessions. Implementations are interchangeable.
type Driver interface {
	Open(ctx context.Context) (Browser, error)
}
