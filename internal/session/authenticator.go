package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bibhubhatta/wecare/internal/assert"
	"github.com/bibhubhatta/wecare/internal/chrono"
	"github.com/bibhubhatta/wecare/internal/inventory"
	"github.com/bibhubhatta/wecare/lib/telemetry"
)

const (
	report_authenticator_acquire    = "authenticator.acquire"
	report_authenticator_login      = "authenticator.login"
	report_authenticator_invalidate = "authenticator.invalidate"
)

// State is the lifecycle position of an Authenticator.
type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
	Expired
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Expired:
		return "expired"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

const (
	DefaultUsernameSelector = "#username"
	DefaultPasswordSelector = "#password"
	DefaultSubmitSelector   = "#index_login_btn"
	DefaultMarkerSelector   = "a[href='/inventoryitem/']"
	DefaultCookieName       = "PHPSESSID"
	DefaultTimeout          = 10 * time.Second
	DefaultSessionLifetime  = time.Hour
)

// LoginOptions describes the login form and the cookie it yields.
type LoginOptions struct {
	Url      string
	Username string
	Password string

	UsernameSelector string
	PasswordSelector string
	SubmitSelector   string
	// MarkerSelector matches an element that only exists once logged in.
	MarkerSelector string
	CookieName     string

	// Timeout bounds the wait for MarkerSelector.
	Timeout time.Duration
	// SessionLifetime is the lifetime given to cookies without an expiry.
	SessionLifetime time.Duration
}

func (o LoginOptions) withDefaults() LoginOptions {
	if o.UsernameSelector == "" {
		o.UsernameSelector = DefaultUsernameSelector
	}
	if o.PasswordSelector == "" {
		o.PasswordSelector = DefaultPasswordSelector
	}
	if o.SubmitSelector == "" {
		o.SubmitSelector = DefaultSubmitSelector
	}
	if o.MarkerSelector == "" {
		o.MarkerSelector = DefaultMarkerSelector
	}
	if o.CookieName == "" {
		o.CookieName = DefaultCookieName
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.SessionLifetime <= 0 {
		o.SessionLifetime = DefaultSessionLifetime
	}
	return o
}

// Authenticator obtains session credentials by driving a browser through a
// login form. It opens at most one browser session at a time.
type Authenticator struct {
	driver Driver
	store  Store
	time   chrono.TimeAPI
	opts   LoginOptions
	tel    telemetry.API

	mutex   sync.Mutex
	state   State
	current Credential
}

func NewAuthenticator(
	driver Driver,
	store Store,
	time chrono.TimeAPI,
	opts LoginOptions,
	tel telemetry.API,
) *Authenticator {
	assert.NotNil(driver)
	assert.NotNil(store)
	assert.NotNil(time)
	assert.NotNil(tel)

	return &Authenticator{
		driver: driver,
		store:  store,
		time:   time,
		opts:   opts.withDefaults(),
		tel:    telemetry.NewScopedAPI("session", tel),
	}
}

// credentialName keys the persisted credential per account.
func (a *Authenticator) credentialName() string {
	return a.opts.CookieName + ":" + a.opts.Username
}

func (a *Authenticator) State() State {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.state
}

// Acquire returns a valid credential, reusing the in-memory or persisted one
// while it has not expired and logging in otherwise.
func (a *Authenticator) Acquire(ctx context.Context) (Credential, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	now := a.time.Now()
	if a.current.Valid(now) {
		return a.current, nil
	}

	stored, err := a.store.Load(ctx, a.credentialName())
	switch {
	case err == nil && stored.Valid(now):
		a.tel.ReportDebug("reusing stored credential", stored.Expiry)
		a.current = stored
		a.state = Authenticated
		return stored, nil
	case err == nil:
		a.state = Expired
	case !errors.Is(err, ErrNoCredential):
		a.tel.ReportWarning(
			report_authenticator_acquire,
			fmt.Errorf("load stored credential: %w", err),
		)
	}
	if a.current.Token != "" {
		a.state = Expired
	}

	return a.login(ctx)
}

// Login forces a fresh browser login regardless of any cached credential.
func (a *Authenticator) Login(ctx context.Context) (Credential, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.login(ctx)
}

func (a *Authenticator) login(ctx context.Context) (Credential, error) {
	a.state = Authenticating
	a.current = Credential{}

	cred, err := a.runLogin(ctx)
	if err != nil {
		a.state = Unauthenticated
		return Credential{}, err
	}

	err = a.store.Save(ctx, cred)
	if err != nil {
		a.tel.ReportBroken(
			report_authenticator_login,
			fmt.Errorf("persist credential: %w", err),
		)
	}

	a.current = cred
	a.state = Authenticated
	return cred, nil
}

func (a *Authenticator) runLogin(ctx context.Context) (cred Credential, err error) {
	const op = "session.login"

	browser, err := a.driver.Open(ctx)
	if err != nil {
		a.tel.ReportBroken(report_authenticator_login, fmt.Errorf("open browser: %w", err))
		return Credential{}, inventory.Wrap(inventory.KindRemote, op, err)
	}
	defer func() {
		closeErr := browser.Close()
		if closeErr != nil {
			a.tel.ReportWarning(report_authenticator_login, fmt.Errorf("close browser: %w", closeErr))
		}
	}()

	steps := []struct {
		name string
		run  func() error
	}{
		{"navigate", func() error { return browser.Navigate(ctx, a.opts.Url) }},
		{"fill username", func() error { return browser.Fill(ctx, a.opts.UsernameSelector, a.opts.Username) }},
		{"fill password", func() error { return browser.Fill(ctx, a.opts.PasswordSelector, a.opts.Password) }},
		{"submit", func() error { return browser.Click(ctx, a.opts.SubmitSelector) }},
	}
	for _, s := range steps {
		err = s.run()
		if err != nil {
			a.tel.ReportBroken(report_authenticator_login, fmt.Errorf("%s: %w", s.name, err), a.opts.Url)
			return Credential{}, inventory.Wrap(inventory.KindRemote, op, fmt.Errorf("%s: %w", s.name, err))
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()
	err = browser.WaitVisible(waitCtx, a.opts.MarkerSelector)
	if err != nil {
		if ctx.Err() == nil && waitCtx.Err() != nil {
			a.tel.ReportBroken(
				report_authenticator_login,
				fmt.Errorf("post-login marker %s did not appear within %s", a.opts.MarkerSelector, a.opts.Timeout),
			)
			return Credential{}, inventory.Errorf(
				inventory.KindAuthTimeout, op,
				"login marker %q did not appear within %s", a.opts.MarkerSelector, a.opts.Timeout,
			)
		}
		a.tel.ReportBroken(report_authenticator_login, fmt.Errorf("wait for marker: %w", err))
		return Credential{}, inventory.Wrap(inventory.KindRemote, op, err)
	}

	cookie, err := browser.Cookie(ctx, a.opts.CookieName)
	if err != nil {
		a.tel.ReportBroken(report_authenticator_login, fmt.Errorf("read cookie: %w", err), a.opts.CookieName)
		return Credential{}, inventory.Wrap(inventory.KindRemote, op, err)
	}
	if cookie.Value == "" {
		err = fmt.Errorf("cookie %s is empty", a.opts.CookieName)
		a.tel.ReportBroken(report_authenticator_login, err)
		return Credential{}, inventory.Wrap(inventory.KindRemote, op, err)
	}

	expiry := cookie.Expires
	if expiry.IsZero() {
		expiry = a.time.Now().Add(a.opts.SessionLifetime)
	}

	return Credential{
		Name:   a.credentialName(),
		Token:  cookie.Value,
		Expiry: expiry.Unix(),
	}, nil
}

// Invalidate forgets the current credential, the next Acquire logs in again.
func (a *Authenticator) Invalidate(ctx context.Context) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.current = Credential{}
	a.state = Expired

	err := a.store.Delete(ctx, a.credentialName())
	if err != nil {
		a.tel.ReportBroken(report_authenticator_invalidate, err)
		return err
	}
	return nil
}
