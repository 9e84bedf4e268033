// Package pantrysoft is a client for the PantrySoft web application. The
// application has no API for writes, every mutation scrapes a server
// rendered form for its anti-forgery token and posts the form back.
package pantrysoft

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bibhubhatta/wecare/internal/assert"
	"github.com/bibhubhatta/wecare/internal/chrono"
	"github.com/bibhubhatta/wecare/internal/inventory"
	"github.com/bibhubhatta/wecare/internal/session"
	"github.com/bibhubhatta/wecare/lib/telemetry"

	"github.com/go-resty/resty/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

const (
	report_client_session = "client.session"
	report_client_request = "client.request"
)

const (
	DefaultBaseUrl    = "https://app.pantrysoft.com"
	DefaultPageSize   = 50
	DefaultLoginPath  = "/login"
	DefaultCookieName = "PHPSESSID"
	DefaultUnit       = "Ounces"
)

// Sessions provides the session credential attached to every request.
type Sessions interface {
	Acquire(ctx context.Context) (session.Credential, error)
	Invalidate(ctx context.Context) error
}

// StaticSession is a Sessions that always returns the same token.
type StaticSession string

func (s StaticSession) Acquire(context.Context) (session.Credential, error) {
	return session.Credential{Token: string(s), Expiry: 1<<63 - 1}, nil
}

func (s StaticSession) Invalidate(context.Context) error {
	return nil
}

type Options struct {
	BaseUrl    string
	CookieName string
	// LoginPath is where the server redirects requests without a valid session.
	LoginPath string
	PageSize  int
	// RequestsPerSecond limits the request rate, 0 means unlimited.
	RequestsPerSecond float64
	Timeout           time.Duration
	// Output receives full http dumps when set.
	Output telemetry.InstrumentOutput
}

func (o Options) withDefaults() Options {
	if o.BaseUrl == "" {
		o.BaseUrl = DefaultBaseUrl
	}
	if o.CookieName == "" {
		o.CookieName = DefaultCookieName
	}
	if o.LoginPath == "" {
		o.LoginPath = DefaultLoginPath
	}
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	return o
}

type Client struct {
	http     *resty.Client
	baseUrl  *url.URL
	opts     Options
	sessions Sessions
	time     chrono.TimeAPI
	tel      telemetry.API

	generationMutex sync.Mutex
	generation      int64
	listings        *lru.Cache[string, []PantryRecord]
}

func NewClient(opts Options, sessions Sessions, time chrono.TimeAPI, tel telemetry.API) (*Client, error) {
	assert.NotNil(sessions)
	assert.NotNil(time)
	assert.NotNil(tel)

	opts = opts.withDefaults()
	tel = telemetry.NewScopedAPI("pantrysoft", tel)

	baseUrl, err := url.Parse(strings.TrimSuffix(opts.BaseUrl, "/"))
	if err != nil {
		return nil, err
	}

	listings, err := lru.New[string, []PantryRecord](4)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseUrl:  baseUrl,
		opts:     opts,
		sessions: sessions,
		time:     time,
		tel:      tel,
		listings: listings,
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(baseUrl.String())
	httpClient.SetHeaders(map[string]string{
		"accept":           "application/json, text/javascript, */*; q=0.01",
		"accept-language":  "en-US,en;q=0.9",
		"user-agent":       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"x-requested-with": "XMLHttpRequest",
	})
	httpClient.SetRedirectPolicy(
		resty.FlexibleRedirectPolicy(10),
		resty.DomainCheckRedirectPolicy(baseUrl.Hostname()),
	)
	httpClient.SetTimeout(opts.Timeout)

	if opts.RequestsPerSecond > 0 {
		// max burst >= 1 just means that no requests will be dropped
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}
	httpClient.OnBeforeRequest(c.attachSession)
	httpClient.OnAfterResponse(c.detectLoginWall)
	telemetry.InstrumentResty(httpClient, tel, opts.Output)

	c.http = httpClient
	return c, nil
}

func (c *Client) attachSession(_ *resty.Client, req *resty.Request) error {
	cred, err := c.sessions.Acquire(req.Context())
	if err != nil {
		c.tel.ReportBroken(report_client_session, fmt.Errorf("acquire: %w", err))
		return err
	}
	req.SetCookie(&http.Cookie{Name: c.opts.CookieName, Value: cred.Token})
	return nil
}

// detectLoginWall turns a redirect to the login page into ErrSessionExpired
// and drops the credential so the next call authenticates again.
func (c *Client) detectLoginWall(_ *resty.Client, res *resty.Response) error {
	if res.RawResponse == nil || res.RawResponse.Request == nil {
		return nil
	}
	final := res.RawResponse.Request.URL
	if strings.TrimSuffix(final.Path, "/") != strings.TrimSuffix(c.opts.LoginPath, "/") {
		return nil
	}

	c.tel.ReportWarning(report_client_session, "redirected to login", res.Request.URL)
	err := c.sessions.Invalidate(res.Request.Context())
	if err != nil {
		c.tel.ReportBroken(report_client_session, fmt.Errorf("invalidate: %w", err))
	}
	return inventory.Errorf(
		inventory.KindSessionExpired, "pantrysoft.request",
		"%s %s was redirected to the login page", res.Request.Method, res.Request.URL,
	)
}

// do checks the result of a request, mapping transport failures and non 2xx
// statuses to typed errors.
func (c *Client) do(op string, res *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		if inventory.KindOf(err) != inventory.KindUnknown {
			return nil, err
		}
		return nil, inventory.Wrap(inventory.KindRemote, op, err)
	}
	if res.IsError() {
		c.tel.ReportBroken(report_client_request, op, res.Request.Method, res.Request.URL, res.Status())
		return nil, inventory.Errorf(
			inventory.KindRemote, op,
			"%s %s: unexpected status %s", res.Request.Method, res.Request.URL, res.Status(),
		)
	}
	return res, nil
}

// mutated marks every cached listing stale. The generation is strictly
// increasing even if the clock is not.
func (c *Client) mutated() {
	c.generationMutex.Lock()
	defer c.generationMutex.Unlock()

	now := c.time.Now().UnixNano()
	if now <= c.generation {
		now = c.generation + 1
	}
	c.generation = now
}

// LastMutation returns the generation of the last observed mutation.
func (c *Client) LastMutation() int64 {
	c.generationMutex.Lock()
	defer c.generationMutex.Unlock()
	return c.generation
}

// InvalidateListings drops cached listings without a mutation, for changes
// made outside of this client.
func (c *Client) InvalidateListings() {
	c.mutated()
	c.listings.Purge()
}
