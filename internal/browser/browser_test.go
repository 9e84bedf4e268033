package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/bibhubhatta/wecare/internal/chrono"
	"github.com/bibhubhatta/wecare/internal/db"
	"github.com/bibhubhatta/wecare/internal/inventory"
	"github.com/bibhubhatta/wecare/internal/session"
	"github.com/bibhubhatta/wecare/lib/telemetry"
	"github.com/bibhubhatta/wecare/lib/testutil"

	"github.com/stretchr/testify/require"
)

const loginPage = `<html><body>
<form method="post" action="/login_check">
<input id="username" name="_username">
<input id="password" name="_password" type="password">
<button id="index_login_btn" type="submit">Login</button>
</form>
</body></html>`

const dashboardPage = `<html><body><a href="/inventoryitem/">Inventory</a></body></html>`

func newLoginServer(t *testing.T, acceptLogin bool) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(loginPage))
	})
	mux.HandleFunc("/login_check", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if !acceptLogin || r.PostForm.Get("_username") != "alice" || r.PostForm.Get("_password") != "hunter2" {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "browser-session", Path: "/"})
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	})
	mux.HandleFunc("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(dashboardPage))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func drivers() map[string]session.Driver {
	return map[string]session.Driver{
		"chromedp": Chromedp{Headless: true},
		"rod":      Rod{Headless: true},
	}
}

func requireBrowser(t *testing.T) {
	if os.Getenv("PANTRY_BROWSER_TEST") == "" {
		t.Skip("set PANTRY_BROWSER_TEST to run tests against a real browser")
	}
}

func TestDriverLogin(t *testing.T) {
	requireBrowser(t)

	for name, driver := range drivers() {
		t.Run(name, func(t *testing.T) {
			server := newLoginServer(t, true)
			store := session.NewSqliteStore(testutil.OpenDB(t, db.Migrations))
			auth := session.NewAuthenticator(driver, store, chrono.NewStandardTime(), session.LoginOptions{
				Url:      server.URL,
				Username: "alice",
				Password: "hunter2",
			}, telemetry.NewTestAPI(t))

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			cred, err := auth.Acquire(ctx)
			require.NoError(t, err)
			require.Equal(t, "browser-session", cred.Token)
			require.Greater(t, cred.Expiry, time.Now().Unix())
		})
	}
}

func TestDriverLoginTimeout(t *testing.T) {
	requireBrowser(t)

	for name, driver := range drivers() {
		t.Run(name, func(t *testing.T) {
			server := newLoginServer(t, false)
			store := session.NewSqliteStore(testutil.OpenDB(t, db.Migrations))
			auth := session.NewAuthenticator(driver, store, chrono.NewStandardTime(), session.LoginOptions{
				Url:      server.URL,
				Username: "alice",
				Password: "wrong",
				Timeout:  2 * time.Second,
			}, telemetry.NewTestAPI(t))

			_, err := auth.Acquire(context.Background())
			require.ErrorIs(t, err, inventory.ErrAuthTimeout)
		})
	}
}

func TestCookieExpiry(t *testing.T) {
	require.True(t, cookieExpiry(true, 1700000000).IsZero())
	require.True(t, cookieExpiry(false, -1).IsZero())
	require.Equal(t, time.Unix(1700000000, 500_000_000), cookieExpiry(false, 1700000000.5))
}
