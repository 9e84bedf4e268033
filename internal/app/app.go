// Package app wires the configured components together for the binaries.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/bibhubhatta/wecare/internal/alert"
	"github.com/bibhubhatta/wecare/internal/browser"
	"github.com/bibhubhatta/wecare/internal/catalog"
	"github.com/bibhubhatta/wecare/internal/chrono"
	"github.com/bibhubhatta/wecare/internal/config"
	"github.com/bibhubhatta/wecare/internal/db"
	"github.com/bibhubhatta/wecare/internal/pantrysoft"
	"github.com/bibhubhatta/wecare/internal/reconcile"
	"github.com/bibhubhatta/wecare/internal/requests"
	"github.com/bibhubhatta/wecare/internal/session"
	"github.com/bibhubhatta/wecare/lib/sqliteutil"
	"github.com/bibhubhatta/wecare/lib/telemetry"

	"github.com/redis/go-redis/v9"
)

// Options are the settings that come from flags rather than the config.
type Options struct {
	// PantryOutput and CatalogOutput receive the http exchanges of each
	// client when set.
	PantryOutput  telemetry.InstrumentOutput
	CatalogOutput telemetry.InstrumentOutput
}

type App struct {
	DB        *sql.DB
	Sessions  *session.Authenticator
	Pantry    *pantrysoft.Client
	Catalog   *catalog.Client
	Engine    reconcile.Engine
	Requests  requests.Store
	Alerter   alert.Alerter
	Time      chrono.TimeAPI
	Telemetry telemetry.API

	closers []func() error
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

func driver(cfg config.SessionConfig) session.Driver {
	if cfg.Driver == "rod" {
		return browser.Rod{Headless: !cfg.ShowBrowser, Bin: cfg.BrowserPath}
	}
	return browser.Chromedp{Headless: !cfg.ShowBrowser, ExecPath: cfg.BrowserPath}
}

func (a *App) credentialStore(cfg config.SessionConfig) (session.Store, error) {
	if cfg.Store != "redis" {
		return session.NewSqliteStore(a.DB), nil
	}
	opts, err := redis.ParseURL(cfg.RedisUrl)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	a.closers = append(a.closers, client.Close)
	return session.NewRedisStore(client, cfg.RedisPrefix), nil
}

// Open builds every component from the config. The caller must Close the
// returned App.
func Open(ctx context.Context, cfg config.Config, tel telemetry.API, opts Options) (*App, error) {
	a := &App{
		Time:      chrono.NewStandardTime(),
		Telemetry: tel,
	}

	sqlDB, err := sqliteutil.OpenDB(ctx, cfg.Database, db.Migrations)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.DB = sqlDB
	a.closers = append(a.closers, sqlDB.Close)

	store, err := a.credentialStore(cfg.Session)
	if err != nil {
		a.Close()
		return nil, err
	}

	baseUrl := cfg.Pantry.BaseUrl
	if baseUrl == "" {
		baseUrl = pantrysoft.DefaultBaseUrl
	}
	a.Sessions = session.NewAuthenticator(
		driver(cfg.Session),
		store,
		a.Time,
		session.LoginOptions{
			Url:             strings.TrimSuffix(baseUrl, "/") + pantrysoft.DefaultLoginPath,
			Username:        cfg.Pantry.Username,
			Password:        cfg.Pantry.Password,
			Timeout:         cfg.Session.Timeout(),
			SessionLifetime: cfg.Session.Lifetime(),
		},
		tel,
	)

	a.Pantry, err = pantrysoft.NewClient(
		pantrysoft.Options{
			BaseUrl:           baseUrl,
			PageSize:          cfg.Pantry.PageSize,
			RequestsPerSecond: cfg.Pantry.RequestsPerSecond,
			Timeout:           cfg.Pantry.Timeout(),
			Output:            opts.PantryOutput,
		},
		a.Sessions,
		a.Time,
		tel,
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create pantry client: %w", err)
	}

	a.Catalog, err = catalog.NewClient(
		catalog.Options{
			BaseUrl:  cfg.Catalog.BaseUrl,
			SiteHost: cfg.Catalog.SiteHost,
			MemoSize: cfg.Catalog.MemoSize,
			Output:   opts.CatalogOutput,
		},
		tel,
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create catalog client: %w", err)
	}

	a.Engine = reconcile.NewEngine(a.Pantry, a.Catalog, tel)
	a.Requests = requests.NewStore(sqlDB, a.Time)

	if len(cfg.Alert.To) > 0 {
		a.Alerter = alert.NewEmail(cfg.Alert.Smtp, cfg.Alert.To, tel)
	} else {
		a.Alerter = alert.NewLog(tel)
	}

	return a, nil
}
