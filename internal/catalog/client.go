// Package catalog is a read-only client for the Shoprite storefront product
// catalog.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bibhubhatta/wecare/internal/assert"
	"github.com/bibhubhatta/wecare/internal/inventory"
	"github.com/bibhubhatta/wecare/lib/telemetry"
	"github.com/bibhubhatta/wecare/lib/upc"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	report_client_product = "client.product"
	report_client_image   = "client.image"
)

const (
	DefaultBaseUrl  = "https://storefrontgateway.brands.wakefern.com/api/stores/3000/products/"
	DefaultSiteHost = "https://www.shoprite.com"
	DefaultMemoSize = 1024
)

type Options struct {
	BaseUrl  string
	SiteHost string
	// MemoSize bounds how many raw products are kept, products are not
	// expected to change during the client's lifetime.
	MemoSize int
	Timeout  time.Duration
	Output   telemetry.InstrumentOutput
}

type Client struct {
	http    *resty.Client
	baseUrl string
	memo    *lru.Cache[string, []byte]
	tel     telemetry.API
}

func NewClient(opts Options, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("catalog", tel)

	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.SiteHost == "" {
		opts.SiteHost = DefaultSiteHost
	}
	if opts.MemoSize <= 0 {
		opts.MemoSize = DefaultMemoSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	memo, err := lru.New[string, []byte](opts.MemoSize)
	if err != nil {
		return nil, err
	}

	httpClient := resty.New()
	httpClient.SetHeader("x-site-host", opts.SiteHost)
	httpClient.SetHeader("accept", "application/json")
	httpClient.SetTimeout(opts.Timeout)
	httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	telemetry.InstrumentResty(httpClient, tel, opts.Output)

	baseUrl := opts.BaseUrl
	if !strings.HasSuffix(baseUrl, "/") {
		baseUrl += "/"
	}

	return &Client{
		http:    httpClient,
		baseUrl: baseUrl,
		memo:    memo,
		tel:     tel,
	}, nil
}

func (c *Client) raw(ctx context.Context, code string) ([]byte, error) {
	const op = "catalog.fetch"

	key := upc.Pad14(code)
	if body, ok := c.memo.Get(key); ok {
		return body, nil
	}

	res, err := c.http.R().
		SetContext(ctx).
		Get(c.baseUrl + key)
	if err != nil {
		c.tel.ReportBroken(report_client_product, fmt.Errorf("fetch: %w", err), code)
		return nil, inventory.Wrap(inventory.KindRemote, op, err)
	}
	if res.IsError() {
		// an unknown product is a 404, which is not a broken catalog
		c.tel.ReportDebug("product lookup failed", code, res.Status())
		return nil, inventory.Errorf(inventory.KindRemote, op, "product %s: unexpected status %s", code, res.Status())
	}

	body := res.Body()
	c.memo.Add(key, body)
	return body, nil
}

// Product fetches a product by UPC.
func (c *Client) Product(ctx context.Context, code string) (Product, error) {
	body, err := c.raw(ctx, code)
	if err != nil {
		return Product{}, err
	}
	p, err := parseProduct(code, body)
	if err != nil {
		c.tel.ReportWarning(report_client_product, err)
		return Product{}, err
	}
	return p, nil
}

// Get fetches a product by UPC as a pantry item.
func (c *Client) Get(ctx context.Context, code string) (inventory.Item, error) {
	p, err := c.Product(ctx, code)
	if err != nil {
		return inventory.Item{}, err
	}
	return p.Item(), nil
}

func (c *Client) ImageURL(ctx context.Context, code string) (string, error) {
	p, err := c.Product(ctx, code)
	if err != nil {
		return "", err
	}
	if p.ImageURL == "" {
		return "", inventory.Errorf(inventory.KindNotFound, "catalog.image-url", "product %s has no image", code)
	}
	return p.ImageURL, nil
}

// Image downloads the product's primary image.
func (c *Client) Image(ctx context.Context, code string) ([]byte, error) {
	const op = "catalog.image"

	imageUrl, err := c.ImageURL(ctx, code)
	if err != nil {
		return nil, err
	}
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("accept", "image/*").
		Get(imageUrl)
	if err != nil {
		c.tel.ReportBroken(report_client_image, fmt.Errorf("fetch: %w", err), imageUrl)
		return nil, inventory.Wrap(inventory.KindRemote, op, err)
	}
	if res.IsError() {
		c.tel.ReportBroken(report_client_image, res.Status(), imageUrl)
		return nil, inventory.Errorf(inventory.KindRemote, op, "image %s: unexpected status %s", imageUrl, res.Status())
	}
	return res.Body(), nil
}
