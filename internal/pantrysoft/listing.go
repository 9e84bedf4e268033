package pantrysoft

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"github.com/bibhubhatta/wecare/internal/inventory"
)

const (
	report_client_list = "client.list"
)

const (
	endpointItems = "/inventoryitem/indexdata"
	endpointCodes = "/inventory_code/indexData"
	endpointTypes = "/inventoryitemtype/indexdata"
	endpointTags  = "/inventoryitemtag/indexdata"
)

type listingPage struct {
	Data            []json.RawMessage `json:"data"`
	RecordsFiltered *int              `json:"recordsFiltered"`
}

// paginate fetches every page of a listing endpoint, advancing the offset
// until the collected records reach the server's recordsFiltered.
func paginate[T any](
	ctx context.Context,
	c *Client,
	op, endpoint string,
	decode func(json.RawMessage) (T, error),
) ([]T, error) {
	var out []T
	requests := 0

	for {
		res, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"start":  strconv.Itoa(len(out)),
				"length": strconv.Itoa(c.opts.PageSize),
				"_":      strconv.FormatInt(c.time.Now().UnixMilli(), 10),
			}).
			Get(endpoint)
		res, err = c.do(op, res, err)
		if err != nil {
			c.tel.ReportBroken(report_client_list, fmt.Errorf("fetch: %w", err), endpoint)
			return nil, err
		}
		requests++

		var page listingPage
		err = json.Unmarshal(res.Body(), &page)
		if err != nil && looksLikeHtml(res.Body()) {
			// some deployments render the login page in place instead of
			// redirecting to it
			c.tel.ReportWarning(report_client_list, "listing returned html", endpoint)
			if err := c.sessions.Invalidate(ctx); err != nil {
				c.tel.ReportBroken(report_client_session, fmt.Errorf("invalidate: %w", err))
			}
			return nil, inventory.Errorf(inventory.KindSessionExpired, op, "listing %s returned html", endpoint)
		}
		if err != nil {
			c.tel.ReportBroken(report_client_list, fmt.Errorf("parse: %w", err), endpoint)
			return nil, inventory.Wrap(inventory.KindRemote, op, fmt.Errorf("parse listing: %w", err))
		}
		if page.RecordsFiltered == nil {
			err = fmt.Errorf("listing %s has no recordsFiltered", endpoint)
			c.tel.ReportBroken(report_client_list, err)
			return nil, inventory.Wrap(inventory.KindRemote, op, err)
		}

		for i, raw := range page.Data {
			record, err := decode(raw)
			if err != nil {
				c.tel.ReportBroken(report_client_list, fmt.Errorf("decode record %d: %w", len(out)+i, err), endpoint)
				return nil, inventory.Wrap(inventory.KindRemote, op, fmt.Errorf("decode record: %w", err))
			}
			out = append(out, record)
		}

		if *page.RecordsFiltered <= len(out) {
			break
		}
		if len(page.Data) == 0 {
			err = fmt.Errorf(
				"listing %s reported %d records but stopped at %d",
				endpoint, *page.RecordsFiltered, len(out),
			)
			c.tel.ReportBroken(report_client_list, err)
			return nil, inventory.Wrap(inventory.KindRemote, op, err)
		}
	}

	c.tel.ReportDebug("listed", endpoint, len(out), requests)
	return out, nil
}

func looksLikeHtml(body []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(body), []byte("<"))
}

func (c *Client) listingKey(kind string) string {
	return fmt.Sprintf("%s@%d", kind, c.LastMutation())
}

// ListItems returns every inventory item in server order. The result is
// cached until the next mutation made through this client.
func (c *Client) ListItems(ctx context.Context) ([]PantryRecord, error) {
	key := c.listingKey("items")
	if cached, ok := c.listings.Get(key); ok {
		return slices.Clone(cached), nil
	}

	items, err := paginate(ctx, c, "pantrysoft.list-items", endpointItems, decodeRecord)
	if err != nil {
		return nil, err
	}
	// a mutation that happened during the fetch makes the key stale, which
	// only wastes an entry
	c.listings.Add(key, items)
	c.tel.ReportCount("items", int64(len(items)))
	return slices.Clone(items), nil
}

// ListCodes returns every code link, always fetched fresh.
func (c *Client) ListCodes(ctx context.Context) ([]Code, error) {
	return paginate(ctx, c, "pantrysoft.list-codes", endpointCodes, decodeCode)
}

// ListTypes returns every item category, always fetched fresh.
func (c *Client) ListTypes(ctx context.Context) ([]Category, error) {
	return paginate(ctx, c, "pantrysoft.list-types", endpointTypes, decodeCategory)
}

// ListTags returns every item tag, always fetched fresh.
func (c *Client) ListTags(ctx context.Context) ([]Tag, error) {
	return paginate(ctx, c, "pantrysoft.list-tags", endpointTags, decodeTag)
}
