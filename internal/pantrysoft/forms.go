package pantrysoft

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bibhubhatta/wecare/internal/inventory"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_client_form = "client.form"
)

const (
	selectorItemToken     = "input#pantrybundle_inventoryitem__token"
	selectorCodeToken     = "input#pantrybundle_inventoryitemcode__token"
	selectorTypeToken     = "input#pantrybundle_inventoryitemtype__token"
	selectorDeleteModal   = "generic-delete-modal"
	selectorAlert         = ".alert"
	selectorDescription   = "textarea#pantrybundle_inventoryitem_description"
	selectorItemTypeInput = "select#pantrybundle_inventoryitem_inventoryItemType option[selected]"
)

// fetchForm GETs a server rendered page and parses it.
func (c *Client) fetchForm(ctx context.Context, op, endpoint string) (*goquery.Document, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("accept", "text/html,application/xhtml+xml").
		Get(endpoint)
	res, err = c.do(op, res, err)
	if err != nil {
		c.tel.ReportBroken(report_client_form, fmt.Errorf("fetch: %w", err), endpoint)
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		c.tel.ReportBroken(report_client_form, fmt.Errorf("parse: %w", err), endpoint)
		return nil, inventory.Wrap(inventory.KindRemote, op, err)
	}
	return doc, nil
}

// submitForm posts a form back to the server. An accepted form redirects
// away, a rejected one (a stale token or a failed validation) is rendered
// again with a 200 and is returned as ErrRemote.
func (c *Client) submitForm(
	ctx context.Context,
	op, endpoint, tokenSelector string,
	values, headers map[string]string,
) error {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetFormData(values).
		Post(endpoint)
	res, err = c.do(op, res, err)
	if err != nil {
		return err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return inventory.Wrap(inventory.KindRemote, op, err)
	}
	if doc.Find(tokenSelector).Length() == 0 {
		return nil
	}
	message := strings.TrimSpace(doc.Find(selectorAlert).Text())
	if message == "" {
		message = "the form was rendered again"
	}
	c.tel.ReportBroken(report_client_form, fmt.Errorf("rejected: %s", message), endpoint)
	return inventory.Errorf(inventory.KindRemote, op, "%s rejected the form: %s", endpoint, message)
}

// formToken reads the anti-forgery token from a hidden input. Tokens are
// single use so they are never cached.
func (c *Client) formToken(op string, doc *goquery.Document, selector string) (string, error) {
	token := doc.Find(selector).AttrOr("value", "")
	if token == "" {
		c.tel.ReportBroken(report_client_form, fmt.Errorf("could not find token %s", selector))
		return "", inventory.Errorf(inventory.KindRemote, op, "form token %s missing", selector)
	}
	return token, nil
}

// deleteToken reads the anti-forgery token that delete forms carry as an
// attribute of the delete modal element.
func (c *Client) deleteToken(op string, doc *goquery.Document) (string, error) {
	token := doc.Find(selectorDeleteModal).AttrOr("csrf-token", "")
	if token == "" {
		c.tel.ReportBroken(report_client_form, fmt.Errorf("could not find %s csrf-token", selectorDeleteModal))
		return "", inventory.Errorf(inventory.KindRemote, op, "delete token missing")
	}
	return token, nil
}

type itemForm struct {
	Name          string
	ItemNumber    string
	TypeID        int64
	Unit          string
	Weight        float64
	Description   string
	SymbolType    string
	ImageUploadID string
	Token         string
}

func (f itemForm) values() map[string]string {
	unit := f.Unit
	if unit == "" {
		unit = DefaultUnit
	}
	field := func(name string) string {
		return "pantrybundle_inventoryitem[" + name + "]"
	}
	return map[string]string{
		field("name"):                f.Name,
		field("itemNumber"):          f.ItemNumber,
		field("inventoryItemType"):   strconv.FormatInt(f.TypeID, 10),
		field("unit"):                unit,
		field("value"):               "0.00",
		field("weight"):              strconv.FormatFloat(f.Weight, 'f', -1, 64),
		field("outOfStockThreshold"): "0.00",
		field("isActive"):            "1",
		field("isVisit"):             "1",
		field("isKiosk"):             "1",
		field("isStore"):             "1",
		field("backgroundColor"):     "",
		field("symbolType"):          f.SymbolType,
		"fileupload":                 "",
		field("description"):         f.Description,
		field("icon"):                "",
		field("imageUploadId"):       f.ImageUploadID,
		field("_token"):              f.Token,
	}
}

func typeFormValues(name, token string) map[string]string {
	field := func(name string) string {
		return "pantrybundle_inventoryitemtype[" + name + "]"
	}
	return map[string]string{
		field("name"):               name,
		"rules[1][limit]":           "1",
		"rules[1][default]":         "1",
		"rules[1][householdSizeId]": "1",
		"rules[1][id]":              "",
		field("backgroundColor"):    "",
		field("symbolType"):         "",
		"fileupload":                "",
		field("icon"):               "",
		field("imageUploadId"):      "",
		field("_token"):             token,
	}
}

func deleteFormValues(token string) map[string]string {
	return map[string]string{
		"_method":   "DELETE",
		"csrfToken": token,
	}
}
