package pantrysoft

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bibhubhatta/wecare/internal/inventory"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const (
	report_client_create_item      = "client.create-item"
	report_client_link_code        = "client.link-code"
	report_client_update_item      = "client.update-item"
	report_client_delete_item      = "client.delete-item"
	report_client_add_item_image   = "client.add-item-image"
	report_client_item_description = "client.item-description"
)

func itemEditEndpoint(id int64) string {
	return fmt.Sprintf("/inventoryitem/%d/edit", id)
}

// GetItem returns the most recently listed item with the given item number.
// The listing is scanned in reverse since recently created items are the
// ones most likely to be looked up.
func (c *Client) GetItem(ctx context.Context, itemNumber string) (PantryRecord, error) {
	items, err := c.ListItems(ctx)
	if err != nil {
		return PantryRecord{}, err
	}
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].ItemNumber == itemNumber {
			return items[i], nil
		}
	}
	return PantryRecord{}, inventory.Errorf(
		inventory.KindNotFound, "pantrysoft.get-item",
		"item with item number %s", itemNumber,
	)
}

func (c *Client) GetItemID(ctx context.Context, itemNumber string) (int64, error) {
	item, err := c.GetItem(ctx, itemNumber)
	if err != nil {
		return 0, err
	}
	return item.ID, nil
}

func (c *Client) ItemExists(ctx context.Context, itemNumber string) (bool, error) {
	_, err := c.GetItem(ctx, itemNumber)
	if errors.Is(err, inventory.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// ResolveCode returns the item a code number is linked to. An item can exist
// under its item number without being reachable by its code.
func (c *Client) ResolveCode(ctx context.Context, codeNumber string) (PantryRecord, error) {
	codes, err := c.ListCodes(ctx)
	if err != nil {
		return PantryRecord{}, err
	}
	itemId := int64(-1)
	for _, code := range codes {
		if code.CodeNumber == codeNumber {
			itemId = code.ItemID
			break
		}
	}
	if itemId < 0 {
		return PantryRecord{}, inventory.Errorf(inventory.KindNotFound, "pantrysoft.resolve-code", "code %s", codeNumber)
	}

	items, err := c.ListItems(ctx)
	if err != nil {
		return PantryRecord{}, err
	}
	for _, item := range items {
		if item.ID == itemId {
			return item, nil
		}
	}
	return PantryRecord{}, inventory.Errorf(
		inventory.KindNotFound, "pantrysoft.resolve-code",
		"code %s links to missing item %d", codeNumber, itemId,
	)
}

// CreateItem creates an item and links its item number as a code. The two
// steps are separate requests, a failure of the second leaves the item
// without a code and is returned as *inventory.LinkFailure.
func (c *Client) CreateItem(ctx context.Context, item inventory.Item) (PantryRecord, error) {
	const op = "pantrysoft.create-item"

	_, err := c.GetItem(ctx, item.UPC)
	if err == nil {
		return PantryRecord{}, inventory.Errorf(inventory.KindDuplicate, op, "item %s already exists", item.UPC)
	}
	if !errors.Is(err, inventory.ErrNotFound) {
		return PantryRecord{}, err
	}

	doc, err := c.fetchForm(ctx, op, "/inventoryitem/new")
	if err != nil {
		return PantryRecord{}, err
	}
	token, err := c.formToken(op, doc, selectorItemToken)
	if err != nil {
		return PantryRecord{}, err
	}

	typeId, err := c.ensureItemType(ctx, item.Category)
	if err != nil {
		return PantryRecord{}, err
	}

	form := itemForm{
		Name:        item.Name,
		ItemNumber:  item.UPC,
		TypeID:      typeId,
		Unit:        item.Unit,
		Weight:      item.Size,
		Description: item.Description,
		Token:       token,
	}
	err = c.submitForm(ctx, op, "/inventoryitem/new", selectorItemToken, form.values(), nil)
	if err != nil {
		c.tel.ReportBroken(report_client_create_item, fmt.Errorf("submit: %w", err), item.UPC)
		return PantryRecord{}, err
	}
	c.mutated()

	created, err := c.GetItem(ctx, item.UPC)
	if errors.Is(err, inventory.ErrNotFound) {
		c.tel.ReportBroken(report_client_create_item, "created item is missing from the listing", item.UPC)
		return PantryRecord{}, inventory.Errorf(
			inventory.KindNotFound, op,
			"item %s was not found after creation", item.UPC,
		)
	}
	if err != nil {
		return PantryRecord{}, err
	}

	err = c.linkCode(ctx, created, item.UPC)
	if err != nil {
		return created, err
	}
	return created, nil
}

type linkResponse struct {
	Message *string `json:"message"`
}

func (c *Client) linkCode(ctx context.Context, item PantryRecord, codeNumber string) error {
	const op = "pantrysoft.link-code"

	doc, err := c.fetchForm(ctx, op, "/inventory_code/new")
	if err != nil {
		return err
	}
	token, err := c.formToken(op, doc, selectorCodeToken)
	if err != nil {
		return err
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{
			"inventoryItem":                              strconv.FormatInt(item.ID, 10),
			"pantrybundle_inventoryitemcode[codeNumber]": codeNumber,
			"pantrybundle_inventoryitemcode[_token]":     token,
		}).
		Post("/inventory_code/new")
	c.mutated()
	if err != nil {
		c.tel.ReportBroken(report_client_link_code, fmt.Errorf("submit: %w", err), codeNumber)
		return err
	}

	expected := fmt.Sprintf("Item Code %s for %s Added", codeNumber, item.Name)
	var body linkResponse
	err = json.Unmarshal(res.Body(), &body)
	if err != nil || body.Message == nil || *body.Message != expected {
		message := strings.TrimSpace(res.String())
		if err == nil && body.Message != nil {
			message = *body.Message
		}
		failure := &inventory.LinkFailure{
			UPC:     codeNumber,
			Name:    item.Name,
			ItemID:  item.ID,
			Message: message,
		}
		c.tel.ReportBroken(report_client_link_code, failure)
		return failure
	}
	return nil
}

// UpdateItem resubmits an item's edit form with new values.
func (c *Client) UpdateItem(
	ctx context.Context,
	record PantryRecord,
	name, itemType string,
	weight float64,
	description string,
) error {
	const op = "pantrysoft.update-item"

	typeId, err := c.ensureItemType(ctx, itemType)
	if err != nil {
		return err
	}

	endpoint := itemEditEndpoint(record.ID)
	doc, err := c.fetchForm(ctx, op, endpoint)
	if err != nil {
		return err
	}
	token, err := c.formToken(op, doc, selectorItemToken)
	if err != nil {
		return err
	}

	form := itemForm{
		Name:        name,
		ItemNumber:  record.ItemNumber,
		TypeID:      typeId,
		Unit:        record.Unit,
		Weight:      weight,
		Description: description,
		Token:       token,
	}
	err = c.submitForm(ctx, op, endpoint, selectorItemToken, form.values(), nil)
	c.mutated()
	if err != nil {
		c.tel.ReportBroken(report_client_update_item, fmt.Errorf("submit: %w", err), record.ID)
		return err
	}
	return nil
}

// DeleteItem deletes an item by id.
func (c *Client) DeleteItem(ctx context.Context, id int64) error {
	const op = "pantrysoft.delete-item"

	doc, err := c.fetchForm(ctx, op, "/inventoryitem/")
	if err != nil {
		return err
	}
	token, err := c.deleteToken(op, doc)
	if err != nil {
		return err
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(deleteFormValues(token)).
		Post(fmt.Sprintf("/inventoryitem/delete/%d", id))
	_, err = c.do(op, res, err)
	c.mutated()
	if err != nil {
		c.tel.ReportBroken(report_client_delete_item, fmt.Errorf("submit: %w", err), id)
		return err
	}
	return nil
}

func readDescription(op string, doc *goquery.Document) (string, error) {
	textarea := doc.Find(selectorDescription)
	if textarea.Length() == 0 {
		return "", inventory.Errorf(inventory.KindRemote, op, "description field missing from edit form")
	}
	return textarea.Text(), nil
}

// ItemDescription reads an item's description back from its edit form, the
// listing does not include it.
func (c *Client) ItemDescription(ctx context.Context, itemNumber string) (string, error) {
	const op = "pantrysoft.item-description"

	id, err := c.GetItemID(ctx, itemNumber)
	if err != nil {
		return "", err
	}
	doc, err := c.fetchForm(ctx, op, itemEditEndpoint(id))
	if err != nil {
		return "", err
	}
	description, err := readDescription(op, doc)
	if err != nil {
		c.tel.ReportBroken(report_client_item_description, err, itemNumber)
		return "", err
	}
	return description, nil
}

type uploadResponse struct {
	Media *struct {
		ID json.Number `json:"id"`
	} `json:"media"`
}

func (c *Client) uploadImage(ctx context.Context, image []byte) (string, error) {
	const op = "pantrysoft.upload-image"

	res, err := c.http.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{
			"context": "inventoryItemImages",
		}).
		SetMultipartFields(&resty.MultipartField{
			Param:       "fileupload",
			FileName:    "image.jpg",
			ContentType: "image/jpeg",
			Reader:      bytes.NewReader(image),
		}).
		Post("/media/upload/image")
	res, err = c.do(op, res, err)
	if err != nil {
		return "", err
	}

	var body uploadResponse
	err = json.Unmarshal(res.Body(), &body)
	if err != nil || body.Media == nil || body.Media.ID.String() == "" {
		return "", inventory.Errorf(
			inventory.KindImageUpload, op,
			"upload response has no media id: %s", strings.TrimSpace(res.String()),
		)
	}
	return body.Media.ID.String(), nil
}

// AddItemImage uploads a jpeg and attaches it to an item. The server has no
// partial update so the whole edit form is resubmitted, with the current
// description read back from it.
func (c *Client) AddItemImage(ctx context.Context, record PantryRecord, image []byte) error {
	const op = "pantrysoft.add-item-image"

	endpoint := itemEditEndpoint(record.ID)
	doc, err := c.fetchForm(ctx, op, endpoint)
	if err != nil {
		return err
	}
	token, err := c.formToken(op, doc, selectorItemToken)
	if err != nil {
		return err
	}
	description, err := readDescription(op, doc)
	if err != nil {
		c.tel.ReportBroken(report_client_add_item_image, err, record.ID)
		return err
	}

	typeId, err := strconv.ParseInt(doc.Find(selectorItemTypeInput).AttrOr("value", ""), 10, 64)
	if err != nil {
		typeId, err = c.ensureItemType(ctx, record.ItemTypeString)
		if err != nil {
			return err
		}
	}

	imageId, err := c.uploadImage(ctx, image)
	if err != nil {
		c.tel.ReportBroken(report_client_add_item_image, fmt.Errorf("upload: %w", err), record.ID)
		return err
	}

	form := itemForm{
		Name:          record.Name,
		ItemNumber:    record.ItemNumber,
		TypeID:        typeId,
		Unit:          record.Unit,
		Weight:        record.Weight,
		Description:   description,
		SymbolType:    "image",
		ImageUploadID: imageId,
		Token:         token,
	}
	err = c.submitForm(ctx, op, endpoint, selectorItemToken, form.values(), map[string]string{
		"origin":  c.baseUrl.String(),
		"referer": c.baseUrl.String() + endpoint,
	})
	c.mutated()
	if err != nil {
		c.tel.ReportBroken(report_client_add_item_image, fmt.Errorf("submit: %w", err), record.ID)
		return err
	}
	return nil
}
