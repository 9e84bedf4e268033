package pantrysoft

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bibhubhatta/wecare/internal/inventory"
)

const (
	report_client_create_item_type = "client.create-item-type"
	report_client_delete_item_type = "client.delete-item-type"
)

// GetItemTypeID returns the id of the category with the given name, compared
// case insensitively.
func (c *Client) GetItemTypeID(ctx context.Context, name string) (int64, error) {
	types, err := c.ListTypes(ctx)
	if err != nil {
		return 0, err
	}
	name = strings.TrimSpace(name)
	for _, t := range types {
		if strings.EqualFold(strings.TrimSpace(t.Name), name) {
			return t.ID, nil
		}
	}
	return 0, inventory.Errorf(inventory.KindNotFound, "pantrysoft.get-item-type-id", "category %q", name)
}

func (c *Client) CreateItemType(ctx context.Context, name string) (int64, error) {
	const op = "pantrysoft.create-item-type"

	doc, err := c.fetchForm(ctx, op, "/inventoryitemtype/new")
	if err != nil {
		return 0, err
	}
	token, err := c.formToken(op, doc, selectorTypeToken)
	if err != nil {
		return 0, err
	}

	err = c.submitForm(ctx, op, "/inventoryitemtype/new", selectorTypeToken, typeFormValues(name, token), nil)
	c.mutated()
	if err != nil {
		c.tel.ReportBroken(report_client_create_item_type, fmt.Errorf("submit: %w", err), name)
		return 0, err
	}

	id, err := c.GetItemTypeID(ctx, name)
	if errors.Is(err, inventory.ErrNotFound) {
		c.tel.ReportBroken(report_client_create_item_type, "created category is missing from the listing", name)
	}
	return id, err
}

// DeleteItemType deletes a category. The server refuses to delete a category
// that items still reference.
func (c *Client) DeleteItemType(ctx context.Context, id int64) error {
	const op = "pantrysoft.delete-item-type"

	doc, err := c.fetchForm(ctx, op, fmt.Sprintf("/inventoryitemtype/%d/edit", id))
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
		Post(fmt.Sprintf("/inventoryitemtype/delete/%d", id))
	_, err = c.do(op, res, err)
	c.mutated()
	if err != nil {
		c.tel.ReportBroken(report_client_delete_item_type, fmt.Errorf("submit: %w", err), id)
		return err
	}
	return nil
}

// ensureItemType resolves a category name to its id, creating the category
// when it does not exist yet. An empty name is the manual entry category.
func (c *Client) ensureItemType(ctx context.Context, name string) (int64, error) {
	if strings.TrimSpace(name) == "" {
		name = inventory.ManualCategory
	}
	id, err := c.GetItemTypeID(ctx, name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, inventory.ErrNotFound) {
		return 0, err
	}
	c.tel.ReportDebug("creating category", name)
	return c.CreateItemType(ctx, name)
}
