// Package reconcile merges the retail catalog into the pantry inventory.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/bibhubhatta/wecare/internal/assert"
	"github.com/bibhubhatta/wecare/internal/catalog"
	"github.com/bibhubhatta/wecare/internal/inventory"
	"github.com/bibhubhatta/wecare/internal/pantrysoft"
	"github.com/bibhubhatta/wecare/lib/telemetry"
	"github.com/bibhubhatta/wecare/lib/upc"
)

const (
	report_engine_add_item    = "engine.add-item"
	report_engine_add_manual  = "engine.add-manual"
	report_engine_add_image   = "engine.add-image"
	report_engine_delete_item = "engine.delete-item"
	report_engine_cleanup     = "engine.cleanup-category"
)

const (
	MsgCheckingPantry = "Checking PantrySoft..."
	MsgAlreadyExists  = "Item already in PantrySoft."
	MsgCheckingStore  = "Checking Shoprite..."
	MsgFoundInStore   = "Item found in Shoprite. Adding to PantrySoft..."
	MsgAddingImage    = "Adding item image to PantrySoft..."
	MsgAdded          = "Item added to PantrySoft."
	MsgNotInStore     = "Item not found in Shoprite."
	MsgAddingManual   = "Adding item to PantrySoft..."
)

// PantryAPI is the part of the pantry client the engine drives.
type PantryAPI interface {
	GetItem(ctx context.Context, itemNumber string) (pantrysoft.PantryRecord, error)
	ListItems(ctx context.Context) ([]pantrysoft.PantryRecord, error)
	CreateItem(ctx context.Context, item inventory.Item) (pantrysoft.PantryRecord, error)
	UpdateItem(ctx context.Context, record pantrysoft.PantryRecord, name, itemType string, weight float64, description string) error
	DeleteItem(ctx context.Context, id int64) error
	AddItemImage(ctx context.Context, record pantrysoft.PantryRecord, image []byte) error
	ItemDescription(ctx context.Context, itemNumber string) (string, error)
	GetItemTypeID(ctx context.Context, name string) (int64, error)
	DeleteItemType(ctx context.Context, id int64) error
}

// CatalogAPI is the part of the catalog client the engine reads from.
type CatalogAPI interface {
	Product(ctx context.Context, code string) (catalog.Product, error)
	Image(ctx context.Context, code string) ([]byte, error)
}

// Progress receives human readable status messages as a workflow advances.
type Progress func(message string)

// Outcome is the result of an add workflow.
type Outcome struct {
	Result inventory.AddResult
	Item   inventory.Item
	// Description is the html description the pantry item carries, empty if
	// it could not be read.
	Description string
	// ImageURL is the catalog image of the item, if any.
	ImageURL string
}

type Engine struct {
	pantry  PantryAPI
	catalog CatalogAPI
	tel     telemetry.API
}

func NewEngine(pantry PantryAPI, catalog CatalogAPI, tel telemetry.API) Engine {
	assert.NotNil(pantry)
	assert.NotNil(catalog)
	assert.NotNil(tel)
	return Engine{
		pantry:  pantry,
		catalog: catalog,
		tel:     telemetry.NewScopedAPI("reconcile", tel),
	}
}

func (p Progress) report(message string) {
	if p != nil {
		p(message)
	}
}

func recordItem(record pantrysoft.PantryRecord) inventory.Item {
	return inventory.Item{
		UPC:      record.ItemNumber,
		Name:     record.Name,
		Category: record.ItemTypeString,
		Unit:     record.Unit,
		Size:     record.Weight,
	}
}

// existing returns the outcome for an item already in the pantry, filling in
// what can be read back.
func (e Engine) existing(ctx context.Context, code string, record pantrysoft.PantryRecord) Outcome {
	out := Outcome{
		Result: inventory.AlreadyExists,
		Item:   recordItem(record),
	}

	description, err := e.pantry.ItemDescription(ctx, code)
	if err != nil {
		e.tel.ReportWarning(report_engine_add_item, fmt.Errorf("read description: %w", err), code)
	}
	out.Description = description
	out.Item.Description = description

	if upc.IsValid(code) {
		product, err := e.catalog.Product(ctx, code)
		if err == nil {
			out.ImageURL = product.ImageURL
		}
	}
	return out
}

// AddItem runs the add workflow: an item already in the pantry is left
// alone, an item in the catalog is created with its image, anything else is
// NotFound and nothing is written.
func (e Engine) AddItem(ctx context.Context, code string, progress Progress) (Outcome, error) {
	progress.report(MsgCheckingPantry)
	record, err := e.pantry.GetItem(ctx, code)
	if err == nil {
		progress.report(MsgAlreadyExists)
		return e.existing(ctx, code, record), nil
	}
	if !errors.Is(err, inventory.ErrNotFound) {
		return Outcome{}, err
	}

	if !upc.IsValid(code) {
		e.tel.ReportDebug("skipping catalog for invalid upc", code)
		progress.report(MsgNotInStore)
		return Outcome{Result: inventory.NotFound, Item: inventory.Item{UPC: code}}, nil
	}

	progress.report(MsgCheckingStore)
	product, err := e.catalog.Product(ctx, code)
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{}, ctx.Err()
		}
		e.tel.ReportDebug("not in catalog", code, err)
		progress.report(MsgNotInStore)
		return Outcome{Result: inventory.NotFound, Item: inventory.Item{UPC: code}}, nil
	}

	progress.report(MsgFoundInStore)
	item := product.Item()
	item.Description = DetailedDescription(product)
	record, err = e.pantry.CreateItem(ctx, item)
	if errors.Is(err, inventory.ErrDuplicate) {
		// created by someone else since the lookup
		record, err = e.pantry.GetItem(ctx, code)
		if err != nil {
			return Outcome{}, err
		}
		progress.report(MsgAlreadyExists)
		return e.existing(ctx, code, record), nil
	}
	if err != nil {
		e.tel.ReportBroken(report_engine_add_item, err, code)
		return Outcome{}, err
	}

	progress.report(MsgAddingImage)
	e.addImage(ctx, code, record)

	progress.report(MsgAdded)
	return Outcome{
		Result:      inventory.Added,
		Item:        item,
		Description: item.Description,
		ImageURL:    product.ImageURL,
	}, nil
}

// addImage attaches the catalog image, failures are reported and otherwise
// ignored since the item itself already exists.
func (e Engine) addImage(ctx context.Context, code string, record pantrysoft.PantryRecord) {
	image, err := e.catalog.Image(ctx, code)
	if err != nil {
		e.tel.ReportWarning(report_engine_add_image, fmt.Errorf("fetch: %w", err), code)
		return
	}
	err = e.pantry.AddItemImage(ctx, record, image)
	if err != nil {
		e.tel.ReportWarning(report_engine_add_image, fmt.Errorf("upload: %w", err), code)
	}
}

// AddManual adds an item the catalog does not know with an operator supplied
// name. Manual codes are not checksum validated.
func (e Engine) AddManual(ctx context.Context, code, name string, progress Progress) (Outcome, error) {
	if name == "" {
		return Outcome{}, inventory.Errorf(inventory.KindInvalid, "reconcile.add-manual", "item name is required")
	}

	progress.report(MsgCheckingPantry)
	record, err := e.pantry.GetItem(ctx, code)
	if err == nil {
		progress.report(MsgAlreadyExists)
		return e.existing(ctx, code, record), nil
	}
	if !errors.Is(err, inventory.ErrNotFound) {
		return Outcome{}, err
	}

	progress.report(MsgAddingManual)
	item := inventory.NewManualItem(code, name)
	_, err = e.pantry.CreateItem(ctx, item)
	if err != nil {
		e.tel.ReportBroken(report_engine_add_manual, err, code)
		return Outcome{}, err
	}

	progress.report(MsgAdded)
	return Outcome{
		Result:      inventory.Added,
		Item:        item,
		Description: item.Description,
	}, nil
}

// UpdateItem overwrites the pantry item with the item's UPC.
func (e Engine) UpdateItem(ctx context.Context, item inventory.Item) error {
	record, err := e.pantry.GetItem(ctx, item.UPC)
	if err != nil {
		return err
	}
	name := item.Name
	if name == "" {
		name = record.Name
	}
	category := item.Category
	if category == "" {
		category = record.ItemTypeString
	}
	return e.pantry.UpdateItem(ctx, record, name, category, item.Size, item.Description)
}

// DeleteItem deletes the pantry item with the given UPC, then its category
// if no other item uses it.
func (e Engine) DeleteItem(ctx context.Context, code string) error {
	record, err := e.pantry.GetItem(ctx, code)
	if err != nil {
		return err
	}
	err = e.pantry.DeleteItem(ctx, record.ID)
	if err != nil {
		e.tel.ReportBroken(report_engine_delete_item, err, code)
		return err
	}
	e.cleanupCategory(ctx, record.ItemTypeString)
	return nil
}

func (e Engine) cleanupCategory(ctx context.Context, category string) {
	if category == "" {
		return
	}
	items, err := e.pantry.ListItems(ctx)
	if err != nil {
		e.tel.ReportWarning(report_engine_cleanup, err, category)
		return
	}
	for _, item := range items {
		if item.ItemTypeString == category {
			return
		}
	}

	id, err := e.pantry.GetItemTypeID(ctx, category)
	if err != nil {
		e.tel.ReportWarning(report_engine_cleanup, err, category)
		return
	}
	err = e.pantry.DeleteItemType(ctx, id)
	if err != nil {
		e.tel.ReportWarning(report_engine_cleanup, err, category)
		return
	}
	e.tel.ReportDebug("deleted orphaned category", category)
}
