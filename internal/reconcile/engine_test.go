package reconcile_test

import (
	"context"
	"testing"
	"time"

	"github.com/bibhubhatta/wecare/internal/catalog"
	"github.com/bibhubhatta/wecare/internal/catalog/catalogtest"
	"github.com/bibhubhatta/wecare/internal/chrono"
	"github.com/bibhubhatta/wecare/internal/inventory"
	"github.com/bibhubhatta/wecare/internal/pantrysoft"
	"github.com/bibhubhatta/wecare/internal/pantrysoft/pantrysofttest"
	"github.com/bibhubhatta/wecare/internal/reconcile"
	"github.com/bibhubhatta/wecare/lib/telemetry"

	"github.com/stretchr/testify/require"
)

type fixture struct {
	pantryServer  *pantrysofttest.Server
	catalogServer *catalogtest.Server
	pantry        *pantrysoft.Client
	tel           *telemetry.TestAPI
	engine        reconcile.Engine
}

func setup(t *testing.T) fixture {
	pantryServer := pantrysofttest.NewServer()
	t.Cleanup(pantryServer.Close)
	catalogServer := catalogtest.NewServer()
	t.Cleanup(catalogServer.Close)

	tel := telemetry.NewTestAPI(t)
	pantry, err := pantrysoft.NewClient(
		pantrysoft.Options{BaseUrl: pantryServer.URL},
		pantrysoft.StaticSession(pantrysofttest.Session),
		chrono.NewManualTime(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
		tel,
	)
	require.NoError(t, err)
	store, err := catalog.NewClient(catalog.Options{BaseUrl: catalogServer.BaseUrl()}, tel)
	require.NoError(t, err)

	return fixture{
		pantryServer:  pantryServer,
		catalogServer: catalogServer,
		pantry:        pantry,
		tel:           tel,
		engine:        reconcile.NewEngine(pantry, store, tel),
	}
}

func (f fixture) seedRitz(image []byte) {
	f.catalogServer.AddImage("ritz.jpg", image)
	f.catalogServer.AddProduct(catalogtest.RitzUPC, catalogtest.Ritz(f.catalogServer.ImageUrl("ritz.jpg")))
}

func TestAddItemFromCatalog(t *testing.T) {
	f := setup(t)
	image := []byte{0xff, 0xd8, 0xff, 0xe0}
	f.seedRitz(image)
	ctx := context.Background()

	var messages []string
	outcome, err := f.engine.AddItem(ctx, catalogtest.RitzUPC, func(m string) {
		messages = append(messages, m)
	})
	require.NoError(t, err)
	require.Equal(t, inventory.Added, outcome.Result)
	require.Equal(t, []string{
		reconcile.MsgCheckingPantry,
		reconcile.MsgCheckingStore,
		reconcile.MsgFoundInStore,
		reconcile.MsgAddingImage,
		reconcile.MsgAdded,
	}, messages)

	record, err := f.pantry.GetItem(ctx, catalogtest.RitzUPC)
	require.NoError(t, err)
	require.Equal(t, 11.04, record.Weight)
	require.Equal(t, "RITZ Peanut Butter Sandwich Crackers, 8 - 1.38 oz Snack Packs", record.Name)
	require.Equal(t, "Crackers", record.ItemTypeString)

	items := f.pantryServer.Items()
	require.Len(t, items, 1)
	require.Contains(t, items[0].Description, "<h2>Ingredients</h2>")
	uploaded, ok := f.pantryServer.Upload(items[0].ImageUploadID)
	require.True(t, ok)
	require.Equal(t, image, uploaded)
}

func TestAddItemAlreadyExists(t *testing.T) {
	f := setup(t)
	f.seedRitz([]byte{0xff})
	ctx := context.Background()

	_, err := f.engine.AddItem(ctx, catalogtest.RitzUPC, nil)
	require.NoError(t, err)
	mutations := f.pantryServer.Mutations()

	outcome, err := f.engine.AddItem(ctx, catalogtest.RitzUPC, nil)
	require.NoError(t, err)
	require.Equal(t, inventory.AlreadyExists, outcome.Result)
	require.Equal(t, mutations, f.pantryServer.Mutations())
	require.Len(t, f.pantryServer.Items(), 1)
	require.Contains(t, outcome.Description, "<h1>RITZ")
	require.Equal(t, f.catalogServer.ImageUrl("ritz.jpg"), outcome.ImageURL)
}

func TestAddItemNotFound(t *testing.T) {
	f := setup(t)

	var messages []string
	outcome, err := f.engine.AddItem(context.Background(), "070275000098", func(m string) {
		messages = append(messages, m)
	})
	require.NoError(t, err)
	require.Equal(t, inventory.NotFound, outcome.Result)
	require.Equal(t, reconcile.MsgNotInStore, messages[len(messages)-1])
	require.Zero(t, f.pantryServer.Mutations())
}

func TestAddItemInvalidUpcSkipsCatalog(t *testing.T) {
	f := setup(t)
	f.catalogServer.AddProduct("070275000099", catalogtest.Ritz(""))

	outcome, err := f.engine.AddItem(context.Background(), "070275000099", nil)
	require.NoError(t, err)
	require.Equal(t, inventory.NotFound, outcome.Result)
	require.Zero(t, f.catalogServer.Requests("070275000099"))
}

func TestAddItemImageFailureStillAdded(t *testing.T) {
	f := setup(t)
	f.seedRitz([]byte{0xff})
	f.pantryServer.RejectUploads = true

	outcome, err := f.engine.AddItem(context.Background(), catalogtest.RitzUPC, nil)
	require.NoError(t, err)
	require.Equal(t, inventory.Added, outcome.Result)
	require.Len(t, f.pantryServer.Items(), 1)
	require.NotEmpty(t, f.tel.Reports("warning"))
}

func TestAddItemLinkFailure(t *testing.T) {
	f := setup(t)
	f.seedRitz([]byte{0xff})
	f.pantryServer.LinkMessage = func(string, string) string { return "nope" }

	_, err := f.engine.AddItem(context.Background(), catalogtest.RitzUPC, nil)
	require.ErrorIs(t, err, inventory.ErrLinkFailure)
	require.Len(t, f.pantryServer.Items(), 1)
}

func TestAddManual(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	outcome, err := f.engine.AddManual(ctx, "12345", "Homemade Jam", nil)
	require.NoError(t, err)
	require.Equal(t, inventory.Added, outcome.Result)

	record, err := f.pantry.GetItem(ctx, "12345")
	require.NoError(t, err)
	require.Equal(t, "Homemade Jam", record.Name)
	require.Equal(t, inventory.ManualCategory, record.ItemTypeString)
	require.Zero(t, record.Weight)

	outcome, err = f.engine.AddManual(ctx, "12345", "Homemade Jam", nil)
	require.NoError(t, err)
	require.Equal(t, inventory.AlreadyExists, outcome.Result)

	_, err = f.engine.AddManual(ctx, "54321", "", nil)
	require.ErrorIs(t, err, inventory.ErrInvalid)
}

func TestUpdateItem(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.engine.AddManual(ctx, "12345", "Jam", nil)
	require.NoError(t, err)

	err = f.engine.UpdateItem(ctx, inventory.Item{UPC: "12345", Name: "Strawberry Jam", Size: 12})
	require.NoError(t, err)

	record, err := f.pantry.GetItem(ctx, "12345")
	require.NoError(t, err)
	require.Equal(t, "Strawberry Jam", record.Name)
	require.Equal(t, float64(12), record.Weight)
	require.Equal(t, inventory.ManualCategory, record.ItemTypeString)

	err = f.engine.UpdateItem(ctx, inventory.Item{UPC: "99999", Name: "x"})
	require.ErrorIs(t, err, inventory.ErrNotFound)
}

func TestDeleteItemRemovesOrphanedCategory(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.engine.AddManual(ctx, "1", "Jam", nil)
	require.NoError(t, err)
	_, err = f.engine.AddManual(ctx, "2", "Bread", nil)
	require.NoError(t, err)

	require.NoError(t, f.engine.DeleteItem(ctx, "1"))
	require.Len(t, f.pantryServer.Types(), 1, "category still in use")

	require.NoError(t, f.engine.DeleteItem(ctx, "2"))
	require.Empty(t, f.pantryServer.Types())
	require.Empty(t, f.pantryServer.Items())

	err = f.engine.DeleteItem(ctx, "2")
	require.ErrorIs(t, err, inventory.ErrNotFound)
}
