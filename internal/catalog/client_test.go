package catalog_test

import (
	"context"
	"testing"

	"github.com/bibhubhatta/wecare/internal/catalog"
	"github.com/bibhubhatta/wecare/internal/catalog/catalogtest"
	"github.com/bibhubhatta/wecare/internal/inventory"
	"github.com/bibhubhatta/wecare/lib/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*catalogtest.Server, *catalog.Client) {
	server := catalogtest.NewServer()
	t.Cleanup(server.Close)

	client, err := catalog.NewClient(catalog.Options{BaseUrl: server.BaseUrl()}, telemetry.NewTestAPI(t))
	require.NoError(t, err)
	return server, client
}

func TestGet(t *testing.T) {
	server, client := setup(t)
	server.AddProduct(catalogtest.RitzUPC, catalogtest.Ritz(server.ImageUrl("ritz.jpg")))

	item, err := client.Get(context.Background(), catalogtest.RitzUPC)
	require.NoError(t, err)

	expected := inventory.Item{
		UPC:         catalogtest.RitzUPC,
		Name:        "RITZ Peanut Butter Sandwich Crackers, 8 - 1.38 oz Snack Packs",
		Category:    "Crackers",
		Unit:        "Ounces",
		Size:        11.04,
		Description: "RITZ Peanut Butter Sandwich Crackers.\nMade with real peanut butter.",
	}
	if diff := cmp.Diff(expected, item); diff != "" {
		t.Fatalf("unexpected item (-want +got):\n%s", diff)
	}
}

func TestProductDetails(t *testing.T) {
	server, client := setup(t)
	server.AddProduct(catalogtest.RitzUPC, catalogtest.Ritz(server.ImageUrl("ritz.jpg")))

	product, err := client.Product(context.Background(), catalogtest.RitzUPC)
	require.NoError(t, err)
	require.Equal(t, []string{"Enriched Flour", "Peanut Butter", "Sugar"}, product.Ingredients)

	twelve := "12"
	expected := []catalog.Nutrient{
		{Name: "Total Fat", Size: "9", Unit: "Grams", Abbreviation: "g", PercentDailyValue: &twelve},
		{Name: "Sodium", Size: "220", Unit: "Milligrams", Abbreviation: "mg"},
	}
	if diff := cmp.Diff(expected, product.Nutrition); diff != "" {
		t.Fatalf("unexpected nutrition (-want +got):\n%s", diff)
	}
}

func TestProductMemoized(t *testing.T) {
	server, client := setup(t)
	server.AddProduct(catalogtest.RitzUPC, catalogtest.Ritz(""))
	ctx := context.Background()

	for range 3 {
		_, err := client.Get(ctx, catalogtest.RitzUPC)
		require.NoError(t, err)
	}
	require.Equal(t, 1, server.Requests(catalogtest.RitzUPC))
}

func TestProductMissing(t *testing.T) {
	server, client := setup(t)

	_, err := client.Get(context.Background(), "070275000098")
	require.ErrorIs(t, err, inventory.ErrRemote)

	// failures are not memoized
	server.AddProduct("070275000098", catalogtest.Ritz(""))
	_, err = client.Get(context.Background(), "070275000098")
	require.NoError(t, err)
}

func TestProductMissingFields(t *testing.T) {
	server, client := setup(t)
	server.AddProduct("070275000098", map[string]any{
		"name":        "Beans",
		"description": "Beans",
	})

	_, err := client.Get(context.Background(), "070275000098")
	require.ErrorIs(t, err, inventory.ErrNotFound)
}

func TestImage(t *testing.T) {
	server, client := setup(t)
	image := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00}
	server.AddImage("ritz.jpg", image)
	server.AddProduct(catalogtest.RitzUPC, catalogtest.Ritz(server.ImageUrl("ritz.jpg")))

	url, err := client.ImageURL(context.Background(), catalogtest.RitzUPC)
	require.NoError(t, err)
	require.Equal(t, server.ImageUrl("ritz.jpg"), url)

	got, err := client.Image(context.Background(), catalogtest.RitzUPC)
	require.NoError(t, err)
	require.Equal(t, image, got)
}

func TestImageMissing(t *testing.T) {
	server, client := setup(t)
	server.AddProduct(catalogtest.RitzUPC, catalogtest.Ritz(""))

	_, err := client.Image(context.Background(), catalogtest.RitzUPC)
	require.ErrorIs(t, err, inventory.ErrNotFound)
}
