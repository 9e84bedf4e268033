package reconcile

import (
	"testing"

	"github.com/bibhubhatta/wecare/internal/catalog"

	"github.com/stretchr/testify/require"
)

func TestDetailedDescription(t *testing.T) {
	twelve := "12"
	product := catalog.Product{
		Name:        "Crackers & Cheese",
		Description: "Crunchy.\nCheesy.",
		Ingredients: []string{"Flour", "<Cheese>"},
		Nutrition: []catalog.Nutrient{
			{Name: "Total Fat", Size: "9", Unit: "Grams", Abbreviation: "g", PercentDailyValue: &twelve},
			{Name: "Sodium", Size: "220", Unit: "Milligrams", Abbreviation: "mg"},
		},
	}

	expected := "<h1>Crackers &amp; Cheese</h1>" +
		"<p>Crunchy.<br>Cheesy.</p>" +
		"<h2>Ingredients</h2><ul><li>Flour</li><li>&lt;Cheese&gt;</li></ul>" +
		"<h2>Nutrition Profile</h2><table border='1'>" +
		"<tr><th>Nutrient</th><th>Amount per Serving</th><th>% Daily Value</th></tr>" +
		"<tr><td>Total Fat</td><td>9 Grams (g)</td><td>12%</td></tr>" +
		"<tr><td>Sodium</td><td>220 Milligrams (mg)</td><td>N/A</td></tr>" +
		"</table>"
	require.Equal(t, expected, DetailedDescription(product))
}

func TestDetailedDescriptionMinimal(t *testing.T) {
	product := catalog.Product{Name: "Beans", Description: "BEANS"}
	require.Equal(t, "<h1>Beans</h1>", DetailedDescription(product))
}

func TestSuggest(t *testing.T) {
	names := []string{"Canned Goods", "Cereal", "Crackers", "Produce"}

	suggestions := Suggest("cracker", names, 0.8, 2)
	require.NotEmpty(t, suggestions)
	require.Equal(t, "Crackers", suggestions[0].Name)
	require.LessOrEqual(t, len(suggestions), 2)

	require.Empty(t, Suggest("zzzz", names, 0.9, 0))
}
