package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/bibhubhatta/wecare/internal/inventory"
)

// Nutrient is one row of a product's nutrition profile.
type Nutrient struct {
	Name         string
	Size         string
	Unit         string
	Abbreviation string
	// PercentDailyValue is nil when the catalog has no daily value.
	PercentDailyValue *string
}

// Product is a catalog entry.
type Product struct {
	UPC         string
	Name        string
	Category    string
	Unit        string
	Size        float64
	Description string
	ImageURL    string
	Ingredients []string
	// Nutrition keeps the catalog's order.
	Nutrition []Nutrient
}

// Item maps a product to a pantry item, the description is the catalog's
// free text.
func (p Product) Item() inventory.Item {
	return inventory.Item{
		UPC:         p.UPC,
		Name:        p.Name,
		Category:    p.Category,
		Unit:        p.Unit,
		Size:        p.Size,
		Description: p.Description,
	}
}

type rawProduct struct {
	Name            *string         `json:"name"`
	DefaultCategory json.RawMessage `json:"defaultCategory"`
	UnitsOfSize     *struct {
		Label *string         `json:"label"`
		Size  json.RawMessage `json:"size"`
	} `json:"unitsOfSize"`
	Description  json.RawMessage `json:"description"`
	PrimaryImage *struct {
		Default string `json:"default"`
	} `json:"primaryImage"`
	Ingredients       json.RawMessage `json:"ingredients"`
	NutritionProfiles *struct {
		Nutrition nutrition `json:"nutrition"`
	} `json:"nutritionProfiles"`
}

// scalar renders a json string, number or bool as text, null is empty.
func scalar(raw json.RawMessage) string {
	var v any
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil || v == nil {
		return ""
	}
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

type nutrition []Nutrient

// UnmarshalJSON reads the nutrition object key by key so the server's order
// survives.
func (n *nutrition) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("nutrition: expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)

		var entry struct {
			Size              json.RawMessage `json:"size"`
			Unit              json.RawMessage `json:"unit"`
			Abbreviation      json.RawMessage `json:"abbreviation"`
			PercentDailyValue json.RawMessage `json:"percentDailyValue"`
		}
		err = dec.Decode(&entry)
		if err != nil {
			return fmt.Errorf("nutrition %s: %w", name, err)
		}

		nutrient := Nutrient{
			Name:         name,
			Size:         scalar(entry.Size),
			Unit:         scalar(entry.Unit),
			Abbreviation: scalar(entry.Abbreviation),
		}
		if dv := scalar(entry.PercentDailyValue); dv != "" {
			nutrient.PercentDailyValue = &dv
		}
		*n = append(*n, nutrient)
	}
	return nil
}

// category accepts the category as a plain string or as an object with a
// name.
func category(raw json.RawMessage) (string, bool) {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s, true
	}
	var named struct {
		Name     string `json:"name"`
		Category string `json:"category"`
	}
	if json.Unmarshal(raw, &named) == nil {
		if named.Name != "" {
			return named.Name, true
		}
		return named.Category, named.Category != ""
	}
	return "", false
}

func splitIngredients(text string) []string {
	var out []string
	for _, ingredient := range strings.Split(text, ";") {
		ingredient = strings.TrimSpace(ingredient)
		if ingredient != "" {
			out = append(out, ingredient)
		}
	}
	return out
}

func parseProduct(upc string, body []byte) (Product, error) {
	const op = "catalog.product"

	var raw rawProduct
	err := json.Unmarshal(body, &raw)
	if err != nil {
		return Product{}, inventory.Wrap(inventory.KindRemote, op, fmt.Errorf("parse product %s: %w", upc, err))
	}

	var missing []string
	if raw.Name == nil {
		missing = append(missing, "name")
	}
	cat, ok := category(raw.DefaultCategory)
	if !ok {
		missing = append(missing, "defaultCategory")
	}
	if raw.UnitsOfSize == nil || raw.UnitsOfSize.Label == nil || len(raw.UnitsOfSize.Size) == 0 {
		missing = append(missing, "unitsOfSize")
	}
	if len(raw.Description) == 0 {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return Product{}, inventory.Errorf(
			inventory.KindNotFound, op,
			"product %s is missing %s", upc, strings.Join(missing, ", "),
		)
	}

	size, err := strconv.ParseFloat(scalar(raw.UnitsOfSize.Size), 64)
	if err != nil {
		return Product{}, inventory.Errorf(inventory.KindNotFound, op, "product %s has no usable size", upc)
	}

	p := Product{
		UPC:         upc,
		Name:        *raw.Name,
		Category:    cat,
		Unit:        *raw.UnitsOfSize.Label,
		Size:        size,
		Description: scalar(raw.Description),
		Ingredients: splitIngredients(scalar(raw.Ingredients)),
	}
	if raw.PrimaryImage != nil {
		p.ImageURL = raw.PrimaryImage.Default
	}
	if raw.NutritionProfiles != nil {
		p.Nutrition = raw.NutritionProfiles.Nutrition
	}
	return p, nil
}
