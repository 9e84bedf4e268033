package pantrysoft

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PantryRecord is an inventory item as listed by the server.
type PantryRecord struct {
	ID             int64   `json:"id"`
	ItemNumber     string  `json:"itemNumber"`
	Name           string  `json:"name"`
	Unit           string  `json:"unit"`
	Weight         float64 `json:"weight"`
	ItemTypeString string  `json:"itemTypeString"`
}

// Code links a code number (a UPC) to an item id.
type Code struct {
	ID         int64  `json:"id"`
	CodeNumber string `json:"codeNumber"`
	ItemID     int64  `json:"itemId"`
}

// Category is an item type.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Tag is an item tag.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type rawObject map[string]json.RawMessage

func decodeObject(raw json.RawMessage, required ...string) (rawObject, error) {
	var obj rawObject
	err := json.Unmarshal(raw, &obj)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, field := range required {
		if _, ok := obj[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing fields: %s", strings.Join(missing, ", "))
	}
	return obj, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func (o rawObject) str(field string) (string, error) {
	raw := o[field]
	if isNull(raw) {
		return "", nil
	}
	var s string
	err := json.Unmarshal(raw, &s)
	if err == nil {
		return s, nil
	}
	// numeric item numbers are sometimes sent unquoted
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("field %s: %w", field, err)
}

// number accepts a json number or a numeric string.
func (o rawObject) number(field string) (float64, error) {
	raw := o[field]
	if isNull(raw) {
		return 0, nil
	}
	var f float64
	if json.Unmarshal(raw, &f) == nil {
		return f, nil
	}
	var s string
	err := json.Unmarshal(raw, &s)
	if err != nil {
		return 0, fmt.Errorf("field %s: %w", field, err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	f, err = strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("field %s: %w", field, err)
	}
	return f, nil
}

func (o rawObject) id(field string) (int64, error) {
	if isNull(o[field]) {
		return 0, fmt.Errorf("field %s: is null", field)
	}
	f, err := o.number(field)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

func decodeRecord(raw json.RawMessage) (PantryRecord, error) {
	obj, err := decodeObject(raw, "id", "itemNumber", "name", "unit", "weight", "itemTypeString")
	if err != nil {
		return PantryRecord{}, err
	}
	var r PantryRecord
	var errs [6]error
	r.ID, errs[0] = obj.id("id")
	r.ItemNumber, errs[1] = obj.str("itemNumber")
	r.Name, errs[2] = obj.str("name")
	r.Unit, errs[3] = obj.str("unit")
	r.Weight, errs[4] = obj.number("weight")
	r.ItemTypeString, errs[5] = obj.str("itemTypeString")
	for _, err := range errs {
		if err != nil {
			return PantryRecord{}, err
		}
	}
	return r, nil
}

func decodeCode(raw json.RawMessage) (Code, error) {
	obj, err := decodeObject(raw, "codeNumber", "itemId")
	if err != nil {
		return Code{}, err
	}
	var c Code
	c.CodeNumber, err = obj.str("codeNumber")
	if err != nil {
		return Code{}, err
	}
	c.ItemID, err = obj.id("itemId")
	if err != nil {
		return Code{}, err
	}
	if _, ok := obj["id"]; ok {
		c.ID, err = obj.id("id")
		if err != nil {
			return Code{}, err
		}
	}
	return c, nil
}

func decodeNamed(raw json.RawMessage) (int64, string, error) {
	obj, err := decodeObject(raw, "id", "name")
	if err != nil {
		return 0, "", err
	}
	id, err := obj.id("id")
	if err != nil {
		return 0, "", err
	}
	name, err := obj.str("name")
	if err != nil {
		return 0, "", err
	}
	return id, name, nil
}

func decodeCategory(raw json.RawMessage) (Category, error) {
	id, name, err := decodeNamed(raw)
	return Category{ID: id, Name: name}, err
}

func decodeTag(raw json.RawMessage) (Tag, error) {
	id, name, err := decodeNamed(raw)
	return Tag{ID: id, Name: name}, err
}
