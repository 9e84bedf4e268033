package inventory

import "fmt"

// Item is a pantry entry identified by its UPC.
type Item struct {
	UPC         string  `json:"upc"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Unit        string  `json:"unit"`
	Size        float64 `json:"size"`
	Description string  `json:"description"`
}

func (i Item) String() string {
	return fmt.Sprintf("%s (%s)", i.Name, i.UPC)
}

// AddResult is the outcome of the add-item workflow.
type AddResult int

const (
	AlreadyExists AddResult = iota
	Added
	NotFound
)

func (r AddResult) String() string {
	switch r {
	case AlreadyExists:
		return "ALREADY_EXISTS"
	case Added:
		return "ADDED"
	case NotFound:
		return "NOT_FOUND"
	}
	return fmt.Sprintf("AddResult(%d)", int(r))
}

// ManualCategory is the category given to items entered by hand.
const ManualCategory = "Manual Entry"

// ManualDescription is the description given to items entered by hand.
const ManualDescription = "Manually added item."

// NewManualItem creates an item from an operator supplied name, manual
// entries carry no size and are not checksum validated.
func NewManualItem(upc, name string) Item {
	return Item{
		UPC:         upc,
		Name:        name,
		Category:    ManualCategory,
		Size:        0,
		Description: ManualDescription,
	}
}
