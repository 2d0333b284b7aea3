package orderitems

import (
	"encoding/json"
	"strings"
)

// DefaultProductName is shown when no name field could be found.
const DefaultProductName = "Product"

// Image is the image reference of a line item: either a single path/URL or
// the list a blob carried. The zero value means no image was found.
type Image struct {
	URL  string
	URLs []string
}

func (i Image) IsZero() bool {
	return i.URL == "" && len(i.URLs) == 0
}

// First returns the reference a single-thumbnail view would show.
func (i Image) First() string {
	if i.URL != "" {
		return i.URL
	}
	for _, u := range i.URLs {
		if strings.TrimSpace(u) != "" {
			return u
		}
	}
	return ""
}

func (i Image) MarshalJSON() ([]byte, error) {
	if i.URLs != nil {
		return json.Marshal(i.URLs)
	}
	return json.Marshal(i.URL)
}

func (i *Image) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*i = Image{URLs: list}
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*i = Image{URL: single}
	return nil
}

// LineItem is one normalized entry of an order's items field.
type LineItem struct {
	ProductName  string         `json:"productName"`
	ProductImage Image          `json:"productImage"`
	Price        float64        `json:"price"`
	Quantity     float64        `json:"quantity"`
	Size         string         `json:"size"`
	Color        string         `json:"color"`
	ProductID    *string        `json:"productId,omitempty"`
	LegacyRef    bool           `json:"legacyRef,omitempty"`
	Raw          map[string]any `json:"raw,omitempty"`
}

// Navigable reports whether the item can link to a product page.
func (li LineItem) Navigable() bool {
	return li.ProductID != nil && strings.TrimSpace(*li.ProductID) != ""
}

func defaultLineItem() LineItem {
	return LineItem{ProductName: DefaultProductName, Price: 0, Quantity: 1}
}
