package internal

type ImportSource string

const (
	SourceJSON      ImportSource = "json"
	SourceXLSX      ImportSource = "xlsx"
	SourceHTMLTable ImportSource = "html_table"
	SourceDatastore ImportSource = "datastore"
)

// OrderRecord is one order row as it comes out of the datastore. Items keeps
// whatever shape was stored: nil, JSON text, a legacy SKU string, a single
// object or an array of objects.
type OrderRecord struct {
	ID            string   `json:"id"`
	Items         any      `json:"items"`
	Subtotal      *float64 `json:"subtotal,omitempty"`
	Total         *float64 `json:"total,omitempty"`
	Status        string   `json:"status,omitempty"`
	CustomerName  string   `json:"customer_name,omitempty"`
	CustomerEmail string   `json:"customer_email,omitempty"`
	CustomerPhone string   `json:"customer_phone,omitempty"`
	CreatedAt     string   `json:"created_at,omitempty"`
	UpdatedAt     string   `json:"updated_at,omitempty"`
}

type LineItemExportRow struct {
	OrderID     string
	OrderStatus string
	LineNo      int
	ProductName string
	ProductID   *string
	ImageURL    string
	Price       float64
	Quantity    float64
	LineTotal   float64
	Size        string
	Color       string
	LegacyRef   bool
}
