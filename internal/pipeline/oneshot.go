package pipeline

import (
	"fmt"
	"os"

	"storefront/internal"
)

// ImportOrdersFromInput reads an order dump from disk. Items are kept in the
// shape the file carried them.
func ImportOrdersFromInput(inputType string, input string) ([]internal.OrderRecord, error) {
	blob, err := os.ReadFile(input)
	if err != nil {
		return nil, err
	}

	switch internal.ImportSource(inputType) {
	case internal.SourceJSON:
		return parseOrdersJSON(blob)
	case internal.SourceXLSX:
		return parseOrdersXLSX(blob)
	case internal.SourceHTMLTable, "html":
		return parseOrdersHTMLTable(string(blob))
	default:
		return nil, fmt.Errorf("unsupported input type: %s", inputType)
	}
}
