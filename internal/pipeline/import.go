package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/xuri/excelize/v2"

	"storefront/internal"
	"storefront/internal/util"
)

// Column captions accepted for each order field, after util.HeaderKey.
var orderColumnAliases = map[string][]string{
	"id":             {"id", "order_id", "order_number", "order_no", "order"},
	"items":          {"items", "line_items", "order_items", "products"},
	"subtotal":       {"subtotal", "sub_total"},
	"total":          {"total", "order_total", "amount", "grand_total"},
	"status":         {"status", "order_status"},
	"customer_name":  {"customer_name", "customer", "full_name"},
	"customer_email": {"customer_email", "email"},
	"customer_phone": {"customer_phone", "phone"},
	"created_at":     {"created_at", "order_date", "date", "placed_at"},
	"updated_at":     {"updated_at", "modified_at"},
}

var errNoOrderColumns = errors.New("no id or items column found")

func parseOrdersJSON(blob []byte) ([]internal.OrderRecord, error) {
	if !gjson.ValidBytes(blob) {
		return nil, errors.New("invalid JSON")
	}

	root := gjson.ParseBytes(blob)
	rows := root
	if root.IsObject() {
		for _, key := range []string{"orders", "data", "rows"} {
			if r := root.Get(key); r.IsArray() {
				rows = r
				break
			}
		}
	}

	out := []internal.OrderRecord{}
	switch {
	case rows.IsArray():
		rows.ForEach(func(_, row gjson.Result) bool {
			if row.IsObject() {
				out = append(out, orderFromJSON(row))
			}
			return true
		})
	case rows.IsObject():
		out = append(out, orderFromJSON(rows))
	default:
		return nil, fmt.Errorf("unsupported JSON document: %s", rows.Type)
	}
	return out, nil
}

func orderFromJSON(row gjson.Result) internal.OrderRecord {
	field := func(name string) gjson.Result {
		for _, alias := range orderColumnAliases[name] {
			if r := row.Get(alias); r.Exists() && r.Type != gjson.Null {
				return r
			}
		}
		return gjson.Result{}
	}

	o := internal.OrderRecord{
		ID:            strings.TrimSpace(field("id").String()),
		Subtotal:      parseMoney(field("subtotal").String()),
		Total:         parseMoney(field("total").String()),
		Status:        field("status").String(),
		CustomerName:  field("customer_name").String(),
		CustomerEmail: field("customer_email").String(),
		CustomerPhone: field("customer_phone").String(),
		CreatedAt:     field("created_at").String(),
		UpdatedAt:     field("updated_at").String(),
	}
	if items := field("items"); items.Exists() {
		o.Items = util.JSONValue(items)
	}
	return ensureID(o)
}

func parseOrdersXLSX(content []byte) ([]internal.OrderRecord, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := []internal.OrderRecord{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}

		var cols map[string]int
		// only header captions are space-folded; data cells are merely trimmed
		for _, row := range rows {
			if isBlankRow(row) {
				continue
			}
			if cols == nil {
				if found, ok := inferOrderColumns(normalizeCells(row)); ok {
					cols = found
				}
				continue
			}
			if o, ok := orderFromCells(cols, row); ok {
				out = append(out, o)
			}
		}
	}

	if len(out) == 0 {
		return nil, errNoOrderColumns
	}
	return out, nil
}

func parseOrdersHTMLTable(html string) ([]internal.OrderRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	out := []internal.OrderRecord{}
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		rows := table.Find("tr")
		if rows.Length() < 2 {
			return
		}

		headers := []string{}
		rows.First().Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, cell.Text())
		})
		cols, ok := inferOrderColumns(normalizeCells(headers))
		if !ok {
			return
		}

		rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
			cells := []string{}
			row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, strings.TrimSpace(cell.Text()))
			})
			if o, ok := orderFromCells(cols, cells); ok {
				out = append(out, o)
			}
		})
	})

	if len(out) == 0 {
		return nil, errNoOrderColumns
	}
	return out, nil
}

// inferOrderColumns reads a header row; it needs at least an id or an items column.
func inferOrderColumns(headers []string) (map[string]int, bool) {
	keys := make([]string, 0, len(headers))
	for _, h := range headers {
		keys = append(keys, util.HeaderKey(h))
	}

	cols := map[string]int{}
	for field, aliases := range orderColumnAliases {
		if idx := findHeaderIndex(keys, aliases); idx >= 0 {
			cols[field] = idx
		}
	}
	_, hasID := cols["id"]
	_, hasItems := cols["items"]
	return cols, hasID || hasItems
}

// orderFromCells keeps the items cell as text; it is JSON or a legacy SKU.
func orderFromCells(cols map[string]int, cells []string) (internal.OrderRecord, bool) {
	get := func(field string) string {
		idx, ok := cols[field]
		if !ok {
			return ""
		}
		return pickCell(cells, idx, -1)
	}

	if get("id") == "" && get("items") == "" {
		return internal.OrderRecord{}, false
	}

	o := internal.OrderRecord{
		ID:            get("id"),
		Subtotal:      parseMoney(get("subtotal")),
		Total:         parseMoney(get("total")),
		Status:        get("status"),
		CustomerName:  get("customer_name"),
		CustomerEmail: get("customer_email"),
		CustomerPhone: get("customer_phone"),
		CreatedAt:     get("created_at"),
		UpdatedAt:     get("updated_at"),
	}
	if items := get("items"); items != "" {
		o.Items = items
	}
	return ensureID(o), true
}

func ensureID(o internal.OrderRecord) internal.OrderRecord {
	if strings.TrimSpace(o.ID) == "" {
		o.ID = uuid.NewString()
	}
	return o
}

func parseMoney(s string) *float64 {
	s = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(s), "$€£₹"))
	s = strings.ReplaceAll(s, ",", "")
	if f, ok := util.ParseNumber(s); ok {
		return util.FloatPtr(f)
	}
	return nil
}

func findHeaderIndex(headers []string, probes []string) int {
	for i, h := range headers {
		for _, probe := range probes {
			if h == probe {
				return i
			}
		}
	}
	return -1
}

func pickCell(cells []string, idx int, fallback int) string {
	if idx >= 0 && idx < len(cells) {
		return strings.TrimSpace(cells[idx])
	}
	if fallback >= 0 && fallback < len(cells) {
		return strings.TrimSpace(cells[fallback])
	}
	return ""
}

func normalizeCells(row []string) []string {
	out := make([]string, 0, len(row))
	for _, c := range row {
		out = append(out, util.NormalizeSpaces(c))
	}
	return out
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
