// Package orderitems turns the loosely shaped items field of an order row into
// normalized line items. Everything here is pure: no I/O, no shared state, and
// no input makes it panic or return an error.
package orderitems

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"

	"storefront/internal"
	"storefront/internal/util"
)

// JSON text nested inside JSON text is unwrapped at most this many times.
const maxParseDepth = 4

// Normalizer carries the optional trace sink. The zero value and a nil
// *Normalizer are both ready to use.
type Normalizer struct {
	Trace Tracer
}

// Normalize normalizes order.Items without tracing.
func Normalize(order internal.OrderRecord) []LineItem {
	var n *Normalizer
	return n.Normalize(order)
}

// Normalize returns one line item per non-empty entry of order.Items, in input
// order. Entries are never merged, even when they share a product id.
func (n *Normalizer) Normalize(order internal.OrderRecord) []LineItem {
	raw := n.materialize(order.ID, order.Items, 0)
	n.emit(Event{Kind: EventMaterialize, OrderID: order.ID, Index: -1, Detail: fmt.Sprintf("%d raw entries", len(raw))})

	out := make([]LineItem, 0, len(raw))
	for i, entry := range raw {
		if isEmptyEntry(entry) {
			n.emit(Event{Kind: EventDropped, OrderID: order.ID, Index: i, Detail: fmt.Sprintf("%T", entry)})
			continue
		}
		out = append(out, n.toLineItem(order.ID, i, entry))
	}
	return out
}

// materialize reduces every accepted shape of the items field to a single
// raw sequence so the rest of the pipeline never looks at the outer shape.
func (n *Normalizer) materialize(orderID string, v any, depth int) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	case []map[string]any:
		return lo.Map(t, func(m map[string]any, _ int) any { return m })
	case []string:
		return lo.ToAnySlice(t)
	case map[string]any:
		return []any{t}
	case string:
		return n.materializeText(orderID, t, depth)
	case json.RawMessage:
		return n.materializeText(orderID, string(t), depth)
	case []byte:
		return n.materializeText(orderID, string(t), depth)
	case bool:
		return nil
	}

	if _, ok := util.ParseNumber(v); ok {
		return []any{v}
	}

	blob, err := json.Marshal(v)
	if err != nil {
		n.emit(Event{Kind: EventParseFailed, OrderID: orderID, Index: -1, Detail: err.Error()})
		return nil
	}
	return n.materializeText(orderID, string(blob), depth)
}

func (n *Normalizer) materializeText(orderID, s string, depth int) []any {
	text := strings.TrimSpace(s)
	if text == "" {
		return nil
	}
	if depth >= maxParseDepth {
		return []any{text}
	}
	if !gjson.Valid(text) {
		n.emit(Event{Kind: EventParseFailed, OrderID: orderID, Index: -1, Detail: "items is not JSON, keeping it as a legacy reference"})
		return []any{text}
	}

	parsed := util.JSONValue(gjson.Parse(text))
	if _, ok := parsed.(json.Number); ok {
		// numeric SKU; keep the text as written
		return []any{text}
	}
	return n.materialize(orderID, parsed, depth+1)
}

func isEmptyEntry(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

func (n *Normalizer) toLineItem(orderID string, index int, entry any) LineItem {
	switch t := entry.(type) {
	case map[string]any:
		return n.fromBlob(orderID, index, t)
	case string:
		return n.fromText(orderID, index, t)
	}

	if ref, ok := util.NumberText(entry); ok {
		return n.legacyRef(orderID, index, ref)
	}

	n.emit(Event{Kind: EventFieldDefault, OrderID: orderID, Index: index, Detail: fmt.Sprintf("unusable entry %T", entry)})
	return defaultLineItem()
}

func (n *Normalizer) fromText(orderID string, index int, s string) LineItem {
	text := strings.TrimSpace(s)
	if !gjson.Valid(text) {
		return n.legacyRef(orderID, index, text)
	}

	switch parsed := util.JSONValue(gjson.Parse(text)).(type) {
	case map[string]any:
		if len(parsed) > 0 {
			return n.fromBlob(orderID, index, parsed)
		}
	case string:
		if ref := strings.TrimSpace(parsed); ref != "" {
			return n.legacyRef(orderID, index, ref)
		}
	case json.Number:
		return n.legacyRef(orderID, index, text)
	}

	n.emit(Event{Kind: EventFieldDefault, OrderID: orderID, Index: index, Detail: "JSON entry without item fields"})
	return defaultLineItem()
}

func (n *Normalizer) legacyRef(orderID string, index int, ref string) LineItem {
	n.emit(Event{Kind: EventLegacyRef, OrderID: orderID, Index: index, Field: "productId", Detail: ref})
	item := defaultLineItem()
	item.ProductID = util.StringPtr(ref)
	item.LegacyRef = true
	return item
}

func (n *Normalizer) fromBlob(orderID string, index int, blob map[string]any) LineItem {
	item := defaultLineItem()
	item.Raw = blob

	if m := firstMatch(blob, NameFields, textValue); n.found(orderID, index, "productName", m.found, m.path) {
		item.ProductName = m.value
	}
	if m := firstMatch(blob, ImageFields, imageValue); n.found(orderID, index, "productImage", m.found, m.path) {
		item.ProductImage = m.value
	}
	if m := firstMatch(blob, PriceFields, nonNegative); n.found(orderID, index, "price", m.found, m.path) {
		item.Price = m.value
	}
	if m := firstMatch(blob, QuantityFields, atLeastOne); n.found(orderID, index, "quantity", m.found, m.path) {
		item.Quantity = m.value
	}
	if m := firstMatch(blob, SizeFields, textValue); n.found(orderID, index, "size", m.found, m.path) {
		item.Size = m.value
	}
	if m := firstMatch(blob, ColorFields, textValue); n.found(orderID, index, "color", m.found, m.path) {
		item.Color = m.value
	}
	if m := firstMatch(blob, ProductIDFields, textValue); n.found(orderID, index, "productId", m.found, m.path) {
		item.ProductID = util.StringPtr(m.value)
	}
	return item
}

func (n *Normalizer) found(orderID string, index int, field string, ok bool, path Path) bool {
	if ok {
		n.emit(Event{Kind: EventFieldFound, OrderID: orderID, Index: index, Field: field, Detail: path.String()})
	} else {
		n.emit(Event{Kind: EventFieldDefault, OrderID: orderID, Index: index, Field: field})
	}
	return ok
}

func (n *Normalizer) emit(e Event) {
	if n == nil || n.Trace == nil {
		return
	}
	defer func() { _ = recover() }()
	n.Trace(e)
}
