package pipeline

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"storefront/internal/orderitems"
)

func mkXLSX(rows [][]any) []byte {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	buf := bytes.NewBuffer(nil)
	_, _ = f.WriteTo(buf)
	return buf.Bytes()
}

func TestParseOrdersXLSX(t *testing.T) {
	blob := mkXLSX([][]any{
		{"Orders export"},
		{},
		{"Order ID", "Status", "Items", "Subtotal"},
		{"ord-1", "paid", `[{"name":"Red Shirt","price":"499","quantity":2}]`, 998},
		{"ord-2", "pending", "SKU-77", ""},
	})
	orders, err := parseOrdersXLSX(blob)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 2 {
		t.Fatalf("len=%d", len(orders))
	}
	if orders[0].Subtotal == nil || *orders[0].Subtotal != 998 {
		t.Fatalf("subtotal=%v", orders[0].Subtotal)
	}
	if orders[1].Subtotal != nil {
		t.Fatalf("blank subtotal should be nil, got %v", *orders[1].Subtotal)
	}

	items := orderitems.Normalize(orders[0])
	if len(items) != 1 || items[0].Price != 499 || items[0].Quantity != 2 {
		t.Fatalf("items=%+v", items)
	}
	legacy := orderitems.Normalize(orders[1])
	if len(legacy) != 1 || !legacy[0].LegacyRef {
		t.Fatalf("legacy=%+v", legacy)
	}
}

func TestParseOrdersXLSXKeepsItemsText(t *testing.T) {
	items := "[{\"name\":\"Red  Shirt\u00a0XL\",\"price\":10}]"
	blob := mkXLSX([][]any{
		{"Order\u00a0ID", "Line  Items"},
		{"ord-1", items},
	})
	orders, err := parseOrdersXLSX(blob)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 1 || orders[0].Items != items {
		t.Fatalf("orders=%+v", orders)
	}
	got := orderitems.Normalize(orders[0])
	if len(got) != 1 || got[0].ProductName != "Red  Shirt\u00a0XL" {
		t.Fatalf("name=%q", got[0].ProductName)
	}
}

func TestParseOrdersXLSXWithoutHeader(t *testing.T) {
	blob := mkXLSX([][]any{{"Name", "Qty"}, {"Shirt", 1}})
	if _, err := parseOrdersXLSX(blob); err == nil {
		t.Fatal("expected error")
	}
}
