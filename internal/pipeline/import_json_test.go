package pipeline

import "testing"

func TestParseOrdersJSONShapes(t *testing.T) {
	cases := []struct {
		name string
		blob string
		want int
	}{
		{"array", `[{"id":"a","items":"[]"},{"id":"b"}]`, 2},
		{"orders envelope", `{"orders":[{"id":"a"}]}`, 1},
		{"data envelope", `{"data":[{"order_id":"a"},{"order_id":"b"},{"order_id":"c"}]}`, 3},
		{"single object", `{"id":"a","items":{"name":"Cap"}}`, 1},
		{"scalars skipped", `[1,"x",{"id":"a"}]`, 1},
	}
	for _, tc := range cases {
		orders, err := parseOrdersJSON([]byte(tc.blob))
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if len(orders) != tc.want {
			t.Fatalf("%s: len=%d want %d", tc.name, len(orders), tc.want)
		}
	}
}

func TestParseOrdersJSONFields(t *testing.T) {
	orders, err := parseOrdersJSON([]byte(`[{"order_number": 42, "order_total": "1,200.50", "email": "a@b.c", "items": "SKU-1"}, {"items": []}]`))
	if err != nil {
		t.Fatal(err)
	}
	first := orders[0]
	if first.ID != "42" || first.Total == nil || *first.Total != 1200.5 || first.CustomerEmail != "a@b.c" {
		t.Fatalf("first=%+v", first)
	}
	if first.Items != "SKU-1" {
		t.Fatalf("items=%#v", first.Items)
	}
	if orders[1].ID == "" {
		t.Fatal("missing id should be generated")
	}
}

func TestParseOrdersJSONRejectsGarbage(t *testing.T) {
	if _, err := parseOrdersJSON([]byte(`{"orders": [`)); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
	if _, err := parseOrdersJSON([]byte(`"just text"`)); err == nil {
		t.Fatal("expected error for bare string document")
	}
}
