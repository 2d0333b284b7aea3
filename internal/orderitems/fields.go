package orderitems

import (
	"strings"

	"github.com/samber/lo"

	"storefront/internal/util"
)

// Path addresses a value inside an item blob; {"product", "name"} reads
// blob["product"]["name"].
type Path []string

func (p Path) String() string {
	return strings.Join(p, ".")
}

// Field precedence tables. The first path yielding an acceptable value wins;
// top-level fields always come before the nested product.* ones.
var (
	NameFields = []Path{
		{"name"}, {"title"}, {"product_name"}, {"productName"},
		{"product", "name"}, {"product", "title"},
	}
	ImageFields = []Path{
		{"images"}, {"image"}, {"product_image"}, {"image_url"}, {"productImage"},
		{"thumbnail"}, {"product_thumbnail"},
		{"product", "images"}, {"product", "image"}, {"product", "thumbnail"}, {"product", "product_image"},
	}
	PriceFields     = []Path{{"price"}, {"product", "price"}, {"unit_price"}}
	QuantityFields  = []Path{{"quantity"}}
	SizeFields      = []Path{{"size"}, {"product_size"}}
	ColorFields     = []Path{{"color"}, {"product_color"}}
	ProductIDFields = []Path{{"product_id"}, {"product", "id"}, {"productId"}}
)

func lookup(blob map[string]any, path Path) (any, bool) {
	var cur any = blob
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

// textValue accepts non-blank strings and finite numbers.
func textValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case bool:
		return "", false
	}
	return util.NumberText(v)
}

func imageValue(v any) (Image, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		return Image{URL: s}, s != ""
	case []string:
		return imageList(lo.ToAnySlice(t))
	case []any:
		return imageList(t)
	}
	return Image{}, false
}

func imageList(values []any) (Image, bool) {
	urls := lo.FilterMap(values, func(v any, _ int) (string, bool) {
		s, ok := v.(string)
		if !ok {
			return "", false
		}
		s = strings.TrimSpace(s)
		return s, s != ""
	})
	if len(urls) == 0 {
		return Image{}, false
	}
	return Image{URLs: urls}, true
}

type match[T any] struct {
	value T
	path  Path
	found bool
}

func firstMatch[T any](blob map[string]any, paths []Path, accept func(any) (T, bool)) match[T] {
	for _, p := range paths {
		raw, ok := lookup(blob, p)
		if !ok {
			continue
		}
		if v, ok := accept(raw); ok {
			return match[T]{value: v, path: p, found: true}
		}
	}
	return match[T]{}
}

func nonNegative(v any) (float64, bool) {
	f, ok := util.ParseNumber(v)
	return f, ok && f >= 0
}

func atLeastOne(v any) (float64, bool) {
	f, ok := util.ParseNumber(v)
	return f, ok && f >= 1
}
