package orderitems

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveImagePath(t *testing.T) {
	cdn := func(path string) (string, error) {
		return "https://cdn.example/" + path, nil
	}

	cases := []struct {
		name string
		ref  any
		want string
	}{
		{name: "relative path", ref: "product-images/shoe.jpg", want: "https://cdn.example/product-images/shoe.jpg"},
		{name: "leading slash stripped once", ref: "//x.jpg", want: "https://cdn.example//x.jpg"},
		{name: "single leading slash", ref: "/x.jpg", want: "https://cdn.example/x.jpg"},
		{name: "absolute url unchanged", ref: "https://already.com/x.jpg", want: "https://already.com/x.jpg"},
		{name: "absolute url trimmed", ref: "  http://already.com/x.jpg ", want: "http://already.com/x.jpg"},
		{name: "uppercase scheme", ref: "HTTPS://already.com/x.jpg", want: "HTTPS://already.com/x.jpg"},
		{name: "absolute without host", ref: "https://", want: ""},
		{name: "malformed absolute", ref: "http://bad host/%zz", want: ""},
		{name: "blank", ref: "   ", want: ""},
		{name: "nil", ref: nil, want: ""},
		{name: "number", ref: 12, want: ""},
		{name: "mapping", ref: map[string]any{"url": "x.jpg"}, want: ""},
		{name: "string slice picks first non-empty", ref: []string{"", " ", "a.jpg", "b.jpg"}, want: "https://cdn.example/a.jpg"},
		{name: "any slice skips non-strings", ref: []any{3, nil, "a.jpg"}, want: "https://cdn.example/a.jpg"},
		{name: "empty slice", ref: []string{}, want: ""},
		{name: "image list", ref: Image{URLs: []string{"https://x.test/1.jpg"}}, want: "https://x.test/1.jpg"},
		{name: "image single", ref: Image{URL: "c.jpg"}, want: "https://cdn.example/c.jpg"},
		{name: "zero image", ref: Image{}, want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolveImagePath(tc.ref, cdn))
		})
	}
}

func TestResolveImagePathAbsoluteSkipsResolver(t *testing.T) {
	calls := 0
	resolve := func(path string) (string, error) {
		calls++
		return "https://cdn.example/" + path, nil
	}

	first := ResolveImagePath("https://already.com/x.jpg", resolve)
	second := ResolveImagePath(first, resolve)
	assert.Equal(t, "https://already.com/x.jpg", first)
	assert.Equal(t, first, second)
	assert.Zero(t, calls)

	resolved := ResolveImagePath("shoe.jpg", resolve)
	assert.Equal(t, resolved, ResolveImagePath(resolved, resolve))
	assert.Equal(t, 1, calls)
}

func TestResolveImagePathResolverFailures(t *testing.T) {
	failing := func(string) (string, error) { return "", errors.New("bucket unavailable") }
	panicking := func(string) (string, error) { panic("boom") }
	blank := func(string) (string, error) { return "  ", nil }

	assert.Equal(t, "", ResolveImagePath("a.jpg", failing))
	assert.NotPanics(t, func() {
		assert.Equal(t, "", ResolveImagePath("a.jpg", panicking))
	})
	assert.Equal(t, "", ResolveImagePath("a.jpg", blank))
	assert.Equal(t, "", ResolveImagePath("a.jpg", nil))
	assert.Equal(t, "", ResolveImagePath("/", func(p string) (string, error) { return "https://cdn.example/" + p, nil }))
}
