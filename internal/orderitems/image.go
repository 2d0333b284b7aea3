package orderitems

import (
	"net/url"
	"strings"
)

// PublicURLFunc turns a storage-relative path into a public URL. It must be
// synchronous; anything that needs a network call belongs above the caller.
type PublicURLFunc func(path string) (string, error)

// ResolveImagePath produces one displayable URL for an image reference, or ""
// when it cannot be resolved. Absolute http(s) URLs come back unchanged
// without calling resolve; resolver errors and panics yield "".
func ResolveImagePath(ref any, resolve PublicURLFunc) string {
	switch t := ref.(type) {
	case Image:
		if t.URL != "" {
			return ResolveImagePath(t.URL, resolve)
		}
		return ResolveImagePath(t.URLs, resolve)
	case *Image:
		if t == nil {
			return ""
		}
		return ResolveImagePath(*t, resolve)
	case []string:
		for _, s := range t {
			if strings.TrimSpace(s) != "" {
				return ResolveImagePath(s, resolve)
			}
		}
		return ""
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return ResolveImagePath(s, resolve)
			}
		}
		return ""
	}

	s, ok := ref.(string)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if isAbsoluteHTTP(s) {
		u, err := url.Parse(s)
		if err != nil || u.Host == "" {
			return ""
		}
		return s
	}

	return publicURL(strings.TrimPrefix(s, "/"), resolve)
}

func isAbsoluteHTTP(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func publicURL(path string, resolve PublicURLFunc) (out string) {
	if resolve == nil || path == "" {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			out = ""
		}
	}()

	resolved, err := resolve(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(resolved)
}
