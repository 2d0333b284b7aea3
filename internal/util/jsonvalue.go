package util

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// JSONValue is gjson.Result.Value with numbers kept as json.Number, so ids
// past 2^53 keep every digit.
func JSONValue(r gjson.Result) any {
	switch r.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		return json.Number(strings.TrimSpace(r.Raw))
	case gjson.String:
		return r.Str
	case gjson.JSON:
		if r.IsArray() {
			out := []any{}
			r.ForEach(func(_, v gjson.Result) bool {
				out = append(out, JSONValue(v))
				return true
			})
			return out
		}
		out := map[string]any{}
		r.ForEach(func(k, v gjson.Result) bool {
			out[k.Str] = JSONValue(v)
			return true
		})
		return out
	}
	return nil
}
