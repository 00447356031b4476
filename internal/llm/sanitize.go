package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
)

// CoerceRecord turns a loosely typed model object into one string per expected
// key. Absent and null keys become "", scalars are formatted, nested values are
// re-encoded as JSON and reported in the returned warnings. Keys the model added
// on its own are dropped.
func CoerceRecord(keys []string, obj map[string]any, logger *slog.Logger) (map[string]string, []string) {
	if logger == nil {
		logger = slog.Default()
	}

	out := make(map[string]string, len(keys))
	var warnings []string
	for _, k := range keys {
		v, ok := obj[k]
		if !ok {
			out[k] = ""
			continue
		}
		s, nested := stringify(v)
		if nested {
			warnings = append(warnings, fmt.Sprintf("Field %q returned a structured value; kept as JSON text", k))
		}
		out[k] = s
	}

	var unknown []string
	for k := range obj {
		if !slices.Contains(keys, k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		logger.Warn("llm.response.unknown_keys_dropped", "keys", unknown)
	}
	return out, warnings
}

func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return strings.TrimSpace(t), false
	case json.Number:
		return t.String(), false
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), false
	case bool:
		return strconv.FormatBool(t), false
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t), true
		}
		return string(b), true
	}
}
