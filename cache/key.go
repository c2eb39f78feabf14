package cache

import (
	"sort"
	"strings"
	"time"
	"unicode"
)

// DayLayout is the calendar-day component of every key
const DayLayout = "2006-01-02"

// Key builds a deterministic cache key from route, action, params and the
// calendar day of day (in day's own location). Parts are normalized with
// Normalize and params are sorted by name, so equivalent requests collide.
func Key(route, action string, params map[string]string, day time.Time) string {
	parts := []string{Normalize(route), Normalize(action)}

	if len(params) > 0 {
		kv := make([]string, 0, len(params))
		for k, v := range params {
			kv = append(kv, Normalize(k)+"="+Normalize(v))
		}
		sort.Strings(kv)
		parts = append(parts, strings.Join(kv, "&"))
	} else {
		parts = append(parts, "")
	}

	parts = append(parts, day.Format(DayLayout))
	return strings.Join(parts, ":")
}

// Normalize slug-cases s: lower case, trimmed, runs of whitespace,
// underscores and dashes collapsed to a single dash.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	dash := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsSpace(r) || r == '_' || r == '-':
			dash = true
		default:
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
