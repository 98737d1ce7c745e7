package store

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

// resolveServerTimestamps copies fields, replacing ServerTimestamp placeholders with now.
func resolveServerTimestamps(fields Fields, now time.Time) Fields {
	out := make(Fields, len(fields))
	for k, v := range fields {
		if v == ServerTimestamp {
			out[k] = now
			continue
		}
		out[k] = v
	}
	return out
}

func copyFields(fields Fields) Fields {
	out := make(Fields, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// applyQuery filters and orders docs the way the managed store does.
func applyQuery(docs []Document, q Query) []Document {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if matches(d.Fields, q) {
			out = append(out, d)
		}
	}
	if q.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			c := compareValues(out[i].Fields[q.OrderBy], out[j].Fields[q.OrderBy])
			if c == 0 {
				return out[i].ID < out[j].ID
			}
			return c < 0
		})
	}
	return out
}

func matches(fields Fields, q Query) bool {
	for _, f := range q.Where {
		v, ok := fields[f.Field]
		if !ok || !valuesEqual(v, f.Value) {
			return false
		}
	}
	if q.OrderBy != "" {
		if _, ok := fields[q.OrderBy]; !ok {
			return false
		}
	}
	return true
}

func valuesEqual(a, b interface{}) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	return reflect.DeepEqual(a, b)
}

// compareValues orders numbers before strings before everything else.
func compareValues(a, b interface{}) int {
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	switch {
	case aNum && bNum:
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case aNum:
		return -1
	case bNum:
		return 1
	}

	sa, aStr := a.(string)
	sb, bStr := b.(string)
	switch {
	case aStr && bStr:
		return strings.Compare(sa, sb)
	case aStr:
		return -1
	case bStr:
		return 1
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
