package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Sort key kind prefixes. Text sorts below numbers and numbers below dates.
const (
	sortKindText   = "0"
	sortKindNumber = "1"
	sortKindDate   = "2"
)

// SortKey encodes a field value so that comparing keys as plain strings
// orders dates chronologically, numbers numerically and everything else
// lexically. Stores index and bound on this key, so their order matches
// CompareValues.
func SortKey(v string) string {
	s := strings.TrimSpace(v)
	if s == "" {
		return sortKindText
	}
	if t, ok := ParseDate(s); ok {
		return sortKindDate + t.UTC().Format("20060102150405.000000000")
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(n) {
		bits := math.Float64bits(n)
		if bits>>63 == 1 {
			bits = ^bits
		} else {
			bits |= 1 << 63
		}
		return fmt.Sprintf("%s%016x", sortKindNumber, bits)
	}
	return sortKindText + v
}

// CompareValues orders two field values by their sort keys.
func CompareValues(a, b string) int {
	return strings.Compare(SortKey(a), SortKey(b))
}

// CompareRecords orders records by field, then by Code.
func CompareRecords(a, b OrderRecord, field Field) int {
	if c := CompareValues(a.Value(field), b.Value(field)); c != 0 {
		return c
	}
	return strings.Compare(a.Code, b.Code)
}

// SortKeys returns the sort key of every record field, keyed by storage name.
func (r OrderRecord) SortKeys() map[string]string {
	keys := make(map[string]string, len(AllFields()))
	for _, f := range AllFields() {
		keys[string(f)] = SortKey(r.Value(f))
	}
	return keys
}
