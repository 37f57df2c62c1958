// Package tags reads and rewrites the key:value counters stored in a
// clothing item's flat tag list. The list is treated as a map with unique,
// case-insensitive keys; every mutation returns a fresh slice.
package tags

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Well-known ledger keys.
const (
	KeyWears = "wears"
	KeyPrice = "price"
	KeySize  = "size"
)

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func split(tag string) (key, value string, ok bool) {
	idx := strings.IndexByte(tag, ':')
	if idx < 0 {
		return "", "", false
	}
	key = normalizeKey(tag[:idx])
	if key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(tag[idx+1:]), true
}

// Parse returns the key/value view of tags. Entries without a colon are
// ignored and later duplicates overwrite earlier ones.
func Parse(tags []string) map[string]string {
	out := make(map[string]string, len(tags))
	for _, t := range tags {
		if k, v, ok := split(t); ok {
			out[k] = v
		}
	}
	return out
}

// Get returns the value stored for key.
func Get(tags []string, key string) (string, bool) {
	v, ok := Parse(tags)[normalizeKey(key)]
	return v, ok
}

// Set drops every entry for key and appends a single key:value entry.
func Set(tags []string, key, value string) []string {
	k := normalizeKey(key)
	out := make([]string, 0, len(tags)+1)
	for _, t := range tags {
		if existing, _, ok := split(t); ok && existing == k {
			continue
		}
		out = append(out, t)
	}
	return append(out, k+":"+value)
}

// IncrementInt adds delta to the integer stored under key, treating a missing
// or non-numeric value as zero, and never lets the result drop below floor.
func IncrementInt(tags []string, key string, delta, floor int) ([]string, int) {
	current := 0
	if raw, ok := Get(tags, key); ok {
		if n, err := strconv.Atoi(raw); err == nil {
			current = n
		}
	}
	next := max(current+delta, floor)
	return Set(tags, key, strconv.Itoa(next)), next
}

// Has reports whether tags contains the bare flag (an entry without a value,
// e.g. "oversized").
func Has(tags []string, flag string) bool {
	f := normalizeKey(flag)
	for _, t := range tags {
		if normalizeKey(t) == f {
			return true
		}
	}
	return false
}

// ParseMoney extracts a non-negative amount from free text such as "$49.99".
func ParseMoney(text string) (decimal.Decimal, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, text)
	if cleaned == "" {
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil || amount.IsNegative() {
		return decimal.Zero, false
	}
	return amount, true
}
