package models

import (
	"fmt"
	"strings"
)

// Tier is the subscription level controlling the monthly credit allotment.
type Tier string

const (
	TierFree  Tier = "free"
	TierBasic Tier = "basic"
	TierPro   Tier = "pro"
)

// Allotment returns the credits granted to the tier on every monthly reset.
func (t Tier) Allotment() int {
	switch t {
	case TierBasic:
		return 20
	case TierPro:
		return 50
	default:
		return 0
	}
}

// IsPaid reports whether the tier renews credits.
func (t Tier) IsPaid() bool {
	return t == TierBasic || t == TierPro
}

// ParseTier normalizes a stored or requested tier label.
func ParseTier(s string) (Tier, error) {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierFree:
		return TierFree, nil
	case TierBasic:
		return TierBasic, nil
	case TierPro:
		return TierPro, nil
	}
	return "", fmt.Errorf("unknown tier %q", s)
}
