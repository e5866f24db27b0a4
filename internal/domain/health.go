package domain

import (
	"fmt"
	"time"
)

// HealthTier is the ordinal reachability classification of a bookmark URL.
type HealthTier string

const (
	TierExcellent HealthTier = "excellent"
	TierWorking   HealthTier = "working"
	TierFair      HealthTier = "fair"
	TierPoor      HealthTier = "poor"
	TierBroken    HealthTier = "broken"
)

const (
	// ExcellentLatency is the exclusive upper bound for an excellent 2xx.
	ExcellentLatency = 500 * time.Millisecond
	// WorkingLatency is the exclusive upper bound for a working 2xx.
	WorkingLatency = 1500 * time.Millisecond
)

// AllTiers lists tiers in ascending order of severity.
var AllTiers = []HealthTier{TierExcellent, TierWorking, TierFair, TierPoor, TierBroken}

// Severity returns 0 for excellent up to 4 for broken, -1 for unknown tiers.
func (t HealthTier) Severity() int {
	for i, tier := range AllTiers {
		if tier == t {
			return i
		}
	}
	return -1
}

func (t HealthTier) Valid() bool { return t.Severity() >= 0 }

// ParseHealthTier parses a tier name.
func ParseHealthTier(s string) (HealthTier, error) {
	t := HealthTier(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown health tier: %q", s)
	}
	return t, nil
}

// Classify maps a raw probe outcome to a tier. statusCode is 0 when no
// response was received; timedOut distinguishes a deadline from any other
// transport failure. Total over its inputs.
//
// Timeouts and 4xx both land on poor. That conflation is kept on purpose:
// stored tiers must stay comparable with records classified earlier.
func Classify(statusCode int, elapsed time.Duration, timedOut bool) HealthTier {
	switch {
	case statusCode == 0 && timedOut:
		return TierPoor
	case statusCode == 0:
		return TierBroken
	case statusCode >= 200 && statusCode < 300:
		switch {
		case elapsed < ExcellentLatency:
			return TierExcellent
		case elapsed < WorkingLatency:
			return TierWorking
		default:
			return TierFair
		}
	case statusCode >= 300 && statusCode < 400:
		return TierWorking
	case statusCode >= 400 && statusCode < 500:
		return TierPoor
	default:
		// 5xx, and the odd 1xx final status
		return TierBroken
	}
}
