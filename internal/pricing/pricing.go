// Package pricing holds the static per-post price table and derives the total
// payable amount for a batch. All amounts are in the smallest currency unit so
// arithmetic stays integer-exact.
package pricing

import (
	"fmt"
	"sort"
)

// Per-post price in minor units, keyed by ISO currency code. The table is the
// single source of truth for the supported currency set.
var priceMinorUnits = map[string]int64{
	"USD": 2900,
	"EUR": 2700,
	"GBP": 2500,
	"INR": 99900,
}

// Supported reports whether code is a currency the price table covers.
func Supported(code string) bool {
	_, ok := priceMinorUnits[code]
	return ok
}

// Currencies returns the supported currency codes in sorted order.
func Currencies() []string {
	codes := make([]string, 0, len(priceMinorUnits))
	for c := range priceMinorUnits {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Price returns the per-post price for code in minor units. A lookup miss is a
// configuration fault: validation admits only currencies the table covers, so
// a miss here means the table and the validator disagree.
func Price(code string) (int64, error) {
	p, ok := priceMinorUnits[code]
	if !ok {
		return 0, fmt.Errorf("no price configured for currency %q", code)
	}
	return p, nil
}

// Amount computes the total payable amount for postCount posts in the given
// currency: postCount * Price(code), integer arithmetic only.
func Amount(postCount int, code string) (int64, error) {
	p, err := Price(code)
	if err != nil {
		return 0, err
	}
	return int64(postCount) * p, nil
}
