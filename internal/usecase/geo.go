package usecase

import (
	"hash/fnv"
	"strings"

	"github.com/shopspring/decimal"
)

// PseudoCoordinates derives deterministic placeholder coordinates from a
// location name. The result is stable across syncs so upserts do not churn,
// and it is always a valid lat/lon pair. Callers must tag the venue as
// pseudo-estimated so consumers can tell it apart from real geocoding.
func PseudoCoordinates(location string) (decimal.Decimal, decimal.Decimal) {
	normalized := strings.ToLower(strings.TrimSpace(location))

	h := fnv.New32a()
	_, _ = h.Write([]byte(normalized))
	hash := int64(int32(h.Sum32()))
	if hash < 0 {
		hash = -hash
	}

	// Latitude lands in [-90, 89.99], longitude in [-180, 179.99], both at
	// two decimal places.
	lat := decimal.NewFromInt(hash % 18000).Div(decimal.NewFromInt(100)).Sub(decimal.NewFromInt(90))
	lon := decimal.NewFromInt((hash / 18000) % 36000).Div(decimal.NewFromInt(100)).Sub(decimal.NewFromInt(180))

	return lat.Round(2), lon.Round(2)
}
