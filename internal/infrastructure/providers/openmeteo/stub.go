package openmeteo

import (
	"context"
	"encoding/binary"
	"hash/fnv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cricworks/cricstats/internal/domain/weather"
)

// StubProviderName is deliberately distinct from the live provider so the
// registry's fixture-only policy can tell them apart.
const StubProviderName = "OpenMeteoStub"

var hundred = decimal.NewFromInt(100)

// Stub generates deterministic hourly forecasts from a hash of the location
// and hour. It never touches the network and always returns data, which
// makes sync and risk paths fully reproducible in tests and local runs.
type Stub struct{}

func NewStub() *Stub { return &Stub{} }

func (s *Stub) Name() string { return StubProviderName }

func (s *Stub) FetchForecast(ctx context.Context, lat, lon decimal.Decimal, from, to time.Time) ([]weather.ForecastPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	current := from.UTC().Truncate(time.Hour)
	end := to.UTC().Truncate(time.Hour)

	var out []weather.ForecastPoint
	for !current.After(end) {
		seed := hourSeed(lat, lon, current)

		precipProbability := seed % 101
		precipAmount := decimal.NewFromInt(precipProbability).
			Div(hundred).
			Mul(decimal.NewFromInt(seed%12 + 1)).
			Round(2)

		out = append(out, weather.ForecastPoint{
			ExternalID:        PointExternalID(lat, lon, current),
			Timestamp:         current,
			Temperature:       decimal.NewFromInt(16 + seed%19),
			Humidity:          decimal.NewFromInt(40 + seed%61),
			WindSpeed:         decimal.NewFromInt(5 + seed%36),
			PrecipProbability: decimal.NewFromInt(precipProbability),
			PrecipAmount:      precipAmount,
		})
		current = current.Add(time.Hour)
	}
	return out, nil
}

// hourSeed hashes (lat, lon, day of year, hour) into a non-negative value so
// the same location-hour always yields the same forecast.
func hourSeed(lat, lon decimal.Decimal, ts time.Time) int64 {
	h := fnv.New32a()
	var buf [4]byte
	for _, v := range []int32{
		int32(lat.Mul(decimal.NewFromInt(1000)).Round(0).IntPart()),
		int32(lon.Mul(decimal.NewFromInt(1000)).Round(0).IntPart()),
		int32(ts.YearDay()),
		int32(ts.Hour()),
	} {
		binary.BigEndian.PutUint32(buf[:], uint32(v))
		_, _ = h.Write(buf[:])
	}

	seed := int64(int32(h.Sum32()))
	if seed < 0 {
		seed = -seed
	}
	return seed
}
