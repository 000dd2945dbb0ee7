package weather

import "github.com/shopspring/decimal"

var (
	weightPrecipProbability = decimal.NewFromFloat(0.5)
	weightPrecipAmount      = decimal.NewFromFloat(0.3)
	weightHumidity          = decimal.NewFromFloat(0.1)
	weightWindSpeed         = decimal.NewFromFloat(0.1)

	hundred      = decimal.NewFromInt(100)
	lowCutoff    = decimal.NewFromInt(33)
	mediumCutoff = decimal.NewFromInt(66)
)

// RiskComputation is the composite weather risk for a set of forecast
// samples, plus the intermediate values the score was built from.
type RiskComputation struct {
	Score decimal.Decimal
	Level RiskLevel

	AvgPrecipProbability decimal.Decimal
	AvgPrecipAmount      decimal.Decimal
	AvgHumidity          decimal.Decimal
	AvgWindSpeed         decimal.Decimal

	PrecipProbabilityContribution decimal.Decimal
	PrecipAmountContribution      decimal.Decimal
	HumidityContribution          decimal.Decimal
	WindSpeedContribution         decimal.Decimal
}

// ComputeRisk derives a 0-100 composite risk score from forecast samples.
// Precipitation probability and humidity count as percentages directly;
// precipitation amount and wind speed are scaled against the configured
// maxima. Weights are 0.5 / 0.3 / 0.1 / 0.1, each contribution is rounded
// to two decimals before the final sum, and the sum is rounded again.
// No samples means zero score at level Low, never an error.
func ComputeRisk(points []ForecastPoint, precipAmountMaxMm, windSpeedMaxKph decimal.Decimal) RiskComputation {
	if len(points) == 0 {
		return RiskComputation{Score: decimal.Zero.Round(2), Level: RiskLevelLow}
	}

	var sumProb, sumAmount, sumHumidity, sumWind decimal.Decimal
	for _, p := range points {
		sumProb = sumProb.Add(p.PrecipProbability)
		sumAmount = sumAmount.Add(p.PrecipAmount)
		sumHumidity = sumHumidity.Add(p.Humidity)
		sumWind = sumWind.Add(p.WindSpeed)
	}

	count := decimal.NewFromInt(int64(len(points)))
	avgProb := sumProb.Div(count)
	avgAmount := sumAmount.Div(count)
	avgHumidity := sumHumidity.Div(count)
	avgWind := sumWind.Div(count)

	probNorm := clampPercent(avgProb)
	humidityNorm := clampPercent(avgHumidity)
	amountNorm := normalizeAgainstMax(avgAmount, precipAmountMaxMm)
	windNorm := normalizeAgainstMax(avgWind, windSpeedMaxKph)

	probTerm := weightPrecipProbability.Mul(probNorm).Round(2)
	amountTerm := weightPrecipAmount.Mul(amountNorm).Round(2)
	humidityTerm := weightHumidity.Mul(humidityNorm).Round(2)
	windTerm := weightWindSpeed.Mul(windNorm).Round(2)

	score := probTerm.Add(amountTerm).Add(humidityTerm).Add(windTerm).Round(2)

	return RiskComputation{
		Score:                         score,
		Level:                         LevelForScore(score),
		AvgPrecipProbability:          avgProb,
		AvgPrecipAmount:               avgAmount,
		AvgHumidity:                   avgHumidity,
		AvgWindSpeed:                  avgWind,
		PrecipProbabilityContribution: probTerm,
		PrecipAmountContribution:      amountTerm,
		HumidityContribution:          humidityTerm,
		WindSpeedContribution:         windTerm,
	}
}

// LevelForScore maps a composite score onto a risk level. Band boundaries
// are inclusive on the low side: 33.00 is Low, 66.00 is Medium.
func LevelForScore(score decimal.Decimal) RiskLevel {
	switch {
	case score.LessThanOrEqual(lowCutoff):
		return RiskLevelLow
	case score.LessThanOrEqual(mediumCutoff):
		return RiskLevelMedium
	default:
		return RiskLevelHigh
	}
}

func clampPercent(value decimal.Decimal) decimal.Decimal {
	if value.IsNegative() {
		return decimal.Zero
	}
	if value.GreaterThan(hundred) {
		return hundred
	}
	return value
}

// normalizeAgainstMax scales value onto 0-100 relative to max. A non-positive
// max produces 0 rather than a division error.
func normalizeAgainstMax(value, max decimal.Decimal) decimal.Decimal {
	if max.Sign() <= 0 {
		return decimal.Zero
	}
	return clampPercent(value.Div(max).Mul(hundred))
}
