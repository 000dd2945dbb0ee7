package weather

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func point(prob, amount, humidity, wind float64) ForecastPoint {
	return ForecastPoint{
		ExternalID:        "fp-1",
		Timestamp:         time.Date(2026, 6, 3, 14, 0, 0, 0, time.UTC),
		Temperature:       decimal.NewFromInt(22),
		Humidity:          decimal.NewFromFloat(humidity),
		WindSpeed:         decimal.NewFromFloat(wind),
		PrecipProbability: decimal.NewFromFloat(prob),
		PrecipAmount:      decimal.NewFromFloat(amount),
	}
}

func TestComputeRisk_EmptyInput(t *testing.T) {
	t.Parallel()

	got := ComputeRisk(nil, decimal.NewFromInt(20), decimal.NewFromInt(60))

	if !got.Score.Equal(decimal.Zero) {
		t.Fatalf("score = %s, want 0", got.Score)
	}
	if got.Level != RiskLevelLow {
		t.Fatalf("level = %s, want Low", got.Level)
	}
	if !got.AvgPrecipProbability.Equal(decimal.Zero) || !got.PrecipAmountContribution.Equal(decimal.Zero) {
		t.Fatal("expected all breakdown fields to be zero")
	}
}

func TestComputeRisk_AllZeroSamples(t *testing.T) {
	t.Parallel()

	got := ComputeRisk([]ForecastPoint{point(0, 0, 0, 0), point(0, 0, 0, 0)},
		decimal.NewFromInt(20), decimal.NewFromInt(60))

	if got.Score.StringFixed(2) != "0.00" {
		t.Fatalf("score = %s, want 0.00", got.Score)
	}
	if got.Level != RiskLevelLow {
		t.Fatalf("level = %s, want Low", got.Level)
	}
}

func TestComputeRisk_MaximumSamples(t *testing.T) {
	t.Parallel()

	got := ComputeRisk([]ForecastPoint{point(100, 20, 100, 60)},
		decimal.NewFromInt(20), decimal.NewFromInt(60))

	if got.Score.StringFixed(2) != "100.00" {
		t.Fatalf("score = %s, want 100.00", got.Score)
	}
	if got.Level != RiskLevelHigh {
		t.Fatalf("level = %s, want High", got.Level)
	}
}

func TestComputeRisk_WeightedComposite(t *testing.T) {
	t.Parallel()

	// prob 50 -> 25.00, amount 10/20 -> 15.00, humidity 80 -> 8.00,
	// wind 30/60 -> 5.00; composite 53.00.
	got := ComputeRisk([]ForecastPoint{point(50, 10, 80, 30)},
		decimal.NewFromInt(20), decimal.NewFromInt(60))

	if got.Score.StringFixed(2) != "53.00" {
		t.Fatalf("score = %s, want 53.00", got.Score)
	}
	if got.Level != RiskLevelMedium {
		t.Fatalf("level = %s, want Medium", got.Level)
	}
	if got.PrecipProbabilityContribution.StringFixed(2) != "25.00" {
		t.Fatalf("precip probability contribution = %s, want 25.00", got.PrecipProbabilityContribution)
	}
	if got.PrecipAmountContribution.StringFixed(2) != "15.00" {
		t.Fatalf("precip amount contribution = %s, want 15.00", got.PrecipAmountContribution)
	}
	if got.HumidityContribution.StringFixed(2) != "8.00" {
		t.Fatalf("humidity contribution = %s, want 8.00", got.HumidityContribution)
	}
	if got.WindSpeedContribution.StringFixed(2) != "5.00" {
		t.Fatalf("wind contribution = %s, want 5.00", got.WindSpeedContribution)
	}
}

func TestComputeRisk_AveragesAcrossSamples(t *testing.T) {
	t.Parallel()

	got := ComputeRisk([]ForecastPoint{point(100, 0, 0, 0), point(0, 0, 0, 0)},
		decimal.NewFromInt(20), decimal.NewFromInt(60))

	// avg probability 50 -> 0.5 * 50 = 25.00
	if got.Score.StringFixed(2) != "25.00" {
		t.Fatalf("score = %s, want 25.00", got.Score)
	}
}

func TestComputeRisk_InputsAboveMaxAreClamped(t *testing.T) {
	t.Parallel()

	got := ComputeRisk([]ForecastPoint{point(150, 200, 180, 500)},
		decimal.NewFromInt(20), decimal.NewFromInt(60))

	if got.Score.StringFixed(2) != "100.00" {
		t.Fatalf("score = %s, want 100.00", got.Score)
	}
}

func TestComputeRisk_NonPositiveMaxYieldsZeroContribution(t *testing.T) {
	t.Parallel()

	got := ComputeRisk([]ForecastPoint{point(0, 10, 0, 30)},
		decimal.Zero, decimal.NewFromInt(-5))

	if got.Score.StringFixed(2) != "0.00" {
		t.Fatalf("score = %s, want 0.00", got.Score)
	}
	if !got.PrecipAmountContribution.Equal(decimal.Zero) {
		t.Fatalf("precip amount contribution = %s, want 0", got.PrecipAmountContribution)
	}
	if !got.WindSpeedContribution.Equal(decimal.Zero) {
		t.Fatalf("wind contribution = %s, want 0", got.WindSpeedContribution)
	}
}

func TestComputeRisk_MonotoneInEachInput(t *testing.T) {
	t.Parallel()

	maxAmount := decimal.NewFromInt(20)
	maxWind := decimal.NewFromInt(60)
	base := ComputeRisk([]ForecastPoint{point(40, 5, 50, 20)}, maxAmount, maxWind)

	bumped := []RiskComputation{
		ComputeRisk([]ForecastPoint{point(60, 5, 50, 20)}, maxAmount, maxWind),
		ComputeRisk([]ForecastPoint{point(40, 9, 50, 20)}, maxAmount, maxWind),
		ComputeRisk([]ForecastPoint{point(40, 5, 70, 20)}, maxAmount, maxWind),
		ComputeRisk([]ForecastPoint{point(40, 5, 50, 40)}, maxAmount, maxWind),
	}
	for i, b := range bumped {
		if b.Score.LessThan(base.Score) {
			t.Fatalf("bump %d decreased score: %s < %s", i, b.Score, base.Score)
		}
	}
}

func TestLevelForScore_Boundaries(t *testing.T) {
	t.Parallel()

	cases := []struct {
		score string
		want  RiskLevel
	}{
		{"0.00", RiskLevelLow},
		{"33.00", RiskLevelLow},
		{"33.01", RiskLevelMedium},
		{"66.00", RiskLevelMedium},
		{"66.01", RiskLevelHigh},
		{"100.00", RiskLevelHigh},
	}
	for _, tc := range cases {
		score, err := decimal.NewFromString(tc.score)
		if err != nil {
			t.Fatalf("parse %s: %v", tc.score, err)
		}
		if got := LevelForScore(score); got != tc.want {
			t.Fatalf("LevelForScore(%s) = %s, want %s", tc.score, got, tc.want)
		}
	}
}
