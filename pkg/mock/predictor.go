package mock

import (
	"math"

	"github.com/mpapenbr/f1-livetiming-go/pkg/model"
)

type (
	Confidence string
	Trend      string
)

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"

	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDegrading Trend = "degrading"
)

const (
	fuelPerLapKg     = 1.2
	fuelSecondsPerKg = 0.035
	defaultTrackTemp = 35.0
	drsGain          = 0.3
	ersGain          = 0.2
)

// PredictionInput carries the optional live inputs. Nil means unknown.
type PredictionInput struct {
	DriverNumber int
	CurrentLap   int
	TotalLaps    int
	Position     int
	Tyre         *model.TyreState
	Car          *model.CarData
	Weather      *model.Weather
}

type LapPrediction struct {
	DriverNumber     int        `json:"driverNumber"`
	CurrentLapTime   float64    `json:"currentLapTime"`
	PredictedLapTime float64    `json:"predictedLapTime"`
	PotentialGain    float64    `json:"potentialImprovement"`
	TyrePerformance  float64    `json:"tyrePerformance"`
	FuelEffect       float64    `json:"fuelEffect"`
	WeatherEffect    float64    `json:"weatherEffect"`
	TrackEvolution   float64    `json:"trackEvolution"`
	DRSAdvantage     float64    `json:"drsAdvantage"`
	ERSAdvantage     float64    `json:"ersAdvantage"`
	Confidence       Confidence `json:"confidence"`
	Trend            Trend      `json:"trend"`
}

func compoundFactor(c model.Compound, rain float64) float64 {
	switch c {
	case model.CompoundMedium:
		return 0.98
	case model.CompoundHard:
		return 0.96
	case model.CompoundIntermediate:
		if rain > 0 {
			return 1.02
		}
		return 0.88
	case model.CompoundWet:
		if rain > 5 {
			return 1.05
		}
		return 0.82
	default:
		return 1.0
	}
}

func weatherEffect(w *model.Weather) float64 {
	if w == nil {
		return 0
	}
	effect := math.Min(5, w.Rainfall*0.8)
	tt := w.TrackTemperature
	if tt == 0 {
		tt = defaultTrackTemp
	}
	if tt < 20 || tt > 50 {
		effect += math.Abs(tt-defaultTrackTemp) * 0.05
	}
	return effect
}

// PredictLapTime estimates the next lap time from the available inputs
func PredictLapTime(in PredictionInput) LapPrediction {
	totalLaps := in.TotalLaps
	if totalLaps <= 0 {
		totalLaps = DefaultTotalLaps
	}
	base := LapTime(in.DriverNumber)

	rain := 0.0
	if in.Weather != nil {
		rain = in.Weather.Rainfall
	}
	tyrePerf := 1.0
	if in.Tyre != nil {
		tyrePerf = math.Max(0.85, 1-float64(in.Tyre.TyreAge)*0.008) *
			compoundFactor(in.Tyre.Compound, rain)
	}

	fuel := math.Max(0, float64(totalLaps-in.CurrentLap)) * fuelPerLapKg * fuelSecondsPerKg
	weather := weatherEffect(in.Weather)
	evolution := math.Max(-1.5, -float64(in.CurrentLap)*0.02)

	drs := 0.0
	if in.Position > 1 && in.Position <= 20 {
		drs = -drsGain
	}
	ersLevel := 0.6
	if in.Car != nil {
		ersLevel = float64(in.Car.Throttle) / 100 * 0.8
	}
	ers := 0.0
	if ersLevel > 0.7 {
		ers = -ersGain
	}

	current := base + fuel + weather
	predicted := base*tyrePerf + fuel + weather + evolution

	confidence := ConfidenceMedium
	switch {
	case in.Tyre != nil && in.Car != nil && in.Weather != nil:
		confidence = ConfidenceHigh
	case in.Tyre == nil && in.Car == nil:
		confidence = ConfidenceLow
	}

	trend := TrendStable
	switch {
	case tyrePerf < 0.95 || (in.Tyre != nil && in.Tyre.TyreAge > 20):
		trend = TrendDegrading
	case evolution < -0.5 || ersLevel > 0.8:
		trend = TrendImproving
	}

	return LapPrediction{
		DriverNumber:     in.DriverNumber,
		CurrentLapTime:   current,
		PredictedLapTime: predicted,
		PotentialGain:    math.Max(0, current-predicted),
		TyrePerformance:  tyrePerf,
		FuelEffect:       fuel,
		WeatherEffect:    weather,
		TrackEvolution:   evolution,
		DRSAdvantage:     drs,
		ERSAdvantage:     ers,
		Confidence:       confidence,
		Trend:            trend,
	}
}
