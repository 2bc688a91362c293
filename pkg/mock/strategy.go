package mock

import (
	"fmt"
	"math"
	"sort"

	"github.com/mpapenbr/f1-livetiming-go/pkg/model"
)

const DefaultTotalLaps = 70

type Strategy string

const (
	StrategyOptimal   Strategy = "optimal"
	StrategyEarly     Strategy = "early"
	StrategyLate      Strategy = "late"
	StrategyEmergency Strategy = "emergency"
)

// CompoundInfo describes the expected life of a compound
type CompoundInfo struct {
	Compound    model.Compound
	MaxMileage  int
	Durability  int
	Description string
}

var compoundTable = map[model.Compound]CompoundInfo{
	model.CompoundSoft:         {model.CompoundSoft, 15, 2, "Fastest, least durable"},
	model.CompoundMedium:       {model.CompoundMedium, 25, 3, "Balanced"},
	model.CompoundHard:         {model.CompoundHard, 35, 5, "Slowest, most durable"},
	model.CompoundIntermediate: {model.CompoundIntermediate, 20, 3, "Damp conditions"},
	model.CompoundWet:          {model.CompoundWet, 15, 2, "Heavy rain"},
}

// CompoundData returns the table entry, MEDIUM for unknown compounds
func CompoundData(c model.Compound) CompoundInfo {
	if info, ok := compoundTable[c]; ok {
		return info
	}
	return compoundTable[model.CompoundMedium]
}

type PitWindow struct {
	DriverNumber      int            `json:"driverNumber"`
	CurrentTyreAge    int            `json:"currentTyreAge"`
	RecommendedPitLap int            `json:"recommendedPitLap"`
	WindowOpen        float64        `json:"pitWindowOpen"`
	WindowClose       float64        `json:"pitWindowClose"`
	Compound          model.Compound `json:"tyreCompound"`
	EstimatedLapTime  float64        `json:"estimatedLapTime"`
	Strategy          Strategy       `json:"strategy"`
}

func pitTarget(c model.Compound, lap, age int) (optimal, window int) {
	switch c {
	case model.CompoundSoft:
		return max(15, min(25, lap+(25-age))), 5
	case model.CompoundMedium:
		return max(20, min(35, lap+(35-age))), 8
	case model.CompoundHard:
		return max(25, min(50, lap+(50-age))), 10
	default:
		return lap + 15, 6
	}
}

// CalcPitWindow derives the pit window of a driver at the given race lap
func CalcPitWindow(driver, lap, totalLaps int) PitWindow {
	if totalLaps <= 0 {
		totalLaps = DefaultTotalLaps
	}
	age := TyreAge(driver)
	compound := Compound(driver)
	optimal, window := pitTarget(compound, lap, age)

	strategy := StrategyOptimal
	switch {
	case age > 30:
		strategy = StrategyEmergency
	case optimal < lap+5:
		strategy = StrategyEarly
	case optimal > totalLaps-15:
		strategy = StrategyLate
	}
	half := float64(window) / 2
	return PitWindow{
		DriverNumber:      driver,
		CurrentTyreAge:    age,
		RecommendedPitLap: optimal,
		WindowOpen:        math.Max(1, float64(optimal)-half),
		WindowClose:       math.Min(float64(totalLaps), float64(optimal)+half),
		Compound:          compound,
		EstimatedLapTime:  LapTime(driver),
		Strategy:          strategy,
	}
}

// PitWindows returns the windows of all drivers ordered by recommended lap
func PitWindows(drivers []model.Driver, lap, totalLaps int) []PitWindow {
	ret := make([]PitWindow, 0, len(drivers))
	for _, d := range drivers {
		ret = append(ret, CalcPitWindow(d.DriverNumber, lap, totalLaps))
	}
	sort.SliceStable(ret, func(i, j int) bool {
		return ret[i].RecommendedPitLap < ret[j].RecommendedPitLap
	})
	return ret
}

type TyreStrategy struct {
	OptimalPitLap int  `json:"optimalPitLap"`
	LatestPitLap  int  `json:"latestPitLap"`
	Critical      bool `json:"critical"`
}

func CalcTyreStrategy(c model.Compound, age, lap, totalLaps int) TyreStrategy {
	maxMileage := CompoundData(c).MaxMileage
	optimal := max(lap+1, lap+(maxMileage-age))
	return TyreStrategy{
		OptimalPitLap: optimal,
		LatestPitLap:  min(totalLaps-5, optimal+8),
		Critical:      float64(age) > float64(maxMileage)*0.8,
	}
}

// TyrePace is the relative pace of a tyre set, never below 0.85
func TyrePace(c model.Compound, age int) float64 {
	degradation := float64(age) * float64(6-CompoundData(c).Durability) * 0.005
	return math.Max(0.85, 1-degradation)
}

func FormatTyreAge(age int) string {
	switch {
	case age <= 0:
		return "NEW"
	case age < 10:
		return fmt.Sprintf("%d", age)
	default:
		return fmt.Sprintf("%d+", age)
	}
}
