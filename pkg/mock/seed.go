package mock

import (
	"math"

	"github.com/mpapenbr/f1-livetiming-go/pkg/model"
)

// multipliers used to derive independent values from a driver number
const (
	mulTyreAge  = 17
	mulCompound = 23
	mulDRS      = 31
	mulBattle   = 37
	mulLapTime  = 41
	mulSector1  = 43
	mulSector2  = 47
	mulSector3  = 53
)

const (
	BaseLapTime  = 85.5
	LapTimeRange = 3.0
)

var dryCompounds = []model.Compound{
	model.CompoundSoft,
	model.CompoundMedium,
	model.CompoundHard,
}

// Seed maps a driver number and a multiplier to [0,1]
func Seed(driver, multiplier int) float64 {
	return math.Sin(float64(driver*multiplier))*0.5 + 0.5
}

func sinOf(driver, multiplier int) float64 {
	return math.Sin(float64(driver * multiplier))
}

// TyreAge is in the range 1..25
func TyreAge(driver int) int {
	return int(math.Floor(Seed(driver, mulTyreAge)*25)) + 1
}

// ERSLevel is in the range 0..99
func ERSLevel(driver int) int {
	return min(99, int(math.Floor(Seed(driver, mulCompound)*100)))
}

func DRSAvailable(driver int) bool {
	return sinOf(driver, mulDRS) > 0.4
}

func Compound(driver int) model.Compound {
	idx := min(len(dryCompounds)-1, int(math.Floor(Seed(driver, mulCompound)*float64(len(dryCompounds)))))
	return dryCompounds[idx]
}

// LapTime in seconds, between 85.5 and 88.5
func LapTime(driver int) float64 {
	return BaseLapTime + Seed(driver, mulLapTime)*LapTimeRange
}

// PositionChange is positive when the driver gained places
func PositionChange(driver int) int {
	magnitude := int(math.Floor(Seed(driver, mulCompound) * 3))
	if sinOf(driver, mulTyreAge) > 0 {
		return magnitude
	}
	return -magnitude
}

func FastestLap(driver int) bool {
	return sinOf(driver, mulDRS) > 0.7
}

func InBattle(driver int) bool {
	return sinOf(driver, mulBattle) > 0.4
}

// SectorTimes returns sector durations in seconds
func SectorTimes(driver int) [3]float64 {
	return [3]float64{
		18 + Seed(driver, mulSector1)*4,
		25 + Seed(driver, mulSector2)*5,
		22 + Seed(driver, mulSector3)*3,
	}
}

// DriverProfile bundles the derived values of a single driver
type DriverProfile struct {
	DriverNumber   int            `json:"driverNumber"`
	TyreAge        int            `json:"tyreAge"`
	Compound       model.Compound `json:"compound"`
	ERSLevel       int            `json:"ersLevel"`
	DRS            bool           `json:"drs"`
	LapTime        float64        `json:"lapTime"`
	PositionChange int            `json:"positionChange"`
	FastestLap     bool           `json:"fastestLap"`
	Battle         bool           `json:"battle"`
	Sectors        [3]float64     `json:"sectors"`
}

func Profile(driver int) DriverProfile {
	return DriverProfile{
		DriverNumber:   driver,
		TyreAge:        TyreAge(driver),
		Compound:       Compound(driver),
		ERSLevel:       ERSLevel(driver),
		DRS:            DRSAvailable(driver),
		LapTime:        LapTime(driver),
		PositionChange: PositionChange(driver),
		FastestLap:     FastestLap(driver),
		Battle:         InBattle(driver),
		Sectors:        SectorTimes(driver),
	}
}

// Tyres builds a tyre state per driver from the seeded values
func Tyres(drivers []model.Driver) []model.TyreState {
	ret := make([]model.TyreState, 0, len(drivers))
	for _, d := range drivers {
		ret = append(ret, model.TyreState{
			DriverNumber: d.DriverNumber,
			Compound:     Compound(d.DriverNumber),
			TyreAge:      TyreAge(d.DriverNumber),
			StintNumber:  1,
		})
	}
	return ret
}
