package model

import (
	"time"

	"github.com/aarondl/opt/omitnull"
)

type Compound string

const (
	CompoundSoft         Compound = "SOFT"
	CompoundMedium       Compound = "MEDIUM"
	CompoundHard         Compound = "HARD"
	CompoundIntermediate Compound = "INTERMEDIATE"
	CompoundWet          Compound = "WET"
)

// Stint is a continuous run on one set of tyres
type Stint struct {
	DriverNumber   int      `json:"driver_number" validate:"gt=0"`
	StintNumber    int      `json:"stint_number" validate:"gt=0"`
	LapStart       int      `json:"lap_start"`
	LapEnd         int      `json:"lap_end"`
	Compound       Compound `json:"compound"`
	TyreAgeAtStart int      `json:"tyre_age_at_start"`
	SessionKey     int      `json:"session_key"`
}

// TyreAge returns the age of the tyres at the given lap
func (s *Stint) TyreAge(currentLap int) int {
	if currentLap < s.LapStart {
		return s.TyreAgeAtStart
	}
	return s.TyreAgeAtStart + currentLap - s.LapStart
}

type Lap struct {
	DriverNumber    int                     `json:"driver_number" validate:"gt=0"`
	LapNumber       int                     `json:"lap_number" validate:"gt=0"`
	DateStart       omitnull.Val[time.Time] `json:"date_start"`
	LapDuration     omitnull.Val[float64]   `json:"lap_duration"`
	DurationSector1 omitnull.Val[float64]   `json:"duration_sector_1"`
	DurationSector2 omitnull.Val[float64]   `json:"duration_sector_2"`
	DurationSector3 omitnull.Val[float64]   `json:"duration_sector_3"`
	IsPitOutLap     bool                    `json:"is_pit_out_lap"`
	SessionKey      int                     `json:"session_key"`
}

type Pit struct {
	Date         time.Time             `json:"date" validate:"required"`
	DriverNumber int                   `json:"driver_number" validate:"gt=0"`
	LapNumber    int                   `json:"lap_number"`
	PitDuration  omitnull.Val[float64] `json:"pit_duration"`
	SessionKey   int                   `json:"session_key"`
}

// TyreState is the latest known tyre information per driver
type TyreState struct {
	DriverNumber int      `json:"driverNumber"`
	Compound     Compound `json:"compound"`
	TyreAge      int      `json:"tyreAge"`
	StintNumber  int      `json:"stintNumber"`
	LapStart     int      `json:"lapStart"`
}

func (t TyreState) Driver() int { return t.DriverNumber }
