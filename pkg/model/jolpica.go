package model

import "time"

// types of the Jolpica (Ergast compatible) API. Numbers are delivered as strings.

type JolpicaDriver struct {
	DriverID        string `json:"driverId"`
	PermanentNumber string `json:"permanentNumber"`
	Code            string `json:"code"`
	GivenName       string `json:"givenName"`
	FamilyName      string `json:"familyName"`
	Nationality     string `json:"nationality"`
}

func (d JolpicaDriver) FullName() string {
	return d.GivenName + " " + d.FamilyName
}

type Constructor struct {
	ConstructorID string `json:"constructorId"`
	Name          string `json:"name"`
	Nationality   string `json:"nationality"`
}

type RaceCircuit struct {
	CircuitID   string `json:"circuitId"`
	CircuitName string `json:"circuitName"`
	Location    struct {
		Locality string `json:"locality"`
		Country  string `json:"country"`
	} `json:"Location"`
}

type ResultTime struct {
	Millis string `json:"millis"`
	Time   string `json:"time"`
}

type Result struct {
	Number       string        `json:"number"`
	Position     string        `json:"position"`
	PositionText string        `json:"positionText"`
	Points       string        `json:"points"`
	Driver       JolpicaDriver `json:"Driver"`
	Constructor  Constructor   `json:"Constructor"`
	Grid         string        `json:"grid"`
	Laps         string        `json:"laps"`
	Status       string        `json:"status"`
	Time         *ResultTime   `json:"Time,omitempty"`
}

type Race struct {
	Season   string      `json:"season" validate:"required"`
	Round    string      `json:"round" validate:"required"`
	RaceName string      `json:"raceName"`
	Date     string      `json:"date" validate:"required"`
	Time     string      `json:"time,omitempty"`
	Circuit  RaceCircuit `json:"Circuit"`
	Results  []Result    `json:"Results"`
}

// StartsAt returns the race date, zero value if unparsable
func (r *Race) StartsAt() time.Time {
	if r.Time != "" {
		if t, err := time.Parse(time.RFC3339, r.Date+"T"+r.Time); err == nil {
			return t
		}
	}
	t, _ := time.Parse(time.DateOnly, r.Date)
	return t
}

type DriverStanding struct {
	Position     string        `json:"position"`
	PositionText string        `json:"positionText"`
	Points       string        `json:"points"`
	Wins         string        `json:"wins"`
	Driver       JolpicaDriver `json:"Driver"`
	Constructors []Constructor `json:"Constructors"`
}

type ConstructorStanding struct {
	Position     string      `json:"position"`
	PositionText string      `json:"positionText"`
	Points       string      `json:"points"`
	Wins         string      `json:"wins"`
	Constructor  Constructor `json:"Constructor"`
}
