package model

import "time"

// Driver is the identity record of a driver within a session
type Driver struct {
	DriverNumber  int    `json:"driver_number" yaml:"driver_number" validate:"gt=0"`
	BroadcastName string `json:"broadcast_name" yaml:"broadcast_name"`
	FullName      string `json:"full_name" yaml:"full_name"`
	NameAcronym   string `json:"name_acronym" yaml:"name_acronym"`
	TeamName      string `json:"team_name" yaml:"team_name"`
	TeamColour    string `json:"team_colour" yaml:"team_colour"`
	CountryCode   string `json:"country_code" yaml:"country_code"`
	HeadshotURL   string `json:"headshot_url,omitempty" yaml:"headshot_url"`
	SessionKey    int    `json:"session_key" yaml:"-"`
}

// CarData is a single telemetry sample
type CarData struct {
	Date         time.Time `json:"date" validate:"required"`
	DriverNumber int       `json:"driver_number" validate:"gt=0"`
	Speed        int       `json:"speed" validate:"gte=0"`
	Throttle     int       `json:"throttle" validate:"gte=0,lte=104"`
	Brake        int       `json:"brake" validate:"gte=0,lte=100"`
	RPM          int       `json:"rpm" validate:"gte=0"`
	Gear         int       `json:"n_gear" validate:"gte=0,lte=8"`
	DRS          int       `json:"drs"`
	SessionKey   int       `json:"session_key"`
}

// DRSOpen interprets the OpenF1 drs codes (10, 12 and 14 mean open)
func (c *CarData) DRSOpen() bool {
	return c.DRS >= 10
}

func (c CarData) Timestamp() time.Time { return c.Date }
func (c CarData) Driver() int          { return c.DriverNumber }

// Location is a spatial sample of a car
type Location struct {
	Date         time.Time `json:"date" validate:"required"`
	DriverNumber int       `json:"driver_number" validate:"gt=0"`
	X            float64   `json:"x"`
	Y            float64   `json:"y"`
	Z            float64   `json:"z"`
	SessionKey   int       `json:"session_key"`
}

func (l Location) Timestamp() time.Time { return l.Date }
func (l Location) Driver() int          { return l.DriverNumber }

// Position is the rank of a driver at a point in time
type Position struct {
	Date         time.Time `json:"date" validate:"required"`
	DriverNumber int       `json:"driver_number" validate:"gt=0"`
	Position     int       `json:"position" validate:"gt=0"`
	SessionKey   int       `json:"session_key"`
}

func (p Position) Timestamp() time.Time { return p.Date }
func (p Position) Driver() int          { return p.DriverNumber }

// Interval holds the gaps of a driver
type Interval struct {
	Date         time.Time `json:"date" validate:"required"`
	DriverNumber int       `json:"driver_number" validate:"gt=0"`
	GapToLeader  Gap       `json:"gap_to_leader"`
	Interval     Gap       `json:"interval"`
	SessionKey   int       `json:"session_key"`
}

func (i Interval) Timestamp() time.Time { return i.Date }
func (i Interval) Driver() int          { return i.DriverNumber }

// Weather is a global weather sample
type Weather struct {
	Date             time.Time `json:"date" validate:"required"`
	AirTemperature   float64   `json:"air_temperature"`
	TrackTemperature float64   `json:"track_temperature"`
	Humidity         float64   `json:"humidity" validate:"gte=0,lte=100"`
	Pressure         float64   `json:"pressure"`
	Rainfall         float64   `json:"rainfall" validate:"gte=0"`
	WindDirection    int       `json:"wind_direction"`
	WindSpeed        float64   `json:"wind_speed"`
	SessionKey       int       `json:"session_key"`
}
