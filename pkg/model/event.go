package model

import "time"

type SessionType string

const (
	SessionPractice   SessionType = "Practice"
	SessionQualifying SessionType = "Qualifying"
	SessionSprint     SessionType = "Sprint"
	SessionRace       SessionType = "Race"
)

// Session as delivered by /sessions
type Session struct {
	SessionKey       int         `json:"session_key" validate:"gt=0"`
	SessionName      string      `json:"session_name"`
	SessionType      SessionType `json:"session_type"`
	DateStart        time.Time   `json:"date_start" validate:"required"`
	DateEnd          time.Time   `json:"date_end" validate:"required"`
	MeetingKey       int         `json:"meeting_key"`
	Location         string      `json:"location"`
	CountryName      string      `json:"country_name"`
	CircuitShortName string      `json:"circuit_short_name"`
	Year             int         `json:"year"`
}

// IsLive reports whether now lies within the session bounds (inclusive)
func (s *Session) IsLive(now time.Time) bool {
	return !now.Before(s.DateStart) && !now.After(s.DateEnd)
}

// Meeting as delivered by /meetings
type Meeting struct {
	MeetingKey          int       `json:"meeting_key" yaml:"meeting_key"`
	MeetingName         string    `json:"meeting_name" yaml:"meeting_name"`
	MeetingOfficialName string    `json:"meeting_official_name" yaml:"meeting_official_name"`
	CountryName         string    `json:"country_name" yaml:"country_name"`
	CountryCode         string    `json:"country_code" yaml:"country_code"`
	CircuitShortName    string    `json:"circuit_short_name" yaml:"circuit_short_name"`
	Location            string    `json:"location" yaml:"location"`
	DateStart           time.Time `json:"date_start" yaml:"date_start" validate:"required"`
	Year                int       `json:"year" yaml:"year"`
}
