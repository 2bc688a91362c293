package model

import "time"

type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
	StatusPolling      ConnectionStatus = "polling"
	StatusError        ConnectionStatus = "error"
)

type SessionStatus string

const (
	SessionLive     SessionStatus = "live"
	SessionFinished SessionStatus = "finished"
	SessionUpcoming SessionStatus = "upcoming"
)

// SessionInfo describes the session currently shown
type SessionInfo struct {
	SessionKey    int           `json:"sessionKey"`
	Name          string        `json:"name"`
	Type          SessionType   `json:"type"`
	Status        SessionStatus `json:"status"`
	DateStart     time.Time     `json:"dateStart"`
	DateEnd       time.Time     `json:"dateEnd"`
	TimeRemaining time.Duration `json:"timeRemaining"`
	CurrentLap    int           `json:"currentLap"`
	TotalLaps     int           `json:"totalLaps"`
}

// DriverRow is a position record merged with the matching interval
type DriverRow struct {
	DriverNumber int       `json:"driverNumber"`
	Position     int       `json:"position"`
	GapToLeader  string    `json:"gapToLeader"`
	Interval     string    `json:"interval"`
	Date         time.Time `json:"date"`
}

func (r DriverRow) Timestamp() time.Time { return r.Date }
func (r DriverRow) Driver() int          { return r.DriverNumber }
