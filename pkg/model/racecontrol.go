package model

import (
	"time"

	"github.com/aarondl/opt/omitnull"
	"github.com/gofrs/uuid/v5"
)

// alertNamespace is used to derive stable alert ids
var alertNamespace = uuid.Must(uuid.FromString("5b0f95c4-3f4e-4a43-9a3e-6c2f1f1a0b71"))

// RaceControl is a message issued by race control
type RaceControl struct {
	Date         time.Time            `json:"date" validate:"required"`
	Category     string               `json:"category"`
	Message      string               `json:"message" validate:"required"`
	Flag         omitnull.Val[string] `json:"flag"`
	LapNumber    omitnull.Val[int]    `json:"lap_number"`
	Scope        omitnull.Val[string] `json:"scope"`
	Sector       omitnull.Val[int]    `json:"sector"`
	DriverNumber omitnull.Val[int]    `json:"driver_number"`
	SessionKey   int                  `json:"session_key"`
}

// Alert is an entry of the alert log
type Alert struct {
	ID           string               `json:"id"`
	Date         time.Time            `json:"date"`
	Category     string               `json:"category"`
	Message      string               `json:"message"`
	Flag         omitnull.Val[string] `json:"flag"`
	LapNumber    omitnull.Val[int]    `json:"lapNumber"`
	Scope        omitnull.Val[string] `json:"scope"`
	Sector       omitnull.Val[int]    `json:"sector"`
	DriverNumber omitnull.Val[int]    `json:"driverNumber"`
}

// AlertKey identifies an alert by its timestamp and message
type AlertKey struct {
	Date    int64
	Message string
}

func (a *Alert) Key() AlertKey {
	return AlertKey{Date: a.Date.UnixNano(), Message: a.Message}
}

func (rc *RaceControl) ToAlert() Alert {
	a := Alert{
		Date:         rc.Date,
		Category:     rc.Category,
		Message:      rc.Message,
		Flag:         rc.Flag,
		LapNumber:    rc.LapNumber,
		Scope:        rc.Scope,
		Sector:       rc.Sector,
		DriverNumber: rc.DriverNumber,
	}
	a.ID = AlertID(a.Key())
	return a
}

// AlertID derives a deterministic id for the key
func AlertID(k AlertKey) string {
	return uuid.NewV5(alertNamespace,
		time.Unix(0, k.Date).UTC().Format(time.RFC3339Nano)+"|"+k.Message).String()
}
