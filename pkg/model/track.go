package model

import "github.com/samber/lo"

// Circuit identifies a track layout used for mock strategy context
type Circuit string

const (
	CircuitDefault     Circuit = "default"
	CircuitMonaco      Circuit = "monaco"
	CircuitSilverstone Circuit = "silverstone"
	CircuitSpa         Circuit = "spa"
	CircuitSuzuka      Circuit = "suzuka"
	CircuitMonza       Circuit = "monza"
	CircuitInterlagos  Circuit = "interlagos"
	CircuitHungaroring Circuit = "hungaroring"
	CircuitCOTA        Circuit = "cota"
	CircuitRedBullRing Circuit = "redbullring"
)

var Circuits = []Circuit{
	CircuitDefault, CircuitMonaco, CircuitSilverstone, CircuitSpa, CircuitSuzuka,
	CircuitMonza, CircuitInterlagos, CircuitHungaroring, CircuitCOTA, CircuitRedBullRing,
}

func (c Circuit) Valid() bool {
	return lo.Contains(Circuits, c)
}

// TelemetryChannel is the telemetry value displayed in charts
type TelemetryChannel string

const (
	ChannelSpeed    TelemetryChannel = "speed"
	ChannelThrottle TelemetryChannel = "throttle"
	ChannelBrake    TelemetryChannel = "brake"
	ChannelRPM      TelemetryChannel = "rpm"
	ChannelGear     TelemetryChannel = "gear"
)

func (c TelemetryChannel) Valid() bool {
	switch c {
	case ChannelSpeed, ChannelThrottle, ChannelBrake, ChannelRPM, ChannelGear:
		return true
	}
	return false
}
