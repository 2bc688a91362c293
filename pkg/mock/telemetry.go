package mock

import (
	"math"
	"time"

	"github.com/mpapenbr/f1-livetiming-go/pkg/model"
)

// TracePoint is one sample of a synthetic telemetry trace
type TracePoint struct {
	Time     float64 `json:"time"`
	Speed    float64 `json:"speed"`
	Throttle float64 `json:"throttle"`
	Brake    float64 `json:"brake"`
	RPM      float64 `json:"rpm"`
}

func clamp(lo, hi, v float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// TraceAt computes the sample at point index pt for the driver at index idx
func TraceAt(idx, pt int) TracePoint {
	t := float64(pt) * 0.1
	offset := float64(idx) * 0.5
	rv := math.Sin(float64((pt*17+idx*31)%100))*0.5 + 0.5

	speed := 200 + math.Sin(t*0.2)*80 + math.Sin(t*0.8)*30 + math.Sin(t*2+offset)*15 + rv*10

	throttle := 70 + math.Sin(t*0.3)*30 + rv*15
	if math.Abs(math.Sin(t*1.2)) > 0.6 {
		throttle -= 40
	}

	brake := rv * 10
	if math.Abs(math.Sin(t*0.8)) > 0.85 || math.Abs(math.Sin(t*1.5)) > 0.9 {
		brake = rv*80 + 20
	}

	rpm := 9000 + math.Sin(t*0.4)*2000 + rv*500
	if math.Sin(t*3) > 0.95 {
		rpm -= 2000
	}

	return TracePoint{
		Time:     t,
		Speed:    clamp(50, 350, speed),
		Throttle: clamp(0, 100, throttle),
		Brake:    brake,
		RPM:      clamp(6000, 15000, rpm),
	}
}

// Trace returns count consecutive samples starting at point 0
func Trace(idx, count int) []TracePoint {
	ret := make([]TracePoint, count)
	for i := range ret {
		ret[i] = TraceAt(idx, i)
	}
	return ret
}

// Value picks the channel value out of a sample
func (p TracePoint) Value(ch model.TelemetryChannel) float64 {
	switch ch {
	case model.ChannelThrottle:
		return p.Throttle
	case model.ChannelBrake:
		return p.Brake
	case model.ChannelRPM:
		return p.RPM
	case model.ChannelGear:
		return gearFor(p.Speed)
	default:
		return p.Speed
	}
}

func gearFor(speed float64) float64 {
	return clamp(1, 8, math.Ceil(speed/45))
}

// CarDataAt converts a trace sample into a car data record
func CarDataAt(driver, idx, pt int, at time.Time) model.CarData {
	p := TraceAt(idx, pt)
	drs := 0
	if DRSAvailable(driver) && p.Throttle > 90 {
		drs = 12
	}
	return model.CarData{
		Date:         at,
		DriverNumber: driver,
		Speed:        int(p.Speed),
		Throttle:     int(p.Throttle),
		Brake:        int(math.Min(100, p.Brake)),
		RPM:          int(p.RPM),
		Gear:         int(gearFor(p.Speed)),
		DRS:          drs,
	}
}
