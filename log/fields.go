package log

import "go.uber.org/zap"

var (
	Any      = zap.Any
	Bool     = zap.Bool
	Duration = zap.Duration
	Float64  = zap.Float64
	Int      = zap.Int
	Int64    = zap.Int64
	Ints     = zap.Ints
	String   = zap.String
	Strings  = zap.Strings
	Stringer = zap.Stringer
	Time     = zap.Time
	Uint64   = zap.Uint64
)

// ErrorField is named this way to avoid a clash with the Error log function
func ErrorField(err error) Field {
	return zap.Error(err)
}
