package config

import "time"

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	OpenF1URL            string // base URL of the OpenF1 API
	JolpicaURL           string // base URL of the Jolpica (Ergast) API
	PushURL              string // websocket URL of the live push channel (empty: polling only)
	NatsURL              string // NATS server for snapshot fan-out (empty: disabled)
	WaitForServices      string // duration to wait for other services to be ready
	LogLevel             string // sets the log level (zap log level values)
	LogFormat            string // text vs json
	LogFilter            string // zapfilter rules, e.g. "*:info livefeed*:debug"
	EnableTelemetry      bool   // enable telemetry
	TelemetryEndpoint    string // endpoint for telemetry
	TelemetryStdout      bool   // write telemetry data to stdout instead of OTLP endpoint
	ProfilingPort        int    // port for profiling
	ServerAddr           string // listen addr for HTTP server (insecure)
	TLSServerAddr        string // listen addr for HTTP server (tls)
	TLSCertFile          string // path to TLS certificate
	TLSKeyFile           string // path to TLS key
	TLSCAFile            string // path to TLS CA
	CacheTTL             string // freshness of upstream cache entries
	RateWindow           string // length of the upstream rate limit window
	RateLimit            int    // max requests per rate limit window
	Cooldown             string // cool down after an upstream 429
	PollInterval         string // interval between poll cycles
	MockFallbackDelay    string // inject mock data if no drivers arrived after this duration
	MaxReconnectAttempts int    // push channel attempts before switching to polling
	MaxSelection         int    // max number of selected drivers
	Season               int    // season for standings and calendar (0: current year)
)

// Config holds the processed configuration values used by the application
type Config struct {
	CacheTTL             time.Duration
	RateWindow           time.Duration
	RateLimit            int
	Cooldown             time.Duration
	PollInterval         time.Duration
	MockFallbackDelay    time.Duration
	MaxReconnectAttempts int
	MaxSelection         int
}

// ParseDuration returns def if the value cannot be parsed or is not positive
func ParseDuration(value string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func positiveOr(value, def int) int {
	if value <= 0 {
		return def
	}
	return value
}

// Resolve converts the CLI values into a Config with defaults for invalid entries
func Resolve() Config {
	return Config{
		CacheTTL:             ParseDuration(CacheTTL, 10*time.Second),
		RateWindow:           ParseDuration(RateWindow, time.Minute),
		RateLimit:            positiveOr(RateLimit, 30),
		Cooldown:             ParseDuration(Cooldown, time.Minute),
		PollInterval:         ParseDuration(PollInterval, 10*time.Second),
		MockFallbackDelay:    ParseDuration(MockFallbackDelay, 5*time.Second),
		MaxReconnectAttempts: positiveOr(MaxReconnectAttempts, 5),
		MaxSelection:         positiveOr(MaxSelection, 5),
	}
}
