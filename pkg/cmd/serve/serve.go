package serve

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // profiling is opt-in via flag
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"github.com/thejerf/suture/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mpapenbr/f1-livetiming-go/log"
	cmdutil "github.com/mpapenbr/f1-livetiming-go/pkg/cmd/util"
	"github.com/mpapenbr/f1-livetiming-go/pkg/config"
	"github.com/mpapenbr/f1-livetiming-go/pkg/endpoints/public"
	"github.com/mpapenbr/f1-livetiming-go/pkg/livefeed"
	natsPublish "github.com/mpapenbr/f1-livetiming-go/pkg/publish/nats"
	"github.com/mpapenbr/f1-livetiming-go/pkg/store"
	"github.com/mpapenbr/f1-livetiming-go/pkg/upstream/jolpica"
	"github.com/mpapenbr/f1-livetiming-go/pkg/upstream/openf1"
	"github.com/mpapenbr/f1-livetiming-go/pkg/utils"
)

var appConfig config.Config // holds processed config values

//nolint:funlen // flag definitions
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "starts the live timing server",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			appConfig = config.Resolve()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&config.ServerAddr,
		"server-addr",
		"a",
		"localhost:8080",
		"HTTP server listen address")
	cmd.Flags().StringVar(&config.TLSServerAddr,
		"tls-server-addr",
		"",
		"HTTPS server listen address (requires tls-cert and tls-key)")
	cmd.Flags().StringVar(&config.TLSCertFile,
		"tls-cert",
		"",
		"path to TLS certificate")
	cmd.Flags().StringVar(&config.TLSKeyFile,
		"tls-key",
		"",
		"path to TLS key")
	cmd.Flags().StringVar(&config.TLSCAFile,
		"tls-ca",
		"",
		"path to TLS root CA for client certificates")
	cmd.Flags().StringVar(&config.PushURL,
		"push-url",
		"",
		"websocket URL of the live push channel (empty: polling only)")
	cmd.Flags().StringVar(&config.NatsURL,
		"nats-url",
		"",
		"NATS server receiving state snapshots (empty: disabled)")
	cmd.Flags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	cmd.Flags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data")
	cmd.Flags().BoolVar(&config.TelemetryStdout,
		"telemetry-stdout",
		false,
		"write telemetry data to stdout")
	cmd.Flags().IntVar(&config.ProfilingPort,
		"profiling-port",
		0,
		"port to use for providing profiling data")
	cmd.Flags().StringVar(&config.CacheTTL,
		"cache-ttl",
		"10s",
		"freshness of cached upstream responses")
	cmd.Flags().StringVar(&config.RateWindow,
		"rate-window",
		"1m",
		"length of the upstream rate limit window")
	cmd.Flags().IntVar(&config.RateLimit,
		"rate-limit",
		30,
		"max upstream requests per rate limit window")
	cmd.Flags().StringVar(&config.Cooldown,
		"cooldown",
		"1m",
		"pause upstream requests for this duration after a 429")
	cmd.Flags().StringVar(&config.PollInterval,
		"poll-interval",
		"10s",
		"interval between poll cycles")
	cmd.Flags().StringVar(&config.MockFallbackDelay,
		"mock-fallback-delay",
		"5s",
		"inject mock data if no drivers arrived after this duration")
	cmd.Flags().IntVar(&config.MaxReconnectAttempts,
		"max-reconnect-attempts",
		5,
		"push channel reconnect attempts before switching to polling")
	cmd.Flags().IntVar(&config.MaxSelection,
		"max-selection",
		5,
		"max number of selected drivers")
	cmd.Flags().IntVar(&config.Season,
		"season",
		0,
		"season for standings and results (0: current year)")
	return cmd
}

//nolint:funlen // wiring of all components
func startServer(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	cmdutil.SetupLogger()
	l := log.Default().Named("serve")
	var telemetry *config.Telemetry

	log.Debug("Config:",
		log.String("openf1", config.OpenF1URL),
		log.String("jolpica", config.JolpicaURL),
		log.String("push", config.PushURL),
		log.String("nats", config.NatsURL),
		log.Duration("pollInterval", appConfig.PollInterval),
	)

	if config.ProfilingPort > 0 {
		log.Info("Starting profiling server on port", log.Int("port", config.ProfilingPort))
		go func() {
			//nolint:gosec // local only
			err := http.ListenAndServe(
				fmt.Sprintf("localhost:%d", config.ProfilingPort),
				nil)
			if err != nil {
				log.Error("Profiling server stopped", log.ErrorField(err))
			}
		}()
	}

	if err := waitForRequiredServices(parent); err != nil {
		return err
	}

	if config.EnableTelemetry {
		log.Info("Enabling telemetry")
		var err error
		if telemetry, err = config.SetupTelemetry(parent); err != nil {
			log.Warn("Could not setup telemetry", log.ErrorField(err))
		}
		err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
		if err != nil {
			log.Warn("Could not start runtime metrics", log.ErrorField(err))
		}
	}

	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st := store.New(store.WithMaxSelection(appConfig.MaxSelection))
	source := st.Broadcast(ctx)
	upstream := openf1.NewClient(
		openf1.WithBaseURL(config.OpenF1URL),
		openf1.WithCacheTTL(appConfig.CacheTTL),
		openf1.WithRateLimit(appConfig.RateLimit, appConfig.RateWindow),
		openf1.WithCooldown(appConfig.Cooldown))
	manager := livefeed.NewManager(st, upstream,
		livefeed.WithPushURL(config.PushURL),
		livefeed.WithPollInterval(appConfig.PollInterval),
		livefeed.WithFallbackDelay(appConfig.MockFallbackDelay),
		livefeed.WithMaxReconnectAttempts(appConfig.MaxReconnectAttempts))

	publicServer := public.NewServer(st,
		public.WithSource(source),
		public.WithMockControl(manager.Animator()),
		public.WithStandings(jolpica.NewClient(jolpica.WithBaseURL(config.JolpicaURL))),
		public.WithMeetings(upstream),
		public.WithSeason(config.Season),
		public.WithReady(manager.Running))
	handler := h2c.NewHandler(
		otelhttp.NewHandler(publicServer.Handler(), "f1l"),
		&http2.Server{})

	sup := newSupervisor(l.Named("supervisor"))
	sup.Add(&feedService{m: manager})
	sup.Add(newHTTPService("http", &http.Server{
		Addr:              config.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}, false))
	addTLSServices(sup, handler, l)

	if config.NatsURL != "" {
		nc, err := nats.Connect(config.NatsURL)
		if err != nil {
			l.Error("could not connect to NATS", log.ErrorField(err))
			return err
		}
		pub, err := natsPublish.NewPublisher(nc, source)
		if err != nil {
			nc.Close()
			l.Error("could not setup NATS publisher", log.ErrorField(err))
			return err
		}
		defer pub.Close()
		sup.Add(pub)
	}

	setupGoRoutinesDump()
	log.Info("Server started")
	err := sup.Serve(ctx)
	if telemetry != nil {
		telemetry.Shutdown()
	}
	if err != nil && ctx.Err() == nil {
		log.Error("supervisor stopped", log.ErrorField(err))
		return err
	}
	log.Info("Server terminated")
	return nil
}

func addTLSServices(sup *suture.Supervisor, handler http.Handler, l *log.Logger) {
	if config.TLSServerAddr == "" {
		return
	}
	if config.TLSCertFile == "" || config.TLSKeyFile == "" {
		l.Warn("tls-server-addr requires tls-cert and tls-key, TLS disabled")
		return
	}
	c := newCerts(certFiles{
		cert: config.TLSCertFile,
		key:  config.TLSKeyFile,
		ca:   config.TLSCAFile,
	}, l.Named("certs"))
	tlsConfig := c.tlsConfig()
	if tlsConfig == nil {
		return
	}
	sup.Add(&certWatchService{c: c})
	sup.Add(newHTTPService("https", &http.Server{
		Addr:              config.TLSServerAddr,
		Handler:           handler,
		TLSConfig:         tlsConfig,
		ReadHeaderTimeout: 10 * time.Second,
	}, true))
}

func setupGoRoutinesDump() {
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGQUIT)
		buf := make([]byte, 1<<20)
		for {
			<-sigs
			stacklen := runtime.Stack(buf, true)
			fmt.Printf("=== received SIGQUIT ===\n*** goroutine dump...\n%s\n*** end\n",
				buf[:stacklen])
		}
	}()
}

// requiredServices returns the tcp addresses which must be reachable before start
func requiredServices() []string {
	ret := []string{}
	if addr := utils.ExtractFromNatsURL(config.NatsURL); addr != "" {
		ret = append(ret, addr)
	}
	if addr, _ := utils.ExtractFromWebsocketURL(config.PushURL); addr != "" {
		ret = append(ret, addr)
	}
	return ret
}

func waitForRequiredServices(ctx context.Context) error {
	timeout := config.ParseDuration(config.WaitForServices, 0)
	if timeout == 0 {
		log.Warn("Invalid duration value. Setting default 60s",
			log.String("value", config.WaitForServices))
		timeout = 60 * time.Second
	}
	addrs := requiredServices()
	errs := make([]error, len(addrs))
	wg := sync.WaitGroup{}
	for i, addr := range addrs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = utils.WaitForTCP(ctx, addr, timeout)
		}()
	}
	log.Debug("Waiting for connection checks to return")
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			log.Error("required services not ready", log.ErrorField(err))
			return err
		}
	}
	log.Debug("Required services are available")
	return nil
}
