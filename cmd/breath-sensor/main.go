// Command breath-sensor reads breath cycles from a bedside sensor, tracks
// sleep sessions, and serves the live dashboard. Accepted samples fan out to
// dashboard viewers and MQTT; daily summaries land as JSON records.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/sweeney/breath-sensor/internal/broadcast"
	"github.com/sweeney/breath-sensor/internal/config"
	"github.com/sweeney/breath-sensor/internal/led"
	"github.com/sweeney/breath-sensor/internal/metrics"
	"github.com/sweeney/breath-sensor/internal/mqtt"
	"github.com/sweeney/breath-sensor/internal/sleep"
	"github.com/sweeney/breath-sensor/internal/snapshot"
	"github.com/sweeney/breath-sensor/internal/source"
	"github.com/sweeney/breath-sensor/internal/store"
	"github.com/sweeney/breath-sensor/internal/tracker"
	"github.com/sweeney/breath-sensor/internal/web"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	sim := flag.Bool("sim", false, "Generate synthetic breath data instead of reading the sensor")
	serialDevice := flag.String("serial-device", config.DefaultSerialDevice, "Serial device of the breath sensor")
	baud := flag.Int("baud", config.DefaultSerialBaud, "Serial baud rate")
	broker := flag.String("broker", config.DefaultBroker, "MQTT broker address")
	wsBroker := flag.String("ws-broker", "=broker", `MQTT websocket URL for external dashboards ("=broker" derives from --broker, "off" disables)`)
	httpAddr := flag.String("http", config.DefaultHTTPAddr, "HTTP dashboard address")
	dataDir := flag.String("data-dir", config.DefaultDataDir, "Directory for daily summary records")
	screensDir := flag.String("screens-dir", config.DefaultScreensDir, "Directory for chart snapshots")
	checkpoint := flag.Duration("checkpoint", config.DefaultCheckpointInterval, "Interval between mid-session summary checkpoints")
	ledEnabled := flag.Bool("led", false, "Drive the status LED while a session is active")
	ledPin := flag.Int("led-pin", config.DefaultLEDPin, "BCM pin number for the status LED")
	logLevel := flag.String("log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", config.DefaultLogFormat, "Log format (json, console)")
	printSample := flag.Bool("print-sample", false, "Print one sensor reading and exit")

	flag.Parse()

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
		}
		os.Exit(1)
	}

	// Explicit flags beat file and environment values.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "sim":
			cfg.Sim = *sim
		case "serial-device":
			cfg.SerialDevice = *serialDevice
		case "baud":
			cfg.SerialBaud = *baud
		case "broker":
			cfg.Broker = *broker
		case "http":
			cfg.HTTPAddr = *httpAddr
		case "data-dir":
			cfg.DataDir = *dataDir
		case "screens-dir":
			cfg.ScreensDir = *screensDir
		case "checkpoint":
			cfg.CheckpointInterval = *checkpoint
		case "led":
			cfg.LEDEnabled = *ledEnabled
		case "led-pin":
			cfg.LEDPin = *ledPin
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-format":
			cfg.LogFormat = *logFormat
		}
	})
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
		}
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat, "breath-sensor")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ws := resolveWSBroker(*wsBroker, cfg.Broker, logger)
	if err := run(cfg, ws, *printSample, logger); err != nil {
		logger.Fatal("fatal", zap.Error(err))
	}
}

func run(cfg *config.Config, wsBroker string, printSample bool, logger *zap.Logger) error {
	src, err := newSource(cfg)
	if err != nil {
		return fmt.Errorf("init source: %w", err)
	}
	defer src.Close()

	if printSample {
		return printOneSample(src)
	}

	logger.Info("configuration loaded", zap.Any("config", cfg.LogSummary()))

	st, err := store.New(cfg.DataDir, logger.Named("store"))
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	snaps, err := snapshot.New(cfg.ScreensDir)
	if err != nil {
		return fmt.Errorf("init snapshots: %w", err)
	}

	m := metrics.NewMetrics()
	registry := prometheus.NewRegistry()
	if err := m.Register(registry); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	st.SetObserver(m)

	tk := tracker.New(st, time.Now, logger.Named("tracker"))

	// The HTTP handlers drive transitions; the run loop owns their side
	// effects (MQTT, LED, metrics). The buffer absorbs a burst of clicks.
	transitions := make(chan tracker.Transition, 16)
	tk.SetListener(func(tr tracker.Transition) {
		select {
		case transitions <- tr:
		default:
			logger.Warn("transition dropped, loop busy", zap.String("event", string(tr.Event)))
		}
	})

	publisher, err := mqtt.NewRealPublisher(cfg.Broker, logger.Named("mqtt"))
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	var indicator led.Indicator
	if cfg.LEDEnabled {
		ind, err := led.NewRealIndicator(cfg.LEDPin)
		if err != nil {
			logger.Warn("status led unavailable", zap.Int("pin", cfg.LEDPin), zap.Error(err))
		} else {
			indicator = ind
			defer ind.Close()
		}
	}

	hub := broadcast.NewHub(logger.Named("broadcast"))

	startTime := time.Now()
	srv := web.New(cfg.HTTPAddr, web.Deps{
		Tracker:   tk,
		Hub:       hub,
		Store:     st,
		Snapshots: snaps,
		Metrics:   m,
		MQTT:      publisher,
		Registry:  registry,
		Config: web.Config{
			Source:             sourceName(cfg),
			Broker:             cfg.Broker,
			HTTPAddr:           cfg.HTTPAddr,
			WSBroker:           wsBroker,
			DataDir:            cfg.DataDir,
			ScreensDir:         cfg.ScreensDir,
			CheckpointInterval: cfg.CheckpointInterval,
		},
		StartTime: startTime,
		Logger:    logger.Named("web"),
	})
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", zap.Error(err))
		}
	}()
	defer srv.Shutdown(context.Background())
	logger.Info("dashboard listening", zap.String("addr", cfg.HTTPAddr))

	startup := mqtt.SystemEvent{
		Timestamp:  startTime,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: srv.FormatStatusEvent("STARTUP", ""),
	}
	if err := publisher.PublishSystem(startup); err != nil {
		logger.Warn("startup publish failed", zap.Error(err))
	}

	logger.Info("started",
		zap.String("source", sourceName(cfg)),
		zap.String("broker", cfg.Broker),
		zap.Duration("checkpoint", cfg.CheckpointInterval),
	)

	readings := make(chan sleep.Reading)
	done := make(chan struct{})
	defer close(done)
	go pump(src, m, logger.Named("source"), readings, done)

	ticker := time.NewTicker(cfg.CheckpointInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(loopDeps{
		tracker:   tk,
		hub:       hub,
		publisher: publisher,
		indicator: indicator,
		metrics:   m,
		status:    srv.FormatStatusEvent,
		logger:    logger,
		now:       time.Now,
	}, readings, transitions, ticker.C, sigCh)
}

// pump reads cycles from the source and forwards complete readings to the
// run loop. Read errors are logged and retried after a short backoff so a
// transient serial glitch never kills the daemon.
func pump(src source.Source, m *metrics.Metrics, logger *zap.Logger, readings chan<- sleep.Reading, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}

		r, ok, err := src.Next()
		if err != nil {
			m.IncSourceReadErrors()
			logger.Warn("source read failed", zap.Error(err))
			select {
			case <-done:
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if !ok {
			continue
		}

		select {
		case readings <- r:
		case <-done:
			return
		}
	}
}

// loopDeps carries the run loop's collaborators. Channels stay out of the
// struct so tests can drive the loop reading by reading.
type loopDeps struct {
	tracker   *tracker.Tracker
	hub       *broadcast.Hub
	publisher mqtt.Publisher
	indicator led.Indicator
	metrics   *metrics.Metrics
	status    func(event, reason string) []byte
	logger    *zap.Logger
	now       func() time.Time
}

func runLoop(d loopDeps, readings <-chan sleep.Reading, transitions <-chan tracker.Transition, checkpoint <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			name := signalName(s)
			d.logger.Info("received signal, shutting down", zap.String("signal", name))

			// Flush the running aggregate so a restart mid-session does
			// not lose the night so far.
			if err := d.tracker.Checkpoint(); err != nil {
				d.logger.Error("final checkpoint failed", zap.Error(err))
			}

			event := mqtt.SystemEvent{
				Timestamp: d.now(),
				Event:     "SHUTDOWN",
				Reason:    name,
				Retained:  true,
			}
			if d.status != nil {
				event.RawPayload = d.status("SHUTDOWN", name)
			}
			if err := d.publisher.PublishSystem(event); err != nil {
				d.logger.Warn("shutdown publish failed", zap.Error(err))
			}
			return nil

		case r := <-readings:
			sample, ok := d.tracker.Accept(r)
			if !ok {
				d.metrics.IncSamplesDropped()
				continue
			}
			d.metrics.IncSamplesAccepted()
			d.metrics.ObserveBreathRate(r.BreathRate)

			if failed := d.hub.Broadcast(sample); failed > 0 {
				d.metrics.AddBroadcastFailures(failed)
			}
			if err := d.publisher.PublishSample(sample); err != nil {
				d.logger.Warn("sample publish failed", zap.Error(err))
			}

		case <-checkpoint:
			d.metrics.IncCheckpointRuns()
			if err := d.tracker.Checkpoint(); err != nil {
				d.logger.Error("checkpoint failed", zap.Error(err))
			}

		case tr := <-transitions:
			d.metrics.IncSessionTransitions(string(tr.Event))
			active := tr.State == sleep.StateActive
			d.metrics.SetSessionActive(active)

			if d.indicator != nil {
				if err := d.indicator.Set(active); err != nil {
					d.logger.Warn("status led update failed", zap.Error(err))
				}
			}

			event := mqtt.SessionEvent{
				Timestamp:      tr.At,
				Event:          string(tr.Event),
				SessionID:      tr.SessionID,
				State:          tr.State,
				TotalSleepSecs: tr.Total.Seconds(),
			}
			if err := d.publisher.PublishSession(event); err != nil {
				d.logger.Warn("session publish failed", zap.Error(err))
			}
		}
	}
}

func newSource(cfg *config.Config) (source.Source, error) {
	if cfg.Sim {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		return source.NewSimSource(rng, 50*time.Millisecond), nil
	}
	return source.NewSerialSource(cfg.SerialDevice, cfg.SerialBaud)
}

func sourceName(cfg *config.Config) string {
	if cfg.Sim {
		return "sim"
	}
	return cfg.SerialDevice
}

// printOneSample waits for one complete reading and prints it. Handy for
// checking wiring and baud rate from the shell.
func printOneSample(src source.Source) error {
	for {
		r, ok, err := src.Next()
		if err != nil {
			return fmt.Errorf("read sample: %w", err)
		}
		if !ok {
			continue
		}
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

// resolveWSBroker converts the --ws-broker flag value into a concrete URL.
// "=broker" derives ws://host:9001 from the TCP broker address; "off" disables.
func resolveWSBroker(ws, broker string, logger *zap.Logger) string {
	if ws == "off" {
		return ""
	}
	if ws != "=broker" {
		return ws
	}
	u, err := url.Parse(broker)
	if err != nil {
		logger.Warn("cannot derive websocket broker", zap.String("broker", broker), zap.Error(err))
		return ""
	}
	u.Scheme = "ws"
	u.Host = u.Hostname() + ":9001"
	return u.String()
}
