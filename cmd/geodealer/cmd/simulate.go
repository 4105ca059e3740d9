package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/go-drift/geodealer/pkg/bus"
	"github.com/go-drift/geodealer/pkg/config"
	"github.com/go-drift/geodealer/pkg/errors"
	"github.com/go-drift/geodealer/pkg/location"
	"github.com/go-drift/geodealer/pkg/metrics"
	"github.com/go-drift/geodealer/pkg/simulator"
)

func init() {
	RegisterCommand(&Command{
		Name:  "simulate",
		Short: "Replay a scenario against a simulated provider",
		Long: `Replay a scripted session against a simulated location provider.

The scenario file lists caller requests (requestPermission,
requestCurrentLocation, askForCurrentLocation, startUpdates, stopUpdates)
and provider events (locations, error, authorization, setStatus,
setService). Every step and every notification is printed.

Notifications are also relayed to NATS when nats.url is configured.

Flags:
  --metrics-addr ADDR   Serve Prometheus metrics on ADDR after the replay
                        until interrupted (overrides metrics.addr)
  --log-level LEVEL     Override log.level`,
		Usage: "geodealer simulate [--metrics-addr ADDR] [--log-level LEVEL] <scenario.yaml>",
		Run:   runSimulate,
	})
}

type simulateOptions struct {
	scenario    string
	metricsAddr string
	logLevel    string
}

func runSimulate(args []string) error {
	var opts simulateOptions
	for i := 0; i < len(args); i++ {
		if v, n, ok := flagValue(args, i, "--metrics-addr"); ok {
			opts.metricsAddr = v
			i += n
			continue
		}
		if v, n, ok := flagValue(args, i, "--log-level"); ok {
			opts.logLevel = v
			i += n
			continue
		}
		if strings.HasPrefix(args[i], "--") {
			return fmt.Errorf("unknown flag %q", args[i])
		}
		if opts.scenario != "" {
			return fmt.Errorf("only one scenario file may be given")
		}
		opts.scenario = args[i]
	}
	if opts.scenario == "" {
		return fmt.Errorf("scenario file is required\n\nUsage: geodealer simulate <scenario.yaml>")
	}

	cfg, err := config.LoadOptional(configPath)
	if err != nil {
		return err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.metricsAddr != "" {
		cfg.Metrics.Addr = opts.metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	sc, err := simulator.LoadScenario(opts.scenario)
	if err != nil {
		return err
	}

	logger := cfg.NewLogger(stderr)
	errors.SetHandler(&errors.LogHandler{Logger: logger, Verbose: cfg.Log.Verbose})
	defer errors.SetHandler(nil)

	reg := prometheus.NewRegistry()
	sim, err := newSimulation(cfg, sc, logger, reg)
	if err != nil {
		return err
	}
	defer sim.close()

	sim.play(stdout)

	if cfg.Metrics.Addr == "" {
		return nil
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serveMetrics(ctx, cfg.Metrics.Addr, reg, logger)
}

// simulation wires a scenario's provider to a dealer, a local printer bus
// and the optional NATS relay.
type simulation struct {
	scenario *simulator.Scenario
	provider *simulator.Provider
	dealer   *location.Dealer
	local    *bus.Local
	relay    *bus.NATS
}

func newSimulation(cfg *config.Config, sc *simulator.Scenario, logger *logrus.Logger, reg prometheus.Registerer) (*simulation, error) {
	acc, err := cfg.DefaultAccuracy()
	if err != nil {
		return nil, err
	}
	sc.Capabilities.OneShotFix = sc.Capabilities.OneShotFix || cfg.Platform.OneShotFix
	sc.Capabilities.ExplicitPrompt = sc.Capabilities.ExplicitPrompt || cfg.Platform.ExplicitPrompt

	sim := &simulation{
		scenario: sc,
		provider: sc.NewProvider(),
		local:    bus.NewLocal(),
	}
	buses := bus.Multi{sim.local}
	if cfg.NATS.URL != "" {
		sim.relay, err = bus.ConnectNATS(cfg.NATS.URL, cfg.NATS.SubjectPrefix, bus.WithNATSLogger(logrus.NewEntry(logger)))
		if err != nil {
			return nil, err
		}
		buses = append(buses, sim.relay)
	}

	sim.dealer = location.New(sim.provider, buses,
		location.WithLogger(logrus.NewEntry(logger)),
		location.WithMetrics(metrics.NewRecorder(reg)),
		location.WithDefaultAccuracy(acc),
	)
	return sim, nil
}

func (s *simulation) play(w io.Writer) {
	if s.scenario.Name != "" {
		fmt.Fprintf(w, "scenario %s\n", s.scenario.Name)
	}
	caps := s.dealer.Capabilities()
	fmt.Fprintf(w, "provider: oneShotFix=%t explicitPrompt=%t permit=%s\n", caps.OneShotFix, caps.ExplicitPrompt, s.dealer.Permit())

	subs := []*bus.Subscription{
		bus.OnCurrentLocation(s.local, func(r location.Result[location.Sample]) {
			if r.OK() {
				fmt.Fprintf(w, "  current location: %s\n", r.Value())
				return
			}
			fmt.Fprintf(w, "  current location: %v\n", r.Err())
		}),
		bus.OnLocationUpdates(s.local, func(r location.Result[[]location.Sample]) {
			if !r.OK() {
				fmt.Fprintf(w, "  location updates: %v\n", r.Err())
				return
			}
			fmt.Fprintf(w, "  location updates: %d samples\n", len(r.Value()))
			for _, sample := range r.Value() {
				fmt.Fprintf(w, "    %s\n", sample)
			}
		}),
		bus.OnError(s.local, func(e *location.DealerError) {
			fmt.Fprintf(w, "  error: %v\n", e)
		}),
		bus.OnStatusChanged(s.local, func(status location.AuthorizationStatus) {
			fmt.Fprintf(w, "  status changed: %s\n", status)
		}),
	}
	defer func() {
		for _, sub := range subs {
			sub.Cancel()
		}
	}()

	s.scenario.Play(s.dealer, s.provider, func(r simulator.StepReport) {
		fmt.Fprintf(w, "step %d: %s -> order=%s\n", r.Index, r.Step.Action, r.Order)
		if r.Err != nil {
			fmt.Fprintf(w, "  refused: %v\n", r.Err)
		}
		if r.Permit != nil {
			fmt.Fprintf(w, "  permit: %s\n", *r.Permit)
		}
	})
}

func (s *simulation) close() {
	if s.relay != nil {
		s.relay.Close()
	}
}

func serveMetrics(ctx context.Context, addr string, g prometheus.Gatherer, logger *logrus.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(g))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.WithField("addr", addr).Info("serving metrics until interrupted")

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
