// Command slotwise runs the layout pipeline against NATS JetStream.
//
// It reads behavioral events from a stream and slot geometry from a KV bucket,
// recomputes the layout every interval, publishes changed layouts to KV and
// serves Prometheus metrics plus the latest layout over HTTP.
//
// Several replicas may serve the same store: a KV lease lets exactly one of them
// publish, and every replica writes a status record while it runs.
//
// With -embedded the command starts its own NATS server, and with -simulate it
// feeds the stream with synthetic shopper events for a grid of demo slots:
//
//	slotwise -embedded -simulate -grid 3x4 -http :9090
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/arloliu/slotwise"
	"github.com/arloliu/slotwise/internal/logging"
	"github.com/arloliu/slotwise/internal/metrics"
	"github.com/arloliu/slotwise/internal/natsutil"
	"github.com/arloliu/slotwise/source"
	"github.com/arloliu/slotwise/types"
)

type options struct {
	configPath string
	instanceID string
	natsURL    string
	embedded   bool
	storeDir   string
	simulate   bool
	grid       string
	seed       uint64
	rate       time.Duration
	httpAddr   string
	debug      bool
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.configPath, "config", "", "Path to YAML configuration file (defaults when empty)")
	flag.StringVar(&o.instanceID, "instance", "", "Replica identity for the publisher lease (overrides config, defaults to host name)")
	flag.StringVar(&o.natsURL, "nats", nats.DefaultURL, "NATS server URL")
	flag.BoolVar(&o.embedded, "embedded", false, "Start an embedded NATS server instead of connecting to -nats")
	flag.StringVar(&o.storeDir, "store-dir", "", "JetStream storage directory for the embedded server")
	flag.BoolVar(&o.simulate, "simulate", false, "Publish simulated shopper events")
	flag.StringVar(&o.grid, "grid", "3x4", "Demo slot grid (rows x cols) seeded when the slot bucket is empty")
	flag.Uint64Var(&o.seed, "seed", 1, "Simulation seed")
	flag.DurationVar(&o.rate, "sim-interval", time.Second, "Interval between simulated event batches")
	flag.StringVar(&o.httpAddr, "http", ":9090", "HTTP listen address for /metrics, /health and /layout (empty disables)")
	flag.BoolVar(&o.debug, "debug", false, "Enable debug logging")
	flag.Parse()

	return o
}

func main() {
	opts := parseFlags()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("slotwise: %v", err)
	}
}

func run(ctx context.Context, opts options) error {
	level := slog.LevelInfo
	if opts.debug {
		level = slog.LevelDebug
	}
	logger := logging.NewSlogText(os.Stderr, level)

	cfg := slotwise.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := slotwise.LoadConfig(opts.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if opts.instanceID != "" {
		cfg.Coordination.InstanceID = opts.instanceID
	}

	nc, shutdown, err := connect(opts)
	if err != nil {
		return err
	}
	defer shutdown()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("failed to create jetstream context: %w", err)
	}

	startupCtx, startupCancel := context.WithTimeout(ctx, 30*time.Second)
	defer startupCancel()

	events, slots, err := slotwise.NewJetStreamSources(startupCtx, js, &cfg, logger.With("component", "source"))
	if err != nil {
		return err
	}

	geometry, err := ensureGeometry(startupCtx, slots, opts.grid)
	if err != nil {
		return err
	}
	logger.Info("slot geometry loaded", "slots", len(geometry))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewPrometheus(registry, "slotwise")

	store, err := slotwise.NewKVLayoutStore(startupCtx, js, &cfg, logger.With("component", "publisher"), collector)
	if err != nil {
		return err
	}

	pipeline, err := slotwise.NewPipeline(events, slots,
		slotwise.WithConfig(&cfg),
		slotwise.WithLogger(logger.With("component", "pipeline")),
		slotwise.WithMetrics(collector),
	)
	if err != nil {
		return err
	}

	lease, err := slotwise.NewKVLease(startupCtx, js, &cfg)
	if err != nil {
		return err
	}

	runner, err := slotwise.NewRunner(&cfg, pipeline,
		slotwise.WithPublisher(store),
		slotwise.WithLease(lease),
		slotwise.WithHooks(&slotwise.Hooks{
			OnLayoutChanged: func(_ context.Context, r *slotwise.Result) error {
				for _, p := range r.Layout.Moves() {
					logger.Info("move", "from", p.SourceSlotID, "to", p.SlotID, "category", p.Category, "zone", p.Zone)
				}

				return nil
			},
		}),
	)
	if err != nil {
		return err
	}

	if opts.simulate {
		producer := newProducer(js, cfg.KVBuckets.EventSubjectPrefix, types.SlotIDs(geometry), opts.seed, opts.rate, logger.With("component", "producer"))
		go producer.Start(ctx)
	}

	if opts.httpAddr != "" {
		srv := newHTTPServer(opts.httpAddr, registry, runner, store, cfg.StoreID)
		go func() {
			if err := srv.Start(ctx); err != nil {
				logger.Error("http server failed", "error", err)
			}
		}()
	}

	if err := runner.Start(startupCtx); err != nil {
		return err
	}

	reporter, err := slotwise.NewKVStatusReporter(startupCtx, js, &cfg, runner, logger.With("component", "status"))
	if err != nil {
		return err
	}
	if err := reporter.Start(startupCtx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("shutting down")

	if err := reporter.Stop(); err != nil {
		logger.Warn("failed to stop status reporter", "error", err)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer stopCancel()

	return runner.Stop(stopCtx)
}

// connect returns a NATS connection and a function that releases it.
func connect(opts options) (*nats.Conn, func(), error) {
	if !opts.embedded {
		nc, err := nats.Connect(opts.natsURL, nats.Name("slotwise"), nats.MaxReconnects(-1))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}

		return nc, nc.Close, nil
	}

	ns, nc, err := natsutil.StartEmbedded(natsutil.EmbeddedOptions{StoreDir: opts.storeDir})
	if err != nil {
		return nil, nil, err
	}
	log.Printf("embedded NATS listening on %s", ns.ClientURL())

	return nc, func() {
		nc.Close()
		ns.Shutdown()
		ns.WaitForShutdown()
	}, nil
}

// ensureGeometry seeds the slot bucket with a demo grid when it is empty.
func ensureGeometry(ctx context.Context, slots *source.KVSlots, grid string) ([]types.PhysicalSlot, error) {
	current, err := slots.ListSlots(ctx)
	if err != nil {
		return nil, err
	}
	if len(current) > 0 {
		return current, nil
	}

	var rows, cols int
	if _, err := fmt.Sscanf(grid, "%dx%d", &rows, &cols); err != nil || rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid grid %q, expected <rows>x<cols>", grid)
	}

	labels := []string{"water_bottle", "coffee_mug", "notebook", "headphones", "backpack", "sunglasses"}
	out := make([]types.PhysicalSlot, 0, rows*cols)
	for r := range rows {
		for c := range cols {
			slot := types.PhysicalSlot{
				SlotID: fmt.Sprintf("r%d-c%d", r, c),
				X:      float64(c),
				Y:      float64(r),
				Metadata: types.DisplayMetadata{
					Label:    labels[(r*cols+c)%len(labels)],
					ItemType: "demo",
				},
			}
			if err := slots.PutSlot(ctx, slot); err != nil {
				return nil, err
			}
			out = append(out, slot)
		}
	}

	return out, nil
}
