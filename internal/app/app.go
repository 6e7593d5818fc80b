// Package app assembles the engine: persistence, the write-behind outbox, the
// event bus, both domain stores, the sync glue, the RPC surface and the
// background scheduler.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"connectrpc.com/connect"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/config"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/events"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/finance"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/fx"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/metrics"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/middleware"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/models"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/outbox"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/planner"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/service"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/storage/sqlite"
	linksync "github.com/OybekDeveloper/leora.v2-sub001/internal/sync"
)

// App is a fully wired engine.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	db        *sqlite.SQLiteStore
	outbox    *outbox.Outbox
	bus       *events.Bus
	rates     *fx.Table
	registry  *prometheus.Registry
	metrics   *metrics.Metrics
	scheduler *cron.Cron

	Finance *finance.Store
	Planner *planner.Store
	glue    *linksync.Glue

	stopOutbox context.CancelFunc
	outboxDone chan struct{}
}

// New opens the database, loads the persisted state into both stores and
// attaches the sync glue. Nothing runs in the background until Start.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	logger.Info("Storage initialized", "database", cfg.Database.Path)

	a := &App{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.New(a.registry)

	opts := []outbox.Option{outbox.WithLogger(logger), outbox.WithMetrics(a.metrics)}
	if cfg.Outbox.Offline {
		opts = append(opts, outbox.Offline())
	}
	a.outbox = outbox.New(db, opts...)
	a.bus = events.NewBus(events.WithLogger(logger), events.WithMetrics(a.metrics))
	a.rates = newRateTable(cfg, logger)

	a.Finance = finance.New(finance.Config{
		BaseCurrency: cfg.Finance.BaseCurrency,
		Matching:     finance.ParseMatchPolicy(cfg.Finance.BudgetMatching),
		Funding:      finance.ParseFundingPolicy(cfg.Finance.DebtFunding),
		Converter:    a.rates,
		Bus:          a.bus,
		Persister:    a.outbox,
		Logger:       logger.With("store", "finance"),
		Metrics:      a.metrics,
	})
	a.Planner = planner.New(planner.Config{
		Bus:       a.bus,
		Persister: a.outbox,
		Logger:    logger.With("store", "planner"),
		Metrics:   a.metrics,
	})

	if err := a.load(ctx); err != nil {
		db.Close()
		return nil, err
	}

	a.glue = linksync.New(linksync.Config{
		Finance:   a.Finance,
		Planner:   a.Planner,
		Converter: a.rates,
		Logger:    logger.With("component", "sync"),
		Metrics:   a.metrics,
	})
	a.glue.Attach(a.bus)
	a.Planner.SetFinanceBridge(a.glue)

	a.scheduler, err = a.newScheduler()
	if err != nil {
		a.glue.Close()
		db.Close()
		return nil, err
	}
	return a, nil
}

func newRateTable(cfg *config.Config, logger *slog.Logger) *fx.Table {
	t := fx.NewTable(cfg.Finance.BaseCurrency).WithLogger(logger.With("component", "fx"))
	if len(cfg.FX.Rates) > 0 {
		t.SetRates(time.Unix(0, 0), cfg.FX.Rates)
	}
	for _, o := range cfg.FX.ParsedOverrides() {
		t.SetOverride(o.From, o.To, o.Rate)
	}
	return t
}

// load reads the persisted snapshot. Loading re-derives every computed field,
// so the derived values on disk are never trusted.
func (a *App) load(ctx context.Context) error {
	fin, err := a.db.LoadFinance(ctx)
	if err != nil {
		return fmt.Errorf("load finance state: %w", err)
	}
	plan, err := a.db.LoadPlanner(ctx)
	if err != nil {
		return fmt.Errorf("load planner state: %w", err)
	}
	a.Finance.Load(ctx, fin)
	a.Planner.Load(ctx, plan)
	a.logger.Info("State loaded",
		"accounts", len(fin.Accounts),
		"transactions", len(fin.Transactions),
		"budgets", len(fin.Budgets),
		"debts", len(fin.Debts),
		"goals", len(plan.Goals),
		"habits", len(plan.Habits),
		"tasks", len(plan.Tasks),
	)
	return nil
}

func (a *App) newScheduler() (*cron.Cron, error) {
	c := cron.New()
	if spec := a.cfg.Scheduler.DebtStatus; spec != "" {
		if _, err := c.AddFunc(spec, a.RefreshDebts); err != nil {
			return nil, fmt.Errorf("schedule debt refresh %q: %w", spec, err)
		}
	}
	if spec := a.cfg.Scheduler.Recompute; spec != "" {
		if _, err := c.AddFunc(spec, a.Recompute); err != nil {
			return nil, fmt.Errorf("schedule recompute %q: %w", spec, err)
		}
	}
	return c, nil
}

// RefreshDebts marks debts past their due date overdue.
func (a *App) RefreshDebts() {
	if n := a.Finance.RefreshDebtStatuses(context.Background(), models.OriginUser); n > 0 {
		a.logger.Info("Debt statuses refreshed", "changed", n)
	}
}

// Recompute re-derives every computed field of both stores, e.g. habit
// streaks after midnight.
func (a *App) Recompute() {
	ctx := context.Background()
	a.Finance.Recompute(ctx)
	a.Planner.Recompute(ctx)
	a.logger.Debug("Derived fields recomputed")
}

// Start launches the outbox flusher and the scheduler.
func (a *App) Start(ctx context.Context) {
	ctx, a.stopOutbox = context.WithCancel(ctx)
	a.outboxDone = make(chan struct{})
	go func() {
		defer close(a.outboxDone)
		a.outbox.Run(ctx, a.cfg.Outbox.FlushInterval)
	}()
	a.scheduler.Start()
	a.logger.Info("Background workers started", "flush_interval", a.cfg.Outbox.FlushInterval)
}

// Handler returns the HTTP surface: both Connect services, /metrics and /healthz.
func (a *App) Handler() http.Handler {
	interceptors := connect.WithInterceptors(middleware.LoggingInterceptor(a.logger))

	mux := http.NewServeMux()
	mux.Handle(service.NewFinanceServiceHandler(service.NewFinanceService(a.Finance), interceptors))
	mux.Handle(service.NewPlannerServiceHandler(service.NewPlannerService(a.Planner), interceptors))
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok outbox=%d\n", a.outbox.Len())
	})
	return middleware.Logging(middleware.CORS(mux))
}

// Flush writes every queued operation now.
func (a *App) Flush(ctx context.Context) int {
	return a.outbox.Drain(ctx)
}

// Close stops the background workers, flushes the outbox and closes the
// database.
func (a *App) Close() error {
	<-a.scheduler.Stop().Done()
	if a.stopOutbox != nil {
		a.stopOutbox()
		<-a.outboxDone
	} else {
		a.outbox.Drain(context.Background())
	}
	a.glue.Close()
	if n := a.outbox.Len(); n > 0 {
		a.logger.Warn("Closing with unwritten operations", "pending", n)
	}
	return a.db.Close()
}
