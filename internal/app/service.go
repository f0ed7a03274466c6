// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	eventqueue "github.com/shinoda11/opsboard/internal/adapters/mq/queue"
	workerpool "github.com/shinoda11/opsboard/internal/adapters/mq/worker"
	repository "github.com/shinoda11/opsboard/internal/adapters/repository"
	"github.com/shinoda11/opsboard/internal/domain/awards"
	"github.com/shinoda11/opsboard/internal/domain/dedupe"
	"github.com/shinoda11/opsboard/internal/domain/guardrail"
	"github.com/shinoda11/opsboard/internal/domain/model"
	"github.com/shinoda11/opsboard/internal/domain/rollup"
	"github.com/shinoda11/opsboard/internal/domain/scoring"
	"github.com/shinoda11/opsboard/internal/domain/trend"
	"github.com/shinoda11/opsboard/internal/domain/types"
	"github.com/shinoda11/opsboard/pkg/logger"
	"github.com/shinoda11/opsboard/pkg/metrics"
)

// Service wires the ingest pipeline (dedupe, queue, workers, event log)
// to the projection engines the dashboard reads from.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	deduper   dedupe.Deduper
	queue     eventqueue.Queue
	pool      *workerpool.Pool
	scorer    *scoring.Engine
	evaluator *guardrail.Evaluator
	detector  *trend.Detector
	awarder   *awards.Engine
	rollup    *rollup.Aggregator

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	policy      scoring.Policy
	brackets    guardrail.Table
	thresholds  trend.Thresholds
	lowScoreCut int
	chronicMin  int

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithScoringPolicy sets the deduction policy used by the score engine.
func WithScoringPolicy(p scoring.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithGuardrailTable sets the labor-rate bracket table.
func WithGuardrailTable(t guardrail.Table) Option {
	return func(s *Service) {
		s.brackets = t
	}
}

// WithTrendThresholds sets the demand-drop severity thresholds.
func WithTrendThresholds(t trend.Thresholds) Option {
	return func(s *Service) {
		s.thresholds = t
	}
}

// WithLowScoreCut sets the score below which a day is flagged in reports.
func WithLowScoreCut(cut int) Option {
	return func(s *Service) {
		if cut > 0 {
			s.lowScoreCut = cut
		}
	}
}

// WithChronicThreshold sets the delay count that marks a task chronic.
func WithChronicThreshold(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.chronicMin = n
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2, // Default to 2x CPU cores
		queueSize:   100000,               // Default queue size
		dedupeSize:  50000,                // Default dedupe cache size
		policy:      scoring.DefaultPolicy(),
		brackets:    guardrail.DefaultTable(),
		thresholds:  trend.DefaultThresholds(),
		lowScoreCut: 60,
		chronicMin:  2,
		stopCh:      make(chan struct{}),
		logger:      nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting ops board service...")

	// Ingest pipeline
	s.store = repository.NewEventLog(ctx)
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
	)

	// Projection engines
	var err error
	s.scorer, err = scoring.New(scoring.WithPolicy(s.policy))
	if err != nil {
		return err
	}
	s.evaluator, err = guardrail.New(guardrail.WithTable(s.brackets))
	if err != nil {
		return err
	}
	s.detector, err = trend.New(trend.WithThresholds(s.thresholds))
	if err != nil {
		return err
	}
	s.awarder, err = awards.New(s.scorer)
	if err != nil {
		return err
	}
	s.rollup, err = rollup.New(s.scorer,
		rollup.WithLowScoreCut(s.lowScoreCut),
		rollup.WithChronicThreshold(s.chronicMin),
	)
	if err != nil {
		return err
	}

	// Workers drain the queue into the event log
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.store)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "ops board service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping ops board service...")

	// Stop worker pool
	if s.pool != nil {
		s.pool.Stop()
	}

	// Close queue
	if q, ok := s.queue.(*eventqueue.InMemoryQueue); ok {
		_ = q.Close()
	}

	select {
	case <-s.stopCh:
		// Channel already closed
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(context.Background(), "ops board service stopped")
}

// SeenAndRecord atomically checks if an event id was seen and records it if not.
// Returns true if the event was already seen, false if it was newly recorded.
// This is the ONLY method for deduplication - thread-safe and atomic.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordEventDuplicate()
	}
	return seen
}

// Unrecord removes an event ID from the seen list, allowing it to be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Enqueue submits an event for asynchronous processing. Duplicate IDs
// are dropped here; validation happens in the workers on append.
func (s *Service) Enqueue(ctx context.Context, e model.Event) error {
	if e.ID == "" {
		return repository.ErrInvalidEvent
	}

	if s.SeenAndRecord(ctx, e.ID) {
		s.logger.Debug(ctx, "duplicate event detected, skipping",
			logger.String("eventID", e.ID),
			logger.String("storeID", e.StoreID),
		)
		return ErrDuplicateEvent
	}

	if !s.queue.Enqueue(ctx, e) {
		// Allow the producer to retry the same ID later.
		s.Unrecord(ctx, e.ID)
		return eventqueue.ErrQueueFull
	}

	metrics.UpdateQueueSize(s.queue.Len(ctx))
	return nil
}

// SetReference replaces the staff and task-card reference data.
func (s *Service) SetReference(ctx context.Context, staff []model.Staff, cards []model.TaskCard) {
	s.store.SetReference(ctx, staff, cards)
}

// Stores lists the store IDs present in the event log.
func (s *Service) Stores(ctx context.Context) []string {
	return s.store.Stores(ctx)
}

// StaffScore computes one staff member's score over an inclusive date range.
func (s *Service) StaffScore(ctx context.Context, storeID, staffID, from, to string) (scoring.Result, error) {
	snap, err := s.store.SnapshotFor(ctx, storeID, from, to, types.BandAll)
	if err != nil {
		return scoring.Result{}, err
	}
	return s.observe(ctx, "scoring", func() (scoring.Result, error) {
		return s.scorer.StaffScoreRange(ctx, snap, staffID, from, to)
	})
}

// TeamScore computes the whole-team score over an inclusive date range.
func (s *Service) TeamScore(ctx context.Context, storeID, from, to string) (scoring.Result, error) {
	snap, err := s.store.SnapshotFor(ctx, storeID, from, to, types.BandAll)
	if err != nil {
		return scoring.Result{}, err
	}
	return s.observe(ctx, "scoring", func() (scoring.Result, error) {
		return s.scorer.TeamScoreRange(ctx, snap, from, to)
	})
}

// Guardrail evaluates the labor-cost guardrail for one business date.
func (s *Service) Guardrail(ctx context.Context, storeID, date string) (guardrail.Result, error) {
	dayType, err := dayTypeOfDate(date)
	if err != nil {
		return guardrail.Result{}, err
	}
	snap, err := s.store.SnapshotFor(ctx, storeID, date, date, types.BandAll)
	if err != nil {
		return guardrail.Result{}, err
	}

	sales, labor, _ := daySums(snap, date)
	start := time.Now()
	res, err := s.evaluator.Evaluate(dayType, sales, labor)
	s.record(ctx, "guardrail", start, err)
	return res, err
}

// GuardrailProjection extrapolates the end-of-day labor rate for one
// business date from actuals up to asOf.
func (s *Service) GuardrailProjection(ctx context.Context, storeID, date string, asOf time.Time) (guardrail.Projection, error) {
	dayType, err := dayTypeOfDate(date)
	if err != nil {
		return guardrail.Projection{}, err
	}
	snap, err := s.store.SnapshotFor(ctx, storeID, date, date, types.BandAll)
	if err != nil {
		return guardrail.Projection{}, err
	}

	sales, labor, forecast := daySums(snap, date)
	start := time.Now()
	proj, err := s.evaluator.ProjectEndOfDay(dayType, sales, labor, forecast, asOf.Hour())
	s.record(ctx, "guardrail", start, err)
	return proj, err
}

// DemandDrops detects menu items whose short-window demand has fallen
// off their rolling seven-day average.
func (s *Service) DemandDrops(ctx context.Context, storeID string, asOf time.Time) ([]trend.Drop, error) {
	snap, err := s.store.SnapshotFor(ctx, storeID, "", "", types.BandAll)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	drops := s.detector.DemandDrops(ctx, snap, asOf)
	s.record(ctx, "trend", start, nil)
	return drops, nil
}

// Awards ranks staff across every award category for a date range.
func (s *Service) Awards(ctx context.Context, storeID, from, to string) ([]awards.Award, error) {
	snap, err := s.store.SnapshotFor(ctx, storeID, from, to, types.BandAll)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := s.awarder.Rank(ctx, snap, from, to)
	s.record(ctx, "awards", start, err)
	return out, err
}

// WeeklyReport aggregates per-day rows and week-level roll-ups.
func (s *Service) WeeklyReport(ctx context.Context, storeID, from, to string) (rollup.WeekSummary, error) {
	snap, err := s.store.SnapshotFor(ctx, storeID, from, to, types.BandAll)
	if err != nil {
		return rollup.WeekSummary{}, err
	}

	start := time.Now()
	sum, err := s.rollup.WeekSummary(ctx, snap, from, to)
	s.record(ctx, "rollup", start, err)
	return sum, err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		totalEvents := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["totalEvents"] = totalEvents
		stats["stores"] = s.store.Stores(ctx)

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateEventLogSize(totalEvents)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// observe wraps a scoring call with latency and error metrics.
func (s *Service) observe(ctx context.Context, engine string, fn func() (scoring.Result, error)) (scoring.Result, error) {
	start := time.Now()
	res, err := fn()
	s.record(ctx, engine, start, err)
	return res, err
}

func (s *Service) record(ctx context.Context, engine string, start time.Time, err error) {
	metrics.RecordProjectionLatency(engine, float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordProjectionError(engine)
		s.logger.Warn(ctx, "projection failed",
			logger.String("engine", engine),
			logger.Error(err),
		)
	}
}

// daySums totals sales amount, labor cost and the latest forecast for
// one business date.
func daySums(snap *model.Snapshot, date string) (sales, labor, forecast float64) {
	for _, e := range snap.EventsOn(date, types.BandAll) {
		switch e.Kind {
		case model.KindSales:
			if e.Sales != nil {
				sales += e.Sales.Amount
			}
		case model.KindDelivery:
			if e.Delivery != nil {
				sales += e.Delivery.Amount
			}
		case model.KindLabor:
			if e.Labor != nil {
				labor += e.Labor.Cost
			}
		case model.KindForecast:
			if e.Forecast != nil && e.Forecast.BusinessDate == date {
				forecast = e.Forecast.ForecastSales
			}
		}
	}
	return sales, labor, forecast
}

func dayTypeOfDate(date string) (guardrail.DayType, error) {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return "", scoring.ErrInvalidDate
	}
	return guardrail.DayTypeOf(t), nil
}
