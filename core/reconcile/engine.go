package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"purchase-reconciler/core/billing"
	"purchase-reconciler/core/diagnostics"
	"purchase-reconciler/core/orders"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Archiver persists finished run reports.
type Archiver interface {
	Archive(ctx context.Context, report *RunReport) error
}

// Engine reconciles the current user's purchases with the billing provider.
// Runs are serialized: concurrent callers of Run share the run in flight.
// The session opened by a run stays open afterwards so pushed updates keep
// being acknowledged, until the next run replaces it or Close is called.
type Engine struct {
	store  orders.Store
	sink   diagnostics.Sink
	logger *zap.Logger
	cfg    Config

	conn    *connection
	limiter *rate.Limiter
	sf      singleflight.Group

	mu       sync.Mutex
	current  *activeSession
	closed   bool
	last     *RunReport
	archiver Archiver
}

// activeSession is the engine side of one provider session.
type activeSession struct {
	gen    uint64
	queue  *ackQueue
	cancel context.CancelFunc
	logger *zap.Logger
}

// NewEngine creates an engine. sink may be nil.
func NewEngine(store orders.Store, client billing.Client, sink diagnostics.Sink, logger *zap.Logger, cfg Config) *Engine {
	if sink == nil {
		sink = diagnostics.Nop{}
	}
	return &Engine{
		store:   store,
		sink:    sink,
		logger:  logger,
		cfg:     cfg,
		conn:    newConnection(client, cfg, logger),
		limiter: cfg.limiter(),
	}
}

// SetArchiver sets where finished reports are stored.
func (e *Engine) SetArchiver(a Archiver) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.archiver = a
}

// State returns the provider connection state.
func (e *Engine) State() State {
	return e.conn.State()
}

// LastReport returns the most recent finished report, or nil.
func (e *Engine) LastReport() *RunReport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// Run performs one reconciliation pass. Provider failures are reported and
// recorded in the returned report; an error is returned only when the local
// record cannot be read or ctx ends. The run itself is not bound to ctx: a
// caller that stops waiting leaves it to finish under the engine's timeouts
// for callers that joined it.
func (e *Engine) Run(ctx context.Context) (*RunReport, error) {
	runCtx := context.WithoutCancel(ctx)
	ch := e.sf.DoChan("run", func() (any, error) {
		return e.run(runCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			e.logger.Debug("Joined reconciliation run in flight")
		}
		return res.Val.(*RunReport), nil
	case <-ctx.Done():
		e.logger.Debug("Stopped waiting for reconciliation run", zap.Error(ctx.Err()))
		return nil, ctx.Err()
	}
}

func (e *Engine) run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{
		RunID:     uuid.NewString(),
		Stage:     StageStateCheck,
		Outcomes:  []Outcome{},
		StartedAt: time.Now().UTC(),
	}

	record, err := LoadRecord(ctx, e.store)
	if err != nil {
		return nil, fmt.Errorf("failed to load local order record: %w", err)
	}
	report.PaymentID = record.PaymentID
	report.OrderID = record.OrderID

	log := e.logger.With(zap.String("run_id", report.RunID), zap.String("payment_id", record.PaymentID))
	rec := diagnostics.NewRecorder()
	sink := diagnostics.Multi{e.sink, rec}

	if !NeedsReconciliation(record) {
		report.Skipped = true
		log.Info("Local order present, skipping reconciliation", zap.String("order_id", record.OrderID))
		sink.Report(true, string(StageStateCheck), "Local order present, Order ID: "+record.OrderID)
		return e.finish(ctx, log, report, rec), nil
	}

	log.Info("Local order missing, reconciling purchases")

	report.Stage = StageConnect
	s, provider, err := e.open(ctx, log)
	if errors.Is(err, ErrClosed) {
		return nil, err
	}
	if err != nil {
		rerr := classify(KindConnection, err)
		log.Warn("Billing setup failed", zap.Error(rerr))
		sink.Report(false, string(StageConnect), fmt.Sprintf("Billing setup failed, response code: %s", rerr.Code))
		report.fail(rerr)
		return e.finish(ctx, log, report, rec), nil
	}
	sink.Report(true, string(StageConnect), "Billing setup finished successfully")

	report.Stage = StageQuery
	purchases, err := e.query(ctx, provider)
	if err != nil {
		rerr := classify(KindQuery, err)
		log.Warn("Purchase query failed", zap.Error(rerr))
		sink.Report(false, string(StageQuery), fmt.Sprintf("Failed to query purchases, response code: %s", rerr.Code))
		report.fail(rerr)
		report.Outcomes = s.queue.snapshot()
		return e.finish(ctx, log, report, rec), nil
	}
	sink.Report(true, string(StageQuery), fmt.Sprintf("Found %d purchases", len(purchases)))
	report.Purchases = len(purchases)

	report.Stage = StageAcknowledge
	if err := wait(ctx, s.queue.submitWith(SourceQuery, purchases, rec)); err != nil {
		return nil, err
	}
	report.Outcomes = s.queue.snapshot()

	return e.finish(ctx, log, report, rec), nil
}

// open replaces the current session with a new one.
func (e *Engine) open(ctx context.Context, log *zap.Logger) (*activeSession, billing.Session, error) {
	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &activeSession{cancel: cancel, logger: log}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		cancel()
		return nil, nil, ErrClosed
	}
	previous := e.current
	e.current = nil
	e.mu.Unlock()
	if previous != nil {
		previous.cancel()
	}

	provider, err := e.conn.connect(ctx, func(gen uint64) billing.Listener {
		s.gen = gen
		s.queue = newAckQueue(sessionCtx, func() (billing.Session, bool) {
			return e.conn.borrow(gen)
		}, e.cfg.ackTimeout(), e.limiter, e.sink, log)
		return e.listener(s)
	})
	if err != nil {
		cancel()
		return nil, nil, err
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		cancel()
		e.conn.close()
		return nil, nil, ErrClosed
	}
	e.current = s
	e.mu.Unlock()
	return s, provider, nil
}

// listener routes provider events of session s. Updates are only accepted
// while s is the ready session.
func (e *Engine) listener(s *activeSession) billing.Listener {
	return billing.Listener{
		OnPurchasesUpdated: func(result billing.Result, purchases []billing.Purchase) {
			if !result.OK() || purchases == nil {
				s.logger.Debug("Ignoring purchase update", zap.Stringer("code", result.Code))
				return
			}
			if _, ready := e.conn.borrow(s.gen); !ready {
				s.logger.Warn("Dropping purchase update, session not ready",
					zap.String("state", string(e.conn.State())), zap.Int("purchases", len(purchases)))
				return
			}
			s.queue.submit(SourcePush, purchases)
		},
		OnDisconnected: func() {
			if e.conn.disconnected(s.gen) {
				s.logger.Warn("Billing service disconnected")
				e.sink.Report(false, string(StageConnect), "Billing service disconnected")
			}
		},
	}
}

func (e *Engine) query(ctx context.Context, provider billing.Session) ([]billing.Purchase, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.queryTimeout())
	defer cancel()
	return provider.QueryPurchases(ctx, e.cfg.productType())
}

// HandlePurchasesUpdated feeds an update received out of band, e.g. through a
// webhook, into the ready session. It returns ErrNotReady without one.
func (e *Engine) HandlePurchasesUpdated(result billing.Result, purchases []billing.Purchase) error {
	e.mu.Lock()
	s := e.current
	e.mu.Unlock()

	if s == nil {
		return ErrNotReady
	}
	if _, ready := e.conn.borrow(s.gen); !ready {
		return ErrNotReady
	}
	e.listener(s).PurchasesUpdated(result, purchases)
	return nil
}

// Drain waits until the acknowledgments of the current session finish.
func (e *Engine) Drain(ctx context.Context) error {
	e.mu.Lock()
	s := e.current
	e.mu.Unlock()
	if s == nil {
		return nil
	}
	return s.queue.drain(ctx)
}

// Close drops the provider session and stops its acknowledgments. Runs
// started or still connecting afterwards end with ErrClosed.
func (e *Engine) Close() {
	e.mu.Lock()
	s := e.current
	e.current = nil
	e.closed = true
	e.mu.Unlock()

	if s != nil {
		s.cancel()
	}
	e.conn.close()
}

func (e *Engine) finish(ctx context.Context, log *zap.Logger, report *RunReport, rec *diagnostics.Recorder) *RunReport {
	report.Summary = summarize(report.Outcomes)
	report.Diagnostics = rec.Entries()
	report.FinishedAt = time.Now().UTC()

	e.mu.Lock()
	e.last = report
	archiver := e.archiver
	e.mu.Unlock()

	log.Info("Reconciliation run finished",
		zap.String("stage", string(report.Stage)),
		zap.Bool("skipped", report.Skipped),
		zap.Int("purchases", report.Purchases),
		zap.Int("acknowledged", report.Summary.Acknowledged),
		zap.Int("failed", report.Summary.Failed),
	)

	if archiver != nil {
		if err := archiver.Archive(ctx, report); err != nil {
			log.Error("Failed to archive run report", zap.Error(err))
		}
	}
	return report
}

func (r *RunReport) fail(err *Error) {
	r.Error = err.Error()
	r.Code = err.Code.String()
}
