package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"purchase-reconciler/core/billing"
	"purchase-reconciler/core/diagnostics"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ackQueue classifies purchases and acknowledges the pending ones. Both the
// query path and the push path submit into the same queue, which sees each
// purchase token at most once for the lifetime of its session.
type ackQueue struct {
	ctx     context.Context
	borrow  func() (billing.Session, bool)
	timeout time.Duration
	limiter *rate.Limiter
	sink    diagnostics.Sink
	logger  *zap.Logger

	mu       sync.Mutex
	index    map[string]int
	outcomes []Outcome
	done     map[string]chan struct{}
}

func newAckQueue(ctx context.Context, borrow func() (billing.Session, bool), timeout time.Duration, limiter *rate.Limiter, sink diagnostics.Sink, logger *zap.Logger) *ackQueue {
	return &ackQueue{
		ctx:     ctx,
		borrow:  borrow,
		timeout: timeout,
		limiter: limiter,
		sink:    sink,
		logger:  logger,
		index:   make(map[string]int),
		done:    make(map[string]chan struct{}),
	}
}

// submit classifies each purchase and starts one acknowledgment per pending
// token not seen before. It returns channels closed when the acknowledgments
// of every token in purchases finish, including those started earlier.
func (q *ackQueue) submit(source Source, purchases []billing.Purchase) []<-chan struct{} {
	return q.submitWith(source, purchases, nil)
}

// submitWith is submit with the reports of this batch also sent to extra.
func (q *ackQueue) submitWith(source Source, purchases []billing.Purchase, extra diagnostics.Sink) []<-chan struct{} {
	sink := diagnostics.Multi{q.sink, extra}
	var started []<-chan struct{}
	for _, p := range purchases {
		if p.PurchaseToken == "" {
			q.logger.Warn("Skipping purchase without token", zap.String("order_id", p.OrderID), zap.String("source", string(source)))
			continue
		}

		done, fresh := q.track(source, p)
		if !fresh {
			if done != nil {
				started = append(started, done)
			}
			q.logger.Debug("Purchase already handled in this session",
				zap.String("order_id", p.OrderID), zap.String("source", string(source)))
			continue
		}

		if p.Acknowledged {
			sink.Report(true, string(StageAcknowledge), "Purchase already acknowledged, Order ID: "+p.OrderID)
			continue
		}

		started = append(started, done)
		go q.acknowledge(p, done, sink)
	}
	return started
}

// track records the first sighting of a token. For a token seen before it
// returns the done channel of its acknowledgment while that is in flight.
func (q *ackQueue) track(source Source, p billing.Purchase) (chan struct{}, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, seen := q.index[p.PurchaseToken]; seen {
		return q.done[p.PurchaseToken], false
	}

	status := StatusPending
	if p.Acknowledged {
		status = StatusAlreadyAcknowledged
	}
	q.index[p.PurchaseToken] = len(q.outcomes)
	q.outcomes = append(q.outcomes, Outcome{
		PurchaseToken: p.PurchaseToken,
		OrderID:       p.OrderID,
		Source:        source,
		Status:        status,
	})

	if p.Acknowledged {
		return nil, true
	}
	done := make(chan struct{})
	q.done[p.PurchaseToken] = done
	return done, true
}

func (q *ackQueue) acknowledge(p billing.Purchase, done chan struct{}, sink diagnostics.Sink) {
	defer close(done)

	if err := q.call(p.PurchaseToken); err != nil {
		rerr := classify(KindAcknowledgment, err)
		rerr.OrderID = p.OrderID
		rerr.Token = p.PurchaseToken
		q.finish(p.PurchaseToken, StatusFailed, rerr)
		q.logger.Warn("Acknowledgment failed", zap.String("order_id", p.OrderID), zap.Error(rerr))
		sink.Report(false, string(StageAcknowledge),
			fmt.Sprintf("Failed to acknowledge purchase, Order ID: %s, response code: %s", p.OrderID, rerr.Code))
		return
	}

	q.finish(p.PurchaseToken, StatusAcknowledged, nil)
	sink.Report(true, string(StageAcknowledge), "Purchase acknowledged successfully, Order ID: "+p.OrderID)
}

func (q *ackQueue) call(token string) error {
	if q.limiter != nil {
		if err := q.limiter.Wait(q.ctx); err != nil {
			return err
		}
	}

	session, ok := q.borrow()
	if !ok {
		return errSessionReplaced
	}

	ctx, cancel := context.WithTimeout(q.ctx, q.timeout)
	defer cancel()
	return session.Acknowledge(ctx, token)
}

func (q *ackQueue) finish(token string, status OutcomeStatus, err *Error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	o := &q.outcomes[q.index[token]]
	o.Status = status
	if err != nil {
		o.Code = err.Code.String()
		o.Error = err.Err.Error()
	}
	delete(q.done, token)
}

// wait blocks until every channel is closed or ctx is done.
func wait(ctx context.Context, pending []<-chan struct{}) error {
	for _, done := range pending {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// drain waits for every acknowledgment still in flight.
func (q *ackQueue) drain(ctx context.Context) error {
	q.mu.Lock()
	pending := make([]<-chan struct{}, 0, len(q.done))
	for _, done := range q.done {
		pending = append(pending, done)
	}
	q.mu.Unlock()
	return wait(ctx, pending)
}

// snapshot returns the outcomes in the order tokens were first seen.
func (q *ackQueue) snapshot() []Outcome {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Outcome, len(q.outcomes))
	copy(out, q.outcomes)
	return out
}
