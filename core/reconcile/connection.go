package reconcile

import (
	"context"
	"sync"
	"time"

	"purchase-reconciler/core/billing"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// connection owns the provider session. Every state transition happens under mu.
// generation increments on each connect and close so callbacks from an older
// session can be told apart from the current one.
type connection struct {
	client billing.Client
	logger *zap.Logger

	timeout        time.Duration
	retries        int
	backoffInitial time.Duration
	backoffMax     time.Duration

	mu         sync.Mutex
	state      State
	session    billing.Session
	generation uint64
}

func newConnection(client billing.Client, cfg Config, logger *zap.Logger) *connection {
	return &connection{
		client:         client,
		logger:         logger,
		timeout:        cfg.connectTimeout(),
		retries:        cfg.ConnectRetries,
		backoffInitial: cfg.backoffInitial(),
		backoffMax:     cfg.backoffMax(),
		state:          StateDisconnected,
	}
}

// State returns the current connection state.
func (c *connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// connect closes any open session and performs a new setup handshake.
// listener is built with the generation of the new session before the
// handshake starts.
func (c *connection) connect(ctx context.Context, listener func(gen uint64) billing.Listener) (billing.Session, error) {
	c.mu.Lock()
	if c.state == StateConnecting {
		c.mu.Unlock()
		return nil, ErrConnectInProgress
	}
	stale := c.detachLocked()
	c.generation++
	gen := c.generation
	c.state = StateConnecting
	c.mu.Unlock()
	c.closeSession(stale)

	session, err := c.handshake(ctx, listener(gen))

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.closeSession(session)
		return nil, errSessionReplaced
	}
	defer c.mu.Unlock()
	if err != nil {
		c.state = StateFailed
		return nil, err
	}
	c.session = session
	c.state = StateReady
	return session, nil
}

func (c *connection) handshake(ctx context.Context, listener billing.Listener) (billing.Session, error) {
	attempt := func() (billing.Session, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		return c.client.Connect(attemptCtx, listener)
	}

	if c.retries <= 0 {
		return attempt()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.backoffInitial
	b.MaxInterval = c.backoffMax

	return backoff.Retry(ctx, func() (billing.Session, error) {
		session, err := attempt()
		if err != nil && ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return session, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(c.retries+1)),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Warn("Billing setup attempt failed, retrying", zap.Error(err), zap.Duration("backoff", next))
		}),
	)
}

// borrow returns the session of generation gen while it is ready.
func (c *connection) borrow(gen uint64) (billing.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation || c.state != StateReady {
		return nil, false
	}
	return c.session, true
}

// disconnected moves a ready session of generation gen to Disconnected.
// It reports false when the event belongs to an older or already dropped session.
func (c *connection) disconnected(gen uint64) bool {
	c.mu.Lock()
	if gen != c.generation || c.state != StateReady {
		c.mu.Unlock()
		return false
	}
	session := c.detachLocked()
	c.state = StateDisconnected
	c.mu.Unlock()

	c.closeSession(session)
	return true
}

// close drops the current session, if any.
func (c *connection) close() {
	c.mu.Lock()
	session := c.detachLocked()
	c.generation++
	c.state = StateDisconnected
	c.mu.Unlock()

	c.closeSession(session)
}

func (c *connection) detachLocked() billing.Session {
	session := c.session
	c.session = nil
	return session
}

func (c *connection) closeSession(session billing.Session) {
	if session == nil {
		return
	}
	if err := session.Close(); err != nil {
		c.logger.Debug("Failed to close billing session", zap.Error(err))
	}
}
