package push

import (
	"fmt"
	"sync"

	"purchase-reconciler/core/billing"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Feed delivers provider-pushed purchase updates for an account.
type Feed interface {
	// Subscribe registers the listener for the account's updates.
	// The returned cancel func unregisters it.
	Subscribe(account string, listener billing.Listener) (cancel func(), err error)
}

// NopFeed is used when no push transport is configured.
type NopFeed struct{}

// Subscribe registers nothing.
func (NopFeed) Subscribe(string, billing.Listener) (func(), error) {
	return func() {}, nil
}

// NatsFeed receives purchase updates published on "<prefix>.<account>".
type NatsFeed struct {
	conn   *nats.Conn
	prefix string
	logger *zap.Logger

	mu        sync.Mutex
	nextID    uint64
	listeners map[uint64]billing.Listener
}

// NewNatsFeed creates a feed that is not yet connected; use Connect or Dial.
func NewNatsFeed(prefix string, logger *zap.Logger) *NatsFeed {
	return &NatsFeed{
		prefix:    prefix,
		logger:    logger,
		listeners: make(map[uint64]billing.Listener),
	}
}

// Dial connects a new feed to the NATS server configured for the provider.
func Dial(cfg billing.Config, logger *zap.Logger) (*NatsFeed, error) {
	f := NewNatsFeed(cfg.UpdatesSubject, logger)

	conn, err := nats.Connect(cfg.NatsURL,
		nats.Name("purchase-reconciler"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			f.logger.Warn("Purchase update feed disconnected", zap.Error(err))
			f.notifyDisconnected()
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			f.logger.Info("Purchase update feed reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	f.conn = conn

	return f, nil
}

// Subject returns the subject carrying the account's updates.
func (f *NatsFeed) Subject(account string) string {
	return f.prefix + "." + account
}

// Subscribe implements Feed.
func (f *NatsFeed) Subscribe(account string, listener billing.Listener) (func(), error) {
	if f.conn == nil {
		return nil, fmt.Errorf("purchase update feed is not connected")
	}

	id := f.register(listener)
	sub, err := f.conn.Subscribe(f.Subject(account), func(msg *nats.Msg) {
		f.deliver(listener, msg)
	})
	if err != nil {
		f.unregister(id)
		return nil, fmt.Errorf("failed to subscribe to %s: %w", f.Subject(account), err)
	}

	f.logger.Debug("Subscribed to purchase updates", zap.String("subject", sub.Subject))

	return func() {
		if err := sub.Unsubscribe(); err != nil {
			f.logger.Debug("Unsubscribe failed", zap.Error(err))
		}
		f.unregister(id)
	}, nil
}

// Close drains the NATS connection.
func (f *NatsFeed) Close() error {
	if f.conn == nil {
		return nil
	}
	return f.conn.Drain()
}

func (f *NatsFeed) deliver(listener billing.Listener, msg *nats.Msg) {
	result, purchases, err := DecodeUpdate(msg.Data)
	if err != nil {
		f.logger.Warn("Dropping malformed purchase update", zap.String("subject", msg.Subject), zap.Error(err))
		return
	}
	listener.PurchasesUpdated(result, purchases)
}

func (f *NatsFeed) register(listener billing.Listener) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.listeners[f.nextID] = listener
	return f.nextID
}

func (f *NatsFeed) unregister(id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.listeners, id)
}

func (f *NatsFeed) notifyDisconnected() {
	f.mu.Lock()
	listeners := make([]billing.Listener, 0, len(f.listeners))
	for _, l := range f.listeners {
		listeners = append(listeners, l)
	}
	f.mu.Unlock()

	for _, l := range listeners {
		l.Disconnected()
	}
}
