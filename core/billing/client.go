package billing

import "context"

// Listener receives events the provider pushes for an open session.
// Either callback may be nil.
type Listener struct {
	// OnPurchasesUpdated is called when the provider reports new or changed purchases
	// outside of an explicit query.
	OnPurchasesUpdated func(result Result, purchases []Purchase)
	// OnDisconnected is called when the provider drops the session.
	OnDisconnected func()
}

// PurchasesUpdated invokes OnPurchasesUpdated if set.
func (l Listener) PurchasesUpdated(result Result, purchases []Purchase) {
	if l.OnPurchasesUpdated != nil {
		l.OnPurchasesUpdated(result, purchases)
	}
}

// Disconnected invokes OnDisconnected if set.
func (l Listener) Disconnected() {
	if l.OnDisconnected != nil {
		l.OnDisconnected()
	}
}

// Client opens sessions with the billing provider.
type Client interface {
	// Connect performs the setup handshake and returns a ready session.
	// ctx bounds the handshake only; the listener stays registered until the
	// session is closed. A non-success setup returns a *ResponseError.
	Connect(ctx context.Context, listener Listener) (Session, error)
}

// Session is an open connection with the billing provider.
type Session interface {
	// QueryPurchases returns a snapshot of every purchase of the given type owned
	// by the authenticated account.
	QueryPurchases(ctx context.Context, productType ProductType) ([]Purchase, error)
	// Acknowledge confirms receipt of the purchase identified by the token.
	Acknowledge(ctx context.Context, purchaseToken string) error
	// Close releases the session and unregisters its listener.
	Close() error
}
