// Package reconcile verifies that every completed purchase of the current user
// has been acknowledged with the billing provider.
//
// A run moves through four stages:
//
//  1. State check: the local order record is read; a run only proceeds when
//     no order id was stored for the pending payment.
//  2. Connect: the connection manager opens a provider session and registers a
//     listener for pushed purchase updates.
//  3. Query: one snapshot of the user's purchases is fetched.
//  4. Acknowledge: each purchase is classified; pending ones get exactly one
//     acknowledgment call, concurrently and independently of each other.
//
// Pushed updates enter stage 4 directly and share its queue with the query
// result, so a token is acknowledged at most once per session.
//
// Provider failures never surface as errors. They are reported through a
// diagnostics.Sink and recorded in the RunReport; the next run is the retry.
//
// # Usage
//
//	engine := reconcile.NewEngine(store, client, sink, logger, cfg.Reconcile)
//	report, err := engine.Run(ctx)
package reconcile
