// Package push delivers purchase updates that the billing provider publishes on
// its own initiative (new or changed purchases outside an explicit query).
//
// NatsFeed subscribes to "<updates_subject>.<account_id>" and hands decoded
// updates to the session's billing.Listener. A dropped NATS connection is
// surfaced to every listener as a service disconnect. DecodeUpdate is shared with
// the HTTP webhook that accepts the same payload.
package push
