// Package orders reads the order and payment identifiers that the host
// application persists when a purchase completes.
//
// The table is owned by the host; this package never writes to it. A row with a
// payment id but no order id is the trace of a purchase that was paid for but
// never confirmed locally, which is what triggers reconciliation.
package orders
