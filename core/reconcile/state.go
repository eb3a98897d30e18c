package reconcile

import (
	"context"

	"purchase-reconciler/core/orders"
)

// NeedsReconciliation reports whether the local record lacks an order id.
// A missing order id means a payment was started but its completion was
// never stored, so the provider may hold an unacknowledged purchase.
func NeedsReconciliation(record LocalOrderRecord) bool {
	return record.OrderID == ""
}

// LoadRecord reads the local record from the store.
func LoadRecord(ctx context.Context, store orders.Store) (LocalOrderRecord, error) {
	return orders.Load(ctx, store)
}
