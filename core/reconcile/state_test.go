package reconcile

import (
	"context"
	"testing"

	"purchase-reconciler/core/orders"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeedsReconciliation(t *testing.T) {
	tests := []struct {
		name   string
		record LocalOrderRecord
		want   bool
	}{
		{name: "payment without order", record: LocalOrderRecord{PaymentID: "P1"}, want: true},
		{name: "nothing stored", record: LocalOrderRecord{}, want: true},
		{name: "order stored", record: LocalOrderRecord{OrderID: "GPA.1", PaymentID: "P1"}, want: false},
		{name: "order without payment", record: LocalOrderRecord{OrderID: "GPA.1"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NeedsReconciliation(tt.record))
		})
	}
}

func TestNeedsReconciliation_Property(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("depends only on the order id being empty", prop.ForAll(
		func(orderID, paymentID string) bool {
			return NeedsReconciliation(LocalOrderRecord{OrderID: orderID, PaymentID: paymentID}) == (orderID == "")
		},
		gen.AlphaString(),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func TestLoadRecord(t *testing.T) {
	record, err := LoadRecord(context.Background(), orders.StaticStore{Payment: "P1"})
	require.NoError(t, err)
	assert.True(t, NeedsReconciliation(record))
	assert.Equal(t, "P1", record.PaymentID)
}
