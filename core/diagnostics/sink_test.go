package diagnostics

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapSink(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sink := NewZapSink(zap.New(core))

	sink.Report(true, "reconcile", "Found 2 purchases")
	sink.Report(false, "reconcile", "connection failed")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "Found 2 purchases", entries[0].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "reconcile", entries[1].ContextMap()["tag"])
}

func TestMetricsSink(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	sink, err := NewMetricsSink(provider.Meter("test"))
	require.NoError(t, err)

	sink.Report(true, "reconcile", "a")
	sink.Report(true, "reconcile", "b")
	sink.Report(false, "reconcile", "c")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)

	m := rm.ScopeMetrics[0].Metrics[0]
	assert.Equal(t, "reconcile.reports", m.Name)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	counts := map[bool]int64{}
	for _, dp := range sum.DataPoints {
		v, found := dp.Attributes.Value(attribute.Key("success"))
		require.True(t, found)
		counts[v.AsBool()] += dp.Value
	}
	assert.Equal(t, int64(2), counts[true])
	assert.Equal(t, int64(1), counts[false])
}

func TestRecorder_Concurrent(t *testing.T) {
	rec := NewRecorder()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec.Report(i%2 == 0, "t", "m")
		}(i)
	}
	wg.Wait()

	assert.Len(t, rec.Entries(), 50)
	assert.Len(t, rec.Failures(), 25)
}

func TestMulti(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	Multi{a, nil, b, Nop{}}.Report(false, "tag", "msg")

	assert.Len(t, a.Entries(), 1)
	assert.Equal(t, "msg", b.Entries()[0].Message)
}
