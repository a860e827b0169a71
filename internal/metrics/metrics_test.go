package metrics_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/serroba/sliding-window/internal/metrics"
	"github.com/serroba/sliding-window/internal/store"
	"github.com/serroba/sliding-window/internal/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenStore struct{}

func (brokenStore) Apply(context.Context, window.Request) (window.Result, error) {
	return window.Result{}, errors.New("connection reset")
}

func request(member int64, mode window.Mode) window.Request {
	return window.Request{
		Key:           "k",
		Now:           10_000,
		WindowLength:  1000,
		ExpireSeconds: 1,
		Threshold:     1,
		Member:        member,
		Mode:          mode,
	}
}

func TestInstrumentedStore(t *testing.T) {
	ctx := context.Background()

	t.Run("counts outcomes per mode", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m, err := metrics.New(reg)
		require.NoError(t, err)

		s := metrics.NewInstrumentedStore(store.NewMemoryWindowStore(), m)

		_, _ = s.Apply(ctx, request(1, window.ModeEvaluate))
		_, _ = s.Apply(ctx, request(2, window.ModeEvaluate))
		_, _ = s.Apply(ctx, request(3, window.ModeCount))

		expected := `
# HELP sliding_window_operations_total Sliding window operations by mode and outcome.
# TYPE sliding_window_operations_total counter
sliding_window_operations_total{mode="count",outcome="counted"} 1
sliding_window_operations_total{mode="evaluate",outcome="allowed"} 1
sliding_window_operations_total{mode="evaluate",outcome="exceeded"} 1
`
		err = testutil.GatherAndCompare(reg, strings.NewReader(expected), "sliding_window_operations_total")
		require.NoError(t, err)

		series, err := testutil.GatherAndCount(reg, "sliding_window_operation_duration_seconds")
		require.NoError(t, err)
		assert.Equal(t, 2, series)
	})

	t.Run("counts store errors and passes them on", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m, err := metrics.New(reg)
		require.NoError(t, err)

		s := metrics.NewInstrumentedStore(brokenStore{}, m)

		_, err = s.Apply(ctx, request(1, window.ModeEvaluateAndCleanup))

		require.EqualError(t, err, "connection reset")

		expected := `
# HELP sliding_window_operations_total Sliding window operations by mode and outcome.
# TYPE sliding_window_operations_total counter
sliding_window_operations_total{mode="cleanup",outcome="error"} 1
`
		err = testutil.GatherAndCompare(reg, strings.NewReader(expected), "sliding_window_operations_total")
		require.NoError(t, err)
	})

	t.Run("refuses double registration", func(t *testing.T) {
		reg := prometheus.NewRegistry()

		_, err := metrics.New(reg)
		require.NoError(t, err)

		_, err = metrics.New(reg)
		assert.Error(t, err)
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	_, _ = metrics.NewInstrumentedStore(store.NewMemoryWindowStore(), m).
		Apply(context.Background(), request(1, window.ModeCount))

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `sliding_window_operations_total{mode="count",outcome="counted"} 1`)
}
