package observability_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/facet/pkg/domain"
	"github.com/aretw0/facet/pkg/dsl"
	"github.com/aretw0/facet/pkg/model"
	"github.com/aretw0/facet/pkg/observability"
)

func personModel(t *testing.T, hooks domain.LifecycleHooks) *model.Model {
	t.Helper()
	b := dsl.New("person")
	b.Add("first").AsString().Default("Ada")
	b.Add("full").AsString().Formula("first + '!'")
	m, err := model.New(b.MustBuild(), nil, model.WithLifecycleHooks(hooks))
	require.NoError(t, err)
	return m
}

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	m := personModel(t, metrics.Hooks())
	assert.Zero(t, testutil.CollectAndCount(metrics.Changes), "construction is silent")

	require.NoError(t, m.Set("first", "Grace"))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Changes.WithLabelValues("person", "first")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Changes.WithLabelValues("person", "full")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Commits.WithLabelValues("person", domain.PreviousBranch)))
	assert.Positive(t, testutil.ToFloat64(metrics.Calculations.WithLabelValues("person", "ok")))

	require.True(t, m.Commit(""))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Commits.WithLabelValues("person", domain.DefaultBranch)))

	assert.Equal(t, 1, testutil.CollectAndCount(metrics.Duration))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.Iterations))
}

func TestMetrics_CalculationErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	metrics.Hooks().OnCalculate(&domain.CalculateEvent{
		EventBase: domain.EventBase{Model: "m"},
		Err:       errors.New("boom"),
	})
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Calculations.WithLabelValues("m", "error")))
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	_, err = observability.NewMetrics(reg)
	assert.Error(t, err)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	m := personModel(t, observability.LoggingHooks(logger))
	require.NoError(t, m.Set("first", "Grace"))

	out := buf.String()
	assert.Contains(t, out, `"msg":"attribute_change"`)
	assert.Contains(t, out, `"attribute":"full"`)
	assert.Contains(t, out, `"msg":"attribute_commit"`)
	assert.Contains(t, out, `"msg":"calculate"`)

	buf.Reset()
	observability.LoggingHooks(logger).OnCalculate(&domain.CalculateEvent{Err: errors.New("boom")})
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
}

func TestCombine_MetricsAndLogging(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	m := personModel(t, domain.Combine(metrics.Hooks(), observability.LoggingHooks(logger)))
	require.NoError(t, m.Set("first", "x"))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Changes.WithLabelValues("person", "first")))
	assert.Contains(t, buf.String(), "attribute_change")
}
