package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_ObserveStatement(t *testing.T) {
	c := New(nil)

	c.ObserveStatement("insert", nil, 5*time.Millisecond)
	c.ObserveStatement("insert", nil, time.Millisecond)
	c.ObserveStatement("insert", errors.New("boom"), time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Statements.WithLabelValues("insert", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Statements.WithLabelValues("insert", OutcomeError)))
	assert.Equal(t, 1, testutil.CollectAndCount(c.Duration))
}

func TestCollector_AddRows(t *testing.T) {
	c := New(nil)
	c.AddRows("find", 3)
	c.AddRows("find", 0)
	c.AddRows("find", 2)

	assert.Equal(t, 5.0, testutil.ToFloat64(c.Rows.WithLabelValues("find")))
}

func TestCollector_Registered(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)
	c.ObserveStatement("delete", nil, time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "nosqlite_statements_total")
	assert.Contains(t, names, "nosqlite_statement_duration_seconds")
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveStatement("insert", nil, time.Millisecond)
		c.AddRows("find", 10)
	})
}
