package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RuleRun("emails")
		c.Match("emails", "accepted")
		c.RuleFault("emails")
		c.BudgetExceeded()
		c.Truncated()
		c.ObserveExtraction(time.Millisecond)
		c.Merge(true, 3)
		c.Fetch("ok")
		c.UnitStarted()
		c.UnitDone()
	})
	assert.Nil(t, c.Registry())

	var h http.Handler
	require.NotPanics(t, func() { h = c.Handler() })
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCountersAndHandler(t *testing.T) {
	c := New()
	c.RuleRun("emails")
	c.RuleRun("emails")
	c.Match("emails", "accepted")
	c.Merge(true, 7)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.rulesRun.WithLabelValues("emails")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.matches.WithLabelValues("emails", "accepted")))
	assert.Equal(t, 7.0, testutil.ToFloat64(c.findings))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "leakhound_extractor_rules_run_total"))
}
