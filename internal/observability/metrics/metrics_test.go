package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorRecords(t *testing.T) {
	c := NewCollector()

	before := testutil.ToFloat64(AuthorizationTotal.WithLabelValues("book", "deny"))
	c.RecordAuthorization("book", "deny")
	assert.Equal(t, before+1, testutil.ToFloat64(AuthorizationTotal.WithLabelValues("book", "deny")))

	before = testutil.ToFloat64(ProviderRequestTotal.WithLabelValues("batch-enforce", "ok"))
	c.RecordProviderCall("batch-enforce", "ok", 15*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(ProviderRequestTotal.WithLabelValues("batch-enforce", "ok")))

	before = testutil.ToFloat64(AuthenticationTotal.WithLabelValues("bearer", "false"))
	c.RecordAuthentication("bearer", false)
	assert.Equal(t, before+1, testutil.ToFloat64(AuthenticationTotal.WithLabelValues("bearer", "false")))
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordRequest("GET", "/", 200, time.Millisecond)
		c.RecordBookMutation("create")
	})
}
