package observability

import (
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsConcurrentDecisions(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordDecision("allow")
			m.RecordRequest("/api/me", http.MethodGet, http.StatusOK, 0)
		}()
	}
	wg.Wait()
	m.RecordError("/api/me", http.MethodGet, "UNAUTHORIZED")

	snap := m.Snapshot()
	assert.Equal(t, int64(50), snap.Decisions["allow"])
	assert.Equal(t, int64(50), snap.Requests["/api/me|GET|200"])
	assert.Equal(t, int64(1), snap.Errors["/api/me|GET|UNAUTHORIZED"])

	snap.Decisions["allow"] = 0
	assert.Equal(t, int64(50), m.Snapshot().Decisions["allow"], "snapshot is a copy")
}

func TestNilMetricsIsSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.RecordDecision("deny-401")
	m.RecordRequest("/", http.MethodGet, http.StatusOK, 0)
	m.RecordError("/", http.MethodGet, "X")
	assert.Empty(t, m.Snapshot().Decisions)
}
