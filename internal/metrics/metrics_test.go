package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()
	m.EntryOp("add", nil)
	m.EntryOp("add", nil)
	m.EntryOp("add", errors.New("boom"))
	m.Rollover()
	m.Degraded("history")
	m.Lookup("search", nil)

	if got := testutil.ToFloat64(m.entryOps.WithLabelValues("add", "ok")); got != 2 {
		t.Errorf("entry_ops_total{add,ok} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.entryOps.WithLabelValues("add", "error")); got != 1 {
		t.Errorf("entry_ops_total{add,error} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.rollovers); got != 1 {
		t.Errorf("rollovers_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.degraded.WithLabelValues("history")); got != 1 {
		t.Errorf("storage_degraded_total{history} = %v, want 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.EntryOp("add", nil)
	m.Rollover()
	m.Degraded("live")
	m.Lookup("barcode", nil)
}

func TestHandler(t *testing.T) {
	m := New()
	m.Rollover()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "macrolog_rollovers_total 1") {
		t.Errorf("metrics output missing rollover counter:\n%s", body)
	}
}
