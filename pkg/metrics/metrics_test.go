package metrics_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pama-lee/ordo/pkg/executor"
	"github.com/pama-lee/ordo/pkg/metrics"
	"github.com/pama-lee/ordo/pkg/ordoerr"
)

func TestRecordResultSuccessIncrementsExecutionsTotal(t *testing.T) {
	m := metrics.New(metrics.DefaultConfig())
	m.RecordResult(&executor.Result{Code: "VIP", DurationMicros: 1500}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("metrics handler status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `ordo_executions_total{code="VIP"} 1`) {
		t.Fatalf("expected executions_total counter in output:\n%s", rec.Body.String())
	}
}

func TestRecordResultDepthExceeded(t *testing.T) {
	m := metrics.New(metrics.DefaultConfig())
	m.RecordResult(nil, &executor.ExecutionError{Err: &ordoerr.DepthExceeded{MaxDepth: 100}})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "ordo_depth_exceeded_total 1") {
		t.Fatalf("expected depth_exceeded_total counter in output:\n%s", rec.Body.String())
	}
}
