package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordBuild(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newMetrics("test", reg)

	m.RecordBuild("docker", "succeeded", 42.0)
	m.RecordBuild("docker", "succeeded", 10.0)
	m.RecordBuild("buildx", "failed", 5.0)

	if got := testutil.ToFloat64(m.BuildsTotal.WithLabelValues("docker", "succeeded")); got != 2 {
		t.Errorf("Expected 2 succeeded docker builds, got %v", got)
	}
	if got := testutil.ToFloat64(m.BuildsTotal.WithLabelValues("buildx", "failed")); got != 1 {
		t.Errorf("Expected 1 failed buildx build, got %v", got)
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newMetrics("test", reg)

	m.RecordHTTPRequest("GET", "/api/v1/builds", "200", 0.01)

	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/builds", "200")); got != 1 {
		t.Errorf("Expected 1 request recorded, got %v", got)
	}
}

func TestGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newMetrics("test", reg)

	m.BuildsInProgress.Inc()
	m.QueueDepth.Set(7)

	if got := testutil.ToFloat64(m.BuildsInProgress); got != 1 {
		t.Errorf("Expected 1 build in progress, got %v", got)
	}
	if got := testutil.ToFloat64(m.QueueDepth); got != 7 {
		t.Errorf("Expected queue depth 7, got %v", got)
	}
}

func TestDefaultNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newMetrics("", reg)

	m.RecordBuild("docker", "succeeded", 1.0)
	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range families {
		if f.GetName() == "image_builder_builds_total" {
			return
		}
	}
	t.Error("Expected metrics under the image_builder namespace")
}
