package prometheus

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/halcyonlabs/authcore"
)

type fakeSource struct {
	snapshot authcore.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() authcore.MetricsSnapshot { return f.snapshot }
func (f *fakeSource) AuditDropped() uint64                      { return f.dropped }

func scrape(t *testing.T, e *Exporter) string {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	e.Handler().ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("scrape status = %d", rec.Code)
	}
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("reading scrape body: %v", err)
	}
	return string(body)
}

func TestExporterExposesCounters(t *testing.T) {
	source := &fakeSource{
		snapshot: authcore.MetricsSnapshot{
			Counters: map[authcore.MetricID]uint64{
				authcore.MetricSessionCreated: 3,
				authcore.MetricRefreshShared:  7,
			},
			Histograms: map[authcore.MetricID][]uint64{},
		},
		dropped: 2,
	}

	body := scrape(t, NewExporterFromSource(source))

	for _, want := range []string{
		"authcore_sessions_created_total 3",
		"authcore_refresh_shared_total 7",
		"authcore_audit_dropped_total 2",
		"authcore_sessions_invalidated_total 0",
		"authcore_logouts_total 0",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("scrape missing %q\n%s", want, body)
		}
	}
}

func TestExporterExposesLatencyHistogram(t *testing.T) {
	source := &fakeSource{
		snapshot: authcore.MetricsSnapshot{
			Counters: map[authcore.MetricID]uint64{},
			Histograms: map[authcore.MetricID][]uint64{
				authcore.MetricSessionReadLatency: {5, 2, 0, 0, 0, 0, 1, 1},
			},
		},
	}

	body := scrape(t, NewExporterFromSource(source))

	for _, want := range []string{
		`authcore_session_read_seconds_bucket{le="0.005"} 5`,
		`authcore_session_read_seconds_bucket{le="0.01"} 7`,
		`authcore_session_read_seconds_bucket{le="+Inf"} 9`,
		"authcore_session_read_seconds_count 9",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("scrape missing %q\n%s", want, body)
		}
	}
}

func TestExporterAgainstLiveEngine(t *testing.T) {
	engine, err := authcore.New().Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	ctx := context.Background()
	if _, err := engine.CreateSession(ctx, "tok", authcore.User{ID: "u1"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	engine.ClearSession(ctx)

	body := scrape(t, NewExporter(engine))

	if !strings.Contains(body, "authcore_sessions_created_total 1") {
		t.Fatalf("expected one created session in scrape\n%s", body)
	}
	if !strings.Contains(body, "authcore_logouts_total 1") {
		t.Fatalf("expected one logout in scrape\n%s", body)
	}
}
