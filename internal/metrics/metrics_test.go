package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/goliatone/go-grantforms/pkg/formstate"
	"github.com/goliatone/go-grantforms/pkg/model"
	"github.com/goliatone/go-grantforms/pkg/validation"
)

func TestObserverCounts(t *testing.T) {
	m := New(false)
	form := model.FormModel{ID: "amw-check"}
	field := model.Field{Name: "roofSize"}

	m.FieldValidated(form, field, validation.Pass)
	m.FieldValidated(form, field, validation.Fail("Please enter a valid roof size"))
	m.FieldValidated(form, field, validation.Pass)
	m.Submitted(form, formstate.Outcome{ConsentMissing: true})
	m.Submitted(form, formstate.Outcome{Errors: map[string]string{"roofSize": "x"}, ConsentMissing: true})
	m.Submitted(form, formstate.Outcome{Accepted: true})
	m.Pruned(3)
	m.Pruned(0)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"valid", testutil.ToFloat64(m.validations.WithLabelValues("amw-check", "roofSize", "true")), 2},
		{"invalid", testutil.ToFloat64(m.validations.WithLabelValues("amw-check", "roofSize", "false")), 1},
		{"consent", testutil.ToFloat64(m.submissions.WithLabelValues("amw-check", "consent_missing")), 1},
		{"rejected", testutil.ToFloat64(m.submissions.WithLabelValues("amw-check", "rejected")), 1},
		{"accepted", testutil.ToFloat64(m.submissions.WithLabelValues("amw-check", "accepted")), 1},
		{"pruned", testutil.ToFloat64(m.pruned), 3},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Fatalf("%s: want %v, got %v", c.name, c.want, c.got)
		}
	}
}

func TestHandlerExposesHistogram(t *testing.T) {
	m := New(true)
	m.ObserveRequest("GET /healthz", http.MethodGet, http.StatusOK, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	text := string(body)
	for _, want := range []string{
		`grantforms_http_request_duration_seconds_count{method="GET",route="GET /healthz",status="200"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in exposition", want)
		}
	}
}
