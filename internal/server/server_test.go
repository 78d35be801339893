package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"

	"github.com/goliatone/go-grantforms/internal/metrics"
	"github.com/goliatone/go-grantforms/pkg/orchestrator"
	"github.com/goliatone/go-grantforms/pkg/storage"
	"github.com/goliatone/go-grantforms/pkg/storage/memory"
)

type harness struct {
	t      *testing.T
	srv    *httptest.Server
	client *http.Client
	store  storage.Store
	server *Server
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	store := memory.New()
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	s, err := New(orchestrator.New(), store, opts...)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &harness{t: t, srv: srv, client: client, store: store, server: s}
}

func (h *harness) do(method, path, contentType, body string) (*http.Response, string) {
	h.t.Helper()
	req, err := http.NewRequest(method, h.srv.URL+path, strings.NewReader(body))
	if err != nil {
		h.t.Fatalf("request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		h.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		h.t.Fatalf("read body: %v", err)
	}
	return resp, string(data)
}

func (h *harness) get(path string) (*http.Response, string) {
	return h.do(http.MethodGet, path, "", "")
}

func (h *harness) postForm(path string, values url.Values) (*http.Response, string) {
	return h.do(http.MethodPost, path, "application/x-www-form-urlencoded", values.Encode())
}

func (h *harness) postJSON(path, body string) (*http.Response, string) {
	return h.do(http.MethodPost, path, "application/json", body)
}

func (h *harness) namespace() string {
	h.t.Helper()
	u, _ := url.Parse(h.srv.URL)
	for _, cookie := range h.client.Jar.Cookies(u) {
		if cookie.Name == "grantforms_session" {
			return cookie.Value
		}
	}
	h.t.Fatalf("no session cookie issued")
	return ""
}

func TestHomeListsSchemes(t *testing.T) {
	h := newHarness(t, WithTitle("Energy grants"))
	for _, path := range []string{"/", "/home", "/how-it-works"} {
		resp, body := h.get(path)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s: status %d", path, resp.StatusCode)
		}
		for _, want := range []string{"Energy grants", "/mandatory_form/beas-form"} {
			if !strings.Contains(body, want) {
				t.Fatalf("GET %s: expected %q in body", path, want)
			}
		}
	}
	if resp, _ := h.get("/nowhere"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown route, got %d", resp.StatusCode)
	}
}

func TestBusinessSchemeFlow(t *testing.T) {
	h := newHarness(t)

	resp, body := h.get("/mandatory_form/beas-form")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("form status %d", resp.StatusCode)
	}
	if !strings.Contains(body, "/api/forms/beas-mandatory") {
		t.Fatalf("expected field API base in form page")
	}

	resp, body = h.postForm("/mandatory_form/beas-form", url.Values{
		"companyName":  {"A"},
		"intervention": {"Solar"},
		"officerName":  {"Jane Doe"},
		"postcode":     {"SW1A 1AA"},
		"contact":      {"jane@example.com"},
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for invalid post, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Company name must be at least 2 characters") {
		t.Fatalf("expected inline company error in re-rendered page")
	}

	resp, _ = h.postForm("/mandatory_form/beas-form", url.Values{
		"companyName":   {"Acme Ltd"},
		"intervention":  {"Solar"},
		"officerName":   {"Jane Doe"},
		"postcode":      {"SW1A 1AA"},
		"contact":       {"jane@example.com"},
		"termsAccepted": {"on"},
	})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303 after valid post, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/eligibility_checks/beas-check" {
		t.Fatalf("unexpected redirect %q", loc)
	}

	resp, _ = h.postForm("/eligibility_checks/beas-check", url.Values{
		"premisesTenure":       {"owned"},
		"employeeCount":        {"12"},
		"annualEnergySpend":    {"4000"},
		"energyAudit":          {"No"},
		"installationTimeline": {"asap"},
		"termsAccepted":        {"on"},
	})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303 after eligibility post, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/eligibility_results/beas-result" {
		t.Fatalf("unexpected redirect %q", loc)
	}

	resp, body = h.get("/eligibility_results/beas-result")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("result status %d", resp.StatusCode)
	}
	for _, want := range []string{"Acme Ltd", "Solar Panel Installation", "As soon as possible"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in result page", want)
		}
	}

	raw, ok, err := h.store.Get(context.Background(), h.namespace(), "beas_grants_termsAccepted")
	if err != nil || !ok || raw != "true" {
		t.Fatalf("expected stored consent, got %q ok=%v err=%v", raw, ok, err)
	}
}

func TestPageResetClearsAnswers(t *testing.T) {
	h := newHarness(t)
	h.postForm("/mandatory_form/beas-form", url.Values{"companyName": {"Acme Ltd"}})

	resp, _ := h.postForm("/mandatory_form/beas-form", url.Values{"_action": {"reset"}})
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/mandatory_form/beas-form" {
		t.Fatalf("expected redirect back to the form, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	stored, err := h.store.List(context.Background(), h.namespace(), "beas_grants_")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stored) != 0 {
		t.Fatalf("expected reset to clear answers, got %v", stored)
	}
}

func TestFieldAPI(t *testing.T) {
	h := newHarness(t)

	resp, body := h.postJSON("/api/forms/amw-check/fields/energyUsage", `{"value":"0"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
	var got fieldResult
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := fieldResult{Message: "Please enter a valid energy usage amount"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}

	resp, body = h.postJSON("/api/forms/ppa-check/fields/benefits", `{"option":"Housing Benefit","checked":true}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("toggle status %d: %s", resp.StatusCode, body)
	}
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Valid || got.CanSubmit {
		t.Fatalf("expected valid set without submit, got %+v", got)
	}

	cases := []struct {
		path   string
		body   string
		status int
	}{
		{"/api/forms/amw-check/fields/shoeSize", `{"value":"9"}`, http.StatusNotFound},
		{"/api/forms/amw-check/fields/roofCondition", `{"option":"good","checked":true}`, http.StatusBadRequest},
		{"/api/forms/amw-check/fields/roofSize", `{`, http.StatusBadRequest},
		{"/api/forms/nope/fields/roofSize", `{"value":"1"}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		if resp, body := h.postJSON(tc.path, tc.body); resp.StatusCode != tc.status {
			t.Fatalf("POST %s: want %d, got %d (%s)", tc.path, tc.status, resp.StatusCode, body)
		}
	}
}

func TestStateSubmitAndResetAPI(t *testing.T) {
	h := newHarness(t)

	resp, body := h.postJSON("/api/forms/amw-mandatory/submit", "")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for empty submit, got %d", resp.StatusCode)
	}
	var outcome struct {
		Accepted       bool              `json:"accepted"`
		Next           string            `json:"next"`
		Errors         map[string]string `json:"errors"`
		ConsentMissing bool              `json:"consentMissing"`
	}
	if err := json.Unmarshal([]byte(body), &outcome); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !outcome.ConsentMissing || outcome.Errors["companyName"] != "Company name is required" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}

	resp, body = h.postJSON("/api/forms/amw-mandatory/submit", `{
		"companyName": "Acme Ltd",
		"sector": "Retail",
		"officerName": "Jane Doe",
		"postcode": "SW1A 1AA",
		"contact": "a@b.co",
		"termsAccepted": true
	}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected accepted submit, got %d: %s", resp.StatusCode, body)
	}
	if err := json.Unmarshal([]byte(body), &outcome); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !outcome.Accepted || outcome.Next != "/eligibility_checks/amw-check" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}

	resp, body = h.get("/api/forms/amw-mandatory")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("state status %d", resp.StatusCode)
	}
	var snap struct {
		Values    map[string]any `json:"values"`
		Consent   bool           `json:"consent"`
		CanSubmit bool           `json:"canSubmit"`
	}
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Values["companyName"] != "Acme Ltd" || !snap.Consent || !snap.CanSubmit {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	if resp, _ := h.do(http.MethodDelete, "/api/forms/amw-mandatory", "", ""); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 on reset, got %d", resp.StatusCode)
	}
	stored, _ := h.store.List(context.Background(), h.namespace(), "amw_company_")
	if len(stored) != 0 {
		t.Fatalf("expected cleared storage, got %v", stored)
	}

	if resp, _ := h.postJSON("/api/forms/amw-mandatory/submit", `{"bogus":1}`); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", resp.StatusCode)
	}
}

func TestOpenAPIHealthAndAssets(t *testing.T) {
	h := newHarness(t)

	resp, body := h.get("/openapi.json")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("openapi status %d", resp.StatusCode)
	}
	var doc struct {
		OpenAPI string         `json:"openapi"`
		Paths   map[string]any `json:"paths"`
	}
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		t.Fatalf("decode openapi: %v", err)
	}
	if _, ok := doc.Paths["/api/forms/beas-check/fields/{name}"]; !ok {
		t.Fatalf("expected per-form field path, got %v", doc.Paths)
	}

	if resp, body := h.get("/healthz"); resp.StatusCode != http.StatusOK || !strings.Contains(body, `"ok"`) {
		t.Fatalf("unexpected health response %d %s", resp.StatusCode, body)
	}

	resp, _ = h.get(AssetsPrefix + "grantforms.css")
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/css") {
		t.Fatalf("expected stylesheet, got %d %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New(false)
	h := newHarness(t, WithMetrics(m, "/internal/metrics"))

	h.get("/healthz")
	h.postJSON("/api/forms/amw-check/fields/roofSize", `{"value":"40"}`)

	resp, body := h.get("/internal/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status %d", resp.StatusCode)
	}
	for _, want := range []string{
		`route="GET /healthz"`,
		`route="POST /api/forms/{id}/fields/{name}"`,
		`grantforms_field_validations_total{field="roofSize",form="amw-check",valid="true"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics output", want)
		}
	}
}

type countingPruner struct {
	storage.Store
	calls atomic.Int32
}

func (p *countingPruner) Prune(context.Context, time.Time) (int64, error) {
	p.calls.Add(1)
	return 2, nil
}

func TestServeShutsDownAndPrunes(t *testing.T) {
	store := &countingPruner{Store: memory.New()}
	s, err := New(orchestrator.New(), store,
		WithLogger(zaptest.NewLogger(t)),
		WithPruning(5*time.Millisecond, time.Hour),
	)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Serve(ctx, ln, time.Second)
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status %d", resp.StatusCode)
	}

	deadline := time.Now().Add(2 * time.Second)
	for store.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if store.calls.Load() == 0 {
		t.Fatalf("expected the pruner to run")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("serve did not return after cancel")
	}
}

func TestPruneFeedsMetrics(t *testing.T) {
	m := metrics.New(false)
	store := &countingPruner{Store: memory.New()}
	s, err := New(orchestrator.New(), store, WithMetrics(m, ""), WithPruning(time.Minute, time.Hour))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	s.prune(context.Background(), store)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "grantforms_storage_pruned_entries_total 2") {
		t.Fatalf("expected pruned counter in metrics output")
	}
}

func TestPruneDropsIdleVisitorsFromMemoryStore(t *testing.T) {
	ctx := context.Background()
	written := time.Now().Add(-2 * time.Hour)
	store := memory.New(memory.WithClock(func() time.Time { return written }))
	if err := store.Set(ctx, "idle-visitor", "amw_roofSize", "40"); err != nil {
		t.Fatalf("set: %v", err)
	}

	m := metrics.New(false)
	s, err := New(orchestrator.New(), store, WithMetrics(m, ""), WithPruning(time.Minute, time.Hour))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	s.prune(ctx, store)

	if _, ok, _ := store.Get(ctx, "idle-visitor", "amw_roofSize"); ok {
		t.Fatalf("expected idle visitor to be pruned")
	}
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "grantforms_storage_pruned_entries_total 1") {
		t.Fatalf("expected pruned counter in metrics output")
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(nil, memory.New()); err == nil {
		t.Fatalf("expected error without orchestrator")
	}
	if _, err := New(orchestrator.New(), nil); err == nil {
		t.Fatalf("expected error without store")
	}
}
