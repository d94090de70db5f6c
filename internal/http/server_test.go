package http

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finplan/internal/baseline"
	"finplan/internal/core"
	applog "finplan/internal/log"
	"finplan/internal/middleware/ratelimit"
	"finplan/internal/services"
	"finplan/internal/store/memory"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	planner := services.NewPlanningService(memory.New(),
		services.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	logger := applog.New(applog.Config{Level: slog.LevelError, Output: io.Discard})
	base := []Option{WithDefaultYear(baseline.PlanYear), WithLogger(logger)}
	srv := NewServer(":0", planner, append(base, opts...)...)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestProfitAndLossEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/api/pl?year=2026", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing request id header")
	}
	pl := decodeBody[core.ProfitAndLoss](t, rr)
	if pl.Year != 2026 || len(pl.Rows) != 12 {
		t.Fatalf("unexpected P&L %d with %d rows", pl.Year, len(pl.Rows))
	}
	if !pl.Totals.WholesaleRevenue.Equal(dec("288000")) {
		t.Fatalf("wholesale total = %s", pl.Totals.WholesaleRevenue)
	}

	tests := []struct {
		name string
		path string
		want int
	}{
		{name: "default year", path: "/api/pl", want: http.StatusOK},
		{name: "bad year", path: "/api/pl?year=abc", want: http.StatusBadRequest},
		{name: "bad discount", path: "/api/pl?discount=150", want: http.StatusBadRequest},
		{name: "years", path: "/api/pl/years?count=3", want: http.StatusOK},
		{name: "too many years", path: "/api/pl/years?count=50", want: http.StatusBadRequest},
		{name: "runway", path: "/api/runway?cash=100000", want: http.StatusOK},
		{name: "bad cash", path: "/api/runway?cash=lots", want: http.StatusBadRequest},
		{name: "breakdown", path: "/api/breakdown", want: http.StatusOK},
		{name: "baseline", path: "/api/baseline", want: http.StatusOK},
		{name: "actuals", path: "/api/actuals", want: http.StatusOK},
		{name: "status", path: "/api/status", want: http.StatusOK},
		{name: "unknown deal", path: "/api/deals/missing/metrics", want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodGet, tt.path, "")
			if rr.Code != tt.want {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestDealMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	deal := baseline.Wholesale()[0]

	rr := do(t, srv, http.MethodGet, "/api/deals/"+deal.ID+"/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	got := decodeBody[struct {
		Deal    core.WholesaleDeal `json:"deal"`
		Metrics core.DealMetrics   `json:"metrics"`
	}](t, rr)
	if got.Deal.CustomerName != deal.CustomerName {
		t.Fatalf("got deal %q", got.Deal.CustomerName)
	}
}

func TestCreateRecords(t *testing.T) {
	srv := newTestServer(t)

	var dup core.TeamMember
	for _, m := range baseline.Team() {
		if !m.StartDate.IsEmpty() {
			dup = m
			break
		}
	}
	dup.Meta = core.Meta{}
	dupBody, err := json.Marshal(dup)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{
			name: "team member",
			path: "/api/team",
			body: `{"first_name":"Dana","last_name":"Reyes","department":"Operations","employment_type":"Contractor (1099)","annual_salary":"48000","start_date":"2026-07-01"}`,
			want: http.StatusCreated,
		},
		{
			name: "baseline duplicate",
			path: "/api/team",
			body: string(dupBody),
			want: http.StatusConflict,
		},
		{
			name: "invalid enum",
			path: "/api/team",
			body: `{"first_name":"Lee","last_name":"Park","department":"Legal","employment_type":"Part-Time","annual_salary":"1000"}`,
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "unknown field",
			path: "/api/opex",
			body: `{"expense_name":"CRM","colour":"red"}`,
			want: http.StatusBadRequest,
		},
		{
			name: "empty body",
			path: "/api/opex",
			want: http.StatusBadRequest,
		},
		{
			name: "opex",
			path: "/api/opex",
			body: `{"expense_name":"CRM","category":"Software","frequency":"Monthly","monthly_amount":"250"}`,
			want: http.StatusCreated,
		},
		{
			name: "wholesale",
			path: "/api/wholesale",
			body: `{"customer_name":"Corner Shop","product_type":"Beta","order_type":"In-Line","num_pairs":40,"wholesale_price":"55","close_date":"2026-03-10","delivery_date":"2026-05-01"}`,
			want: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, tt.path, tt.body)
			if rr.Code != tt.want {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tt.want, rr.Body.String())
			}
		})
	}

	rr := do(t, srv, http.MethodGet, "/api/team", "")
	list := decodeBody[listResponse[core.TeamMember]](t, rr)
	if list.Count != len(baseline.Team())+1 {
		t.Fatalf("team count = %d", list.Count)
	}
}

func TestClearCustom(t *testing.T) {
	srv := newTestServer(t)
	body := `{"expense_name":"CRM","category":"Software","frequency":"Monthly","monthly_amount":"250"}`
	if rr := do(t, srv, http.MethodPost, "/api/opex", body); rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d", rr.Code)
	}

	rr := do(t, srv, http.MethodDelete, "/api/opex/custom", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	got := decodeBody[struct {
		Removed int `json:"removed"`
	}](t, rr)
	if got.Removed != 1 {
		t.Fatalf("removed = %d", got.Removed)
	}

	if rr := do(t, srv, http.MethodDelete, "/api/invoices/custom", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown kind status=%d", rr.Code)
	}
}

func TestAssumptionsRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/api/assumptions", "")
	a := decodeBody[core.Assumptions](t, rr)
	a.DTCDiscountRate = dec("0.05")
	payload, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if rr := do(t, srv, http.MethodPut, "/api/assumptions", string(payload)); rr.Code != http.StatusOK {
		t.Fatalf("put status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodGet, "/api/assumptions", "")
	if got := decodeBody[core.Assumptions](t, rr); !got.DTCDiscountRate.Equal(dec("0.05")) {
		t.Fatalf("discount = %s", got.DTCDiscountRate)
	}

	a.DTCDiscountRate = dec("1.5")
	payload, _ = json.Marshal(a)
	if rr := do(t, srv, http.MethodPut, "/api/assumptions", string(payload)); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid rate status=%d", rr.Code)
	}
}

func TestWriteRateLimit(t *testing.T) {
	srv := newTestServer(t, WithRateLimit(ratelimit.Config{RequestsPerMinute: 1}))

	if rr := do(t, srv, http.MethodDelete, "/api/opex/custom", ""); rr.Code != http.StatusOK {
		t.Fatalf("first status=%d", rr.Code)
	}
	rr := do(t, srv, http.MethodDelete, "/api/opex/custom", "")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second status=%d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After")
	}
	// Reads are not limited.
	if rr := do(t, srv, http.MethodGet, "/api/opex", ""); rr.Code != http.StatusOK {
		t.Fatalf("read status=%d", rr.Code)
	}
}

func TestSecurityHeadersAndDetection(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/api/status", "")
	for _, h := range []string{"Content-Security-Policy", "X-Content-Type-Options", "X-Frame-Options"} {
		if rr.Header().Get(h) == "" {
			t.Fatalf("missing %s", h)
		}
	}
	if rr.Header().Get("Strict-Transport-Security") != "" {
		t.Fatal("HSTS set without TLS")
	}

	if rr := do(t, srv, http.MethodGet, "/api/team?file=../../etc/passwd", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("suspicious status=%d", rr.Code)
	}
}
