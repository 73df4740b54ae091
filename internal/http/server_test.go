package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"salao/internal/cache"
	"salao/internal/core"
	"salao/internal/log"
	"salao/internal/report"
	"salao/internal/store/memory"
)

type fakePublisher struct {
	mu    sync.Mutex
	calls [][3]int
	err   error
}

func (f *fakePublisher) PublishExportRequest(_ context.Context, half, year, month int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, [3]int{half, year, month})
	return f.err
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type failingQuerier struct{}

func (failingQuerier) QueryRealizedAppointments(context.Context, core.CalendarDate, core.CalendarDate) ([]core.Appointment, error) {
	return nil, errors.New("connection refused")
}

type testEnv struct {
	srv       *Server
	store     *memory.Store
	exportDir string
	publisher *fakePublisher
}

func seedStore(t *testing.T) *memory.Store {
	t.Helper()
	st := memory.New()
	rows := []core.NewAppointment{
		{Date: core.NewCalendarDate(2025, 1, 31), Amount: core.Money{Cents: 5000}, ServiceName: "Escova", ClientName: "Ana"},
		{Date: core.NewCalendarDate(2025, 2, 3), Amount: core.Money{Cents: 9000}, ServiceName: "Penteado", ClientName: "Bia"},
		{Date: core.NewCalendarDate(2025, 2, 3), Amount: core.Money{Cents: 9000}, ServiceName: "Penteado (noiva)", ClientName: "Cida"},
		{Date: core.NewCalendarDate(2025, 2, 10), Amount: core.Money{Cents: 3000}, ServiceName: "Deslocamento Centro", ClientName: "Dora"},
	}
	for _, a := range rows {
		a.Category = core.CategorySalon
		a.Status = core.StatusRealized
		if _, err := st.CreateAppointment(context.Background(), a); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	_, err := st.CreateAppointment(context.Background(), core.NewAppointment{
		Date: core.NewCalendarDate(2025, 2, 4), Amount: core.Money{Cents: 7000},
		Category: core.CategoryReferral, Status: core.StatusScheduled,
		ServiceName: "Corte", ClientName: "Eva",
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return st
}

func newTestEnv(t *testing.T, publisher *fakePublisher) *testEnv {
	t.Helper()
	logger := log.Discard()
	st := seedStore(t)
	reports := report.NewService(st, cache.NewLRUCache[core.Report](16, time.Minute), time.Second, logger)
	dir := t.TempDir()

	d := Deps{
		Reports:      reports,
		Selection:    report.NewSelection(reports, logger),
		Exporter:     report.NewExporter(dir, logger),
		Appointments: st,
		Logger:       logger,
	}
	if publisher != nil {
		d.Publisher = publisher
	}
	srv := NewServer(":0", d)
	srv.now = func() time.Time { return time.Date(2025, 2, 12, 9, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { srv.rateLimiter.stop() })
	return &testEnv{srv: srv, store: st, exportDir: dir, publisher: publisher}
}

func (e *testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeReport(t *testing.T, rec *httptest.ResponseRecorder) ReportResponse {
	t.Helper()
	var resp ReportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode report: %v (body %q)", err, rec.Body.String())
	}
	return resp
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := env.do(http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rec.Code)
		}
	}

	env.srv.ready = fakePinger{err: errors.New("db down")}
	if rec := env.do(http.MethodGet, "/readyz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz with failing ping status=%d", rec.Code)
	}
}

func TestFortnightReport(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/reports/fortnight?half=1&year=2025&month=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "X-Request-ID"} {
		if rec.Header().Get(h) == "" {
			t.Errorf("missing header %s", h)
		}
	}

	resp := decodeReport(t, rec)
	if resp.Period.CarryIn != "2025-01-31" {
		t.Errorf("CarryIn = %q", resp.Period.CarryIn)
	}
	if len(resp.Buckets) != 3 {
		t.Fatalf("buckets = %d, want 3 (carry-in, 03/02, 10/02)", len(resp.Buckets))
	}
	if resp.Buckets[0].Label != "31/01" {
		t.Errorf("first bucket = %q, want the carry-in day", resp.Buckets[0].Label)
	}
	g := resp.Buckets[1].Groups
	if len(g) != 1 || g[0].Name != "Penteados" || g[0].Quantity != 2 || g[0].Subtotal.Text != "180,00" {
		t.Errorf("03/02 groups = %+v", g)
	}
	if resp.GrandTotal.Cents != 26000 {
		t.Errorf("GrandTotal = %d, want 26000 (scheduled excluded)", resp.GrandTotal.Cents)
	}
}

func TestFortnightDefaultsToCurrent(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := decodeReport(t, env.do(http.MethodGet, "/reports/fortnight", ""))
	if resp.Period.Half != 1 || resp.Period.Month != 2 || resp.Period.Year != 2025 {
		t.Errorf("period = %+v, want 2025-02 half 1", resp.Period)
	}
}

func TestFortnightEmptyPeriod(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(http.MethodGet, "/reports/fortnight?half=2&year=2025&month=6", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	resp := decodeReport(t, rec)
	if !resp.Empty || len(resp.Buckets) != 0 || resp.GrandTotal.Text != "0,00" {
		t.Errorf("empty report = %+v", resp)
	}
}

func TestFortnightInvalidParams(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, q := range []string{"half=3", "month=13", "month=x", "year=0"} {
		rec := env.do(http.MethodGet, "/reports/fortnight?"+q, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status=%d, want 400", q, rec.Code)
		}
	}
}

func TestFortnightQueryFailure(t *testing.T) {
	logger := log.Discard()
	reports := report.NewService(failingQuerier{}, nil, time.Second, logger)
	srv := NewServer(":0", Deps{Reports: reports, Logger: logger})
	defer srv.rateLimiter.stop()

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/fortnight?half=1&year=2025&month=3", nil))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status=%d, want 502", rec.Code)
	}
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Retryable || strings.Contains(body.Error, "connection refused") {
		t.Errorf("body = %+v, want generic retryable message", body)
	}
}

func TestLedgerText(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/reports/fortnight/ledger?half=1&year=2025&month=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	want := "Fechamento 01/02/2025 a 15/02/2025\n\n" +
		"31/01\n1 Escova = 50,00\n\n" +
		"03/02\n2 Penteados = 180,00\n\n" +
		"10/02\n1 deslocamento = 30,00\n\n" +
		"\nTOTAL 260,00\n"
	if got := rec.Body.String(); got != want {
		t.Errorf("ledger mismatch\ngot:\n%q\nwant:\n%q", got, want)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != "" {
		t.Errorf("Content-Disposition without download = %q", cd)
	}

	rec = env.do(http.MethodGet, "/reports/fortnight/ledger?half=1&year=2025&month=2&download=1", "")
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="fechamento_2025_2_quinzena_1.txt"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestLedgerXLSX(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/reports/fortnight/ledger.xlsx?half=1&year=2025&month=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != report.XLSXContentType {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="fechamento_2025_2_quinzena_1.xlsx"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	// xlsx files are zip archives.
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Errorf("body is not a zip archive")
	}
}

func TestExportSynchronous(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/reports/fortnight/export", "half=1&year=2025&month=2")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var resp ExportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "written" {
		t.Errorf("Status = %q", resp.Status)
	}
	data, err := os.ReadFile(filepath.Join(env.exportDir, "fechamento_2025_2_quinzena_1.txt"))
	if err != nil {
		t.Fatalf("export file: %v", err)
	}
	if !strings.HasPrefix(string(data), "Fechamento 01/02/2025 a 15/02/2025\n") {
		t.Errorf("file = %q", data)
	}
}

func TestExportQueued(t *testing.T) {
	pub := &fakePublisher{}
	env := newTestEnv(t, pub)

	rec := env.do(http.MethodPost, "/reports/fortnight/export", `half=2&year=2025&month=1`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status=%d", rec.Code)
	}
	if len(pub.calls) != 1 || pub.calls[0] != [3]int{2, 2025, 1} {
		t.Fatalf("publish calls = %v", pub.calls)
	}
	if entries, _ := os.ReadDir(env.exportDir); len(entries) != 0 {
		t.Errorf("queued export must not write locally, found %d files", len(entries))
	}
}

func TestExportPublishFailureFallsBack(t *testing.T) {
	pub := &fakePublisher{err: errors.New("circuit breaker is open")}
	env := newTestEnv(t, pub)

	rec := env.do(http.MethodPost, "/reports/fortnight/export", `half=2&year=2025&month=1`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status=%d", rec.Code)
	}
	if _, err := os.Stat(filepath.Join(env.exportDir, "fechamento_2025_1_quinzena_2.txt")); err != nil {
		t.Errorf("expected synchronous export: %v", err)
	}
}

func TestSelection(t *testing.T) {
	env := newTestEnv(t, nil)

	if rec := env.do(http.MethodGet, "/reports/selection", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("before select status=%d", rec.Code)
	}

	rec := env.do(http.MethodPost, "/reports/selection", "half=1&year=2025&month=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("select status=%d", rec.Code)
	}

	rec = env.do(http.MethodGet, "/reports/selection", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("current status=%d", rec.Code)
	}
	if resp := decodeReport(t, rec); resp.Period.Month != 2 || resp.Period.Half != 1 {
		t.Errorf("current = %+v", resp.Period)
	}

	if rec := env.do(http.MethodPost, "/reports/selection", "half=9"); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid select status=%d", rec.Code)
	}
}

func TestSummary(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/appointments/summary?year=2025&month=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	var resp SummaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 4 || resp.Realized.Count != 3 || resp.Scheduled.Count != 1 {
		t.Errorf("summary = %+v", resp)
	}
	if resp.Realized.Amount.Text != "210,00" {
		t.Errorf("realized amount = %q", resp.Realized.Amount.Text)
	}
}

func TestStatusUpdateInvalidatesReports(t *testing.T) {
	env := newTestEnv(t, nil)

	before := decodeReport(t, env.do(http.MethodGet, "/reports/fortnight?half=1&year=2025&month=2", ""))

	rec := env.do(http.MethodPost, "/appointments", "date=2025-02-04&amount=70&service=Corte&client=Fabi")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rec.Code, rec.Body.String())
	}
	var created map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil || created["id"] == "" {
		t.Fatalf("create body = %s", rec.Body.String())
	}

	rec = env.do(http.MethodPost, "/appointments/"+created["id"]+"/status", "status=realizado")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status update=%d body=%s", rec.Code, rec.Body.String())
	}

	after := decodeReport(t, env.do(http.MethodGet, "/reports/fortnight?half=1&year=2025&month=2", ""))
	if after.GrandTotal.Cents != before.GrandTotal.Cents+7000 {
		t.Errorf("GrandTotal after update = %d, want %d", after.GrandTotal.Cents, before.GrandTotal.Cents+7000)
	}
}

func TestStatusUpdateErrors(t *testing.T) {
	env := newTestEnv(t, nil)

	if rec := env.do(http.MethodPost, "/appointments/missing/status", "status=falta"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status=%d", rec.Code)
	}
	if rec := env.do(http.MethodPost, "/appointments/x/status", "status=pago"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad status=%d", rec.Code)
	}
	if rec := env.do(http.MethodPost, "/appointments", "date=2025-02-04&amount=abc&service=x&client=y"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad amount=%d", rec.Code)
	}
}

func TestPOSTRateLimit(t *testing.T) {
	logger := log.Discard()
	st := memory.New()
	reports := report.NewService(st, nil, time.Second, logger)
	srv := NewServer(":0", Deps{
		Reports:      reports,
		Selection:    report.NewSelection(reports, logger),
		Appointments: st,
		Logger:       logger,
		RateLimit:    2,
	})
	defer srv.rateLimiter.stop()

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/reports/selection", strings.NewReader("half=1&year=2025&month=3"))
		req.RemoteAddr = "203.0.113.7:5555"
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, req)
		return rec
	}
	for i := 0; i < 2; i++ {
		if rec := post(); rec.Code != http.StatusOK {
			t.Fatalf("request %d status=%d", i, rec.Code)
		}
	}
	rec := post()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}

	// GETs are not limited.
	req := httptest.NewRequest(http.MethodGet, "/reports/fortnight?half=1&year=2025&month=3", nil)
	req.RemoteAddr = "203.0.113.7:5555"
	get := httptest.NewRecorder()
	srv.Handler.ServeHTTP(get, req)
	if get.Code != http.StatusOK {
		t.Errorf("GET status=%d", get.Code)
	}
}
