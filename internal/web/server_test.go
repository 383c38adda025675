package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/catalog/internal/catalog"
	"github.com/JonMunkholm/catalog/internal/config"
	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/JonMunkholm/catalog/internal/csv"
	"github.com/JonMunkholm/catalog/internal/source"
	"github.com/JonMunkholm/catalog/internal/store"
	mw "github.com/JonMunkholm/catalog/internal/web/middleware"
)

const exportCSV = "cse_prod,cve_prod,desc_prod,existencias,cve_image,verificado\n" +
	"licor,A1,Tequila Blanco 750ml,5,tb.jpg,TRUE\n" +
	"licor,A2,Tequila Blanco 1L,2,tb.jpg,si\n" +
	"vino,B1,Vino Tinto 750ml,0,vt.jpg,1\n"

type stubFetcher struct {
	rows [][]string
	err  error
}

func (f stubFetcher) Fetch(ctx context.Context) ([][]string, error) {
	return f.rows, f.err
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 10 * time.Second},
		Import: config.ImportConfig{
			MaxFileSize:   1 << 20,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
			Timeout:       5 * time.Second,
		},
		Security: config.SecurityConfig{EnableCSP: true},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, fetcher core.Fetcher) *Server {
	t.Helper()
	svc := core.NewService(store.NewMemory(), fetcher, cfg.Import)
	srv := NewServer(svc, cfg)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv
}

func do(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func importCSV(srv *Server, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/import?name=catalogo.csv", strings.NewReader(body))
	req.Header.Set("Content-Type", "text/csv")
	return do(srv, req)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v (body %q)", err, rec.Body.String())
	}
	return resp
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)

	rec := do(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Imports.MaxConcurrent != 2 || resp.Snapshot != nil {
		t.Errorf("health = %+v", resp)
	}
}

func TestCatalogPage_Empty(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)

	rec := do(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No catalog has been published yet.") {
		t.Errorf("body missing empty-state text: %s", rec.Body.String())
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("CSP header not set")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("nosniff header not set")
	}
}

func TestImportAndRead(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)

	rec := importCSV(srv, exportCSV)
	if rec.Code != http.StatusCreated {
		t.Fatalf("import status = %d, body %s", rec.Code, rec.Body.String())
	}
	var summary store.Summary
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	wantStats := catalog.Stats{TotalRows: 3, ValidRows: 3, Products: 2}
	if summary.Source != "upload:catalogo.csv" || summary.Stats != wantStats {
		t.Errorf("summary = %+v", summary)
	}

	rec = do(srv, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("products status = %d", rec.Code)
	}
	var snap store.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.ID != summary.ID || len(snap.Catalog.Products) != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}
	tequila := snap.Catalog.Products[0]
	if tequila.Name != "Tequila Blanco" || len(tequila.Presentations) != 2 {
		t.Errorf("first product = %+v", tequila)
	}

	rec = do(srv, httptest.NewRequest(http.MethodGet, "/api/products?class=VINO", nil))
	snap = store.Snapshot{}
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decode filtered: %v", err)
	}
	if len(snap.Catalog.Products) != 1 || snap.Catalog.Products[0].Name != "Vino Tinto" {
		t.Errorf("class filter = %+v", snap.Catalog.Products)
	}

	rec = do(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	if body := rec.Body.String(); !strings.Contains(body, "Tequila Blanco") || !strings.Contains(body, "upload:catalogo.csv") {
		t.Errorf("catalog page missing products: %s", body)
	}

	rec = do(srv, httptest.NewRequest(http.MethodGet, "/api/snapshots/"+summary.ID.String(), nil))
	if rec.Code != http.StatusOK {
		t.Errorf("get snapshot status = %d", rec.Code)
	}
}

func TestImportMultipart(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)

	var buf bytes.Buffer
	mpw := multipart.NewWriter(&buf)
	part, err := mpw.CreateFormFile("file", "export.csv")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	part.Write([]byte(exportCSV))
	mpw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/import", &buf)
	req.Header.Set("Content-Type", mpw.FormDataContentType())

	rec := do(srv, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var summary store.Summary
	json.NewDecoder(rec.Body).Decode(&summary)
	if summary.Source != "upload:export.csv" {
		t.Errorf("Source = %q", summary.Source)
	}
}

func TestImportErrors(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
		wantCode    string
		wantMissing int
	}{
		{"column mismatch", "text/csv", "sku,name\n1,x\n", http.StatusUnprocessableEntity, "CAT001", 6},
		{"empty body", "text/csv", "", http.StatusBadRequest, "FILE004", 0},
		{"BOM only", "text/csv", "\xEF\xBB\xBF", http.StatusUnprocessableEntity, "CAT002", 0},
		{"multipart without file", "multipart/form-data; boundary=x", "--x--\r\n", http.StatusBadRequest, "FILE004", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, testConfig(), nil)

			req := httptest.NewRequest(http.MethodPost, "/api/import", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rec := do(srv, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			resp := decodeError(t, rec)
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
			if len(resp.Missing) != tt.wantMissing {
				t.Errorf("missing = %v, want %d columns", resp.Missing, tt.wantMissing)
			}
		})
	}
}

func TestImportTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Import.MaxFileSize = 32
	srv := newTestServer(t, cfg, nil)

	rec := importCSV(srv, exportCSV)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != "FILE001" {
		t.Errorf("code = %q, want FILE001", resp.Code)
	}
}

func TestPreview(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/preview", strings.NewReader(exportCSV))
	rec := do(srv, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var result core.PreviewResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Catalog.Stats.Products != 2 || result.Changes != nil {
		t.Errorf("preview = %+v", result)
	}

	rec = do(srv, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("preview saved a snapshot: products status = %d", rec.Code)
	}
}

func TestRefresh(t *testing.T) {
	t.Run("no sheet configured", func(t *testing.T) {
		srv := newTestServer(t, testConfig(), nil)

		rec := do(srv, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
		if resp := decodeError(t, rec); resp.Code != "SRC003" {
			t.Errorf("code = %q, want SRC003", resp.Code)
		}
	})

	t.Run("sheet host error", func(t *testing.T) {
		srv := newTestServer(t, testConfig(), stubFetcher{err: &source.StatusError{URL: "https://sheet", StatusCode: 404}})

		rec := do(srv, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("status = %d, want 502", rec.Code)
		}
		if resp := decodeError(t, rec); resp.Code != "SRC002" {
			t.Errorf("code = %q, want SRC002", resp.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		srv := newTestServer(t, testConfig(), stubFetcher{rows: csv.Parse(exportCSV)})

		rec := do(srv, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		var summary store.Summary
		json.NewDecoder(rec.Body).Decode(&summary)
		if summary.Source != core.SourceSheet || summary.Stats.Products != 2 {
			t.Errorf("summary = %+v", summary)
		}
	})
}

func TestSnapshots(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)
	for i := 0; i < 3; i++ {
		if rec := importCSV(srv, exportCSV); rec.Code != http.StatusCreated {
			t.Fatalf("import %d status = %d", i, rec.Code)
		}
	}

	rec := do(srv, httptest.NewRequest(http.MethodGet, "/api/snapshots?limit=2", nil))
	var summaries []store.Summary
	if err := json.NewDecoder(rec.Body).Decode(&summaries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(summaries) != 2 {
		t.Errorf("len = %d, want 2", len(summaries))
	}

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/api/snapshots?limit=abc", http.StatusBadRequest},
		{"/api/snapshots?limit=0", http.StatusBadRequest},
		{"/api/snapshots/not-a-uuid", http.StatusBadRequest},
		{"/api/snapshots/00000000-0000-0000-0000-000000000001", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(srv, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestMutationsRequireAPIKey(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	srv := newTestServer(t, cfg, nil)

	rec := importCSV(srv, exportCSV)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status without key = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/import", strings.NewReader(exportCSV))
	req.Header.Set(mw.APIKeyHeader, "secret")
	if rec := do(srv, req); rec.Code != http.StatusCreated {
		t.Errorf("status with key = %d, want 201", rec.Code)
	}

	// Reads stay public.
	if rec := do(srv, httptest.NewRequest(http.MethodGet, "/api/products", nil)); rec.Code != http.StatusOK {
		t.Errorf("products status = %d, want 200", rec.Code)
	}
}

func TestImportRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 100, ImportLimit: 1}
	srv := newTestServer(t, cfg, nil)

	if rec := importCSV(srv, exportCSV); rec.Code != http.StatusCreated {
		t.Fatalf("first import status = %d", rec.Code)
	}

	rec := importCSV(srv, exportCSV)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second import status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After not set")
	}
	if resp := decodeError(t, rec); resp.Code != "RATE001" {
		t.Errorf("code = %q, want RATE001", resp.Code)
	}

	// The general limit still has room.
	if rec := do(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}
}

func TestRateLimiter_WindowReset(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.stop()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i, want := range []bool{true, true, false} {
		if got := rl.allow("1.2.3.4"); got != want {
			t.Errorf("allow #%d = %v, want %v", i+1, got, want)
		}
	}
	if !rl.allow("5.6.7.8") {
		t.Error("other IP should have its own budget")
	}

	now = now.Add(61 * time.Second)
	if !rl.allow("1.2.3.4") {
		t.Error("budget not restored after the window")
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&catalog.ColumnMismatchError{Missing: []string{"verificado"}}, http.StatusUnprocessableEntity},
		{catalog.ErrEmptyInput, http.StatusUnprocessableEntity},
		{fmt.Errorf("import a.xlsx: %w", source.ErrNoSheets), http.StatusUnprocessableEntity},
		{errors.New("import a.xlsx: invalid xlsx: zip: not a valid zip file"), http.StatusUnprocessableEntity},
		{errNoFile, http.StatusBadRequest},
		{fmt.Errorf("import a.csv: %w", csv.ErrTooLarge), http.StatusRequestEntityTooLarge},
		{&http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge},
		{store.ErrNotFound, http.StatusNotFound},
		{core.ErrTooManyImports, http.StatusServiceUnavailable},
		{source.ErrNoURL, http.StatusServiceUnavailable},
		{&source.StatusError{URL: "u", StatusCode: 500}, http.StatusBadGateway},
		{errors.New("source fetch failed: eof"), http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errRateLimited, http.StatusTooManyRequests},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestRespondError_HTML(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	respondError(rec, req, store.ErrNotFound)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "STO001") {
		t.Errorf("body missing code: %s", rec.Body.String())
	}
}
