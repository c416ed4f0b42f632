/*
handlers_test.go - Tests for API handlers

Tests for:
- Validation endpoint (violation lists)
- Planning endpoint (units, infeasible inputs)
- Merge endpoints (upload order, unreadable index, workspace merge)
*/
package api_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/warp/receipt-engine/api"
	"github.com/warp/receipt-engine/batch"
	"github.com/warp/receipt-engine/config"
	"github.com/warp/receipt-engine/pdfmerge"
	"github.com/warp/receipt-engine/pdfmerge/pdftest"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) (*httptest.Server, *config.Config) {
	t.Helper()
	cfg := config.Default()
	cfg.Output.Dir = t.TempDir()
	h := api.NewHandler(cfg, zaptest.NewLogger(t))
	srv := httptest.NewServer(api.NewRouter(h))
	t.Cleanup(srv.Close)
	return srv, cfg
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func validBody() map[string]any {
	return map[string]any{
		"stationName":      "HP Petrol Pump Sector 18",
		"fuelRate":         96.72,
		"template":         1,
		"totalAmount":      3000,
		"numberOfBills":    6,
		"maxAmountPerBill": 700,
		"startDate":        "2025-04-01",
		"endDate":          "2025-06-30",
	}
}

func postDocuments(t *testing.T, url string, docs ...[]byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for i, doc := range docs {
		part, err := mw.CreateFormFile("documents", filepath.Base(batch.ReceiptFileName(i+1)))
		require.NoError(t, err)
		_, err = part.Write(doc)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	resp, err := http.Post(url, mw.FormDataContentType(), &body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// =============================================================================
// VALIDATE / PLAN
// =============================================================================

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")

	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestValidate_ReturnsAllViolations(t *testing.T) {
	srv, _ := newTestServer(t)
	body := validBody()
	body["stationName"] = ""
	body["fuelRate"] = 0
	body["endDate"] = "2025-03-01"

	resp := postJSON(t, srv.URL+"/api/validate", body)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[api.ValidationDTO](t, resp)
	assert.False(t, got.Valid)
	assert.GreaterOrEqual(t, len(got.Violations), 3)
}

func TestValidate_FractionalCountLiteral_IsRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	raw := []byte(`{"stationName":"X","fuelRate":100,"template":1,"totalAmount":300,
		"numberOfBills":3.0,"maxAmountPerBill":200,"startDate":"2025-01-01","endDate":"2025-12-31"}`)

	resp, err := http.Post(srv.URL+"/api/validate", "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()

	got := decode[api.ValidationDTO](t, resp)
	assert.False(t, got.Valid)
	require.Len(t, got.Violations, 1)
	assert.Contains(t, got.Violations[0], "numberOfBills")
}

func TestCreatePlan_Success(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/plans", validBody())

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	plan := decode[api.PlanDTO](t, resp)
	assert.NotEmpty(t, plan.ID)
	assert.Equal(t, "3000.00", plan.Total)
	require.Len(t, plan.Units, 6)
	for i, u := range plan.Units {
		assert.Equal(t, i+1, u.Sequence)
		assert.True(t, u.Amount.IsPositive())
		assert.Equal(t, "HP Petrol Pump Sector 18", u.StationName)
		if i > 0 {
			// default spacing from config is 3 days
			assert.True(t, plan.Units[i-1].Date.AddDays(3).BeforeOrEqual(u.Date))
		}
	}
}

func TestCreatePlan_InvalidInput_400WithViolations(t *testing.T) {
	srv, _ := newTestServer(t)
	body := validBody()
	body["maxAmountPerBill"] = 10

	resp := postJSON(t, srv.URL+"/api/plans", body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	got := decode[api.ErrorResponse](t, resp)
	assert.Equal(t, "invalid_input", got.Code)
	require.Len(t, got.Violations, 1)
	assert.Contains(t, got.Violations[0], "maxAmountPerBill")
}

func TestCreatePlan_MalformedBody(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/plans", "application/json", bytes.NewReader([]byte("{")))

	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// MERGE
// =============================================================================

func TestMergeUpload_ReturnsMergedPDF(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postDocuments(t, srv.URL+"/api/merge", pdftest.MustDocument(200), pdftest.MustDocument(300, 310))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	n, err := pdfmerge.Merger{}.PageCount(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestMergeUpload_UnreadableDocument_NamesIndex(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postDocuments(t, srv.URL+"/api/merge", pdftest.MustDocument(200), []byte("garbage"), pdftest.MustDocument(400))

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	got := decode[api.ErrorResponse](t, resp)
	require.NotNil(t, got.Index)
	assert.Equal(t, 1, *got.Index)
}

func TestMergeUpload_NoDocuments(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postDocuments(t, srv.URL+"/api/merge")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReceipts_ListAndMergeWorkspace(t *testing.T) {
	srv, cfg := newTestServer(t)
	ws := cfg.Workspace()
	require.NoError(t, os.WriteFile(ws.PathFor(2), pdftest.MustDocument(300), 0o644))
	require.NoError(t, os.WriteFile(ws.PathFor(1), pdftest.MustDocument(200), 0o644))

	resp, err := http.Get(srv.URL + "/api/receipts")
	require.NoError(t, err)
	defer resp.Body.Close()
	list := decode[api.ReceiptListDTO](t, resp)
	assert.Equal(t, []string{"receipt_001.pdf", "receipt_002.pdf"}, list.Files)

	mergeResp, err := http.Post(srv.URL+"/api/receipts/merge", "application/json", nil)
	require.NoError(t, err)
	defer mergeResp.Body.Close()
	require.Equal(t, http.StatusOK, mergeResp.StatusCode)
	result := decode[api.MergeResultDTO](t, mergeResp)
	assert.Equal(t, 2, result.Pages)
	assert.Equal(t, filepath.Join(ws.Dir, "receipts.pdf"), result.Output)
	assert.Equal(t, []string{"receipt_001.pdf", "receipt_002.pdf"}, result.Sources)
}

func TestReceipts_MergeEmptyWorkspace(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/receipts/merge", "application/json", nil)

	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReceipts_MergeWithCount_SkipsLeftovers(t *testing.T) {
	// GIVEN: receipts 1-2 of the current batch and receipt 3 from an older one
	srv, cfg := newTestServer(t)
	ws := cfg.Workspace()
	require.NoError(t, os.WriteFile(ws.PathFor(1), pdftest.MustDocument(200), 0o644))
	require.NoError(t, os.WriteFile(ws.PathFor(2), pdftest.MustDocument(300), 0o644))
	require.NoError(t, os.WriteFile(ws.PathFor(3), pdftest.MustDocument(400), 0o644))

	resp, err := http.Post(srv.URL+"/api/receipts/merge?count=2", "application/json", nil)

	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[api.MergeResultDTO](t, resp)
	assert.Equal(t, []string{"receipt_001.pdf", "receipt_002.pdf"}, result.Sources)
	assert.Equal(t, 2, result.Pages)
}

func TestReceipts_MergeWithBadCount(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/receipts/merge?count=zero", "application/json", nil)

	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreatePlan_AmountBeyondRange_400(t *testing.T) {
	srv, _ := newTestServer(t)
	body := validBody()
	body["totalAmount"] = "1e20"
	body["maxAmountPerBill"] = "1e20"

	resp := postJSON(t, srv.URL+"/api/plans", body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	got := decode[api.ErrorResponse](t, resp)
	require.Len(t, got.Violations, 2)
	assert.Contains(t, got.Violations[0], "totalAmount: must not exceed")
}
