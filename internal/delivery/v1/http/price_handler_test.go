package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/assert/v2"
	"github.com/krolist-app/go-backend/internal/usecase"
	"github.com/krolist-app/go-backend/pkg/e"
)

type noopLogger struct{}

func (noopLogger) Infof(format string, args ...any)             {}
func (noopLogger) Warnf(format string, args ...any)             {}
func (noopLogger) Errorf(err error, format string, args ...any) {}

type fakePriceUC struct {
	bulkRes   *usecase.BulkUpdateRes
	bulkReq   *usecase.BulkUpdateReq
	exportCSV []byte
	importRes *usecase.ImportRes
	progress  *usecase.RunProgress
	err       error
}

func (f *fakePriceUC) BulkUpdatePrices(ctx context.Context, req *usecase.BulkUpdateReq) (*usecase.BulkUpdateRes, error) {
	f.bulkReq = req
	return f.bulkRes, f.err
}

func (f *fakePriceUC) ExportPriceList(ctx context.Context) ([]byte, error) {
	return f.exportCSV, f.err
}

func (f *fakePriceUC) ImportPriceList(ctx context.Context, r io.Reader) (*usecase.ImportRes, error) {
	return f.importRes, f.err
}

func (f *fakePriceUC) RunProgress(ctx context.Context, runID string) (*usecase.RunProgress, error) {
	return f.progress, f.err
}

type fakeRefreshUC struct {
	res    *usecase.RefreshRes
	status *usecase.GateStatusRes
	err    error
}

func (f *fakeRefreshUC) RefreshAll(ctx context.Context) (*usecase.RefreshRes, error) {
	return f.res, f.err
}

func (f *fakeRefreshUC) GateStatus(ctx context.Context, now time.Time) (*usecase.GateStatusRes, error) {
	return f.status, f.err
}

type fakeCatalogUC struct {
	registerRes *usecase.RegisterProductRes
	products    []usecase.ProductInfo
	err         error
}

func (f *fakeCatalogUC) RegisterProduct(ctx context.Context, req *usecase.RegisterProductReq) (*usecase.RegisterProductRes, error) {
	return f.registerRes, f.err
}

func (f *fakeCatalogUC) ListProducts(ctx context.Context) ([]usecase.ProductInfo, error) {
	return f.products, f.err
}

func newTestRouter(catalogUC usecase.CatalogUC, priceUC usecase.PriceUC, refreshUC usecase.RefreshUC) *chi.Mux {
	r := chi.NewRouter()
	router := NewRouter(r, noopLogger{})
	router.Init(catalogUC, priceUC, refreshUC)
	return r
}

func TestBulkUpdatePrices_OK(t *testing.T) {
	priceUC := &fakePriceUC{
		bulkRes: &usecase.BulkUpdateRes{
			RunID:        "run-1",
			UpdatedCount: 2,
			Outcome:      usecase.OutcomeSuccess,
		},
	}
	r := newTestRouter(&fakeCatalogUC{}, priceUC, &fakeRefreshUC{})

	body := `{"entries":[{"title":"item-01","price":19.99},{"title":"item-02","price":"7.50","status":"ran_out"}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/prices/bulk-update", strings.NewReader(body))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	// Цена принимается и числом, и строкой
	assert.Equal(t, 2, len(priceUC.bulkReq.Entries))
	assert.Equal(t, "19.99", priceUC.bulkReq.Entries[0].Price)
	assert.Equal(t, "7.50", priceUC.bulkReq.Entries[1].Price)
	assert.Equal(t, "ran_out", priceUC.bulkReq.Entries[1].Status)

	var res map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, "run-1", res["run_id"])
	assert.Equal(t, "success", res["outcome"])
}

func TestBulkUpdatePrices_MalformedJSON(t *testing.T) {
	r := newTestRouter(&fakeCatalogUC{}, &fakePriceUC{}, &fakeRefreshUC{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/prices/bulk-update", strings.NewReader("{not json"))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBulkUpdatePrices_RunInFlight(t *testing.T) {
	priceUC := &fakePriceUC{err: e.ErrRunInFlight}
	r := newTestRouter(&fakeCatalogUC{}, priceUC, &fakeRefreshUC{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/prices/bulk-update", strings.NewReader(`{"entries":[]}`))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestExportPriceList(t *testing.T) {
	priceUC := &fakePriceUC{exportCSV: []byte("\ufeff\"Product Title\"\n")}
	r := newTestRouter(&fakeCatalogUC{}, priceUC, &fakeRefreshUC{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/prices/export", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, true, strings.Contains(w.Header().Get("Content-Disposition"), "attachment"))
	assert.Equal(t, "\ufeff\"Product Title\"\n", w.Body.String())
}

func TestImportPriceList(t *testing.T) {
	priceUC := &fakePriceUC{
		importRes: &usecase.ImportRes{
			Entries:   []usecase.BulkEditEntry{{Title: "item-01", Price: "12.00"}},
			Unmatched: 1,
		},
	}
	r := newTestRouter(&fakeCatalogUC{}, priceUC, &fakeRefreshUC{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/prices/import", strings.NewReader("item-01,,12.00\n"))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var res struct {
		Entries   []map[string]string `json:"entries"`
		Unmatched int                 `json:"unmatched"`
	}
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, 1, len(res.Entries))
	assert.Equal(t, "item-01", res.Entries[0]["title"])
	assert.Equal(t, 1, res.Unmatched)
}

func TestRunProgress_OK(t *testing.T) {
	priceUC := &fakePriceUC{
		progress: &usecase.RunProgress{
			RunID:     "run-1",
			State:     usecase.RunBatching,
			Processed: 10,
			Total:     25,
			Percent:   40,
		},
	}
	r := newTestRouter(&fakeCatalogUC{}, priceUC, &fakeRefreshUC{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/prices/runs/run-1", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var res map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, "batching", res["state"])
	assert.Equal(t, float64(40), res["percent"])
}

func TestRunProgress_NotFound(t *testing.T) {
	priceUC := &fakePriceUC{err: e.ErrRunNotFound}
	r := newTestRouter(&fakeCatalogUC{}, priceUC, &fakeRefreshUC{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/prices/runs/missing", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
