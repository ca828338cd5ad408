package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/krolist-app/go-backend/internal/usecase"
)

func TestRefreshAll_OK(t *testing.T) {
	refreshUC := &fakeRefreshUC{res: &usecase.RefreshRes{Updated: 7, Checked: 42}}
	r := newTestRouter(&fakeCatalogUC{}, &fakePriceUC{}, refreshUC)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/refresh/", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var res map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, float64(7), res["updated"])
	assert.Equal(t, float64(42), res["checked"])
}

func TestRefreshAll_DeniedByServer(t *testing.T) {
	next := time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)
	refreshUC := &fakeRefreshUC{res: &usecase.RefreshRes{
		Denied: &usecase.QuotaDenied{Message: "weekly limit reached", NextRefreshDate: next},
	}}
	r := newTestRouter(&fakeCatalogUC{}, &fakePriceUC{}, refreshUC)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/refresh/", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var res map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, "weekly limit reached", res["message"])
	assert.Equal(t, "2024-01-14T00:00:00Z", res["next_refresh_date"])
}

func TestGateStatus_OK(t *testing.T) {
	next := time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)
	refreshUC := &fakeRefreshUC{status: &usecase.GateStatusRes{
		Allowed:      false,
		Remaining:    0,
		NextEligible: &next,
	}}
	r := newTestRouter(&fakeCatalogUC{}, &fakePriceUC{}, refreshUC)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/refresh/status", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var res map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, false, res["allowed"])
	assert.Equal(t, "2024-01-14T00:00:00Z", res["next_eligible"])
}
