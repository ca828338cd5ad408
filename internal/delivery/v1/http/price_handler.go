package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/krolist-app/go-backend/internal/usecase"
	"github.com/krolist-app/go-backend/pkg/e"
	"github.com/krolist-app/go-backend/pkg/logger"
)

type PriceHandler struct {
	priceUsecase usecase.PriceUC
	logger       logger.Logger
}

func NewPriceHandler(priceUsecase usecase.PriceUC, logger logger.Logger) *PriceHandler {
	return &PriceHandler{priceUsecase: priceUsecase, logger: logger}
}

type bulkEditEntryDTO struct {
	Title  string      `json:"title"`
	Price  json.Number `json:"price"`
	Status string      `json:"status"`
}

type bulkUpdateReqDTO struct {
	Entries []bulkEditEntryDTO `json:"entries"`
}

// bulkUpdatePrices принимает набор правок и запускает партионную сверку.
// Возвращает итог запуска вместе с run_id для опроса прогресса.
func (p *PriceHandler) bulkUpdatePrices(w http.ResponseWriter, r *http.Request) {
	const maxBodySize = 5 << 20

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var dto bulkUpdateReqDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	entries := make([]usecase.BulkEditEntry, 0, len(dto.Entries))
	for _, entry := range dto.Entries {
		entries = append(entries, usecase.BulkEditEntry{
			Title:  entry.Title,
			Price:  entry.Price.String(),
			Status: entry.Status,
		})
	}

	res, err := p.priceUsecase.BulkUpdatePrices(r.Context(), &usecase.BulkUpdateReq{Entries: entries})
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"run_id":        res.RunID,
		"updated_count": res.UpdatedCount,
		"errors":        res.Errors,
		"outcome":       string(res.Outcome),
	})
}

// exportPriceList отдаёт прайс-лист файлом CSV.
func (p *PriceHandler) exportPriceList(w http.ResponseWriter, r *http.Request) {
	data, err := p.priceUsecase.ExportPriceList(r.Context())
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	filename := "krolist-prices-" + time.Now().Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// importPriceList разбирает присланный CSV и возвращает набор правок,
// сопоставленных с существующими товарами по точному заголовку.
func (p *PriceHandler) importPriceList(w http.ResponseWriter, r *http.Request) {
	const maxBodySize = 10 << 20

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	res, err := p.priceUsecase.ImportPriceList(r.Context(), r.Body)
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	entries := make([]map[string]string, 0, len(res.Entries))
	for _, entry := range res.Entries {
		entries = append(entries, map[string]string{
			"title": entry.Title,
			"price": entry.Price,
		})
	}

	WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"entries":   entries,
		"unmatched": res.Unmatched,
	})
}

// runProgress возвращает текущее состояние запуска сверки по его run_id.
func (p *PriceHandler) runProgress(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")

	progress, err := p.priceUsecase.RunProgress(r.Context(), runID)
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"run_id":    progress.RunID,
		"state":     string(progress.State),
		"processed": progress.Processed,
		"total":     progress.Total,
		"percent":   progress.Percent,
	})
}
