package http

import (
	"net/http"
	"time"

	"github.com/krolist-app/go-backend/internal/usecase"
	"github.com/krolist-app/go-backend/pkg/logger"
)

type RefreshHandler struct {
	refreshUsecase usecase.RefreshUC
	logger         logger.Logger
}

func NewRefreshHandler(refreshUsecase usecase.RefreshUC, logger logger.Logger) *RefreshHandler {
	return &RefreshHandler{refreshUsecase: refreshUsecase, logger: logger}
}

// refreshAll вызывает внешнюю функцию обновления всех цен.
// Отказ сервера по недельному лимиту отдаётся как 429 с датой,
// когда обновление снова станет доступным.
func (h *RefreshHandler) refreshAll(w http.ResponseWriter, r *http.Request) {
	res, err := h.refreshUsecase.RefreshAll(r.Context())
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	if res.Denied != nil {
		WriteSuccess(w, http.StatusTooManyRequests, map[string]interface{}{
			"message":           res.Denied.Message,
			"next_refresh_date": res.Denied.NextRefreshDate.Format(time.RFC3339),
		})
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"updated": res.Updated,
		"checked": res.Checked,
	})
}

// gateStatus возвращает локальную оценку недельного лимита обновлений.
// Оценка рекомендательная: окончательное решение всегда за сервером.
func (h *RefreshHandler) gateStatus(w http.ResponseWriter, r *http.Request) {
	res, err := h.refreshUsecase.GateStatus(r.Context(), time.Now())
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	body := map[string]interface{}{
		"allowed":   res.Allowed,
		"remaining": res.Remaining,
	}
	if res.NextEligible != nil {
		body["next_eligible"] = res.NextEligible.Format(time.RFC3339)
	}

	WriteSuccess(w, http.StatusOK, body)
}
