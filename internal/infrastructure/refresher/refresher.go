package refresher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/krolist-app/go-backend/internal/cfg"
	"github.com/krolist-app/go-backend/internal/usecase"
	"github.com/krolist-app/go-backend/pkg/e"
	"github.com/krolist-app/go-backend/pkg/jitter"
	"github.com/krolist-app/go-backend/pkg/logger"
)

// refreshResponse — сырой JSON внешней функции обновления цен.
// Успех: {"updated": N, "checked": M}.
// Отказ по лимиту: {"error": true, "message": ..., "nextRefreshDate": ...}.
type refreshResponse struct {
	Updated         int    `json:"updated"`
	Checked         int    `json:"checked"`
	Error           bool   `json:"error"`
	Message         string `json:"message"`
	NextRefreshDate string `json:"nextRefreshDate"`
}

// Refresher — клиент внешней функции «обновить все цены».
// Ответ декодируется в размеченные варианты на этой границе, чтобы
// остальной код не разбирал форму JSON-объекта.
type Refresher struct {
	client *http.Client
	cfg    *cfg.RefresherCfg
	logger logger.Logger
}

func NewRefresher(cfg *cfg.RefresherCfg, logger logger.Logger) *Refresher {
	return &Refresher{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		logger: logger,
	}
}

// InvokeRefreshAll вызывает функцию обновления. Транспортные сбои повторяются
// с экспоненциальной задержкой и jitter; отказ по лимиту — терминальный
// исход и не повторяется никогда.
func (r *Refresher) InvokeRefreshAll(ctx context.Context) (*usecase.InvokeRefreshRes, error) {
	const (
		op          = "Refresher.InvokeRefreshAll"
		baseBackoff = 500 * time.Millisecond
		maxBackoff  = 5 * time.Second
	)

	var lastErr error
	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(jitter.ExponentialBackoff(baseBackoff, maxBackoff, attempt-1, jitter.DefaultJitter)):
			case <-ctx.Done():
				return nil, e.Wrap(op, ctx.Err())
			}
		}

		res, err := r.invoke(ctx)
		if err == nil {
			return res, nil
		}

		lastErr = err
		r.logger.Warnf("%s: attempt %d failed: %v", op, attempt+1, err)
	}

	return nil, e.Wrap(op, lastErr)
}

func (r *Refresher) invoke(ctx context.Context) (*usecase.InvokeRefreshRes, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.Endpoint, bytes.NewReader([]byte("{}")))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("refresh function returned %d", resp.StatusCode)
	}

	var raw refreshResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode refresh response: %w", err)
	}

	if raw.Error {
		next, err := time.Parse(time.RFC3339, raw.NextRefreshDate)
		if err != nil {
			return nil, fmt.Errorf("invalid nextRefreshDate %q: %w", raw.NextRefreshDate, err)
		}

		return &usecase.InvokeRefreshRes{
			Denied: &usecase.QuotaDenied{
				Message:         raw.Message,
				NextRefreshDate: next,
			},
		}, nil
	}

	return &usecase.InvokeRefreshRes{
		Ok: &usecase.RefreshOK{
			Updated: raw.Updated,
			Checked: raw.Checked,
		},
	}, nil
}
