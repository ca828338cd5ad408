package usecase

import (
	"context"
	"time"

	"github.com/krolist-app/go-backend/internal/cfg"
	"github.com/krolist-app/go-backend/internal/domain"
	"github.com/krolist-app/go-backend/pkg/e"
	"github.com/krolist-app/go-backend/pkg/logger"
)

// RefreshUseCase реализует недельный лимит автоматического обновления цен.
// Локальное состояние лимита — рекомендательная подсказка для интерфейса;
// авторитетное решение принимает внешняя функция обновления, и её отказ
// всегда перезаписывает локальное состояние.
type RefreshUseCase struct {
	quotaRepo QuotaRepository
	cacheRepo CacheRepository
	invoker   RefreshInvoker
	logger    logger.Logger
	weeklyCap int

	now func() time.Time
}

func NewRefreshUC(
	quotaRepo QuotaRepository,
	cacheRepo CacheRepository,
	invoker RefreshInvoker,
	logger logger.Logger,
	cfg *cfg.ReconcileCfg,
) *RefreshUseCase {
	const defaultWeeklyCap = 1

	weeklyCap := cfg.WeeklyRefreshCap
	if weeklyCap <= 0 {
		weeklyCap = defaultWeeklyCap
	}

	return &RefreshUseCase{
		quotaRepo: quotaRepo,
		cacheRepo: cacheRepo,
		invoker:   invoker,
		logger:    logger,
		weeklyCap: weeklyCap,
		now:       time.Now,
	}
}

// GateStatus возвращает локальное состояние недельного лимита на момент now.
// Ошибка чтения счётчика не блокирует пользователя: решение откладывается
// до авторитетного ответа сервера при самом вызове обновления.
func (r *RefreshUseCase) GateStatus(ctx context.Context, now time.Time) (*GateStatusRes, error) {
	const op = "RefreshUseCase.GateStatus"

	// Запомненный авторитетный отказ сервера перекрывает локальный счётчик
	if denial, err := r.cacheRepo.GetRefreshDenial(ctx); err != nil {
		r.logger.Warnf("Refresh denial cache read failed: %v", e.Wrap(op, err))
	} else if denial != nil && denial.After(now) {
		return &GateStatusRes{Allowed: false, Remaining: 0, NextEligible: denial}, nil
	}

	weekStart := domain.WeekStart(now)
	count, err := r.quotaRepo.GetRefreshCount(ctx, weekStart)
	if err != nil {
		r.logger.Warnf("Refresh quota read failed, failing open: %v", e.Wrap(op, err))
		return &GateStatusRes{Allowed: true, Remaining: r.weeklyCap}, nil
	}

	if count >= r.weeklyCap {
		next := domain.NextWeekStart(now)
		return &GateStatusRes{Allowed: false, Remaining: 0, NextEligible: &next}, nil
	}

	return &GateStatusRes{Allowed: true, Remaining: r.weeklyCap - count}, nil
}

// RefreshAll вызывает внешнюю функцию «обновить все цены». Отказ по лимиту —
// ожидаемый пользовательский исход, не ошибка: его дата следующего запуска
// запоминается и перезаписывает локальное состояние лимита.
func (r *RefreshUseCase) RefreshAll(ctx context.Context) (*RefreshRes, error) {
	const op = "RefreshUseCase.RefreshAll"

	res, err := r.invoker.InvokeRefreshAll(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if res.Denied != nil {
		if err := r.cacheRepo.SetRefreshDenial(ctx, res.Denied.NextRefreshDate); err != nil {
			r.logger.Warnf("Failed to store refresh denial: %v", e.Wrap(op, err))
		}

		return &RefreshRes{Denied: res.Denied}, nil
	}

	r.logger.Infof("Refresh completed: updated %d of %d checked", res.Ok.Updated, res.Ok.Checked)

	// Цены могли измениться — сбрасываем кэш прайс-листа
	if err := r.cacheRepo.InvalidatePriceList(ctx); err != nil {
		r.logger.Warnf("Failed to invalidate price list cache: %v", e.Wrap(op, err))
	}

	return &RefreshRes{Updated: res.Ok.Updated, Checked: res.Ok.Checked}, nil
}
