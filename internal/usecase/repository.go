package usecase

import (
	"context"
	"time"

	"github.com/krolist-app/go-backend/internal/domain"
)

type ProductRepository interface {
	Upsert(ctx context.Context, product *domain.Product) (*domain.Product, error)
	ListAll(ctx context.Context) ([]domain.Product, error)
	ListByTitles(ctx context.Context, titles []string) ([]domain.Product, error)
	UpdatePrice(ctx context.Context, id int64, price int64, status domain.AvailabilityStatus, checkedAt time.Time) error
}

type PriceHistoryRepository interface {
	BulkInsert(ctx context.Context, records []domain.PriceHistoryRecord) error
}

type QuotaRepository interface {
	// GetRefreshCount возвращает счётчик обновлений недельного бакета.
	// Отсутствие строки бакета — не ошибка, возвращается 0.
	GetRefreshCount(ctx context.Context, weekStart time.Time) (int, error)
}

type CacheRepository interface {
	SetRunProgress(ctx context.Context, progress *RunProgress) error
	GetRunProgress(ctx context.Context, runID string) (*RunProgress, error)
	SetRefreshDenial(ctx context.Context, nextEligible time.Time) error
	GetRefreshDenial(ctx context.Context) (*time.Time, error)
	SetPriceList(ctx context.Context, products []ProductInfo) error
	GetPriceList(ctx context.Context) ([]ProductInfo, error)
	InvalidatePriceList(ctx context.Context) error
}

type OutboxRepository interface {
	// Create вставляет запись outbox в открытую транзакцию из контекста.
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
}

type ImageRepository interface {
	Upload(ctx context.Context, image *domain.Image) (string, error)
	Delete(ctx context.Context, key string) error
}
