package pgdb

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/krolist-app/go-backend/internal/domain"
	"github.com/krolist-app/go-backend/internal/repository/pgdb/converter"
	"github.com/krolist-app/go-backend/pkg/e"
)

// PriceHistoryRepo реализует append-only журнал цен поверх PostgreSQL.
type PriceHistoryRepo struct {
	pool *pgxpool.Pool
	conv *converter.PriceHistoryConverter
}

func NewPriceHistoryRepo(pool *pgxpool.Pool, conv *converter.PriceHistoryConverter) *PriceHistoryRepo {
	return &PriceHistoryRepo{
		pool: pool,
		conv: conv,
	}
}

// BulkInsert вставляет записи журнала одной пакетной операцией.
// Журнал append-only: записи никогда не изменяются и не удаляются.
func (p *PriceHistoryRepo) BulkInsert(ctx context.Context, records []domain.PriceHistoryRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO price_history (product_id, price, original_price, currency)
		VALUES ($1, $2, $3, $4)
	`

	batch := &pgx.Batch{}
	for i := range records {
		model := p.conv.ToModel(&records[i])
		batch.Queue(query, model.ProductID, model.Price, model.OriginalPrice, model.Currency)
	}

	results := p.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range records {
		if _, err := results.Exec(); err != nil {
			return e.Wrap(whereami.WhereAmI(), err)
		}
	}

	return nil
}
