package pgdb

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/krolist-app/go-backend/internal/domain"
	"github.com/krolist-app/go-backend/internal/repository/pgdb/converter"
	"github.com/krolist-app/go-backend/pkg/e"
	"github.com/krolist-app/go-backend/pkg/tr"
)

// ProductRepo реализует репозиторий товаров поверх PostgreSQL.
type ProductRepo struct {
	pool *pgxpool.Pool
	conv *converter.ProductConverter
}

func NewProductRepo(pool *pgxpool.Pool, conv *converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		pool: pool,
		conv: conv,
	}
}

const productColumns = `
	id, title, store, collection, current_price, original_price, currency,
	status, image_url, product_url, last_checked_at, created_at, updated_at
`

// Upsert идемпотентно создаёт или обновляет товар по паре (title, collection).
func (p *ProductRepo) Upsert(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO products (
			title, store, collection, current_price, original_price,
			currency, status, image_url, product_url
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (title, collection)
		DO UPDATE SET
			store = EXCLUDED.store,
			current_price = EXCLUDED.current_price,
			currency = EXCLUDED.currency,
			status = EXCLUDED.status,
			image_url = EXCLUDED.image_url,
			product_url = EXCLUDED.product_url,
			updated_at = NOW()
		RETURNING ` + productColumns

	var model converter.ProductModel
	err = tx.QueryRow(ctx, query,
		product.Title, product.Store, product.Collection,
		product.CurrentPrice, product.OriginalPrice, product.Currency,
		string(product.Status), product.ImageURL, product.ProductURL,
	).Scan(
		&model.ID, &model.Title, &model.Store, &model.Collection,
		&model.CurrentPrice, &model.OriginalPrice, &model.Currency,
		&model.Status, &model.ImageURL, &model.ProductURL,
		&model.LastCheckedAt, &model.CreatedAt, &model.UpdatedAt,
	)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&model), nil
}

// ListAll возвращает все товары каталога в стабильном порядке.
func (p *ProductRepo) ListAll(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY title, collection`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	return p.scanProducts(rows)
}

// ListByTitles возвращает все строки товаров с указанными заголовками,
// включая дубликаты в разных коллекциях.
func (p *ProductRepo) ListByTitles(ctx context.Context, titles []string) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE title = ANY($1) ORDER BY id`

	rows, err := p.pool.Query(ctx, query, titles)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	return p.scanProducts(rows)
}

// UpdatePrice обновляет цену, статус и время последней проверки одной строки.
func (p *ProductRepo) UpdatePrice(ctx context.Context, id int64, price int64, status domain.AvailabilityStatus, checkedAt time.Time) error {
	query := `
		UPDATE products
		SET current_price = $2, status = $3, last_checked_at = $4, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := p.pool.Exec(ctx, query, id, price, string(status), checkedAt)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrStatusBadRequest)
	}

	return nil
}

func (p *ProductRepo) scanProducts(rows pgx.Rows) ([]domain.Product, error) {
	result := make([]domain.Product, 0)
	for rows.Next() {
		var model converter.ProductModel
		if err := rows.Scan(
			&model.ID, &model.Title, &model.Store, &model.Collection,
			&model.CurrentPrice, &model.OriginalPrice, &model.Currency,
			&model.Status, &model.ImageURL, &model.ProductURL,
			&model.LastCheckedAt, &model.CreatedAt, &model.UpdatedAt,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, *p.conv.ToEntity(&model))
	}
	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}
