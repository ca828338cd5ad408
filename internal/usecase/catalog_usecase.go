package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/krolist-app/go-backend/internal/domain"
	"github.com/krolist-app/go-backend/pkg/e"
	"github.com/krolist-app/go-backend/pkg/logger"
)

// CatalogUseCase реализует кураторские операции над каталогом товаров.
type CatalogUseCase struct {
	productRepo ProductRepository
	cacheRepo   CacheRepository
	imagesInfra ImagesInfra
	outboxRepo  OutboxRepository
	dbPool      transaction.Transactional
	logger      logger.Logger
}

func NewCatalogUC(
	productRepo ProductRepository,
	cacheRepo CacheRepository,
	imagesInfra ImagesInfra,
	outboxRepo OutboxRepository,
	dbPool transaction.Transactional,
	logger logger.Logger,
) *CatalogUseCase {
	return &CatalogUseCase{
		productRepo: productRepo,
		cacheRepo:   cacheRepo,
		imagesInfra: imagesInfra,
		outboxRepo:  outboxRepo,
		dbPool:      dbPool,
		logger:      logger,
	}
}

// RegisterProduct добавляет товар в одну или несколько коллекций в одной
// транзакции. Изображение, загруженное до транзакции, очищается при её
// откате.
func (c *CatalogUseCase) RegisterProduct(ctx context.Context, req *RegisterProductReq) (*RegisterProductRes, error) {
	const op = "CatalogUseCase.RegisterProduct"

	var err error
	if err = c.validateProduct(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	var (
		imageRes *UploadImageRes
		uploaded bool
	)

	if req.Image != nil {
		imageRes, err = c.imagesInfra.UploadImage(ctx, NewUploadImageReq(req.Title, *req.Image))
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		uploaded = true
	}

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, c.dbPool)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	// Если произошла ошибка, происходит Rollback транзакции и очистка загруженного изображения
	defer func() {
		if err != nil {
			if tx.IsActive() {
				tx.Rollback(ctx)
			}

			if uploaded && imageRes != nil {
				c.logger.Warnf(
					"Cleaning up orphaned image after transaction failure. product_title: %s, error: %v",
					req.Title,
					e.Wrap(op, err),
				)

				c.imagesInfra.CleanupImages([]string{imageRes.Key})
			}
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	infos := make([]ProductInfo, 0, len(req.Collections))
	for _, collection := range req.Collections {
		product := domain.NewProduct(req.Title, req.Store, collection, req.Price, req.Currency)
		product.ProductURL = req.ProductURL
		if imageRes != nil {
			product.ImageURL = imageRes.URL
		}

		var saved *domain.Product
		saved, err = c.productRepo.Upsert(ctx, product)
		if err != nil {
			return nil, e.Wrap(op, err)
		}

		infos = append(infos, NewProductInfo(saved))
	}

	// Записи outbox фиксируются той же транзакцией, что и строки каталога:
	// событие существует тогда и только тогда, когда мутация зафиксирована
	if err = c.stageRowChangeEvents(ctx, infos); err != nil {
		return nil, e.Wrap(op, err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := c.cacheRepo.InvalidatePriceList(ctx); err != nil {
		c.logger.Warnf("Failed to invalidate price list cache: %v", e.Wrap(op, err))
	}

	res := &RegisterProductRes{Products: infos}
	if imageRes != nil {
		res.ImageURL = imageRes.URL
	}

	return res, nil
}

// ListProducts возвращает все товары каталога.
func (c *CatalogUseCase) ListProducts(ctx context.Context) ([]ProductInfo, error) {
	const op = "CatalogUseCase.ListProducts"

	products, err := c.productRepo.ListAll(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	infos := make([]ProductInfo, 0, len(products))
	for i := range products {
		infos = append(infos, NewProductInfo(&products[i]))
	}

	return infos, nil
}

// stageRowChangeEvents добавляет в outbox по событию на каждую затронутую
// строку каталога. Вызывается внутри открытой транзакции регистрации.
func (c *CatalogUseCase) stageRowChangeEvents(ctx context.Context, infos []ProductInfo) error {
	for _, info := range infos {
		event := RowChangeEvent{
			EventID:    uuid.NewString(),
			Table:      "products",
			Op:         "upsert",
			ProductID:  info.ID,
			Price:      info.CurrentPrice,
			Status:     info.Status,
			OccurredAt: time.Now().UnixNano(),
		}

		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}

		if _, err := c.outboxRepo.Create(ctx, NewOutboxEvent(event.EventID, "row_change", event.ProductID, payload)); err != nil {
			return err
		}
	}

	return nil
}

// validateProduct проверяет корректность входных данных запроса на добавление товара.
func (c *CatalogUseCase) validateProduct(req *RegisterProductReq) error {
	if strings.TrimSpace(req.Title) == "" {
		return e.ErrProductTitleRequired
	}

	if len(req.Collections) == 0 {
		return e.ErrCollectionRequired
	}

	if req.Price <= 0 {
		return e.ErrPriceMustBePositive
	}

	return nil
}
