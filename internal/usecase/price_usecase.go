package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/krolist-app/go-backend/internal/cfg"
	"github.com/krolist-app/go-backend/internal/domain"
	"github.com/krolist-app/go-backend/pkg/e"
	"github.com/krolist-app/go-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

// PriceUseCase реализует массовое обновление цен: валидацию набора правок,
// разворачивание по строкам-дубликатам, пакетное применение и журнал цен.
type PriceUseCase struct {
	productRepo ProductRepository
	historyRepo PriceHistoryRepository
	cacheRepo   CacheRepository
	producer    EventProducer
	logger      logger.Logger
	batchSize   int
	running     atomic.Bool

	now func() time.Time
}

func NewPriceUC(
	productRepo ProductRepository,
	historyRepo PriceHistoryRepository,
	cacheRepo CacheRepository,
	producer EventProducer,
	logger logger.Logger,
	cfg *cfg.ReconcileCfg,
) *PriceUseCase {
	const defaultBatchSize = 10

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	return &PriceUseCase{
		productRepo: productRepo,
		historyRepo: historyRepo,
		cacheRepo:   cacheRepo,
		producer:    producer,
		logger:      logger,
		batchSize:   batchSize,
		now:         time.Now,
	}
}

// BulkUpdatePrices выполняет один запуск сверки цен.
// Невалидные записи отбрасываются до начала применения; ошибка отдельной
// операции не прерывает ни её пачку, ни последующие пачки. Журнал цен
// пополняется один раз после всех пачек и только для изменившихся цен.
func (p *PriceUseCase) BulkUpdatePrices(ctx context.Context, req *BulkUpdateReq) (*BulkUpdateRes, error) {
	const op = "PriceUseCase.BulkUpdatePrices"

	// В рамках одного процесса допускается только один запуск одновременно
	if !p.running.CompareAndSwap(false, true) {
		return nil, e.Wrap(op, e.ErrRunInFlight)
	}
	defer p.running.Store(false)

	runID := uuid.NewString()
	p.reportProgress(ctx, NewRunProgress(runID, RunValidating, 0, 0))

	entries := p.filterEntries(req.Entries)
	if len(entries) == 0 {
		p.reportProgress(ctx, NewRunProgress(runID, RunDone, 0, 0))
		return NewBulkUpdateRes(runID, 0, nil, OutcomeEmpty), nil
	}

	ops, err := p.expandEntries(ctx, entries)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if len(ops) == 0 {
		p.reportProgress(ctx, NewRunProgress(runID, RunDone, 0, 0))
		return NewBulkUpdateRes(runID, 0, nil, OutcomeEmpty), nil
	}

	applied, errs := p.applyBatches(ctx, runID, ops)

	p.reportProgress(ctx, NewRunProgress(runID, RunAppendingHistory, len(ops), len(ops)))
	p.appendHistory(ctx, applied)
	p.publishRowChanges(ctx, applied)

	if err := p.cacheRepo.InvalidatePriceList(ctx); err != nil {
		p.logger.Warnf("Failed to invalidate price list cache: %v", e.Wrap(op, err))
	}

	p.reportProgress(ctx, NewRunProgress(runID, RunDone, len(ops), len(ops)))

	outcome := OutcomeSuccess
	if len(errs) > 0 {
		outcome = OutcomePartial
	}

	return NewBulkUpdateRes(runID, len(applied), errs, outcome), nil
}

// RunProgress возвращает прогресс запуска по его идентификатору.
func (p *PriceUseCase) RunProgress(ctx context.Context, runID string) (*RunProgress, error) {
	const op = "PriceUseCase.RunProgress"

	progress, err := p.cacheRepo.GetRunProgress(ctx, runID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if progress == nil {
		return nil, e.Wrap(op, e.ErrRunNotFound)
	}

	return progress, nil
}

// ExportPriceList строит CSV прайс-листа: одна строка на отличный заголовок.
func (p *PriceUseCase) ExportPriceList(ctx context.Context) ([]byte, error) {
	const op = "PriceUseCase.ExportPriceList"

	products, err := p.loadPriceList(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return BuildPriceListCSV(products), nil
}

// ImportPriceList разбирает CSV и сопоставляет строки с товарами по точному
// заголовку. Несопоставленные заголовки игнорируются.
func (p *PriceUseCase) ImportPriceList(ctx context.Context, r io.Reader) (*ImportRes, error) {
	const op = "PriceUseCase.ImportPriceList"

	imported, err := ParsePriceListCSV(r)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	products, err := p.loadPriceList(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	known := make(map[string]struct{}, len(products))
	for _, product := range products {
		known[product.Title] = struct{}{}
	}

	entries := make([]BulkEditEntry, 0, len(imported))
	unmatched := 0
	for _, entry := range imported {
		if _, ok := known[entry.Title]; !ok {
			unmatched++
			continue
		}
		entries = append(entries, entry)
	}

	return &ImportRes{Entries: entries, Unmatched: unmatched}, nil
}

// filterEntries отбрасывает записи с невалидной ценой или статусом и
// схлопывает дубликаты заголовков (последняя запись выигрывает).
// Отброшенные записи не попадают ни в пачки, ни в список ошибок.
func (p *PriceUseCase) filterEntries(entries []BulkEditEntry) []BulkEditEntry {
	byTitle := make(map[string]int, len(entries))
	result := make([]BulkEditEntry, 0, len(entries))

	for _, entry := range entries {
		title := strings.TrimSpace(entry.Title)
		if title == "" {
			continue
		}

		if _, err := ParsePriceCents(entry.Price); err != nil {
			continue
		}

		if entry.Status != "" && !domain.ValidStatus(entry.Status) {
			continue
		}

		entry.Title = title
		if idx, ok := byTitle[title]; ok {
			result[idx] = entry
			continue
		}

		byTitle[title] = len(result)
		result = append(result, entry)
	}

	return result
}

// expandEntries разворачивает набор правок в операции: по одной на каждую
// строку товара с данным заголовком (дубликаты в разных коллекциях).
func (p *PriceUseCase) expandEntries(ctx context.Context, entries []BulkEditEntry) ([]priceOp, error) {
	titles := make([]string, 0, len(entries))
	for _, entry := range entries {
		titles = append(titles, entry.Title)
	}

	products, err := p.productRepo.ListByTitles(ctx, titles)
	if err != nil {
		return nil, err
	}

	byTitle := make(map[string]BulkEditEntry, len(entries))
	for _, entry := range entries {
		byTitle[entry.Title] = entry
	}

	ops := make([]priceOp, 0, len(products))
	for _, product := range products {
		entry, ok := byTitle[product.Title]
		if !ok {
			continue
		}

		price, err := ParsePriceCents(entry.Price)
		if err != nil {
			continue // отфильтровано ранее, сюда не попадает
		}

		status := product.Status
		if entry.Status != "" {
			status = domain.AvailabilityStatus(entry.Status)
		}

		ops = append(ops, priceOp{
			ProductID:     product.ID,
			Title:         product.Title,
			NewPrice:      price,
			NewStatus:     status,
			PrevPrice:     product.CurrentPrice,
			OriginalPrice: product.OriginalPrice,
			Currency:      product.Currency,
		})
	}

	return ops, nil
}

// applyBatches применяет операции пачками фиксированного размера:
// параллельная отправка внутри пачки, строго последовательное продвижение
// между пачками. Возвращает успешные операции и список ошибок.
func (p *PriceUseCase) applyBatches(ctx context.Context, runID string, ops []priceOp) ([]priceOp, []string) {
	var (
		mu      sync.Mutex
		applied = make([]priceOp, 0, len(ops))
		errs    []string
	)

	checkedAt := p.now()
	processed := 0

	for start := 0; start < len(ops); start += p.batchSize {
		end := start + p.batchSize
		if end > len(ops) {
			end = len(ops)
		}
		batch := ops[start:end]

		var wg sync.WaitGroup
		for _, operation := range batch {
			operation := operation
			wg.Add(1)
			go func() {
				defer wg.Done()

				err := p.productRepo.UpdatePrice(ctx, operation.ProductID, operation.NewPrice, operation.NewStatus, checkedAt)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = append(errs, fmt.Sprintf("product %d (%s): %v", operation.ProductID, operation.Title, err))
					return
				}
				applied = append(applied, operation)
			}()
		}
		wg.Wait()

		processed += len(batch)
		p.reportProgress(ctx, NewRunProgress(runID, RunBatching, processed, len(ops)))
	}

	return applied, errs
}

// appendHistory пополняет журнал цен одной пакетной вставкой — только для
// операций, реально изменивших цену. Ошибка вставки логируется и не влияет
// на итог запуска: источником истины остаётся мутация цены.
func (p *PriceUseCase) appendHistory(ctx context.Context, applied []priceOp) {
	const op = "PriceUseCase.appendHistory"

	records := make([]domain.PriceHistoryRecord, 0, len(applied))
	for _, operation := range applied {
		if operation.NewPrice == operation.PrevPrice {
			continue
		}
		records = append(records, *domain.NewPriceHistoryRecord(
			operation.ProductID,
			operation.NewPrice,
			operation.OriginalPrice,
			operation.Currency,
		))
	}

	if len(records) == 0 {
		return
	}

	if err := p.historyRepo.BulkInsert(ctx, records); err != nil {
		p.logger.Warnf("Failed to append price history: %v", e.Wrap(op, err))
	}
}

// publishRowChanges публикует события изменения строк; ошибки публикации
// логируются и не влияют на итог запуска.
func (p *PriceUseCase) publishRowChanges(ctx context.Context, applied []priceOp) {
	const op = "PriceUseCase.publishRowChanges"

	if len(applied) == 0 {
		return
	}

	events := make([]RowChangeEvent, 0, len(applied))
	for _, operation := range applied {
		events = append(events, RowChangeEvent{
			EventID:    uuid.NewString(),
			Table:      "products",
			Op:         "price_update",
			ProductID:  operation.ProductID,
			Price:      operation.NewPrice,
			Status:     string(operation.NewStatus),
			OccurredAt: p.now().UnixNano(),
		})
	}

	if err := p.producer.WriteRowChanges(ctx, events); err != nil {
		p.logger.Warnf("Failed to publish row change events: %v", e.Wrap(op, err))
	}
}

// reportProgress сохраняет прогресс запуска в кэше, ошибки только логируются.
func (p *PriceUseCase) reportProgress(ctx context.Context, progress *RunProgress) {
	if err := p.cacheRepo.SetRunProgress(ctx, progress); err != nil {
		p.logger.Warnf("Failed to report run progress: %v", err)
	}
}

// loadPriceList возвращает товары из кэша или БД с фоновым прогревом кэша.
func (p *PriceUseCase) loadPriceList(ctx context.Context) ([]ProductInfo, error) {
	const op = "PriceUseCase.loadPriceList"

	cached, err := p.cacheRepo.GetPriceList(ctx)
	if err == nil && cached != nil {
		return cached, nil
	}
	if err != nil {
		p.logger.Warnf("Price list cache read failed: %v", e.Wrap(op, err))
	}

	products, err := p.productRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]ProductInfo, 0, len(products))
	for i := range products {
		infos = append(infos, NewProductInfo(&products[i]))
	}

	// Фоновый прогрев кэша
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		if err := p.cacheRepo.SetPriceList(bgCtx, infos); err != nil {
			p.logger.Warnf("Failed to cache price list in background: %v", e.Wrap(op, err))
		}
	}()

	return infos, nil
}

// ParsePriceCents разбирает строку цены в минорные единицы валюты.
// Требования: положительное конечное число, не более 2 знаков после запятой.
func ParsePriceCents(s string) (int64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, e.ErrInvalidPrice
	}

	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, e.ErrInvalidPrice
	}

	if !d.IsPositive() {
		return 0, e.ErrPriceMustBePositive
	}

	if d.Exponent() < -2 {
		return 0, e.ErrPricePrecision
	}

	// Верхняя граница защищает от переполнения при переводе в минорные единицы
	maxPrice := decimal.NewFromInt(1_000_000_000)
	if d.GreaterThan(maxPrice) {
		return 0, e.ErrInvalidPrice
	}

	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}
