package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/krolist-app/go-backend/internal/cfg"
	"github.com/krolist-app/go-backend/internal/domain"
	"github.com/krolist-app/go-backend/pkg/e"
)

type noopLogger struct{}

func (noopLogger) Infof(format string, args ...any)             {}
func (noopLogger) Warnf(format string, args ...any)             {}
func (noopLogger) Errorf(err error, format string, args ...any) {}

type fakeProductRepo struct {
	mu       sync.Mutex
	products []domain.Product
	failIDs  map[int64]bool
	updated  map[int64]int64
	listErr  error
}

func (f *fakeProductRepo) Upsert(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	saved := *product
	saved.ID = int64(len(f.products) + 1)
	f.products = append(f.products, saved)
	return &saved, nil
}

func (f *fakeProductRepo) ListAll(ctx context.Context) ([]domain.Product, error) {
	return f.products, f.listErr
}

func (f *fakeProductRepo) ListByTitles(ctx context.Context, titles []string) ([]domain.Product, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}

	want := make(map[string]struct{}, len(titles))
	for _, title := range titles {
		want[title] = struct{}{}
	}

	result := make([]domain.Product, 0)
	for _, product := range f.products {
		if _, ok := want[product.Title]; ok {
			result = append(result, product)
		}
	}
	return result, nil
}

func (f *fakeProductRepo) UpdatePrice(ctx context.Context, id int64, price int64, status domain.AvailabilityStatus, checkedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failIDs[id] {
		return errors.New("update failed")
	}
	if f.updated == nil {
		f.updated = make(map[int64]int64)
	}
	f.updated[id] = price

	for i := range f.products {
		if f.products[i].ID == id {
			f.products[i].CurrentPrice = price
			f.products[i].Status = status
			f.products[i].LastCheckedAt = &checkedAt
		}
	}
	return nil
}

type fakeHistoryRepo struct {
	inserted []domain.PriceHistoryRecord
	err      error
}

func (f *fakeHistoryRepo) BulkInsert(ctx context.Context, records []domain.PriceHistoryRecord) error {
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, records...)
	return nil
}

type fakeCacheRepo struct {
	mu        sync.Mutex
	progress  map[string]*RunProgress
	reports   []RunProgress
	denial    *time.Time
	priceList []ProductInfo
	getErr    error
}

func (f *fakeCacheRepo) SetRunProgress(ctx context.Context, progress *RunProgress) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.progress == nil {
		f.progress = make(map[string]*RunProgress)
	}
	f.progress[progress.RunID] = progress
	f.reports = append(f.reports, *progress)
	return nil
}

func (f *fakeCacheRepo) GetRunProgress(ctx context.Context, runID string) (*RunProgress, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.progress[runID], nil
}

func (f *fakeCacheRepo) SetRefreshDenial(ctx context.Context, nextEligible time.Time) error {
	f.denial = &nextEligible
	return nil
}

func (f *fakeCacheRepo) GetRefreshDenial(ctx context.Context) (*time.Time, error) {
	return f.denial, f.getErr
}

func (f *fakeCacheRepo) SetPriceList(ctx context.Context, products []ProductInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.priceList = products
	return nil
}

func (f *fakeCacheRepo) GetPriceList(ctx context.Context) ([]ProductInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.priceList, nil
}

func (f *fakeCacheRepo) InvalidatePriceList(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.priceList = nil
	return nil
}

type fakeProducer struct {
	events []RowChangeEvent
	err    error
}

func (f *fakeProducer) WriteRowChanges(ctx context.Context, events []RowChangeEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, events...)
	return nil
}

type fakeOutboxRepo struct {
	created []*OutboxEvent
	err     error
}

func (f *fakeOutboxRepo) Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	event.ID = int64(len(f.created) + 1)
	f.created = append(f.created, event)
	return event, nil
}

func (f *fakeOutboxRepo) GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	batch := make([]*OutboxEvent, 0, limit)
	for _, event := range f.created {
		if event.Status != Pending {
			continue
		}
		event.Status = Processing
		batch = append(batch, event)
		if len(batch) == limit {
			break
		}
	}
	return batch, nil
}

func (f *fakeOutboxRepo) MarkAsProcessed(ctx context.Context, id int64) error {
	for _, event := range f.created {
		if event.ID == id && event.Status == Processing {
			event.Status = Processed
		}
	}
	return nil
}

func seedProducts(n int) []domain.Product {
	products := make([]domain.Product, 0, n)
	for i := 1; i <= n; i++ {
		products = append(products, domain.Product{
			ID:           int64(i),
			Title:        fmt.Sprintf("item-%02d", i),
			Collection:   "wishlist",
			CurrentPrice: 1000,
			Currency:     "RUB",
			Status:       domain.StatusAvailable,
		})
	}
	return products
}

func newPriceUC(repo *fakeProductRepo, history *fakeHistoryRepo, cache *fakeCacheRepo, producer *fakeProducer) *PriceUseCase {
	return NewPriceUC(repo, history, cache, producer, noopLogger{}, &cfg.ReconcileCfg{BatchSize: 10, WeeklyRefreshCap: 1})
}

func TestBulkUpdatePrices_PartialFailure(t *testing.T) {
	repo := &fakeProductRepo{
		products: seedProducts(25),
		failIDs:  map[int64]bool{17: true},
	}
	history := &fakeHistoryRepo{}
	cache := &fakeCacheRepo{}
	producer := &fakeProducer{}
	uc := newPriceUC(repo, history, cache, producer)

	entries := make([]BulkEditEntry, 0, 25)
	for i := 1; i <= 25; i++ {
		entries = append(entries, BulkEditEntry{
			Title: fmt.Sprintf("item-%02d", i),
			Price: "19.99",
		})
	}

	res, err := uc.BulkUpdatePrices(context.Background(), &BulkUpdateReq{Entries: entries})

	assert.Equal(t, nil, err)
	assert.Equal(t, 24, res.UpdatedCount)
	assert.Equal(t, 1, len(res.Errors))
	assert.Equal(t, OutcomePartial, res.Outcome)

	// Все кроме упавшей операции должны быть применены
	assert.Equal(t, 24, len(repo.updated))
	assert.Equal(t, int64(1999), repo.updated[1])

	// Журнал пополняется только успешными операциями с изменившейся ценой
	assert.Equal(t, 24, len(history.inserted))

	// Отказавшая операция не попадает в события изменения строк
	assert.Equal(t, 24, len(producer.events))
}

func TestBulkUpdatePrices_HistoryOnlyForChangedPrices(t *testing.T) {
	products := seedProducts(3)
	products[0].CurrentPrice = 1999 // совпадает с новой ценой

	repo := &fakeProductRepo{products: products}
	history := &fakeHistoryRepo{}
	cache := &fakeCacheRepo{}
	uc := newPriceUC(repo, history, cache, &fakeProducer{})

	entries := []BulkEditEntry{
		{Title: "item-01", Price: "19.99"},
		{Title: "item-02", Price: "19.99"},
		{Title: "item-03", Price: "19.99"},
	}

	res, err := uc.BulkUpdatePrices(context.Background(), &BulkUpdateReq{Entries: entries})

	assert.Equal(t, nil, err)
	assert.Equal(t, 3, res.UpdatedCount)
	assert.Equal(t, OutcomeSuccess, res.Outcome)

	// item-01 обновлён, но цена не изменилась — записи в журнале нет
	assert.Equal(t, 2, len(history.inserted))
}

func TestBulkUpdatePrices_InvalidEntriesFilteredSilently(t *testing.T) {
	repo := &fakeProductRepo{products: seedProducts(2)}
	history := &fakeHistoryRepo{}
	cache := &fakeCacheRepo{}
	uc := newPriceUC(repo, history, cache, &fakeProducer{})

	entries := []BulkEditEntry{
		{Title: "item-01", Price: "12.50"},
		{Title: "", Price: "10.00"},              // пустой заголовок
		{Title: "item-02", Price: "abc"},         // не число
		{Title: "item-02", Price: "-5"},          // не положительная
		{Title: "item-02", Price: "1.999"},       // больше 2 знаков
		{Title: "item-02", Price: "5", Status: "sold_out"}, // неизвестный статус
	}

	res, err := uc.BulkUpdatePrices(context.Background(), &BulkUpdateReq{Entries: entries})

	assert.Equal(t, nil, err)
	// Отброшенные записи не считаются ошибками запуска
	assert.Equal(t, 0, len(res.Errors))
	assert.Equal(t, 1, res.UpdatedCount)
	assert.Equal(t, int64(1250), repo.updated[1])
}

func TestBulkUpdatePrices_DuplicateTitleLastWins(t *testing.T) {
	repo := &fakeProductRepo{products: seedProducts(1)}
	uc := newPriceUC(repo, &fakeHistoryRepo{}, &fakeCacheRepo{}, &fakeProducer{})

	entries := []BulkEditEntry{
		{Title: "item-01", Price: "10.00"},
		{Title: "item-01", Price: "20.00"},
	}

	res, err := uc.BulkUpdatePrices(context.Background(), &BulkUpdateReq{Entries: entries})

	assert.Equal(t, nil, err)
	assert.Equal(t, 1, res.UpdatedCount)
	assert.Equal(t, int64(2000), repo.updated[1])
}

func TestBulkUpdatePrices_DuplicateRowsExpanded(t *testing.T) {
	// Один заголовок в двух коллекциях — обе строки получают новую цену
	repo := &fakeProductRepo{
		products: []domain.Product{
			{ID: 1, Title: "item-01", Collection: "wishlist", CurrentPrice: 1000, Currency: "RUB"},
			{ID: 2, Title: "item-01", Collection: "gifts", CurrentPrice: 1100, Currency: "RUB"},
		},
	}
	history := &fakeHistoryRepo{}
	uc := newPriceUC(repo, history, &fakeCacheRepo{}, &fakeProducer{})

	res, err := uc.BulkUpdatePrices(context.Background(), &BulkUpdateReq{
		Entries: []BulkEditEntry{{Title: "item-01", Price: "15.00"}},
	})

	assert.Equal(t, nil, err)
	assert.Equal(t, 2, res.UpdatedCount)
	assert.Equal(t, int64(1500), repo.updated[1])
	assert.Equal(t, int64(1500), repo.updated[2])
	assert.Equal(t, 2, len(history.inserted))
}

func TestBulkUpdatePrices_IdempotentRerun(t *testing.T) {
	repo := &fakeProductRepo{products: seedProducts(5)}
	history := &fakeHistoryRepo{}
	uc := newPriceUC(repo, history, &fakeCacheRepo{}, &fakeProducer{})

	entries := make([]BulkEditEntry, 0, 5)
	for i := 1; i <= 5; i++ {
		entries = append(entries, BulkEditEntry{
			Title: fmt.Sprintf("item-%02d", i),
			Price: "19.99",
		})
	}

	first, err := uc.BulkUpdatePrices(context.Background(), &BulkUpdateReq{Entries: entries})
	assert.Equal(t, nil, err)
	assert.Equal(t, 5, first.UpdatedCount)
	assert.Equal(t, OutcomeSuccess, first.Outcome)
	assert.Equal(t, 5, len(history.inserted))

	// Повторный запуск того же набора: конечное состояние не меняется,
	// новых записей в журнале не появляется
	second, err := uc.BulkUpdatePrices(context.Background(), &BulkUpdateReq{Entries: entries})
	assert.Equal(t, nil, err)
	assert.Equal(t, 5, second.UpdatedCount)
	assert.Equal(t, OutcomeSuccess, second.Outcome)
	assert.Equal(t, 5, len(history.inserted))

	for _, product := range repo.products {
		assert.Equal(t, int64(1999), product.CurrentPrice)
	}
}

func TestBulkUpdatePrices_EmptyEditSet(t *testing.T) {
	uc := newPriceUC(&fakeProductRepo{}, &fakeHistoryRepo{}, &fakeCacheRepo{}, &fakeProducer{})

	res, err := uc.BulkUpdatePrices(context.Background(), &BulkUpdateReq{
		Entries: []BulkEditEntry{{Title: "", Price: "bad"}},
	})

	assert.Equal(t, nil, err)
	assert.Equal(t, OutcomeEmpty, res.Outcome)
	assert.Equal(t, 0, res.UpdatedCount)
}

func TestBulkUpdatePrices_RunInFlight(t *testing.T) {
	uc := newPriceUC(&fakeProductRepo{}, &fakeHistoryRepo{}, &fakeCacheRepo{}, &fakeProducer{})
	uc.running.Store(true)

	_, err := uc.BulkUpdatePrices(context.Background(), &BulkUpdateReq{
		Entries: []BulkEditEntry{{Title: "item-01", Price: "10.00"}},
	})

	assert.Equal(t, true, errors.Is(err, e.ErrRunInFlight))
}

func TestBulkUpdatePrices_ProgressReported(t *testing.T) {
	repo := &fakeProductRepo{products: seedProducts(25)}
	cache := &fakeCacheRepo{}
	uc := newPriceUC(repo, &fakeHistoryRepo{}, cache, &fakeProducer{})

	entries := make([]BulkEditEntry, 0, 25)
	for i := 1; i <= 25; i++ {
		entries = append(entries, BulkEditEntry{
			Title: fmt.Sprintf("item-%02d", i),
			Price: "9.99",
		})
	}

	res, err := uc.BulkUpdatePrices(context.Background(), &BulkUpdateReq{Entries: entries})

	assert.Equal(t, nil, err)

	// Прогресс продвигается после каждой пачки: 10, 20, 25
	batching := make([]int, 0)
	for _, report := range cache.reports {
		if report.State == RunBatching {
			batching = append(batching, report.Processed)
		}
	}
	assert.Equal(t, []int{10, 20, 25}, batching)

	final := cache.progress[res.RunID]
	assert.Equal(t, RunDone, final.State)
	assert.Equal(t, 100, final.Percent)
}

func TestRunProgress_NotFound(t *testing.T) {
	uc := newPriceUC(&fakeProductRepo{}, &fakeHistoryRepo{}, &fakeCacheRepo{}, &fakeProducer{})

	_, err := uc.RunProgress(context.Background(), "no-such-run")

	assert.Equal(t, true, errors.Is(err, e.ErrRunNotFound))
}

func TestImportPriceList_UnmatchedTitlesCounted(t *testing.T) {
	repo := &fakeProductRepo{products: seedProducts(2)}
	uc := newPriceUC(repo, &fakeHistoryRepo{}, &fakeCacheRepo{}, &fakeProducer{})

	csvData := "\"Product Title\",\"Store\",\"Current Price\"\n" +
		"\"item-01\",\"\",\"12.00\"\n" +
		"\"unknown item\",\"\",\"9.99\"\n"

	res, err := uc.ImportPriceList(context.Background(), bytes.NewBufferString(csvData))

	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(res.Entries))
	assert.Equal(t, "item-01", res.Entries[0].Title)
	assert.Equal(t, "12.00", res.Entries[0].Price)
	assert.Equal(t, 1, res.Unmatched)
}

func TestParsePriceCents(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr error
	}{
		{"19.99", 1999, nil},
		{"19", 1900, nil},
		{" 7.5 ", 750, nil},
		{"0.01", 1, nil},
		{"", 0, e.ErrInvalidPrice},
		{"abc", 0, e.ErrInvalidPrice},
		{"0", 0, e.ErrPriceMustBePositive},
		{"-5", 0, e.ErrPriceMustBePositive},
		{"1.999", 0, e.ErrPricePrecision},
		{"2000000000", 0, e.ErrInvalidPrice},
	}

	for _, tt := range tests {
		got, err := ParsePriceCents(tt.in)
		if tt.wantErr != nil {
			assert.Equal(t, true, errors.Is(err, tt.wantErr))
			continue
		}
		assert.Equal(t, nil, err)
		assert.Equal(t, tt.want, got)
	}
}
