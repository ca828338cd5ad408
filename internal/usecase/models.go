package usecase

import (
	"time"

	"github.com/krolist-app/go-backend/internal/domain"
)

// PRICE USECASE

// RunState — этап запуска массового обновления цен.
type RunState string

const (
	RunValidating       RunState = "validating"
	RunBatching         RunState = "batching"
	RunAppendingHistory RunState = "appending_history"
	RunDone             RunState = "done"
)

// RunOutcome — итог запуска массового обновления цен.
type RunOutcome string

const (
	OutcomeSuccess RunOutcome = "success"
	OutcomePartial RunOutcome = "partial"
	OutcomeEmpty   RunOutcome = "empty"
)

// BulkEditEntry — одна строка набора правок: отличный от других заголовок
// товара плюс новая цена и статус. Цена приходит строкой и валидируется
// на этапе Validating; невалидные записи молча отбрасываются.
type BulkEditEntry struct {
	Title  string
	Price  string
	Status string
}

// BulkUpdateReq — запрос на массовое обновление цен.
type BulkUpdateReq struct {
	Entries []BulkEditEntry
}

// BulkUpdateRes — итог запуска: число обновлённых строк и список ошибок.
// Непустой список ошибок означает частичный успех, а не полный провал.
type BulkUpdateRes struct {
	RunID        string
	UpdatedCount int
	Errors       []string
	Outcome      RunOutcome
}

// priceOp — одна операция обновления для конкретной строки товара.
// Запись с дублирующимся заголовком разворачивается в несколько операций.
type priceOp struct {
	ProductID     int64
	Title         string
	NewPrice      int64
	NewStatus     domain.AvailabilityStatus
	PrevPrice     int64
	OriginalPrice int64
	Currency      string
}

// RunProgress — прогресс запуска, хранится в кэше и опрашивается извне.
type RunProgress struct {
	RunID     string
	State     RunState
	Processed int
	Total     int
	Percent   int
}

// ImportRes — результат импорта CSV: записи, сопоставленные по точному
// заголовку. Несопоставленные заголовки игнорируются и только подсчитываются.
type ImportRes struct {
	Entries   []BulkEditEntry
	Unmatched int
}

// REFRESH USECASE

// GateStatusRes — локальное (рекомендательное) состояние недельного лимита.
type GateStatusRes struct {
	Allowed      bool
	Remaining    int
	NextEligible *time.Time
}

// RefreshRes — итог вызова внешней функции обновления.
// При Denied == nil вызов успешен.
type RefreshRes struct {
	Updated int
	Checked int
	Denied  *QuotaDenied
}

// InvokeRefreshRes — размеченный результат вызова внешней функции:
// заполняется ровно одно поле.
type InvokeRefreshRes struct {
	Ok     *RefreshOK
	Denied *QuotaDenied
}

type RefreshOK struct {
	Updated int
	Checked int
}

type QuotaDenied struct {
	Message         string
	NextRefreshDate time.Time
}

// CATALOG USECASE

// RegisterProductReq — запрос на добавление товара в одну или несколько коллекций.
type RegisterProductReq struct {
	Title       string
	Store       string
	Collections []string
	Price       int64
	Currency    string
	ProductURL  string
	Image       *ProductImage
}

type RegisterProductRes struct {
	Products []ProductInfo
	ImageURL string
}

// ProductImage представляет изображение, загруженное через multipart/form-data.
type ProductImage struct {
	Data     []byte
	MimeType string
	Size     int64
	Name     string
}

// ProductInfo — DTO с информацией о товаре для внешнего использования.
type ProductInfo struct {
	ID            int64
	Title         string
	Store         string
	Collection    string
	CurrentPrice  int64
	OriginalPrice int64
	Currency      string
	Status        string
	ImageURL      string
	ProductURL    string
	LastCheckedAt *time.Time
}

// INFRASTRUCTURE

// RowChangeEvent — событие изменения строки для внешнего pub/sub канала.
// Сериализованная форма события фиксирована: она же становится payload
// записи outbox и телом Kafka-сообщения.
type RowChangeEvent struct {
	EventID    string `json:"event_id"`
	Table      string `json:"table"`
	Op         string `json:"op"`
	ProductID  int64  `json:"product_id"`
	Price      int64  `json:"price"`
	Status     string `json:"status"`
	OccurredAt int64  `json:"occurred_at"`
}

// OutboxStatus — состояние записи транзакционного outbox.
type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

// OutboxEvent — запись транзакционного outbox: событие изменения строки,
// зафиксированное в той же транзакции, что и сама мутация каталога.
// Доставку в Kafka выполняет фоновый воркер.
type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   string
	ProductID   int64
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// WriteRawMessageReq — запрос на отправку уже сериализованного события.
type WriteRawMessageReq struct {
	ProductID int64
	Payload   []byte
}

type UploadImageReq struct {
	Title string
	Image ProductImage
}

type UploadImageRes struct {
	Key string
	URL string
}

// MAPPERS

func NewRunProgress(runID string, state RunState, processed, total int) *RunProgress {
	percent := 0
	if total > 0 {
		percent = processed * 100 / total
	}

	return &RunProgress{
		RunID:     runID,
		State:     state,
		Processed: processed,
		Total:     total,
		Percent:   percent,
	}
}

func NewBulkUpdateRes(runID string, updated int, errs []string, outcome RunOutcome) *BulkUpdateRes {
	return &BulkUpdateRes{
		RunID:        runID,
		UpdatedCount: updated,
		Errors:       errs,
		Outcome:      outcome,
	}
}

func NewProductInfo(p *domain.Product) ProductInfo {
	return ProductInfo{
		ID:            p.ID,
		Title:         p.Title,
		Store:         p.Store,
		Collection:    p.Collection,
		CurrentPrice:  p.CurrentPrice,
		OriginalPrice: p.OriginalPrice,
		Currency:      p.Currency,
		Status:        string(p.Status),
		ImageURL:      p.ImageURL,
		ProductURL:    p.ProductURL,
		LastCheckedAt: p.LastCheckedAt,
	}
}

func NewProductImage(data []byte, mimeType string, size int64, name string) *ProductImage {
	return &ProductImage{
		Data:     data,
		MimeType: mimeType,
		Size:     size,
		Name:     name,
	}
}

func NewUploadImageReq(title string, image ProductImage) *UploadImageReq {
	return &UploadImageReq{
		Title: title,
		Image: image,
	}
}

func NewUploadImageRes(key, url string) *UploadImageRes {
	return &UploadImageRes{
		Key: key,
		URL: url,
	}
}

func NewOutboxEvent(eventID, eventType string, productID int64, payload []byte) *OutboxEvent {
	return &OutboxEvent{
		EventID:   eventID,
		EventType: eventType,
		ProductID: productID,
		Payload:   payload,
		Status:    Pending,
		CreatedAt: time.Now(),
	}
}

func NewWriteRawMessageReq(productID int64, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		ProductID: productID,
		Payload:   payload,
	}
}
