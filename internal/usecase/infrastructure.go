package usecase

import "context"

// RefreshInvoker — клиент внешней функции «обновить все цены».
// Ответ декодируется в размеченные варианты на границе:
// ровно одно из полей InvokeRefreshRes не равно nil.
type RefreshInvoker interface {
	InvokeRefreshAll(ctx context.Context) (*InvokeRefreshRes, error)
}

// EventProducer публикует события изменения строк во внешний канал.
type EventProducer interface {
	WriteRowChanges(ctx context.Context, events []RowChangeEvent) error
}

// MessageProducer отправляет уже сериализованное событие outbox как есть.
type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}

type ImagesInfra interface {
	UploadImage(ctx context.Context, req *UploadImageReq) (*UploadImageRes, error)
	CleanupImages(keys []string)
}
