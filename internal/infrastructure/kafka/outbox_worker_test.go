package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/assert/v2"
	"github.com/krolist-app/go-backend/internal/usecase"
)

type noopLogger struct{}

func (noopLogger) Infof(format string, args ...any)             {}
func (noopLogger) Warnf(format string, args ...any)             {}
func (noopLogger) Errorf(err error, format string, args ...any) {}

type fakeOutboxRepo struct {
	events []*usecase.OutboxEvent
}

func (f *fakeOutboxRepo) Create(ctx context.Context, event *usecase.OutboxEvent) (*usecase.OutboxEvent, error) {
	event.ID = int64(len(f.events) + 1)
	f.events = append(f.events, event)
	return event, nil
}

func (f *fakeOutboxRepo) GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*usecase.OutboxEvent, error) {
	batch := make([]*usecase.OutboxEvent, 0, limit)
	for _, event := range f.events {
		if event.Status != usecase.Pending {
			continue
		}
		event.Status = usecase.Processing
		batch = append(batch, event)
		if len(batch) == limit {
			break
		}
	}
	return batch, nil
}

func (f *fakeOutboxRepo) MarkAsProcessed(ctx context.Context, id int64) error {
	for _, event := range f.events {
		if event.ID == id && event.Status == usecase.Processing {
			event.Status = usecase.Processed
		}
	}
	return nil
}

type fakeMessageProducer struct {
	sent    []*usecase.WriteRawMessageReq
	failFor map[int64]error
}

func (f *fakeMessageProducer) WriteRawMessage(ctx context.Context, req *usecase.WriteRawMessageReq) error {
	if err, ok := f.failFor[req.ProductID]; ok {
		return err
	}
	f.sent = append(f.sent, req)
	return nil
}

func seedOutbox(repo *fakeOutboxRepo, n int) {
	for i := 1; i <= n; i++ {
		repo.events = append(repo.events, &usecase.OutboxEvent{
			ID:        int64(i),
			EventID:   "evt",
			EventType: "row_change",
			ProductID: int64(i),
			Payload:   []byte(`{"op":"upsert"}`),
			Status:    usecase.Pending,
		})
	}
}

func TestProcessBatch_DrainsAndMarksProcessed(t *testing.T) {
	repo := &fakeOutboxRepo{}
	seedOutbox(repo, 3)
	producer := &fakeMessageProducer{}
	worker := NewOutboxWorker(repo, noopLogger{}, producer, "")

	hasMore, err := worker.processBatch(context.Background())

	assert.Equal(t, nil, err)
	assert.Equal(t, true, hasMore)
	assert.Equal(t, 3, len(producer.sent))
	for _, event := range repo.events {
		assert.Equal(t, usecase.Processed, event.Status)
	}

	hasMore, err = worker.processBatch(context.Background())
	assert.Equal(t, nil, err)
	assert.Equal(t, false, hasMore)
}

func TestProcessBatch_FailedSendStaysUnprocessed(t *testing.T) {
	repo := &fakeOutboxRepo{}
	seedOutbox(repo, 2)
	producer := &fakeMessageProducer{failFor: map[int64]error{2: errors.New("broker not available")}}
	worker := NewOutboxWorker(repo, noopLogger{}, producer, "")

	hasMore, err := worker.processBatch(context.Background())

	assert.Equal(t, nil, err)
	assert.Equal(t, true, hasMore)
	assert.Equal(t, 1, len(producer.sent))
	assert.Equal(t, usecase.Processed, repo.events[0].Status)
	// Неотправленное событие остаётся в processing и не теряется
	assert.Equal(t, usecase.Processing, repo.events[1].Status)
}

func TestProcessBatch_PreservesPayloadBytes(t *testing.T) {
	repo := &fakeOutboxRepo{}
	payload := []byte(`{"event_id":"abc","table":"products","op":"upsert","product_id":7}`)
	repo.events = append(repo.events, &usecase.OutboxEvent{
		ID:        1,
		ProductID: 7,
		Payload:   payload,
		Status:    usecase.Pending,
	})
	producer := &fakeMessageProducer{}
	worker := NewOutboxWorker(repo, noopLogger{}, producer, "")

	_, err := worker.processBatch(context.Background())

	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(producer.sent))
	assert.Equal(t, int64(7), producer.sent[0].ProductID)
	assert.Equal(t, string(payload), string(producer.sent[0].Payload))
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "connection refused", err: errors.New("dial tcp: connection refused"), want: true},
		{name: "io timeout", err: errors.New("read tcp: i/o timeout"), want: true},
		{name: "broker not available", err: errors.New("[5] Broker Not Available"), want: true},
		{name: "permanent", err: errors.New("message too large"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}
