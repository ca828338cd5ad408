package converter

import (
	"github.com/krolist-app/go-backend/internal/domain"
	"github.com/krolist-app/go-backend/internal/usecase"
)

// ProductConverter преобразует сущности Product между domain и моделью PostgreSQL.
type ProductConverter struct{}

func NewProductConverter() *ProductConverter {
	return &ProductConverter{}
}

func (c *ProductConverter) ToEntity(model *ProductModel) *domain.Product {
	return &domain.Product{
		ID:            model.ID,
		Title:         model.Title,
		Store:         model.Store,
		Collection:    model.Collection,
		CurrentPrice:  model.CurrentPrice,
		OriginalPrice: model.OriginalPrice,
		Currency:      model.Currency,
		Status:        domain.AvailabilityStatus(model.Status),
		ImageURL:      model.ImageURL,
		ProductURL:    model.ProductURL,
		LastCheckedAt: model.LastCheckedAt,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

func (c *ProductConverter) ToModel(entity *domain.Product) *ProductModel {
	return &ProductModel{
		ID:            entity.ID,
		Title:         entity.Title,
		Store:         entity.Store,
		Collection:    entity.Collection,
		CurrentPrice:  entity.CurrentPrice,
		OriginalPrice: entity.OriginalPrice,
		Currency:      entity.Currency,
		Status:        string(entity.Status),
		ImageURL:      entity.ImageURL,
		ProductURL:    entity.ProductURL,
		LastCheckedAt: entity.LastCheckedAt,
		CreatedAt:     entity.CreatedAt,
		UpdatedAt:     entity.UpdatedAt,
	}
}

// PriceHistoryConverter преобразует записи журнала цен между domain и моделью PostgreSQL.
type PriceHistoryConverter struct{}

func NewPriceHistoryConverter() *PriceHistoryConverter {
	return &PriceHistoryConverter{}
}

func (c *PriceHistoryConverter) ToEntity(model *PriceHistoryModel) *domain.PriceHistoryRecord {
	return &domain.PriceHistoryRecord{
		ID:            model.ID,
		ProductID:     model.ProductID,
		Price:         model.Price,
		OriginalPrice: model.OriginalPrice,
		Currency:      model.Currency,
		RecordedAt:    model.RecordedAt,
	}
}

func (c *PriceHistoryConverter) ToModel(entity *domain.PriceHistoryRecord) *PriceHistoryModel {
	return &PriceHistoryModel{
		ID:            entity.ID,
		ProductID:     entity.ProductID,
		Price:         entity.Price,
		OriginalPrice: entity.OriginalPrice,
		Currency:      entity.Currency,
		RecordedAt:    entity.RecordedAt,
	}
}

// OutboxEventConverter преобразует сущности OutboxEvent между usecase и моделью PostgreSQL.
type OutboxEventConverter struct{}

func NewOutboxEventConverter() *OutboxEventConverter {
	return &OutboxEventConverter{}
}

func (c *OutboxEventConverter) ToEntity(model *OutboxEventModel) *usecase.OutboxEvent {
	return &usecase.OutboxEvent{
		ID:          model.ID,
		EventID:     model.EventID,
		EventType:   model.EventType,
		ProductID:   model.ProductID,
		Payload:     model.Payload,
		Status:      usecase.OutboxStatus(model.Status),
		CreatedAt:   model.CreatedAt,
		ProcessedAt: model.ProcessedAt,
	}
}

func (c *OutboxEventConverter) ToModel(entity *usecase.OutboxEvent) *OutboxEventModel {
	return &OutboxEventModel{
		ID:          entity.ID,
		EventID:     entity.EventID,
		EventType:   entity.EventType,
		ProductID:   entity.ProductID,
		Payload:     entity.Payload,
		Status:      string(entity.Status),
		CreatedAt:   entity.CreatedAt,
		ProcessedAt: entity.ProcessedAt,
	}
}

func (c *OutboxEventConverter) ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent {
	entities := make([]*usecase.OutboxEvent, 0, len(models))
	for _, model := range models {
		entities = append(entities, c.ToEntity(model))
	}

	return entities
}
