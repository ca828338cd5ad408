package converter

import "github.com/krolist-app/go-backend/internal/usecase"

// CacheConverter преобразует DTO усекейсов в Redis-модели и обратно.
type CacheConverter struct{}

func NewCacheConverter() *CacheConverter {
	return &CacheConverter{}
}

func (c *CacheConverter) ToRedisProgress(p *usecase.RunProgress) *RunProgressRedisModel {
	return &RunProgressRedisModel{
		RunID:     p.RunID,
		State:     string(p.State),
		Processed: p.Processed,
		Total:     p.Total,
		Percent:   p.Percent,
	}
}

func (c *CacheConverter) ToUseCaseProgress(m *RunProgressRedisModel) *usecase.RunProgress {
	return &usecase.RunProgress{
		RunID:     m.RunID,
		State:     usecase.RunState(m.State),
		Processed: m.Processed,
		Total:     m.Total,
		Percent:   m.Percent,
	}
}

func (c *CacheConverter) ToRedisProduct(p *usecase.ProductInfo) *ProductInfoRedisModel {
	return &ProductInfoRedisModel{
		ID:            p.ID,
		Title:         p.Title,
		Store:         p.Store,
		Collection:    p.Collection,
		CurrentPrice:  p.CurrentPrice,
		OriginalPrice: p.OriginalPrice,
		Currency:      p.Currency,
		Status:        p.Status,
		ImageURL:      p.ImageURL,
		ProductURL:    p.ProductURL,
		LastCheckedAt: p.LastCheckedAt,
	}
}

func (c *CacheConverter) ToUseCaseProduct(m *ProductInfoRedisModel) *usecase.ProductInfo {
	return &usecase.ProductInfo{
		ID:            m.ID,
		Title:         m.Title,
		Store:         m.Store,
		Collection:    m.Collection,
		CurrentPrice:  m.CurrentPrice,
		OriginalPrice: m.OriginalPrice,
		Currency:      m.Currency,
		Status:        m.Status,
		ImageURL:      m.ImageURL,
		ProductURL:    m.ProductURL,
		LastCheckedAt: m.LastCheckedAt,
	}
}

func (c *CacheConverter) ToArrRedisProducts(products []usecase.ProductInfo) []ProductInfoRedisModel {
	models := make([]ProductInfoRedisModel, 0, len(products))
	for i := range products {
		models = append(models, *c.ToRedisProduct(&products[i]))
	}
	return models
}

func (c *CacheConverter) ToArrUseCaseProducts(models []ProductInfoRedisModel) []usecase.ProductInfo {
	products := make([]usecase.ProductInfo, 0, len(models))
	for i := range models {
		products = append(products, *c.ToUseCaseProduct(&models[i]))
	}
	return products
}
