package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jimlawless/whereami"
	"github.com/krolist-app/go-backend/internal/cfg"
	"github.com/krolist-app/go-backend/internal/repository/redis/converter"
	"github.com/krolist-app/go-backend/internal/usecase"
	"github.com/krolist-app/go-backend/pkg/clients"
	"github.com/krolist-app/go-backend/pkg/e"
	"github.com/krolist-app/go-backend/pkg/logger"
	r "github.com/redis/go-redis/v9"
)

const (
	priceListKey     = "pricelist:all"
	refreshDenialKey = "refresh:denied_until"
)

// CacheRepo хранит в Redis прогресс запусков массового обновления,
// авторитетный отказ сервера по недельному лимиту и кэш прайс-листа.
type CacheRepo struct {
	client *clients.RedisClient
	conv   *converter.CacheConverter
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, conv *converter.CacheConverter,
	cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		conv:   conv,
		cfg:    cfg,
		logger: logger,
	}
}

// SetRunProgress сохраняет прогресс запуска с TTL.
func (c *CacheRepo) SetRunProgress(ctx context.Context, progress *usecase.RunProgress) error {
	data, err := json.Marshal(c.conv.ToRedisProgress(progress))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := c.client.Client.Set(ctx, c.runKey(progress.RunID), data, c.cfg.RunTTL).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// GetRunProgress возвращает прогресс запуска; nil без ошибки, если запуска нет.
func (c *CacheRepo) GetRunProgress(ctx context.Context, runID string) (*usecase.RunProgress, error) {
	data, err := c.client.Client.Get(ctx, c.runKey(runID)).Bytes()
	if errors.Is(err, r.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var model converter.RunProgressRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return c.conv.ToUseCaseProgress(&model), nil
}

// SetRefreshDenial запоминает авторитетный отказ сервера до даты следующего
// допустимого обновления; ключ истекает вместе с самим отказом.
func (c *CacheRepo) SetRefreshDenial(ctx context.Context, nextEligible time.Time) error {
	ttl := time.Until(nextEligible)
	if ttl <= 0 {
		return nil
	}

	value := nextEligible.Format(time.RFC3339)
	if err := c.client.Client.Set(ctx, refreshDenialKey, value, ttl).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// GetRefreshDenial возвращает дату следующего допустимого обновления,
// если сервер ранее отказал; nil без ошибки, если отказа не было.
func (c *CacheRepo) GetRefreshDenial(ctx context.Context) (*time.Time, error) {
	value, err := c.client.Client.Get(ctx, refreshDenialKey).Result()
	if errors.Is(err, r.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	next, err := time.Parse(time.RFC3339, value)
	if err != nil {
		// Повреждённое значение удаляем и считаем, что отказа не было
		if delErr := c.client.Client.Del(context.Background(), refreshDenialKey).Err(); delErr != nil {
			c.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), delErr))
		}
		return nil, nil
	}

	return &next, nil
}

// SetPriceList кэширует прайс-лист целиком с заданным TTL.
func (c *CacheRepo) SetPriceList(ctx context.Context, products []usecase.ProductInfo) error {
	data, err := json.Marshal(c.conv.ToArrRedisProducts(products))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := c.client.Client.Set(ctx, priceListKey, data, c.cfg.ProductTTL).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// GetPriceList возвращает кэшированный прайс-лист; nil без ошибки при промахе.
func (c *CacheRepo) GetPriceList(ctx context.Context) ([]usecase.ProductInfo, error) {
	data, err := c.client.Client.Get(ctx, priceListKey).Bytes()
	if errors.Is(err, r.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var models []converter.ProductInfoRedisModel
	if err := json.Unmarshal(data, &models); err != nil {
		c.logger.Warnf("Redis unmarshal failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return nil, nil // повреждённый кэш трактуем как промах
	}

	return c.conv.ToArrUseCaseProducts(models), nil
}

// InvalidatePriceList сбрасывает кэш прайс-листа.
func (c *CacheRepo) InvalidatePriceList(ctx context.Context) error {
	if err := c.client.Client.Del(ctx, priceListKey).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// runKey возвращает Redis-ключ прогресса одного запуска.
func (c *CacheRepo) runKey(runID string) string {
	return fmt.Sprintf("pricerun:%s", runID)
}
