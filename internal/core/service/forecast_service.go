package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/agriflow/marketplace/internal/core/domain"
	"github.com/agriflow/marketplace/internal/port"
)

type ForecastService struct {
	predictor port.PricePredictor
	cache     port.CacheRepository
	ttl       time.Duration
	log       *zap.Logger
}

func NewForecastService(predictor port.PricePredictor, cache port.CacheRepository, ttl time.Duration, log *zap.Logger) *ForecastService {
	return &ForecastService{predictor: predictor, cache: cache, ttl: ttl, log: log}
}

// Analyze returns the price history and forecast for a crop. Results are
// cached per crop and price; cache failures only cost a predictor call.
func (s *ForecastService) Analyze(ctx context.Context, cropName string, currentPrice decimal.Decimal) (domain.PriceForecast, error) {
	if err := requireID("crop name", cropName); err != nil {
		return domain.PriceForecast{}, err
	}
	if err := requirePositive("current price", currentPrice, priceLimit); err != nil {
		return domain.PriceForecast{}, err
	}

	crop := strings.TrimSpace(cropName)
	key := forecastKey(crop, currentPrice)

	cached, err := s.cache.GetForecast(ctx, key)
	if err != nil {
		s.log.Warn("forecast cache read failed", zap.String("key", key), zap.Error(err))
	} else if cached != nil {
		return *cached, nil
	}

	forecast, err := s.predictor.Predict(ctx, crop, currentPrice)
	if err != nil {
		s.log.Error("price prediction failed", zap.String("crop", crop), zap.Error(err))
		return domain.PriceForecast{}, fmt.Errorf("predict %s: %w", crop, err)
	}
	forecast.CropName = crop
	forecast.CurrentPrice = currentPrice

	if s.ttl > 0 {
		if err := s.cache.SetForecast(ctx, key, *forecast, s.ttl); err != nil {
			s.log.Warn("forecast cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return *forecast, nil
}

func forecastKey(crop string, price decimal.Decimal) string {
	return strings.ToLower(crop) + ":" + price.StringFixed(priceLimit.places)
}
