package port

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/agriflow/marketplace/internal/core/domain"
)

// PricePredictor is the external forecasting engine.
type PricePredictor interface {
	Predict(ctx context.Context, cropName string, currentPrice decimal.Decimal) (*domain.PriceForecast, error)
}
