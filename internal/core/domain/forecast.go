package domain

import "github.com/shopspring/decimal"

type PricePoint struct {
	Date  string          `json:"date"`
	Price decimal.Decimal `json:"price"`
}

type PriceForecast struct {
	CropName     string          `json:"cropName"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	History      []PricePoint    `json:"history"`
	Forecast     []PricePoint    `json:"forecast"`
}
