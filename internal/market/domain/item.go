// Package domain 市场模拟引擎的领域模型：账本、订单簿、撮合、定价、
// 市场事件与 AI 交易代理。领域层不做内部同步，由单一 mutator 上下文串行调用。
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemCategory 商品类别
type ItemCategory string

const (
	CategoryOre     ItemCategory = "ORE"
	CategoryMineral ItemCategory = "MINERAL"
)

// MarketItem 可交易商品。不变量：BasePrice > 0；
// 每轮定价后 LastPrice 落在 [BasePrice*floor, BasePrice*ceiling] 区间内。
type MarketItem struct {
	ItemID       string          `json:"item_id"`
	Name         string          `json:"name"`
	Category     ItemCategory    `json:"category"`
	BasePrice    decimal.Decimal `json:"base_price"`
	LastPrice    decimal.Decimal `json:"last_price"`
	VolumeTraded int64           `json:"volume_traded"`
	SupplyFactor float64         `json:"supply_factor"`
	DemandFactor float64         `json:"demand_factor"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewMarketItem 创建商品，供需系数初始为 1（均衡）
func NewMarketItem(id, name string, category ItemCategory, basePrice decimal.Decimal) *MarketItem {
	return &MarketItem{
		ItemID:       id,
		Name:         name,
		Category:     category,
		BasePrice:    basePrice,
		LastPrice:    basePrice,
		SupplyFactor: 1.0,
		DemandFactor: 1.0,
		UpdatedAt:    time.Now(),
	}
}

// PriceHistoryPoint 价格历史点，每次成交与定价追加，只增不改
type PriceHistoryPoint struct {
	HistoryID string          `json:"history_id"`
	ItemID    string          `json:"item_id"`
	AvgPrice  decimal.Decimal `json:"avg_price"`
	HighPrice decimal.Decimal `json:"high_price"`
	LowPrice  decimal.Decimal `json:"low_price"`
	Volume    int             `json:"volume"`
	Date      time.Time       `json:"date"`
}

// PriceStats 价格统计视图
type PriceStats struct {
	CurrentPrice decimal.Decimal `json:"current_price"`
	AveragePrice decimal.Decimal `json:"average_price"`
	HighPrice    decimal.Decimal `json:"high_price"`
	LowPrice     decimal.Decimal `json:"low_price"`
	TotalVolume  int             `json:"total_volume"`
	Volatility   float64         `json:"volatility"`
}
