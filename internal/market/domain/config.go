package domain

// MarketConfig 市场引擎的全部可调参数，启动时注入，运行期只读
type MarketConfig struct {
	// 价格动态
	PriceUpdateIntervalSeconds float64
	SupplyDemandImpact         float64
	PriceVolatility            float64
	PriceFloorMultiplier       float64
	PriceCeilingMultiplier     float64

	// AI 交易
	TraderCount            int
	TradeIntervalSeconds   float64
	TraderMinQuantity      int
	TraderMaxQuantity      int
	TraderSpreadFactor     float64
	OrderExpirationDays    int
	CleanupIntervalSeconds float64

	// 市场事件
	MarketEventChance float64
	MinEventDuration  float64
	MaxEventDuration  float64
	MinPriceModifier  float64
	MaxPriceModifier  float64
}

// DefaultMarketConfig 返回与原始调参一致的默认配置
func DefaultMarketConfig() MarketConfig {
	return MarketConfig{
		PriceUpdateIntervalSeconds: 120,
		SupplyDemandImpact:         0.1,
		PriceVolatility:            0.02,
		PriceFloorMultiplier:       0.2,
		PriceCeilingMultiplier:     5.0,

		TraderCount:            8,
		TradeIntervalSeconds:   60,
		TraderMinQuantity:      1,
		TraderMaxQuantity:      100,
		TraderSpreadFactor:     0.05,
		OrderExpirationDays:    7,
		CleanupIntervalSeconds: 300,

		MarketEventChance: 0.05,
		MinEventDuration:  60,
		MaxEventDuration:  600,
		MinPriceModifier:  0.7,
		MaxPriceModifier:  1.5,
	}
}
