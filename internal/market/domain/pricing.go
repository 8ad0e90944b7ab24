package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PricingEngine 随机市场定价引擎。价格由供需比、随机波动、
// 事件修正与向基准价的均值回归共同驱动。
type PricingEngine struct {
	cfg      MarketConfig
	ledger   *Ledger
	notifier *Notifier
	rng      Rand
	now      func() time.Time
}

// NewPricingEngine 创建定价引擎
func NewPricingEngine(cfg MarketConfig, ledger *Ledger, notifier *Notifier, rng Rand, now func() time.Time) *PricingEngine {
	if now == nil {
		now = time.Now
	}
	return &PricingEngine{cfg: cfg, ledger: ledger, notifier: notifier, rng: rng, now: now}
}

// RunPriceTick 对全部商品执行一轮定价，返回价格实际变动的商品数
func (p *PricingEngine) RunPriceTick() int {
	now := p.now()
	changed := 0
	for _, item := range p.ledger.Items() {
		p.UpdateSupplyDemand(item)
		if p.updatePrice(item, now) {
			changed++
		}
	}
	return changed
}

// updatePrice 计算并提交单商品新价。变动不超过 0.01 时不提交，
// 避免无意义的历史点与通知。
func (p *PricingEngine) updatePrice(item *MarketItem, now time.Time) bool {
	newPrice := p.CalculatePrice(item, now)
	if newPrice.Sub(item.LastPrice).Abs().LessThanOrEqual(decimal.NewFromFloat(0.01)) {
		return false
	}
	old := item.LastPrice
	item.LastPrice = newPrice
	item.UpdatedAt = now

	p.ledger.AddHistory(&PriceHistoryPoint{
		HistoryID: uuid.NewString(),
		ItemID:    item.ItemID,
		AvgPrice:  newPrice,
		HighPrice: newPrice,
		LowPrice:  newPrice,
		Volume:    0,
		Date:      now,
	})
	p.notifier.NotifyPriceChanged(PriceChangedEvent{
		ItemID:   item.ItemID,
		OldPrice: old,
		NewPrice: newPrice,
		At:       now,
	})
	return true
}

// CalculatePrice 计算商品的候选新价。中间计算走 float64，
// 提交前四舍五入到两位小数。步骤：
//  1. 供需比调整：base * (demand/supply - 1) * impact
//  2. 随机波动：base * volatility * U(-1,1)
//  3. 事件修正：生效事件的 PriceModifier 连乘
//  4. 区间钳制：[base*floor, base*ceiling]
//  5. 均值回归：candidate*0.95 + base*sdRatio*0.05
func (p *PricingEngine) CalculatePrice(item *MarketItem, now time.Time) decimal.Decimal {
	base, _ := item.BasePrice.Float64()
	last, _ := item.LastPrice.Float64()

	supply := math.Max(item.SupplyFactor, 0.01)
	sdRatio := item.DemandFactor / supply
	sdAdjustment := base * (sdRatio - 1) * p.cfg.SupplyDemandImpact
	volatility := base * p.cfg.PriceVolatility * uniform(p.rng, -1, 1)
	eventMod := p.EventModifier(item.ItemID, now)

	candidate := (last + sdAdjustment + volatility) * eventMod

	floor := base * p.cfg.PriceFloorMultiplier
	ceiling := base * p.cfg.PriceCeilingMultiplier
	candidate = math.Max(floor, math.Min(ceiling, candidate))

	newPrice := candidate*0.95 + base*sdRatio*0.05
	newPrice = math.Max(0.01, newPrice)

	return decimal.NewFromFloat(newPrice).Round(2)
}

// EventModifier 返回对商品生效的事件价格修正连乘积。
// 事件目标为空视为全市场事件，对所有商品生效。
func (p *PricingEngine) EventModifier(itemID string, now time.Time) float64 {
	mod := 1.0
	for _, ev := range p.ledger.ActiveEvents(now) {
		if ev.TargetItemID == "" || ev.TargetItemID == itemID {
			mod *= ev.PriceModifier
		}
	}
	return mod
}

// UpdateSupplyDemand 从订单簿深度刷新供需系数。
// 两侧各映射到 [0.5, 1.5]：0.5 + 本侧深度/总深度；空簿时维持原值。
func (p *PricingEngine) UpdateSupplyDemand(item *MarketItem) {
	book, err := p.ledger.Book(item.ItemID)
	if err != nil {
		return
	}
	buyDepth := float64(book.BuyDepth())
	sellDepth := float64(book.SellDepth())
	total := buyDepth + sellDepth
	if total <= 0 {
		return
	}
	item.SupplyFactor = 0.5 + sellDepth/total
	item.DemandFactor = 0.5 + buyDepth/total
}

// Stats 汇总商品在给定窗口内的价格统计。窗口内无历史时
// 均值/高/低取当前价，波动率为 0。
func (p *PricingEngine) Stats(itemID string, window time.Duration) (*PriceStats, error) {
	item, err := p.ledger.Item(itemID)
	if err != nil {
		return nil, err
	}
	points := p.ledger.HistorySince(itemID, p.now().Add(-window))
	stats := &PriceStats{
		CurrentPrice: item.LastPrice,
		AveragePrice: item.LastPrice,
		HighPrice:    item.LastPrice,
		LowPrice:     item.LastPrice,
	}
	if len(points) == 0 {
		return stats, nil
	}

	sum := decimal.Zero
	high := points[0].HighPrice
	low := points[0].LowPrice
	volume := 0
	for _, pt := range points {
		sum = sum.Add(pt.AvgPrice)
		if pt.HighPrice.GreaterThan(high) {
			high = pt.HighPrice
		}
		if pt.LowPrice.LessThan(low) {
			low = pt.LowPrice
		}
		volume += pt.Volume
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(points)))).Round(2)

	// 波动率：窗口内均价的标准差与均值之比
	avgF, _ := avg.Float64()
	if avgF > 0 {
		var variance float64
		for _, pt := range points {
			v, _ := pt.AvgPrice.Float64()
			variance += (v - avgF) * (v - avgF)
		}
		variance /= float64(len(points))
		stats.Volatility = math.Sqrt(variance) / avgF
	}

	stats.AveragePrice = avg
	stats.HighPrice = high
	stats.LowPrice = low
	stats.TotalVolume = volume
	return stats, nil
}
