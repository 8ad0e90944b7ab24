package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MarketEvent 市场事件。价格修正系数在事件生效期间乘入定价；
// TargetItemID 为空表示作用于全市场。
type MarketEvent struct {
	EventID        string        `json:"event_id"`
	Description    string        `json:"description"`
	TargetItemID   string        `json:"target_item_id,omitempty"`
	PriceModifier  float64       `json:"price_modifier"`
	SupplyModifier float64       `json:"supply_modifier"`
	Duration       time.Duration `json:"duration"`
	StartedAt      time.Time     `json:"started_at"`
}

// IsActive 报告事件在给定时刻是否仍然生效
func (e *MarketEvent) IsActive(now time.Time) bool {
	return now.Before(e.StartedAt.Add(e.Duration))
}

// ExpiresAt 事件失效时刻
func (e *MarketEvent) ExpiresAt() time.Time {
	return e.StartedAt.Add(e.Duration)
}

var eventTemplates = []string{
	"Supply shortage of %s drives prices up",
	"Surplus of %s floods the market",
	"Faction conflict disrupts %s trade routes",
	"New mining operation increases %s supply",
	"Trade embargo affects %s availability",
	"Pirate activity disrupts %s shipments",
	"Tech breakthrough reduces %s manufacturing costs",
	"Station upgrade boosts %s demand",
}

// EventGenerator 按概率生成随机市场事件
type EventGenerator struct {
	cfg MarketConfig
	rng Rand
	now func() time.Time
}

// NewEventGenerator 创建事件生成器
func NewEventGenerator(cfg MarketConfig, rng Rand, now func() time.Time) *EventGenerator {
	if now == nil {
		now = time.Now
	}
	return &EventGenerator{cfg: cfg, rng: rng, now: now}
}

// TryGenerateEvent 以配置概率掷骰，命中时生成并登记一个随机事件。
// 未命中返回 nil。目标商品从账本随机选取；价格修正高于 1 时供给修正压低（0.8），
// 否则放大（1.2），体现涨价缩供、跌价增供。
func (g *EventGenerator) TryGenerateEvent(ledger *Ledger) *MarketEvent {
	if g.rng.Float64() >= g.cfg.MarketEventChance {
		return nil
	}
	items := ledger.Items()
	if len(items) == 0 {
		return nil
	}
	target := items[g.rng.IntN(len(items))]
	template := eventTemplates[g.rng.IntN(len(eventTemplates))]

	priceMod := uniform(g.rng, g.cfg.MinPriceModifier, g.cfg.MaxPriceModifier)
	supplyMod := 1.2
	if priceMod > 1 {
		supplyMod = 0.8
	}
	durationSec := uniform(g.rng, g.cfg.MinEventDuration, g.cfg.MaxEventDuration)

	ev := &MarketEvent{
		EventID:        uuid.NewString(),
		Description:    fmt.Sprintf(template, target.Name),
		TargetItemID:   target.ItemID,
		PriceModifier:  priceMod,
		SupplyModifier: supplyMod,
		Duration:       time.Duration(durationSec * float64(time.Second)),
		StartedAt:      g.now(),
	}
	ledger.AddEvent(ev)
	return ev
}

// CleanupExpiredEvents 移除失效事件，幂等
func (g *EventGenerator) CleanupExpiredEvents(ledger *Ledger) []*MarketEvent {
	return ledger.RemoveInactiveEvents(g.now())
}
