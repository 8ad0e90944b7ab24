package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TraderProfile AI 交易代理的性格参数，均在 [0,1] 区间。
// Aggression 抬高买入意愿，RiskTolerance 放大报价偏离。
// PreferredItems 非空时代理只关注这些商品。
type TraderProfile struct {
	TraderID       string   `json:"trader_id"`
	Name           string   `json:"name"`
	FactionID      string   `json:"faction_id,omitempty"`
	Standing       float64  `json:"standing,omitempty"`
	Aggression     float64  `json:"aggression"`
	RiskTolerance  float64  `json:"risk_tolerance"`
	PreferredItems []string `json:"preferred_items,omitempty"`
}

// TraderAgent AI 交易代理。持有自有资金与库存，
// 每轮从候选商品中挑最多三个产生买/卖决策。
// 破产或停用的代理跳过交易轮，但档案保留。
type TraderAgent struct {
	Profile    TraderProfile
	Balance    decimal.Decimal
	Inventory  map[string]int
	Profit     decimal.Decimal
	TradeCount int
	Active     bool

	cfg MarketConfig
	rng Rand
}

// NewTraderAgent 创建交易代理
func NewTraderAgent(profile TraderProfile, balance decimal.Decimal, cfg MarketConfig, rng Rand) *TraderAgent {
	return &TraderAgent{
		Profile:   profile,
		Balance:   balance,
		Inventory: make(map[string]int),
		Active:    true,
		cfg:       cfg,
		rng:       rng,
	}
}

// maxCandidates 每轮最多评估的商品数
const maxCandidates = 3

// Decide 产生本轮订单意向。破产或停用返回 nil。
// 资金在下单时即划扣（买单扣货款、卖单扣库存），成交或撤销时再结算差额。
func (a *TraderAgent) Decide(ledger *Ledger, now time.Time) []*Order {
	if !a.Active || a.IsBankrupt() {
		return nil
	}
	candidates := a.candidateItems(ledger)
	if len(candidates) == 0 {
		return nil
	}

	var orders []*Order
	for _, item := range candidates {
		var order *Order
		if a.buySignal(item) > a.rng.Float64() {
			order = a.decideBuy(item, now)
		} else {
			order = a.decideSell(item, now)
		}
		if order != nil {
			orders = append(orders, order)
		}
	}
	return orders
}

// candidateItems 从偏好列表（否则全目录）随机抽取最多三个商品
func (a *TraderAgent) candidateItems(ledger *Ledger) []*MarketItem {
	var pool []*MarketItem
	if len(a.Profile.PreferredItems) > 0 {
		for _, id := range a.Profile.PreferredItems {
			if item, err := ledger.Item(id); err == nil {
				pool = append(pool, item)
			}
		}
	}
	if len(pool) == 0 {
		pool = ledger.Items()
	}
	if len(pool) <= maxCandidates {
		return pool
	}

	// 无放回抽样
	picked := make([]*MarketItem, 0, maxCandidates)
	for i := 0; i < maxCandidates; i++ {
		j := a.rng.IntN(len(pool))
		picked = append(picked, pool[j])
		pool[j] = pool[len(pool)-1]
		pool = pool[:len(pool)-1]
	}
	return picked
}

// buySignal 买入倾向：需求压过供给时基础 0.6，否则 0.3，
// 再按激进度偏移 ±0.1。
func (a *TraderAgent) buySignal(item *MarketItem) float64 {
	signal := 0.3
	if item.DemandFactor > item.SupplyFactor {
		signal = 0.6
	}
	return signal + (a.Profile.Aggression-0.5)*0.2
}

// spread 本次报价偏离比例，风险容忍度越高偏离越大
func (a *TraderAgent) spread() float64 {
	return a.cfg.TraderSpreadFactor * (1 + a.Profile.RiskTolerance)
}

func (a *TraderAgent) decideBuy(item *MarketItem, now time.Time) *Order {
	last, _ := item.LastPrice.Float64()
	bid := last * (1 - a.spread()*a.rng.Float64())
	bidPrice := decimal.NewFromFloat(bid).Round(2)
	if bidPrice.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	qty := uniformInt(a.rng, a.cfg.TraderMinQuantity, a.cfg.TraderMaxQuantity)

	// 单笔买入成本不超过余额的 30%
	budget := a.Balance.Mul(decimal.NewFromFloat(0.3))
	cost := bidPrice.Mul(decimal.NewFromInt(int64(qty)))
	if cost.GreaterThan(budget) {
		affordable := budget.Div(bidPrice).IntPart()
		if affordable < 1 {
			return nil
		}
		qty = int(affordable)
		cost = bidPrice.Mul(decimal.NewFromInt(int64(qty)))
	}
	if cost.GreaterThan(a.Balance) {
		return nil
	}

	a.Balance = a.Balance.Sub(cost)
	ttl := time.Duration(a.cfg.OrderExpirationDays) * 24 * time.Hour
	return NewOrder(a.Profile.TraderID, item.ItemID, SideBuy, qty, bidPrice, now, ttl)
}

func (a *TraderAgent) decideSell(item *MarketItem, now time.Time) *Order {
	held := a.Inventory[item.ItemID]
	if held == 0 {
		// 流动性引导：代理首次卖出某商品时凭空获得一批存货
		held = uniformInt(a.rng, 5, 30)
		a.Inventory[item.ItemID] = held
	}

	qty := uniformInt(a.rng, a.cfg.TraderMinQuantity, a.cfg.TraderMaxQuantity)
	if qty > held {
		qty = held
	}
	if qty < 1 {
		return nil
	}

	last, _ := item.LastPrice.Float64()
	ask := last * (1 + a.spread()*a.rng.Float64())
	askPrice := decimal.NewFromFloat(ask).Round(2)

	a.Inventory[item.ItemID] -= qty
	ttl := time.Duration(a.cfg.OrderExpirationDays) * 24 * time.Hour
	return NewOrder(a.Profile.TraderID, item.ItemID, SideSell, qty, askPrice, now, ttl)
}

// CreditBalance 入账资金
func (a *TraderAgent) CreditBalance(amount decimal.Decimal) {
	a.Balance = a.Balance.Add(amount)
}

// CreditInventory 入账库存
func (a *TraderAgent) CreditInventory(itemID string, qty int) {
	a.Inventory[itemID] += qty
}

// RecordTrade 记录一笔已实现损益并累加成交计数
func (a *TraderAgent) RecordTrade(profit decimal.Decimal) {
	a.Profit = a.Profit.Add(profit)
	a.TradeCount++
}

// TotalInventory 全部库存件数
func (a *TraderAgent) TotalInventory() int {
	total := 0
	for _, qty := range a.Inventory {
		total += qty
	}
	return total
}

// IsBankrupt 余额耗尽且无任何库存
func (a *TraderAgent) IsBankrupt() bool {
	return a.Balance.LessThanOrEqual(decimal.Zero) && a.TotalInventory() == 0
}
