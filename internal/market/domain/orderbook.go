package domain

import (
	"slices"
	"sort"

	"github.com/shopspring/decimal"
)

// OrderBook 单商品订单簿，价格-时间优先。
// bids 按价格降序，asks 按价格升序；同价按 CreatedAt 升序，再按 OrderID 升序。
type OrderBook struct {
	ItemID string
	bids   []*Order
	asks   []*Order
}

// NewOrderBook 创建空订单簿
func NewOrderBook(itemID string) *OrderBook {
	return &OrderBook{ItemID: itemID}
}

// bidBefore 报告买单 a 是否应排在 b 之前（高价优先，先到先得）
func bidBefore(a, b *Order) bool {
	if cmp := a.Price.Cmp(b.Price); cmp != 0 {
		return cmp > 0
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.OrderID < b.OrderID
}

// askBefore 报告卖单 a 是否应排在 b 之前（低价优先，先到先得）
func askBefore(a, b *Order) bool {
	if cmp := a.Price.Cmp(b.Price); cmp != 0 {
		return cmp < 0
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.OrderID < b.OrderID
}

// Add 将订单插入对应队列，保持排序
func (b *OrderBook) Add(order *Order) {
	if order.IsBuy() {
		idx := sort.Search(len(b.bids), func(i int) bool { return bidBefore(order, b.bids[i]) })
		b.bids = slices.Insert(b.bids, idx, order)
		return
	}
	idx := sort.Search(len(b.asks), func(i int) bool { return askBefore(order, b.asks[i]) })
	b.asks = slices.Insert(b.asks, idx, order)
}

// Remove 从订单簿移除订单，返回是否找到
func (b *OrderBook) Remove(order *Order) bool {
	queue := &b.asks
	if order.IsBuy() {
		queue = &b.bids
	}
	for i, o := range *queue {
		if o.OrderID == order.OrderID {
			*queue = slices.Delete(*queue, i, i+1)
			return true
		}
	}
	return false
}

// BestBid 返回最优买单，空队列返回 nil
func (b *OrderBook) BestBid() *Order {
	if len(b.bids) == 0 {
		return nil
	}
	return b.bids[0]
}

// BestAsk 返回最优卖单，空队列返回 nil
func (b *OrderBook) BestAsk() *Order {
	if len(b.asks) == 0 {
		return nil
	}
	return b.asks[0]
}

// CanMatch 报告最优买价是否触及最优卖价
func (b *OrderBook) CanMatch() bool {
	bid, ask := b.BestBid(), b.BestAsk()
	return bid != nil && ask != nil && bid.Price.GreaterThanOrEqual(ask.Price)
}

// Spread 买卖价差，任一侧为空时返回零值和 false
func (b *OrderBook) Spread() (decimal.Decimal, bool) {
	bid, ask := b.BestBid(), b.BestAsk()
	if bid == nil || ask == nil {
		return decimal.Zero, false
	}
	return ask.Price.Sub(bid.Price), true
}

// BuyDepth 买侧剩余数量合计
func (b *OrderBook) BuyDepth() int {
	total := 0
	for _, o := range b.bids {
		total += o.RemainingQuantity()
	}
	return total
}

// SellDepth 卖侧剩余数量合计
func (b *OrderBook) SellDepth() int {
	total := 0
	for _, o := range b.asks {
		total += o.RemainingQuantity()
	}
	return total
}

// Bids 按优先级返回买单切片副本
func (b *OrderBook) Bids() []*Order {
	return slices.Clone(b.bids)
}

// Asks 按优先级返回卖单切片副本
func (b *OrderBook) Asks() []*Order {
	return slices.Clone(b.asks)
}

// Len 订单簿挂单总数
func (b *OrderBook) Len() int {
	return len(b.bids) + len(b.asks)
}
