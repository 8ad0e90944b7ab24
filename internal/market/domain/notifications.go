package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// 市场通知事件类型
const (
	EventTypePriceChanged   = "market.price_changed"
	EventTypeOrderPlaced    = "market.order_placed"
	EventTypeOrderFilled    = "market.order_filled"
	EventTypeOrderCancelled = "market.order_cancelled"
	EventTypeOrderExpired   = "market.order_expired"
	EventTypeMarketEvent    = "market.event_started"
)

// PriceChangedEvent 价格变动通知
type PriceChangedEvent struct {
	ItemID   string          `json:"item_id"`
	OldPrice decimal.Decimal `json:"old_price"`
	NewPrice decimal.Decimal `json:"new_price"`
	At       time.Time       `json:"at"`
}

// OrderPlacedEvent 订单挂入通知
type OrderPlacedEvent struct {
	Order *Order    `json:"order"`
	At    time.Time `json:"at"`
}

// OrderFilledEvent 订单成交通知，Partial 为 true 表示部分成交
type OrderFilledEvent struct {
	Order       *Order       `json:"order"`
	Transaction *Transaction `json:"transaction"`
	Partial     bool         `json:"partial"`
}

// OrderCancelledEvent 订单撤销或过期通知
type OrderCancelledEvent struct {
	Order   *Order    `json:"order"`
	Expired bool      `json:"expired"`
	At      time.Time `json:"at"`
}

// MarketEventStartedEvent 市场事件开始通知
type MarketEventStartedEvent struct {
	Event *MarketEvent `json:"event"`
}

// MarketListener 市场通知监听器。回调在 mutator 上下文内同步执行，
// 实现方若有慢消费路径须自行异步化。
type MarketListener interface {
	OnPriceChanged(ev PriceChangedEvent)
	OnOrderPlaced(ev OrderPlacedEvent)
	OnOrderFilled(ev OrderFilledEvent)
	OnOrderCancelled(ev OrderCancelledEvent)
	OnMarketEvent(ev MarketEventStartedEvent)
}

// Notifier 向多个监听器扇出市场通知
type Notifier struct {
	listeners []MarketListener
}

// Register 注册监听器
func (n *Notifier) Register(l MarketListener) {
	n.listeners = append(n.listeners, l)
}

// NotifyPriceChanged 广播价格变动
func (n *Notifier) NotifyPriceChanged(ev PriceChangedEvent) {
	for _, l := range n.listeners {
		l.OnPriceChanged(ev)
	}
}

// NotifyOrderPlaced 广播订单挂入
func (n *Notifier) NotifyOrderPlaced(ev OrderPlacedEvent) {
	for _, l := range n.listeners {
		l.OnOrderPlaced(ev)
	}
}

// NotifyOrderFilled 广播订单成交
func (n *Notifier) NotifyOrderFilled(ev OrderFilledEvent) {
	for _, l := range n.listeners {
		l.OnOrderFilled(ev)
	}
}

// NotifyOrderCancelled 广播订单撤销/过期
func (n *Notifier) NotifyOrderCancelled(ev OrderCancelledEvent) {
	for _, l := range n.listeners {
		l.OnOrderCancelled(ev)
	}
}

// NotifyMarketEvent 广播市场事件开始
func (n *Notifier) NotifyMarketEvent(ev MarketEventStartedEvent) {
	for _, l := range n.listeners {
		l.OnMarketEvent(ev)
	}
}
