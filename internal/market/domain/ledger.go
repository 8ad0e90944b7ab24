package domain

import (
	"fmt"
	"sort"
	"time"
)

// AccessLevel 市场访问级别
type AccessLevel string

const (
	AccessFull       AccessLevel = "FULL"
	AccessRestricted AccessLevel = "RESTRICTED"
	AccessDenied     AccessLevel = "DENIED"
)

// AccessRule 按 (派系, 商品) 登记的访问规则。
// 声望达到 MinStanding 时按 Level 放行，不达标一律 Denied。
type AccessRule struct {
	FactionID   string      `json:"faction_id"`
	ItemID      string      `json:"item_id"`
	MinStanding float64     `json:"min_standing"`
	Level       AccessLevel `json:"level"`
}

// Key 规则的复合主键
func (r *AccessRule) Key() string {
	return r.FactionID + "|" + r.ItemID
}

// Ledger 市场账本：商品、每商品订单簿、全部订单、成交与价格历史。
// 订单只增不删，终态订单保留在 orders 中供审计；订单簿仅持有活跃挂单。
type Ledger struct {
	items        map[string]*MarketItem
	books        map[string]*OrderBook
	orders       map[string]*Order
	transactions []*Transaction
	history      map[string][]*PriceHistoryPoint
	events       []*MarketEvent
	accessRules  map[string]*AccessRule
}

// NewLedger 创建空账本
func NewLedger() *Ledger {
	return &Ledger{
		items:       make(map[string]*MarketItem),
		books:       make(map[string]*OrderBook),
		orders:      make(map[string]*Order),
		history:     make(map[string][]*PriceHistoryPoint),
		accessRules: make(map[string]*AccessRule),
	}
}

// AddItem 登记商品并创建对应订单簿
func (l *Ledger) AddItem(item *MarketItem) {
	l.items[item.ItemID] = item
	if _, ok := l.books[item.ItemID]; !ok {
		l.books[item.ItemID] = NewOrderBook(item.ItemID)
	}
}

// Item 按 ID 查找商品
func (l *Ledger) Item(itemID string) (*MarketItem, error) {
	item, ok := l.items[itemID]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", itemID, ErrNotFound)
	}
	return item, nil
}

// Items 按 ItemID 升序返回全部商品，保证遍历顺序确定
func (l *Ledger) Items() []*MarketItem {
	items := make([]*MarketItem, 0, len(l.items))
	for _, item := range l.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ItemID < items[j].ItemID })
	return items
}

// Book 按商品 ID 查找订单簿
func (l *Ledger) Book(itemID string) (*OrderBook, error) {
	book, ok := l.books[itemID]
	if !ok {
		return nil, fmt.Errorf("order book for item %s: %w", itemID, ErrNotFound)
	}
	return book, nil
}

// AddOrder 记录订单并挂入订单簿
func (l *Ledger) AddOrder(order *Order) error {
	book, err := l.Book(order.ItemID)
	if err != nil {
		return err
	}
	l.orders[order.OrderID] = order
	book.Add(order)
	return nil
}

// Order 按 ID 查找订单
func (l *Ledger) Order(orderID string) (*Order, error) {
	order, ok := l.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	return order, nil
}

// Orders 按 OrderID 升序返回全部订单
func (l *Ledger) Orders() []*Order {
	orders := make([]*Order, 0, len(l.orders))
	for _, o := range l.orders {
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].OrderID < orders[j].OrderID })
	return orders
}

// OrdersByOwner 返回指定所有者的订单，OrderID 升序
func (l *Ledger) OrdersByOwner(ownerID string) []*Order {
	var orders []*Order
	for _, o := range l.orders {
		if o.OwnerID == ownerID {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].OrderID < orders[j].OrderID })
	return orders
}

// ActiveOrders 返回仍在订单簿中的订单（Active 或 Partial），OrderID 升序
func (l *Ledger) ActiveOrders() []*Order {
	var orders []*Order
	for _, o := range l.orders {
		if o.Status == StatusActive || o.Status == StatusPartial {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].OrderID < orders[j].OrderID })
	return orders
}

// AddTransaction 追加成交记录
func (l *Ledger) AddTransaction(tx *Transaction) {
	l.transactions = append(l.transactions, tx)
}

// Transactions 按时间顺序返回全部成交
func (l *Ledger) Transactions() []*Transaction {
	return l.transactions
}

// AddHistory 追加价格历史点
func (l *Ledger) AddHistory(point *PriceHistoryPoint) {
	l.history[point.ItemID] = append(l.history[point.ItemID], point)
}

// History 返回商品的价格历史，时间升序
func (l *Ledger) History(itemID string) []*PriceHistoryPoint {
	return l.history[itemID]
}

// HistorySince 返回指定时刻之后的价格历史
func (l *Ledger) HistorySince(itemID string, since time.Time) []*PriceHistoryPoint {
	var points []*PriceHistoryPoint
	for _, p := range l.history[itemID] {
		if !p.Date.Before(since) {
			points = append(points, p)
		}
	}
	return points
}

// AddEvent 登记市场事件
func (l *Ledger) AddEvent(ev *MarketEvent) {
	l.events = append(l.events, ev)
}

// Events 返回全部已登记事件
func (l *Ledger) Events() []*MarketEvent {
	return l.events
}

// ActiveEvents 返回当前仍生效的事件
func (l *Ledger) ActiveEvents(now time.Time) []*MarketEvent {
	var active []*MarketEvent
	for _, ev := range l.events {
		if ev.IsActive(now) {
			active = append(active, ev)
		}
	}
	return active
}

// RemoveInactiveEvents 移除已失效事件，返回被移除的事件
func (l *Ledger) RemoveInactiveEvents(now time.Time) []*MarketEvent {
	var kept, removed []*MarketEvent
	for _, ev := range l.events {
		if ev.IsActive(now) {
			kept = append(kept, ev)
		} else {
			removed = append(removed, ev)
		}
	}
	l.events = kept
	return removed
}

// SetAccessRule 登记或覆盖访问规则
func (l *Ledger) SetAccessRule(rule *AccessRule) {
	l.accessRules[rule.Key()] = rule
}

// AccessLevelFor 解析派系对商品的访问级别。未登记规则默认 Full；
// 声望达标返回规则级别，否则 Denied。
func (l *Ledger) AccessLevelFor(factionID, itemID string, standing float64) AccessLevel {
	rule, ok := l.accessRules[(&AccessRule{FactionID: factionID, ItemID: itemID}).Key()]
	if !ok {
		return AccessFull
	}
	if standing >= rule.MinStanding {
		return rule.Level
	}
	return AccessDenied
}
