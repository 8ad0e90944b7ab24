package domain

import "context"

// 持久化集合名
const (
	CollectionItems        = "market_items"
	CollectionOrders       = "market_orders"
	CollectionTransactions = "market_transactions"
	CollectionHistory      = "market_history"
	CollectionEvents       = "market_events"
	CollectionAccessRules  = "market_access_rules"
)

// Store 按集合+主键存取记录的持久化契约。
// 记录以 JSON 编码，实现方负责编解码与存储介质。
type Store interface {
	Save(ctx context.Context, collection, id string, record any) error
	Load(ctx context.Context, collection, id string, record any) error
	LoadAll(ctx context.Context, collection string, decode func(data []byte) error) error
	Delete(ctx context.Context, collection, id string) error
}

// Snapshot 账本的可序列化快照
type Snapshot struct {
	Items        []*MarketItem        `json:"items"`
	Orders       []*Order             `json:"orders"`
	Transactions []*Transaction       `json:"transactions"`
	History      []*PriceHistoryPoint `json:"history"`
	Events       []*MarketEvent       `json:"events"`
	AccessRules  []*AccessRule        `json:"access_rules"`
}

// Snapshot 导出账本当前状态
func (l *Ledger) Snapshot() *Snapshot {
	snap := &Snapshot{
		Items:        l.Items(),
		Orders:       l.Orders(),
		Transactions: l.transactions,
		Events:       l.events,
	}
	for _, item := range snap.Items {
		snap.History = append(snap.History, l.history[item.ItemID]...)
	}
	for _, rule := range l.accessRules {
		snap.AccessRules = append(snap.AccessRules, rule)
	}
	return snap
}

// Restore 从快照重建账本。活跃订单重新挂入订单簿，终态订单只入档。
func (l *Ledger) Restore(snap *Snapshot) error {
	for _, item := range snap.Items {
		l.AddItem(item)
	}
	for _, order := range snap.Orders {
		if order.Status == StatusActive || order.Status == StatusPartial {
			if err := l.AddOrder(order); err != nil {
				return err
			}
			continue
		}
		l.orders[order.OrderID] = order
	}
	l.transactions = append(l.transactions, snap.Transactions...)
	for _, point := range snap.History {
		l.AddHistory(point)
	}
	for _, ev := range snap.Events {
		l.AddEvent(ev)
	}
	for _, rule := range snap.AccessRules {
		l.SetAccessRule(rule)
	}
	return nil
}
