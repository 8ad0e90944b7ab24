package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MatchingEngine 价格-时间优先撮合引擎。每次提交后立即尝试连续撮合，
// 成交价取卖方挂单价（先到的卖单定价）。
type MatchingEngine struct {
	ledger   *Ledger
	notifier *Notifier
	now      func() time.Time
}

// NewMatchingEngine 创建撮合引擎
func NewMatchingEngine(ledger *Ledger, notifier *Notifier, now func() time.Time) *MatchingEngine {
	if now == nil {
		now = time.Now
	}
	return &MatchingEngine{ledger: ledger, notifier: notifier, now: now}
}

// SubmitOrder 挂入订单并立即撮合，返回本次触发的全部成交
func (m *MatchingEngine) SubmitOrder(order *Order) ([]*Transaction, error) {
	if err := m.ledger.AddOrder(order); err != nil {
		return nil, err
	}
	m.notifier.NotifyOrderPlaced(OrderPlacedEvent{Order: order, At: m.now()})
	return m.tryMatch(order.ItemID)
}

// tryMatch 连续撮合直到买卖价脱离。循环内每轮只看两侧队首，
// 成交后已完成订单出簿，部分成交订单留在队首继续参与。
func (m *MatchingEngine) tryMatch(itemID string) ([]*Transaction, error) {
	book, err := m.ledger.Book(itemID)
	if err != nil {
		return nil, err
	}
	item, err := m.ledger.Item(itemID)
	if err != nil {
		return nil, err
	}

	var executed []*Transaction
	for book.CanMatch() {
		buy, sell := book.BestBid(), book.BestAsk()

		qty := buy.RemainingQuantity()
		if r := sell.RemainingQuantity(); r < qty {
			qty = r
		}
		price := sell.Price

		tx := &Transaction{
			TransactionID: uuid.NewString(),
			BuyOrderID:    buy.OrderID,
			SellOrderID:   sell.OrderID,
			BuyerID:       buy.OwnerID,
			SellerID:      sell.OwnerID,
			ItemID:        itemID,
			Quantity:      qty,
			Price:         price,
			ExecutedAt:    m.now(),
		}

		buy.FilledQuantity += qty
		sell.FilledQuantity += qty
		m.settleSide(book, buy, tx)
		m.settleSide(book, sell, tx)

		item.LastPrice = price
		item.VolumeTraded += int64(qty)
		item.UpdatedAt = tx.ExecutedAt

		m.ledger.AddTransaction(tx)
		m.ledger.AddHistory(&PriceHistoryPoint{
			HistoryID: uuid.NewString(),
			ItemID:    itemID,
			AvgPrice:  price,
			HighPrice: price,
			LowPrice:  price,
			Volume:    qty,
			Date:      tx.ExecutedAt,
		})
		executed = append(executed, tx)
	}
	return executed, nil
}

// settleSide 成交后更新单侧订单状态，完成则出簿
func (m *MatchingEngine) settleSide(book *OrderBook, order *Order, tx *Transaction) {
	if order.IsFullyFilled() {
		order.Status = StatusFilled
		book.Remove(order)
		m.notifier.NotifyOrderFilled(OrderFilledEvent{Order: order, Transaction: tx})
		return
	}
	order.Status = StatusPartial
	m.notifier.NotifyOrderFilled(OrderFilledEvent{Order: order, Transaction: tx, Partial: true})
}

// CancelOrder 撤销非终态订单并出簿。终态订单拒绝撤销。
func (m *MatchingEngine) CancelOrder(orderID string) (*Order, error) {
	order, err := m.ledger.Order(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, fmt.Errorf("order %s already %s: %w", orderID, order.Status, ErrValidation)
	}
	book, err := m.ledger.Book(order.ItemID)
	if err != nil {
		return nil, err
	}
	book.Remove(order)
	order.Status = StatusCancelled
	m.notifier.NotifyOrderCancelled(OrderCancelledEvent{Order: order, At: m.now()})
	return order, nil
}

// CleanupExpiredOrders 扫描账本，将超过有效期的 Active 订单置为 Expired 并出簿。
// Partial 订单不在清理范围内，剩余部分继续留簿。
func (m *MatchingEngine) CleanupExpiredOrders() []*Order {
	now := m.now()
	var expired []*Order
	for _, order := range m.ledger.Orders() {
		if order.Status != StatusActive || now.Before(order.ExpiresAt) {
			continue
		}
		if book, err := m.ledger.Book(order.ItemID); err == nil {
			book.Remove(order)
		}
		order.Status = StatusExpired
		m.notifier.NotifyOrderCancelled(OrderCancelledEvent{Order: order, Expired: true, At: now})
		expired = append(expired, order)
	}
	return expired
}
