package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Side 订单方向
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderStatus 订单状态。状态迁移单调：
// Active → {Partial → Filled | Filled | Cancelled | Expired}，终态不可逆。
type OrderStatus string

const (
	StatusActive    OrderStatus = "ACTIVE"
	StatusPartial   OrderStatus = "PARTIAL"
	StatusFilled    OrderStatus = "FILLED"
	StatusCancelled OrderStatus = "CANCELLED"
	StatusExpired   OrderStatus = "EXPIRED"
)

// IsTerminal 是否为终态
func (s OrderStatus) IsTerminal() bool {
	return s == StatusFilled || s == StatusCancelled || s == StatusExpired
}

// Order 市场订单。不变量：0 ≤ FilledQuantity ≤ Quantity。
// 只经由校验过的提交路径创建，只由撮合引擎或显式 cancel/expire 变更，
// 永不删除，留存于账本供审计。
type Order struct {
	OrderID        string          `json:"order_id"`
	OwnerID        string          `json:"owner_id"`
	ItemID         string          `json:"item_id"`
	Side           Side            `json:"side"`
	Quantity       int             `json:"quantity"`
	FilledQuantity int             `json:"filled_quantity"`
	Price          decimal.Decimal `json:"price"`
	Status         OrderStatus     `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	ExpiresAt      time.Time       `json:"expires_at"`
}

// NewOrder 创建 Active 状态的新订单
func NewOrder(ownerID, itemID string, side Side, quantity int, price decimal.Decimal, now time.Time, ttl time.Duration) *Order {
	return &Order{
		OrderID:   uuid.NewString(),
		OwnerID:   ownerID,
		ItemID:    itemID,
		Side:      side,
		Quantity:  quantity,
		Price:     price,
		Status:    StatusActive,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// RemainingQuantity 剩余未成交数量
func (o *Order) RemainingQuantity() int {
	return o.Quantity - o.FilledQuantity
}

// IsFullyFilled 是否已全部成交
func (o *Order) IsFullyFilled() bool {
	return o.FilledQuantity >= o.Quantity
}

// IsBuy 是否买单
func (o *Order) IsBuy() bool {
	return o.Side == SideBuy
}

// Transaction 成交记录，创建后不可变
type Transaction struct {
	TransactionID string          `json:"transaction_id"`
	BuyOrderID    string          `json:"buy_order_id"`
	SellOrderID   string          `json:"sell_order_id"`
	BuyerID       string          `json:"buyer_id"`
	SellerID      string          `json:"seller_id"`
	ItemID        string          `json:"item_id"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	ExecutedAt    time.Time       `json:"executed_at"`
}

// TotalValue 成交总额
func (t *Transaction) TotalValue() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(int64(t.Quantity)))
}
