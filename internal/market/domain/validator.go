package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// OrderValidator 订单前置校验。全部校验通过后订单方可进入撮合。
type OrderValidator struct {
	ledger *Ledger
}

// NewOrderValidator 创建校验器
func NewOrderValidator(ledger *Ledger) *OrderValidator {
	return &OrderValidator{ledger: ledger}
}

// ValidateOrder 结构校验：商品存在、数量为正、价格为正
func (v *OrderValidator) ValidateOrder(order *Order) error {
	if order.OwnerID == "" {
		return fmt.Errorf("owner id required: %w", ErrValidation)
	}
	if order.Side != SideBuy && order.Side != SideSell {
		return fmt.Errorf("unknown order side %q: %w", order.Side, ErrValidation)
	}
	if _, err := v.ledger.Item(order.ItemID); err != nil {
		return fmt.Errorf("unknown item %s: %w", order.ItemID, ErrValidation)
	}
	if order.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %d: %w", order.Quantity, ErrValidation)
	}
	if order.Price.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("price must be positive, got %s: %w", order.Price, ErrValidation)
	}
	return nil
}

// ValidateFunds 买单资金校验：余额须覆盖 价格×数量
func (v *OrderValidator) ValidateFunds(order *Order, balance decimal.Decimal) error {
	if !order.IsBuy() {
		return nil
	}
	cost := order.Price.Mul(decimal.NewFromInt(int64(order.Quantity)))
	if balance.LessThan(cost) {
		return fmt.Errorf("need %s, have %s: %w", cost, balance, ErrInsufficientFunds)
	}
	return nil
}

// ValidateQuantity 卖单库存校验：持有量须覆盖卖出数量
func (v *OrderValidator) ValidateQuantity(order *Order, held int) error {
	if order.IsBuy() {
		return nil
	}
	if held < order.Quantity {
		return fmt.Errorf("selling %d but holding %d of %s: %w",
			order.Quantity, held, order.ItemID, ErrInsufficientQuantity)
	}
	return nil
}

// ValidateAccess 访问校验：按下单方的派系与声望解析商品访问级别，Denied 拒绝
func (v *OrderValidator) ValidateAccess(order *Order, factionID string, standing float64) error {
	if v.ledger.AccessLevelFor(factionID, order.ItemID, standing) == AccessDenied {
		return fmt.Errorf("faction %s denied access to %s: %w", factionID, order.ItemID, ErrAccessDenied)
	}
	return nil
}
