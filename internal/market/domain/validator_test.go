package domain

import (
	"errors"
	"testing"
)

func TestValidateOrder(t *testing.T) {
	v := NewOrderValidator(newTestLedger(testItem("veldspar", "10")))

	tests := []struct {
		name  string
		order *Order
		want  error
	}{
		{"valid", placeOrder("a", "veldspar", SideBuy, 10, "9.50", testEpoch), nil},
		{"missing owner", placeOrder("", "veldspar", SideBuy, 10, "9.50", testEpoch), ErrValidation},
		{"unknown item", placeOrder("a", "morphite", SideBuy, 10, "9.50", testEpoch), ErrValidation},
		{"zero quantity", placeOrder("a", "veldspar", SideBuy, 0, "9.50", testEpoch), ErrValidation},
		{"negative quantity", placeOrder("a", "veldspar", SideSell, -5, "9.50", testEpoch), ErrValidation},
		{"zero price", placeOrder("a", "veldspar", SideBuy, 10, "0", testEpoch), ErrValidation},
		{"bad side", placeOrder("a", "veldspar", Side("HOLD"), 10, "9.50", testEpoch), ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateOrder(tt.order)
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidateFunds(t *testing.T) {
	v := NewOrderValidator(newTestLedger(testItem("veldspar", "10")))
	buy := placeOrder("a", "veldspar", SideBuy, 10, "9.50", testEpoch)

	if err := v.ValidateFunds(buy, dec("95")); err != nil {
		t.Errorf("exact funds should pass: %v", err)
	}
	if err := v.ValidateFunds(buy, dec("94.99")); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("short funds should fail, got %v", err)
	}

	// 卖单不做资金校验
	sell := placeOrder("a", "veldspar", SideSell, 10, "9.50", testEpoch)
	if err := v.ValidateFunds(sell, dec("0")); err != nil {
		t.Errorf("sell orders need no funds: %v", err)
	}
}

func TestValidateQuantity(t *testing.T) {
	v := NewOrderValidator(newTestLedger(testItem("veldspar", "10")))
	sell := placeOrder("a", "veldspar", SideSell, 10, "9.50", testEpoch)

	if err := v.ValidateQuantity(sell, 10); err != nil {
		t.Errorf("exact holdings should pass: %v", err)
	}
	if err := v.ValidateQuantity(sell, 9); !errors.Is(err, ErrInsufficientQuantity) {
		t.Errorf("short holdings should fail, got %v", err)
	}

	buy := placeOrder("a", "veldspar", SideBuy, 10, "9.50", testEpoch)
	if err := v.ValidateQuantity(buy, 0); err != nil {
		t.Errorf("buy orders need no holdings: %v", err)
	}
}

func TestValidateAccess(t *testing.T) {
	ledger := newTestLedger(testItem("veldspar", "10"), testItem("pyerite", "12"))
	ledger.SetAccessRule(&AccessRule{FactionID: "pirates", ItemID: "veldspar", Level: AccessDenied})
	ledger.SetAccessRule(&AccessRule{FactionID: "empire", ItemID: "pyerite", MinStanding: 5, Level: AccessRestricted})
	v := NewOrderValidator(ledger)

	order := placeOrder("a", "veldspar", SideBuy, 10, "9.50", testEpoch)

	// 未登记规则默认 Full
	if err := v.ValidateAccess(order, "federation", 0); err != nil {
		t.Errorf("faction without a rule should have full access: %v", err)
	}
	// Denied 规则与声望无关
	if err := v.ValidateAccess(order, "pirates", 10); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("denied faction should fail regardless of standing, got %v", err)
	}
	// 规则按商品生效，同派系其他商品不受限
	other := placeOrder("a", "pyerite", SideBuy, 10, "9.50", testEpoch)
	if err := v.ValidateAccess(order, "empire", 0); err != nil {
		t.Errorf("rule is per item, veldspar should pass: %v", err)
	}
	// 声望达标按规则级别放行，不达标降级为 Denied
	if err := v.ValidateAccess(other, "empire", 5); err != nil {
		t.Errorf("standing at the threshold should pass: %v", err)
	}
	if err := v.ValidateAccess(other, "empire", 4.9); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("standing below the threshold should fail, got %v", err)
	}
}
