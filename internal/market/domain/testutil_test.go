package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// stubRand 按脚本回放随机序列，耗尽后回绕
type stubRand struct {
	floats []float64
	ints   []int
	fi, ii int
}

func (s *stubRand) Float64() float64 {
	if len(s.floats) == 0 {
		return 0.5
	}
	v := s.floats[s.fi%len(s.floats)]
	s.fi++
	return v
}

func (s *stubRand) IntN(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[s.ii%len(s.ints)]
	s.ii++
	if v >= n {
		v = n - 1
	}
	return v
}

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestLedger(items ...*MarketItem) *Ledger {
	l := NewLedger()
	for _, item := range items {
		l.AddItem(item)
	}
	return l
}

func testItem(id string, base string) *MarketItem {
	return NewMarketItem(id, id, CategoryOre, dec(base))
}

// placeOrder 直接构造指定属性的订单，绕过随机决策
func placeOrder(owner, itemID string, side Side, qty int, price string, created time.Time) *Order {
	o := NewOrder(owner, itemID, side, qty, dec(price), created, 7*24*time.Hour)
	return o
}
