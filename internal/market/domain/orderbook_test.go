package domain

import (
	"testing"
	"time"
)

func TestOrderBookPriceTimePriority(t *testing.T) {
	book := NewOrderBook("veldspar")

	early := placeOrder("a", "veldspar", SideBuy, 10, "10.00", testEpoch)
	late := placeOrder("b", "veldspar", SideBuy, 10, "10.00", testEpoch.Add(time.Second))
	higher := placeOrder("c", "veldspar", SideBuy, 10, "11.00", testEpoch.Add(2*time.Second))

	book.Add(late)
	book.Add(early)
	book.Add(higher)

	bids := book.Bids()
	if len(bids) != 3 {
		t.Fatalf("expected 3 bids, got %d", len(bids))
	}
	if bids[0] != higher {
		t.Errorf("highest price should lead, got %s at head", bids[0].Price)
	}
	if bids[1] != early || bids[2] != late {
		t.Errorf("same-price bids should order by creation time")
	}
}

func TestOrderBookAskOrdering(t *testing.T) {
	book := NewOrderBook("veldspar")

	cheap := placeOrder("a", "veldspar", SideSell, 10, "9.00", testEpoch.Add(time.Second))
	expensive := placeOrder("b", "veldspar", SideSell, 10, "12.00", testEpoch)

	book.Add(expensive)
	book.Add(cheap)

	if best := book.BestAsk(); best != cheap {
		t.Errorf("lowest ask should lead, got %s", best.Price)
	}
}

func TestOrderBookSamePriceSameTimeTiebreak(t *testing.T) {
	book := NewOrderBook("veldspar")
	a := placeOrder("a", "veldspar", SideBuy, 10, "10.00", testEpoch)
	b := placeOrder("b", "veldspar", SideBuy, 10, "10.00", testEpoch)

	book.Add(a)
	book.Add(b)

	bids := book.Bids()
	if bids[0].OrderID > bids[1].OrderID {
		t.Errorf("equal price and time should break ties by order id")
	}
}

func TestOrderBookCanMatch(t *testing.T) {
	book := NewOrderBook("veldspar")
	if book.CanMatch() {
		t.Fatal("empty book must not match")
	}

	book.Add(placeOrder("a", "veldspar", SideBuy, 10, "9.00", testEpoch))
	if book.CanMatch() {
		t.Fatal("one-sided book must not match")
	}

	book.Add(placeOrder("b", "veldspar", SideSell, 10, "10.00", testEpoch))
	if book.CanMatch() {
		t.Fatal("bid below ask must not match")
	}

	book.Add(placeOrder("c", "veldspar", SideBuy, 10, "10.00", testEpoch))
	if !book.CanMatch() {
		t.Fatal("bid at ask should match")
	}
}

func TestOrderBookRemove(t *testing.T) {
	book := NewOrderBook("veldspar")
	o := placeOrder("a", "veldspar", SideSell, 10, "9.00", testEpoch)
	book.Add(o)

	if !book.Remove(o) {
		t.Fatal("remove should find the order")
	}
	if book.Remove(o) {
		t.Fatal("second remove should report missing")
	}
	if book.Len() != 0 {
		t.Errorf("book should be empty, has %d", book.Len())
	}
}

func TestOrderBookDepth(t *testing.T) {
	book := NewOrderBook("veldspar")
	buy := placeOrder("a", "veldspar", SideBuy, 10, "10.00", testEpoch)
	buy.FilledQuantity = 4
	book.Add(buy)
	book.Add(placeOrder("b", "veldspar", SideSell, 7, "11.00", testEpoch))

	if got := book.BuyDepth(); got != 6 {
		t.Errorf("buy depth should count remaining quantity, got %d", got)
	}
	if got := book.SellDepth(); got != 7 {
		t.Errorf("sell depth = %d, want 7", got)
	}

	spread, ok := book.Spread()
	if !ok || !spread.Equal(dec("1.00")) {
		t.Errorf("spread = %s ok=%v, want 1.00", spread, ok)
	}
}
