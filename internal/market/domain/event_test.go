package domain

import (
	"testing"
	"time"
)

func TestTryGenerateEventMiss(t *testing.T) {
	ledger := newTestLedger(testItem("veldspar", "10"))
	// 掷骰 0.9 >= 0.05：未命中
	gen := NewEventGenerator(DefaultMarketConfig(), &stubRand{floats: []float64{0.9}}, fixedClock(testEpoch))

	if ev := gen.TryGenerateEvent(ledger); ev != nil {
		t.Errorf("roll above chance must not generate, got %+v", ev)
	}
	if len(ledger.Events()) != 0 {
		t.Errorf("no event should be registered")
	}
}

func TestTryGenerateEventHit(t *testing.T) {
	ledger := newTestLedger(NewMarketItem("veldspar", "Veldspar", CategoryOre, dec("10")))
	// 掷骰 0.01 命中；价格修正取区间中点 1.1（>1 故供给修正 0.8）
	rng := &stubRand{floats: []float64{0.01, 0.5, 0.5}, ints: []int{0, 0}}
	gen := NewEventGenerator(DefaultMarketConfig(), rng, fixedClock(testEpoch))

	ev := gen.TryGenerateEvent(ledger)
	if ev == nil {
		t.Fatal("roll under chance should generate an event")
	}
	if ev.TargetItemID != "veldspar" {
		t.Errorf("target = %s, want veldspar", ev.TargetItemID)
	}
	if ev.Description != "Supply shortage of Veldspar drives prices up" {
		t.Errorf("description = %q, want the shortage template naming the item", ev.Description)
	}
	if ev.PriceModifier < 0.7 || ev.PriceModifier > 1.5 {
		t.Errorf("price modifier %v outside configured range", ev.PriceModifier)
	}
	if ev.PriceModifier > 1 && ev.SupplyModifier != 0.8 {
		t.Errorf("price-raising event should tighten supply, got %v", ev.SupplyModifier)
	}
	if ev.Duration < 60*time.Second || ev.Duration > 600*time.Second {
		t.Errorf("duration %v outside configured range", ev.Duration)
	}
	if len(ledger.Events()) != 1 {
		t.Errorf("event should be registered in the ledger")
	}
}

func TestEventIsActive(t *testing.T) {
	ev := &MarketEvent{StartedAt: testEpoch, Duration: time.Minute}
	if !ev.IsActive(testEpoch.Add(30 * time.Second)) {
		t.Error("event within duration should be active")
	}
	if ev.IsActive(testEpoch.Add(time.Minute)) {
		t.Error("event at expiry boundary should be inactive")
	}
}

func TestCleanupExpiredEventsIdempotent(t *testing.T) {
	ledger := newTestLedger(testItem("veldspar", "10"))
	ledger.AddEvent(&MarketEvent{EventID: "live", StartedAt: testEpoch, Duration: time.Hour})
	ledger.AddEvent(&MarketEvent{EventID: "dead", StartedAt: testEpoch.Add(-2 * time.Hour), Duration: time.Hour})

	gen := NewEventGenerator(DefaultMarketConfig(), &stubRand{}, fixedClock(testEpoch))

	removed := gen.CleanupExpiredEvents(ledger)
	if len(removed) != 1 || removed[0].EventID != "dead" {
		t.Fatalf("expected only the dead event removed, got %d", len(removed))
	}
	if len(ledger.Events()) != 1 {
		t.Errorf("live event should remain")
	}
	if again := gen.CleanupExpiredEvents(ledger); len(again) != 0 {
		t.Errorf("second cleanup should remove nothing, got %d", len(again))
	}
}
