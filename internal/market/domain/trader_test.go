package domain

import (
	"testing"
)

func newTestAgent(balance string, preferred []string, rng Rand) *TraderAgent {
	profile := TraderProfile{
		TraderID: "t1", Name: "Trader One",
		Aggression: 0.5, RiskTolerance: 0.5,
		PreferredItems: preferred,
	}
	return NewTraderAgent(profile, dec(balance), DefaultMarketConfig(), rng)
}

func TestTraderDecideBuyEscrowsFunds(t *testing.T) {
	ledger := newTestLedger(testItem("veldspar", "10"))
	item, _ := ledger.Item("veldspar")
	item.DemandFactor = 1.2
	// 信号掷 0.1 < 0.6 走买入；折扣掷 0（bid=last）；数量掷 9 → 10 件
	agent := newTestAgent("1000", []string{"veldspar"}, &stubRand{floats: []float64{0.1, 0.0}, ints: []int{9}})

	orders := agent.Decide(ledger, testEpoch)
	if len(orders) != 1 || !orders[0].IsBuy() {
		t.Fatalf("expected one buy order, got %+v", orders)
	}
	order := orders[0]
	if order.Quantity != 10 {
		t.Errorf("quantity = %d, want 10", order.Quantity)
	}
	if !order.Price.Equal(dec("10")) {
		t.Errorf("bid = %s, want 10", order.Price)
	}
	// 下单即划扣货款
	if !agent.Balance.Equal(dec("900")) {
		t.Errorf("balance = %s, want 900 after escrow", agent.Balance)
	}
}

func TestTraderBuyCappedAtThirtyPercent(t *testing.T) {
	ledger := newTestLedger(testItem("veldspar", "10"))
	item, _ := ledger.Item("veldspar")
	item.DemandFactor = 1.2
	// 数量掷 99 → 100 件 = 1000，但预算上限 100*0.3=30 → 3 件
	agent := newTestAgent("100", []string{"veldspar"}, &stubRand{floats: []float64{0.1, 0.0}, ints: []int{99}})

	orders := agent.Decide(ledger, testEpoch)
	if len(orders) != 1 {
		t.Fatal("expected one order")
	}
	if orders[0].Quantity != 3 {
		t.Errorf("quantity = %d, want 3 (30%% budget cap)", orders[0].Quantity)
	}
	if !agent.Balance.Equal(dec("70")) {
		t.Errorf("balance = %s, want 70", agent.Balance)
	}
}

func TestTraderDecideSellBootstrapsInventory(t *testing.T) {
	ledger := newTestLedger(testItem("veldspar", "10"))
	// 信号掷 0.9 > 0.3 落空走卖出；库存为空引导 5+IntN(26) 掷 5 → 10 件；
	// 数量掷 99 → 100 但受持仓限制
	agent := newTestAgent("100", []string{"veldspar"}, &stubRand{floats: []float64{0.9, 0.0}, ints: []int{5, 99}})

	orders := agent.Decide(ledger, testEpoch)
	if len(orders) != 1 || orders[0].IsBuy() {
		t.Fatalf("expected one sell order, got %+v", orders)
	}
	order := orders[0]
	if order.Quantity != 10 {
		t.Errorf("quantity = %d, want 10 (all bootstrapped stock)", order.Quantity)
	}
	// 下单即划扣库存
	if agent.Inventory["veldspar"] != 0 {
		t.Errorf("inventory = %d, want 0 after escrow", agent.Inventory["veldspar"])
	}
	if !order.Price.GreaterThanOrEqual(dec("10")) {
		t.Errorf("ask %s should not undercut last price", order.Price)
	}
}

func TestTraderEvaluatesUpToThreeCandidates(t *testing.T) {
	ledger := newTestLedger(
		testItem("veldspar", "8"), testItem("scordite", "12"), testItem("kernite", "45"),
		testItem("jaspet", "80"), testItem("mercoxit", "500"),
	)
	agent := newTestAgent("10000", nil, &stubRand{})

	orders := agent.Decide(ledger, testEpoch)
	if len(orders) != 3 {
		t.Fatalf("expected 3 orders from 3 candidates, got %d", len(orders))
	}
	seen := make(map[string]bool)
	for _, o := range orders {
		if seen[o.ItemID] {
			t.Errorf("candidate %s evaluated twice", o.ItemID)
		}
		seen[o.ItemID] = true
	}
}

func TestTraderPrefersConfiguredItems(t *testing.T) {
	ledger := newTestLedger(testItem("veldspar", "8"), testItem("mercoxit", "500"))
	agent := newTestAgent("10000", []string{"mercoxit"}, &stubRand{})

	for _, o := range agent.Decide(ledger, testEpoch) {
		if o.ItemID != "mercoxit" {
			t.Errorf("preferred-list agent traded %s", o.ItemID)
		}
	}
}

func TestTraderSettlement(t *testing.T) {
	agent := newTestAgent("100", nil, &stubRand{})
	agent.CreditBalance(dec("50.25"))
	agent.CreditInventory("veldspar", 7)
	agent.RecordTrade(dec("12.50"))
	agent.RecordTrade(dec("-2.50"))

	if !agent.Balance.Equal(dec("150.25")) {
		t.Errorf("balance = %s, want 150.25", agent.Balance)
	}
	if agent.Inventory["veldspar"] != 7 {
		t.Errorf("inventory = %d, want 7", agent.Inventory["veldspar"])
	}
	if !agent.Profit.Equal(dec("10")) {
		t.Errorf("profit = %s, want 10", agent.Profit)
	}
	if agent.TradeCount != 2 {
		t.Errorf("trade count = %d, want 2", agent.TradeCount)
	}
}

func TestTraderBankruptcy(t *testing.T) {
	agent := newTestAgent("0", nil, &stubRand{})
	if !agent.IsBankrupt() {
		t.Error("zero balance and empty inventory is bankrupt")
	}

	agent.CreditInventory("veldspar", 1)
	if agent.IsBankrupt() {
		t.Error("holding inventory is not bankrupt")
	}

	agent.Inventory["veldspar"] = 0
	agent.CreditBalance(dec("0.01"))
	if agent.IsBankrupt() {
		t.Error("positive balance is not bankrupt")
	}

	ledger := newTestLedger(testItem("veldspar", "10"))
	broke := newTestAgent("0", nil, &stubRand{floats: []float64{0.1}})
	if orders := broke.Decide(ledger, testEpoch); orders != nil {
		t.Errorf("bankrupt agent must not trade, got %+v", orders)
	}
}

func TestInactiveAgentSkipsRound(t *testing.T) {
	ledger := newTestLedger(testItem("veldspar", "10"))
	agent := newTestAgent("1000", nil, &stubRand{})
	agent.Active = false
	if orders := agent.Decide(ledger, testEpoch); orders != nil {
		t.Errorf("inactive agent must not trade, got %+v", orders)
	}
}
