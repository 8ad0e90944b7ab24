package application

import (
	"context"
	"testing"
	"time"

	"github.com/gnoobs75/vacuum/internal/market/domain"
	"github.com/gnoobs75/vacuum/internal/market/infrastructure/persistence/memory"
	"github.com/gnoobs75/vacuum/pkg/metrics"
)

func newTestService(t *testing.T, store domain.Store) *MarketService {
	t.Helper()
	svc := NewMarketService(domain.DefaultMarketConfig(), &scriptedRand{}, metrics.New("test"), store,
		func() time.Time { return testEpoch })
	svc.Start()
	t.Cleanup(svc.Stop)
	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	return svc
}

func TestServicePlaceAndListOrders(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	result, err := svc.PlaceOrder(ctx, PlaceOrderCommand{
		OwnerID: "player", ItemID: "veldspar", Side: domain.SideBuy,
		Quantity: 5, Price: dec("7.50"), Balance: dec("100"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Order.Status != domain.StatusActive {
		t.Errorf("fresh order should be active, got %s", result.Order.Status)
	}

	orders, err := svc.ListOrders(ctx, "player")
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 1 || orders[0].OrderID != result.Order.OrderID {
		t.Errorf("expected the placed order, got %d", len(orders))
	}
}

func TestServiceItemFilters(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	ores, err := svc.ListItems(ctx, ItemFilter{Category: domain.CategoryOre})
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range ores {
		if v.Category != string(domain.CategoryOre) {
			t.Errorf("category filter leaked %s", v.ItemID)
		}
	}

	byPrice, err := svc.ListItems(ctx, ItemFilter{SortBy: "price", Desc: true})
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(byPrice); i++ {
		if byPrice[i-1].LastPrice.LessThan(byPrice[i].LastPrice) {
			t.Fatalf("descending price sort violated at %d", i)
		}
	}

	named, err := svc.ListItems(ctx, ItemFilter{Search: "veld"})
	if err != nil {
		t.Fatal(err)
	}
	if len(named) != 1 || named[0].ItemID != "veldspar" {
		t.Errorf("search should match veldspar only, got %d", len(named))
	}
}

func TestServiceSnapshotRoundTrip(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	if _, err := svc.PlaceOrder(ctx, PlaceOrderCommand{
		OwnerID: "player", ItemID: "veldspar", Side: domain.SideBuy,
		Quantity: 5, Price: dec("7.50"), Balance: dec("100"),
	}); err != nil {
		t.Fatal(err)
	}
	if err := svc.SetAccessRule(ctx, &domain.AccessRule{
		FactionID: "pirates", ItemID: "veldspar", Level: domain.AccessDenied,
	}); err != nil {
		t.Fatal(err)
	}
	if err := svc.SaveSnapshot(ctx); err != nil {
		t.Fatal(err)
	}

	// 新服务从同一存储恢复
	restored := NewMarketService(domain.DefaultMarketConfig(), &scriptedRand{}, metrics.New("test"), store,
		func() time.Time { return testEpoch })
	restored.Start()
	t.Cleanup(restored.Stop)
	if err := restored.Initialize(ctx); err != nil {
		t.Fatal(err)
	}

	orders, err := restored.ListOrders(ctx, "player")
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 1 {
		t.Fatalf("restored service should see the player order, got %d", len(orders))
	}
	book, err := restored.GetBook(ctx, "veldspar")
	if err != nil {
		t.Fatal(err)
	}
	if len(book.Bids) != 1 {
		t.Errorf("active order should rejoin the book, bids = %d", len(book.Bids))
	}

	items, err := restored.ListItems(ctx, ItemFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != len(domain.SeedCatalog) {
		t.Errorf("restored items = %d, want %d", len(items), len(domain.SeedCatalog))
	}

	// 访问规则随快照恢复
	if level := restored.manager.Ledger().AccessLevelFor("pirates", "veldspar", 0); level != domain.AccessDenied {
		t.Errorf("restored access level = %s, want DENIED", level)
	}
}
