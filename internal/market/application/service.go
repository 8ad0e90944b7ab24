package application

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gnoobs75/vacuum/internal/market/domain"
	"github.com/gnoobs75/vacuum/pkg/logger"
	"github.com/gnoobs75/vacuum/pkg/metrics"
)

// MarketService 市场引擎门面。写命令与查询都经由 Mutator 串行化，
// 对外方法可从任意 goroutine 并发调用。
type MarketService struct {
	manager *MarketManager
	query   *MarketQuery
	mutator *Mutator
	store   domain.Store
	now     func() time.Time
}

// NewMarketService 组装服务。store 可为 nil，此时快照相关操作为空操作。
func NewMarketService(cfg domain.MarketConfig, rng domain.Rand, m *metrics.Metrics, store domain.Store, now func() time.Time) *MarketService {
	if now == nil {
		now = time.Now
	}
	manager := NewMarketManager(cfg, rng, m, now)
	return &MarketService{
		manager: manager,
		query:   NewMarketQuery(manager),
		mutator: NewMutator(256),
		store:   store,
		now:     now,
	}
}

// Start 启动 mutator
func (s *MarketService) Start() { s.mutator.Start() }

// Stop 停止 mutator，排队中的命令执行完毕后返回
func (s *MarketService) Stop() { s.mutator.Stop() }

// RegisterListener 注册市场通知监听器，需在 Start 之前调用
func (s *MarketService) RegisterListener(l domain.MarketListener) {
	s.manager.RegisterListener(l)
}

// Initialize 初始化市场。store 有历史快照时从快照恢复，否则播种目录。
func (s *MarketService) Initialize(ctx context.Context) error {
	return s.mutator.Do(ctx, func() error {
		if s.store != nil {
			restored, err := s.restoreFromStore(ctx)
			if err != nil {
				return err
			}
			if restored {
				return s.manager.BootstrapAgents(ctx)
			}
		}
		return s.manager.Initialize(ctx)
	})
}

// PlaceOrder 玩家下单
func (s *MarketService) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (*PlaceOrderResult, error) {
	var result *PlaceOrderResult
	err := s.mutator.Do(ctx, func() error {
		var err error
		result, err = s.manager.PlaceOrder(ctx, cmd)
		return err
	})
	return result, err
}

// CancelOrder 撤单
func (s *MarketService) CancelOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var order *domain.Order
	err := s.mutator.Do(ctx, func() error {
		var err error
		order, err = s.manager.CancelOrder(ctx, orderID)
		return err
	})
	return order, err
}

// SetAccessRule 设定派系对商品的访问规则
func (s *MarketService) SetAccessRule(ctx context.Context, rule *domain.AccessRule) error {
	return s.mutator.Do(ctx, func() error {
		s.manager.Ledger().SetAccessRule(rule)
		return nil
	})
}

// RunTradingRound 执行一轮 AI 交易
func (s *MarketService) RunTradingRound(ctx context.Context) (int, error) {
	var count int
	err := s.mutator.Do(ctx, func() error {
		count = s.manager.RunTradingRound(ctx)
		return nil
	})
	return count, err
}

// RunPricingPass 执行一轮定价与事件演进
func (s *MarketService) RunPricingPass(ctx context.Context) (int, error) {
	var changed int
	err := s.mutator.Do(ctx, func() error {
		changed = s.manager.RunPricingPass(ctx)
		return nil
	})
	return changed, err
}

// CleanupExpired 清理过期订单
func (s *MarketService) CleanupExpired(ctx context.Context) (int, error) {
	var count int
	err := s.mutator.Do(ctx, func() error {
		count = s.manager.CleanupExpired(ctx)
		return nil
	})
	return count, err
}

// ListItems 浏览商品
func (s *MarketService) ListItems(ctx context.Context, filter ItemFilter) ([]ItemView, error) {
	var views []ItemView
	err := s.mutator.Do(ctx, func() error {
		views = s.query.ListItems(filter)
		return nil
	})
	return views, err
}

// GetItem 单商品视图
func (s *MarketService) GetItem(ctx context.Context, itemID string) (ItemView, error) {
	var view ItemView
	err := s.mutator.Do(ctx, func() error {
		var err error
		view, err = s.query.GetItem(itemID)
		return err
	})
	return view, err
}

// GetBook 订单簿视图
func (s *MarketService) GetBook(ctx context.Context, itemID string) (BookView, error) {
	var view BookView
	err := s.mutator.Do(ctx, func() error {
		var err error
		view, err = s.query.GetBook(itemID)
		return err
	})
	return view, err
}

// GetHistory 价格历史
func (s *MarketService) GetHistory(ctx context.Context, itemID string, since time.Time) ([]*domain.PriceHistoryPoint, error) {
	var points []*domain.PriceHistoryPoint
	err := s.mutator.Do(ctx, func() error {
		var err error
		points, err = s.query.GetHistory(itemID, since)
		return err
	})
	return points, err
}

// GetStats 价格统计
func (s *MarketService) GetStats(ctx context.Context, itemID string, window time.Duration) (*domain.PriceStats, error) {
	var stats *domain.PriceStats
	err := s.mutator.Do(ctx, func() error {
		var err error
		stats, err = s.query.GetStats(itemID, window)
		return err
	})
	return stats, err
}

// ListEvents 生效中的市场事件
func (s *MarketService) ListEvents(ctx context.Context) ([]*domain.MarketEvent, error) {
	var events []*domain.MarketEvent
	err := s.mutator.Do(ctx, func() error {
		events = s.query.ListEvents(s.now())
		return nil
	})
	return events, err
}

// ListTraders AI 代理概览
func (s *MarketService) ListTraders(ctx context.Context) ([]TraderView, error) {
	var views []TraderView
	err := s.mutator.Do(ctx, func() error {
		views = s.query.ListTraders()
		return nil
	})
	return views, err
}

// ListOrders 查询订单
func (s *MarketService) ListOrders(ctx context.Context, ownerID string) ([]*domain.Order, error) {
	var orders []*domain.Order
	err := s.mutator.Do(ctx, func() error {
		orders = s.query.ListOrders(ownerID)
		return nil
	})
	return orders, err
}

// SaveSnapshot 将账本快照写入存储
func (s *MarketService) SaveSnapshot(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	var snap *domain.Snapshot
	if err := s.mutator.Do(ctx, func() error {
		snap = s.manager.Ledger().Snapshot()
		return nil
	}); err != nil {
		return err
	}

	// 落盘在 mutator 之外执行，避免慢存储阻塞交易
	for _, item := range snap.Items {
		if err := s.store.Save(ctx, domain.CollectionItems, item.ItemID, item); err != nil {
			return err
		}
	}
	for _, order := range snap.Orders {
		if err := s.store.Save(ctx, domain.CollectionOrders, order.OrderID, order); err != nil {
			return err
		}
	}
	for _, tx := range snap.Transactions {
		if err := s.store.Save(ctx, domain.CollectionTransactions, tx.TransactionID, tx); err != nil {
			return err
		}
	}
	for _, point := range snap.History {
		if err := s.store.Save(ctx, domain.CollectionHistory, point.HistoryID, point); err != nil {
			return err
		}
	}
	for _, ev := range snap.Events {
		if err := s.store.Save(ctx, domain.CollectionEvents, ev.EventID, ev); err != nil {
			return err
		}
	}
	for _, rule := range snap.AccessRules {
		if err := s.store.Save(ctx, domain.CollectionAccessRules, rule.Key(), rule); err != nil {
			return err
		}
	}
	logger.Info(ctx, "ledger snapshot saved",
		"items", len(snap.Items), "orders", len(snap.Orders), "transactions", len(snap.Transactions))
	return nil
}

// restoreFromStore 从存储重建账本，返回是否存在历史数据
func (s *MarketService) restoreFromStore(ctx context.Context) (bool, error) {
	snap := &domain.Snapshot{}

	if err := s.store.LoadAll(ctx, domain.CollectionItems, func(data []byte) error {
		item := &domain.MarketItem{}
		if err := json.Unmarshal(data, item); err != nil {
			return err
		}
		snap.Items = append(snap.Items, item)
		return nil
	}); err != nil {
		return false, err
	}
	if len(snap.Items) == 0 {
		return false, nil
	}

	if err := s.store.LoadAll(ctx, domain.CollectionOrders, func(data []byte) error {
		order := &domain.Order{}
		if err := json.Unmarshal(data, order); err != nil {
			return err
		}
		snap.Orders = append(snap.Orders, order)
		return nil
	}); err != nil {
		return false, err
	}
	if err := s.store.LoadAll(ctx, domain.CollectionTransactions, func(data []byte) error {
		tx := &domain.Transaction{}
		if err := json.Unmarshal(data, tx); err != nil {
			return err
		}
		snap.Transactions = append(snap.Transactions, tx)
		return nil
	}); err != nil {
		return false, err
	}
	if err := s.store.LoadAll(ctx, domain.CollectionHistory, func(data []byte) error {
		point := &domain.PriceHistoryPoint{}
		if err := json.Unmarshal(data, point); err != nil {
			return err
		}
		snap.History = append(snap.History, point)
		return nil
	}); err != nil {
		return false, err
	}
	if err := s.store.LoadAll(ctx, domain.CollectionEvents, func(data []byte) error {
		ev := &domain.MarketEvent{}
		if err := json.Unmarshal(data, ev); err != nil {
			return err
		}
		snap.Events = append(snap.Events, ev)
		return nil
	}); err != nil {
		return false, err
	}
	if err := s.store.LoadAll(ctx, domain.CollectionAccessRules, func(data []byte) error {
		rule := &domain.AccessRule{}
		if err := json.Unmarshal(data, rule); err != nil {
			return err
		}
		snap.AccessRules = append(snap.AccessRules, rule)
		return nil
	}); err != nil {
		return false, err
	}

	if err := s.manager.Ledger().Restore(snap); err != nil {
		return false, err
	}
	logger.Info(ctx, "ledger restored from store",
		"items", len(snap.Items), "orders", len(snap.Orders))
	return true, nil
}
