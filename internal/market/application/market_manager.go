package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gnoobs75/vacuum/internal/market/domain"
	"github.com/gnoobs75/vacuum/pkg/logger"
	"github.com/gnoobs75/vacuum/pkg/metrics"
)

var traderNames = []string{
	"Quafe Holdings", "Outer Ring Excavations", "Serpentis Corp", "Ducia Foundry",
	"Astral Mining Inc", "Deep Core Mining", "Material Acquisition", "Sisters of EVE",
	"Thukker Mix", "Freedom Extension", "Ishukone Corp", "CreoDron",
}

var traderFactions = []string{"federation", "empire", "republic", "state"}

// MarketManager 市场写路径编排：下单、撤单、AI 交易轮、定价轮、过期清理。
// 全部方法假定在 mutator 上下文内被调用，不做内部同步。
type MarketManager struct {
	cfg      domain.MarketConfig
	ledger   *domain.Ledger
	matcher  *domain.MatchingEngine
	pricer   *domain.PricingEngine
	eventGen *domain.EventGenerator
	validate *domain.OrderValidator
	notifier *domain.Notifier
	agents   map[string]*domain.TraderAgent
	rng      domain.Rand
	now      func() time.Time
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// NewMarketManager 组装市场引擎
func NewMarketManager(cfg domain.MarketConfig, rng domain.Rand, m *metrics.Metrics, now func() time.Time) *MarketManager {
	if now == nil {
		now = time.Now
	}
	ledger := domain.NewLedger()
	notifier := &domain.Notifier{}
	return &MarketManager{
		cfg:      cfg,
		ledger:   ledger,
		matcher:  domain.NewMatchingEngine(ledger, notifier, now),
		pricer:   domain.NewPricingEngine(cfg, ledger, notifier, rng, now),
		eventGen: domain.NewEventGenerator(cfg, rng, now),
		validate: domain.NewOrderValidator(ledger),
		notifier: notifier,
		agents:   make(map[string]*domain.TraderAgent),
		rng:      rng,
		now:      now,
		metrics:  m,
		log:      logger.With("market_manager"),
	}
}

// Ledger 暴露账本供查询层使用
func (s *MarketManager) Ledger() *domain.Ledger { return s.ledger }

// Pricer 暴露定价引擎供查询层使用
func (s *MarketManager) Pricer() *domain.PricingEngine { return s.pricer }

// RegisterListener 注册市场通知监听器
func (s *MarketManager) RegisterListener(l domain.MarketListener) {
	s.notifier.Register(l)
}

// Initialize 初始化市场：登记商品目录、组建 AI 交易代理
func (s *MarketManager) Initialize(ctx context.Context) error {
	for _, item := range domain.SeedItems() {
		s.ledger.AddItem(item)
	}
	return s.BootstrapAgents(ctx)
}

// BootstrapAgents 组建 AI 交易代理。账本从快照恢复时单独调用，
// 避免重播商品目录覆盖已恢复的价格状态。
func (s *MarketManager) BootstrapAgents(ctx context.Context) error {
	for i := 0; i < s.cfg.TraderCount; i++ {
		// 初始资金 5000~50000，性格参数落在 [0.2, 0.8]
		balance := decimal.NewFromInt(int64(5000 + s.rng.IntN(45001)))
		profile := domain.TraderProfile{
			TraderID:      fmt.Sprintf("agent-%02d", i+1),
			Name:          traderNames[i%len(traderNames)],
			FactionID:     traderFactions[i%len(traderFactions)],
			Aggression:    0.2 + s.rng.Float64()*0.6,
			RiskTolerance: 0.2 + s.rng.Float64()*0.6,
		}
		s.agents[profile.TraderID] = domain.NewTraderAgent(profile, balance, s.cfg, s.rng)
	}
	s.metrics.ActiveAgents.Set(float64(len(s.agents)))

	s.log.InfoContext(ctx, "market initialized",
		slog.Int("items", len(s.ledger.Items())),
		slog.Int("agents", len(s.agents)))
	return nil
}

// PlaceOrder 玩家下单：校验 → 落簿 → 立即撮合 → 结算 AI 对手方
func (s *MarketManager) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (*PlaceOrderResult, error) {
	ttl := time.Duration(s.cfg.OrderExpirationDays) * 24 * time.Hour
	order := domain.NewOrder(cmd.OwnerID, cmd.ItemID, cmd.Side, cmd.Quantity, cmd.Price, s.now(), ttl)

	if err := s.vetOrder(order, cmd.FactionID, cmd.Standing, cmd.Balance, cmd.Held); err != nil {
		s.metrics.OrdersRejectedTotal.Inc()
		return nil, err
	}

	txs, err := s.matcher.SubmitOrder(order)
	if err != nil {
		return nil, err
	}
	s.metrics.OrdersPlacedTotal.Inc()
	s.settleTrades(txs)

	s.log.InfoContext(ctx, "order placed",
		slog.String("order_id", order.OrderID),
		slog.String("owner", order.OwnerID),
		slog.String("item", order.ItemID),
		slog.String("side", string(order.Side)),
		slog.Int("fills", len(txs)))
	return &PlaceOrderResult{Order: order, Transactions: txs}, nil
}

// vetOrder 订单入簿前的全套校验，玩家单与代理单走同一路径
func (s *MarketManager) vetOrder(order *domain.Order, factionID string, standing float64, balance decimal.Decimal, held int) error {
	for _, check := range []func() error{
		func() error { return s.validate.ValidateOrder(order) },
		func() error { return s.validate.ValidateAccess(order, factionID, standing) },
		func() error { return s.validate.ValidateFunds(order, balance) },
		func() error { return s.validate.ValidateQuantity(order, held) },
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// vetAgentOrder 代理订单校验。Decide 在产单时已划扣托管资产，
// 校验口径需把在途部分加回
func (s *MarketManager) vetAgentOrder(agent *domain.TraderAgent, order *domain.Order) error {
	balance := agent.Balance
	held := agent.Inventory[order.ItemID]
	if order.IsBuy() {
		balance = balance.Add(order.Price.Mul(decimal.NewFromInt(int64(order.Quantity))))
	} else {
		held += order.Quantity
	}
	return s.vetOrder(order, agent.Profile.FactionID, agent.Profile.Standing, balance, held)
}

// CancelOrder 撤单，退还 AI 代理的在途资产
func (s *MarketManager) CancelOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.matcher.CancelOrder(orderID)
	if err != nil {
		return nil, err
	}
	s.refundEscrow(order)
	s.metrics.OrdersCancelledTotal.Inc()
	s.log.InfoContext(ctx, "order cancelled", slog.String("order_id", orderID))
	return order, nil
}

// RunTradingRound AI 交易轮：每个存活代理产生决策，经校验后提交撮合。
// 校验不通过退还托管资产；单个代理的失败不阻断整轮，记录后继续。
func (s *MarketManager) RunTradingRound(ctx context.Context) int {
	now := s.now()
	submitted := 0
	active := 0
	for _, id := range s.agentIDs() {
		agent := s.agents[id]
		if !agent.Active || agent.IsBankrupt() {
			continue
		}
		active++
		for _, order := range agent.Decide(s.ledger, now) {
			if err := s.vetAgentOrder(agent, order); err != nil {
				s.metrics.OrdersRejectedTotal.Inc()
				s.log.WarnContext(ctx, "agent order rejected",
					slog.String("agent", id), slog.Any("error", err))
				s.refundEscrow(order)
				continue
			}
			txs, err := s.matcher.SubmitOrder(order)
			if err != nil {
				s.log.WarnContext(ctx, "agent order rejected",
					slog.String("agent", id), slog.Any("error", err))
				s.refundEscrow(order)
				continue
			}
			s.metrics.OrdersPlacedTotal.Inc()
			s.settleTrades(txs)
			submitted++
		}
	}
	s.metrics.ActiveAgents.Set(float64(active))
	s.log.DebugContext(ctx, "trading round complete",
		slog.Int("orders", submitted), slog.Int("active_agents", active))
	return submitted
}

// RunPricingPass 定价轮：清理失效事件 → 掷骰生成新事件 → 全商品定价
func (s *MarketManager) RunPricingPass(ctx context.Context) int {
	s.eventGen.CleanupExpiredEvents(s.ledger)

	if ev := s.eventGen.TryGenerateEvent(s.ledger); ev != nil {
		s.metrics.MarketEventsTotal.Inc()
		s.notifier.NotifyMarketEvent(domain.MarketEventStartedEvent{Event: ev})
		s.log.InfoContext(ctx, "market event started",
			slog.String("event_id", ev.EventID),
			slog.String("description", ev.Description),
			slog.Float64("price_modifier", ev.PriceModifier),
			slog.Duration("duration", ev.Duration))
	}
	s.metrics.ActiveEvents.Set(float64(len(s.ledger.ActiveEvents(s.now()))))

	changed := s.pricer.RunPriceTick()
	s.metrics.PriceUpdatesTotal.Add(float64(changed))
	s.log.DebugContext(ctx, "pricing pass complete", slog.Int("price_changes", changed))
	return changed
}

// CleanupExpired 过期订单清理轮
func (s *MarketManager) CleanupExpired(ctx context.Context) int {
	expired := s.matcher.CleanupExpiredOrders()
	for _, order := range expired {
		s.refundEscrow(order)
	}
	s.metrics.OrdersExpiredTotal.Add(float64(len(expired)))
	if len(expired) > 0 {
		s.log.InfoContext(ctx, "expired orders cleaned", slog.Int("count", len(expired)))
	}
	return len(expired)
}

// settleTrades 结算成交：卖方收款、买方收货并退还出价与成交价的差额。
// 成交价取卖方挂单价，买方按自身出价托管，差额即时退回。
func (s *MarketManager) settleTrades(txs []*domain.Transaction) {
	for _, tx := range txs {
		s.metrics.TradesExecutedTotal.Inc()
		s.metrics.TradeVolumeTotal.Add(float64(tx.Quantity))

		qty := decimal.NewFromInt(int64(tx.Quantity))
		proceeds := tx.Price.Mul(qty)

		if seller, ok := s.agents[tx.SellerID]; ok {
			seller.CreditBalance(proceeds)
			if item, err := s.ledger.Item(tx.ItemID); err == nil {
				seller.RecordTrade(tx.Price.Sub(item.BasePrice).Mul(qty))
			}
		}
		if buyer, ok := s.agents[tx.BuyerID]; ok {
			buyer.CreditInventory(tx.ItemID, tx.Quantity)
			if buyOrder, err := s.ledger.Order(tx.BuyOrderID); err == nil {
				refund := buyOrder.Price.Sub(tx.Price).Mul(qty)
				buyer.CreditBalance(refund)
				buyer.RecordTrade(refund)
			}
		}
	}
}

// refundEscrow 撤单/过期/拒单时退还 AI 代理下单时划扣的资产
func (s *MarketManager) refundEscrow(order *domain.Order) {
	agent, ok := s.agents[order.OwnerID]
	if !ok {
		return
	}
	remaining := order.RemainingQuantity()
	if remaining <= 0 {
		return
	}
	if order.IsBuy() {
		agent.CreditBalance(order.Price.Mul(decimal.NewFromInt(int64(remaining))))
		return
	}
	agent.CreditInventory(order.ItemID, remaining)
}

// Agents 按 ID 升序返回全部代理
func (s *MarketManager) Agents() []*domain.TraderAgent {
	agents := make([]*domain.TraderAgent, 0, len(s.agents))
	for _, id := range s.agentIDs() {
		agents = append(agents, s.agents[id])
	}
	return agents
}

func (s *MarketManager) agentIDs() []string {
	ids := make([]string, 0, len(s.agents))
	for id := range s.agents {
		ids = append(ids, id)
	}
	// 遍历顺序确定，便于复现
	sort.Strings(ids)
	return ids
}
