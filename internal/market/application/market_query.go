package application

import (
	"sort"
	"strings"
	"time"

	"github.com/gnoobs75/vacuum/internal/market/domain"
)

// MarketQuery 市场只读查询。与写路径共享账本，
// 经由同一 mutator 串行执行保证读到一致视图。
type MarketQuery struct {
	manager *MarketManager
}

// NewMarketQuery 创建查询器
func NewMarketQuery(manager *MarketManager) *MarketQuery {
	return &MarketQuery{manager: manager}
}

// ListItems 按过滤条件浏览商品
func (q *MarketQuery) ListItems(filter ItemFilter) []ItemView {
	var views []ItemView
	for _, item := range q.manager.Ledger().Items() {
		if !q.matches(item, filter) {
			continue
		}
		views = append(views, q.itemView(item))
	}
	q.sortViews(views, filter)
	return views
}

func (q *MarketQuery) matches(item *domain.MarketItem, filter ItemFilter) bool {
	if filter.Search != "" && !strings.Contains(strings.ToLower(item.Name), strings.ToLower(filter.Search)) {
		return false
	}
	if filter.Category != "" && item.Category != filter.Category {
		return false
	}
	if !filter.MinPrice.IsZero() && item.LastPrice.LessThan(filter.MinPrice) {
		return false
	}
	if !filter.MaxPrice.IsZero() && item.LastPrice.GreaterThan(filter.MaxPrice) {
		return false
	}
	return true
}

func (q *MarketQuery) sortViews(views []ItemView, filter ItemFilter) {
	less := func(i, j int) bool { return views[i].Name < views[j].Name }
	switch filter.SortBy {
	case "price":
		less = func(i, j int) bool { return views[i].LastPrice.LessThan(views[j].LastPrice) }
	case "volume":
		less = func(i, j int) bool { return views[i].VolumeTraded < views[j].VolumeTraded }
	}
	if filter.Desc {
		orig := less
		less = func(i, j int) bool { return orig(j, i) }
	}
	sort.SliceStable(views, less)
}

func (q *MarketQuery) itemView(item *domain.MarketItem) ItemView {
	view := ItemView{
		ItemID:       item.ItemID,
		Name:         item.Name,
		Category:     string(item.Category),
		BasePrice:    item.BasePrice,
		LastPrice:    item.LastPrice,
		VolumeTraded: item.VolumeTraded,
		UpdatedAt:    item.UpdatedAt,
	}
	if book, err := q.manager.Ledger().Book(item.ItemID); err == nil {
		if bid := book.BestBid(); bid != nil {
			view.BestBid = bid.Price
		}
		if ask := book.BestAsk(); ask != nil {
			view.BestAsk = ask.Price
		}
		view.BuyDepth = book.BuyDepth()
		view.SellDepth = book.SellDepth()
	}
	return view
}

// GetItem 单商品视图
func (q *MarketQuery) GetItem(itemID string) (ItemView, error) {
	item, err := q.manager.Ledger().Item(itemID)
	if err != nil {
		return ItemView{}, err
	}
	return q.itemView(item), nil
}

// GetBook 订单簿视图
func (q *MarketQuery) GetBook(itemID string) (BookView, error) {
	book, err := q.manager.Ledger().Book(itemID)
	if err != nil {
		return BookView{}, err
	}
	view := BookView{ItemID: itemID}
	for _, o := range book.Bids() {
		view.Bids = append(view.Bids, bookLevel(o))
	}
	for _, o := range book.Asks() {
		view.Asks = append(view.Asks, bookLevel(o))
	}
	return view, nil
}

func bookLevel(o *domain.Order) BookLevelView {
	return BookLevelView{
		OrderID:   o.OrderID,
		Price:     o.Price,
		Remaining: o.RemainingQuantity(),
		CreatedAt: o.CreatedAt,
	}
}

// GetHistory 商品价格历史，since 为零值时返回全部
func (q *MarketQuery) GetHistory(itemID string, since time.Time) ([]*domain.PriceHistoryPoint, error) {
	if _, err := q.manager.Ledger().Item(itemID); err != nil {
		return nil, err
	}
	if since.IsZero() {
		return q.manager.Ledger().History(itemID), nil
	}
	return q.manager.Ledger().HistorySince(itemID, since), nil
}

// GetStats 商品价格统计
func (q *MarketQuery) GetStats(itemID string, window time.Duration) (*domain.PriceStats, error) {
	return q.manager.Pricer().Stats(itemID, window)
}

// ListEvents 当前生效的市场事件
func (q *MarketQuery) ListEvents(now time.Time) []*domain.MarketEvent {
	return q.manager.Ledger().ActiveEvents(now)
}

// ListTraders AI 代理概览
func (q *MarketQuery) ListTraders() []TraderView {
	var views []TraderView
	for _, agent := range q.manager.Agents() {
		views = append(views, TraderView{
			TraderID:   agent.Profile.TraderID,
			Name:       agent.Profile.Name,
			FactionID:  agent.Profile.FactionID,
			Balance:    agent.Balance,
			Profit:     agent.Profit,
			TradeCount: agent.TradeCount,
			Inventory:  agent.TotalInventory(),
			Active:     agent.Active,
			Bankrupt:   agent.IsBankrupt(),
		})
	}
	return views
}

// ListOrders 按所有者查订单，ownerID 为空时返回全部活跃订单
func (q *MarketQuery) ListOrders(ownerID string) []*domain.Order {
	if ownerID == "" {
		return q.manager.Ledger().ActiveOrders()
	}
	return q.manager.Ledger().OrdersByOwner(ownerID)
}
