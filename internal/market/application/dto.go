package application

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gnoobs75/vacuum/internal/market/domain"
)

// PlaceOrderCommand 玩家下单命令。Balance、Held 与派系声望由调用方提供，
// 引擎不托管玩家资产，只做前置校验。
type PlaceOrderCommand struct {
	OwnerID   string          `json:"owner_id"`
	ItemID    string          `json:"item_id"`
	Side      domain.Side     `json:"side"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Balance   decimal.Decimal `json:"balance"`
	Held      int             `json:"held"`
	FactionID string          `json:"faction_id,omitempty"`
	Standing  float64         `json:"standing,omitempty"`
}

// PlaceOrderResult 下单结果：落簿的订单与立即触发的成交
type PlaceOrderResult struct {
	Order        *domain.Order         `json:"order"`
	Transactions []*domain.Transaction `json:"transactions"`
}

// ItemFilter 商品浏览过滤条件
type ItemFilter struct {
	Search   string
	Category domain.ItemCategory
	MinPrice decimal.Decimal
	MaxPrice decimal.Decimal
	SortBy   string // name, price, volume
	Desc     bool
}

// ItemView 商品浏览视图
type ItemView struct {
	ItemID       string          `json:"item_id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	BasePrice    decimal.Decimal `json:"base_price"`
	LastPrice    decimal.Decimal `json:"last_price"`
	VolumeTraded int64           `json:"volume_traded"`
	BestBid      decimal.Decimal `json:"best_bid"`
	BestAsk      decimal.Decimal `json:"best_ask"`
	BuyDepth     int             `json:"buy_depth"`
	SellDepth    int             `json:"sell_depth"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// BookLevelView 订单簿档位视图
type BookLevelView struct {
	OrderID   string          `json:"order_id"`
	Price     decimal.Decimal `json:"price"`
	Remaining int             `json:"remaining"`
	CreatedAt time.Time       `json:"created_at"`
}

// BookView 订单簿视图
type BookView struct {
	ItemID string          `json:"item_id"`
	Bids   []BookLevelView `json:"bids"`
	Asks   []BookLevelView `json:"asks"`
}

// TraderView 交易代理视图
type TraderView struct {
	TraderID   string          `json:"trader_id"`
	Name       string          `json:"name"`
	FactionID  string          `json:"faction_id"`
	Balance    decimal.Decimal `json:"balance"`
	Profit     decimal.Decimal `json:"profit"`
	TradeCount int             `json:"trade_count"`
	Inventory  int             `json:"inventory"`
	Active     bool            `json:"active"`
	Bankrupt   bool            `json:"bankrupt"`
}
