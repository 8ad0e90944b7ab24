// Package http 提供市场引擎的 HTTP 接口：行情浏览、下单撤单与代理概览
package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/gnoobs75/vacuum/internal/market/application"
	"github.com/gnoobs75/vacuum/internal/market/domain"
	"github.com/gnoobs75/vacuum/pkg/metrics"
)

// MarketHandler 市场 HTTP 处理器
type MarketHandler struct {
	service *application.MarketService
	metrics *metrics.Metrics
}

// NewMarketHandler 创建处理器
func NewMarketHandler(service *application.MarketService, m *metrics.Metrics) *MarketHandler {
	return &MarketHandler{service: service, metrics: m}
}

// RegisterRoutes 注册路由
func (h *MarketHandler) RegisterRoutes(r *gin.Engine) {
	r.Use(h.observe())

	api := r.Group("/api/v1/market")
	{
		api.GET("/items", h.ListItems)
		api.GET("/items/:id", h.GetItem)
		api.GET("/items/:id/book", h.GetBook)
		api.GET("/items/:id/history", h.GetHistory)
		api.GET("/items/:id/stats", h.GetStats)
		api.GET("/events", h.ListEvents)
		api.GET("/traders", h.ListTraders)
		api.GET("/orders", h.ListOrders)
		api.POST("/orders", h.PlaceOrder)
		api.DELETE("/orders/:id", h.CancelOrder)
		api.PUT("/access", h.SetAccessRule)
	}
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func (h *MarketHandler) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.metrics.HTTPRequestsTotal.Inc()
		h.metrics.HTTPRequestDuration.Observe(time.Since(start).Seconds())
	}
}

func respond(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "ok", "data": data})
}

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrInsufficientQuantity):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrAccessDenied):
		status = http.StatusForbidden
	}
	c.JSON(status, gin.H{"code": status, "message": err.Error()})
}

// ListItems 浏览商品，支持 search/category/min_price/max_price/sort/desc
func (h *MarketHandler) ListItems(c *gin.Context) {
	filter := application.ItemFilter{
		Search:   c.Query("search"),
		Category: domain.ItemCategory(c.Query("category")),
		SortBy:   c.Query("sort"),
		Desc:     c.Query("desc") == "true",
	}
	if raw := c.Query("min_price"); raw != "" {
		p, err := decimal.NewFromString(raw)
		if err != nil {
			respondError(c, errors.Join(domain.ErrValidation, err))
			return
		}
		filter.MinPrice = p
	}
	if raw := c.Query("max_price"); raw != "" {
		p, err := decimal.NewFromString(raw)
		if err != nil {
			respondError(c, errors.Join(domain.ErrValidation, err))
			return
		}
		filter.MaxPrice = p
	}

	items, err := h.service.ListItems(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, items)
}

// GetItem 单商品视图
func (h *MarketHandler) GetItem(c *gin.Context) {
	item, err := h.service.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, item)
}

// GetBook 订单簿
func (h *MarketHandler) GetBook(c *gin.Context) {
	book, err := h.service.GetBook(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, book)
}

// GetHistory 价格历史，支持 hours 窗口参数
func (h *MarketHandler) GetHistory(c *gin.Context) {
	var since time.Time
	if raw := c.Query("hours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			respondError(c, domain.ErrValidation)
			return
		}
		since = time.Now().Add(-time.Duration(hours) * time.Hour)
	}
	points, err := h.service.GetHistory(c.Request.Context(), c.Param("id"), since)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, points)
}

// GetStats 价格统计，默认 24 小时窗口
func (h *MarketHandler) GetStats(c *gin.Context) {
	window := 24 * time.Hour
	if raw := c.Query("hours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			respondError(c, domain.ErrValidation)
			return
		}
		window = time.Duration(hours) * time.Hour
	}
	stats, err := h.service.GetStats(c.Request.Context(), c.Param("id"), window)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, stats)
}

// ListEvents 生效中的市场事件
func (h *MarketHandler) ListEvents(c *gin.Context) {
	events, err := h.service.ListEvents(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, events)
}

// ListTraders AI 代理概览
func (h *MarketHandler) ListTraders(c *gin.Context) {
	traders, err := h.service.ListTraders(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, traders)
}

// ListOrders 查询订单，owner 为空时返回全部活跃订单
func (h *MarketHandler) ListOrders(c *gin.Context) {
	orders, err := h.service.ListOrders(c.Request.Context(), c.Query("owner"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, orders)
}

// PlaceOrder 玩家下单
func (h *MarketHandler) PlaceOrder(c *gin.Context) {
	var cmd application.PlaceOrderCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		respondError(c, errors.Join(domain.ErrValidation, err))
		return
	}
	result, err := h.service.PlaceOrder(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, result)
}

// CancelOrder 撤单
func (h *MarketHandler) CancelOrder(c *gin.Context) {
	order, err := h.service.CancelOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, order)
}

// SetAccessRule 设定派系对商品的访问规则
func (h *MarketHandler) SetAccessRule(c *gin.Context) {
	var rule domain.AccessRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		respondError(c, errors.Join(domain.ErrValidation, err))
		return
	}
	if rule.FactionID == "" || rule.ItemID == "" {
		respondError(c, domain.ErrValidation)
		return
	}
	switch rule.Level {
	case domain.AccessFull, domain.AccessRestricted, domain.AccessDenied:
	default:
		respondError(c, domain.ErrValidation)
		return
	}
	if err := h.service.SetAccessRule(c.Request.Context(), &rule); err != nil {
		respondError(c, err)
		return
	}
	respond(c, rule)
}
