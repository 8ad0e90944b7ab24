// Package publisher 将市场通知桥接到 Kafka，供外部消费者订阅行情
package publisher

import (
	"context"
	"time"

	"github.com/gnoobs75/vacuum/internal/market/domain"
	"github.com/gnoobs75/vacuum/pkg/mq"
)

// 行情 topic
const (
	TopicPrices = "market.prices"
	TopicOrders = "market.orders"
	TopicTrades = "market.trades"
	TopicEvents = "market.events"
)

type envelope struct {
	EventType string `json:"event_type"`
	Payload   any    `json:"payload"`
	At        string `json:"at"`
}

// KafkaPublisher 实现 domain.MarketListener。回调在 mutator 上下文内触发，
// 发送走独立 goroutine，发送失败只记日志不回传，不影响撮合。
type KafkaPublisher struct {
	producer *mq.KafkaProducer
	timeout  time.Duration
}

// NewKafkaPublisher 创建行情发布器
func NewKafkaPublisher(producer *mq.KafkaProducer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, timeout: 5 * time.Second}
}

func (p *KafkaPublisher) publish(topic, eventType, key string, payload any) {
	msg := envelope{
		EventType: eventType,
		Payload:   payload,
		At:        time.Now().UTC().Format(time.RFC3339Nano),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		_ = p.producer.SendMessage(ctx, topic, key, msg)
	}()
}

// OnPriceChanged 发布价格变动
func (p *KafkaPublisher) OnPriceChanged(ev domain.PriceChangedEvent) {
	p.publish(TopicPrices, domain.EventTypePriceChanged, ev.ItemID, ev)
}

// OnOrderPlaced 发布订单挂入
func (p *KafkaPublisher) OnOrderPlaced(ev domain.OrderPlacedEvent) {
	p.publish(TopicOrders, domain.EventTypeOrderPlaced, ev.Order.OrderID, ev)
}

// OnOrderFilled 发布订单成交
func (p *KafkaPublisher) OnOrderFilled(ev domain.OrderFilledEvent) {
	p.publish(TopicTrades, domain.EventTypeOrderFilled, ev.Transaction.TransactionID, ev)
}

// OnOrderCancelled 发布订单撤销/过期
func (p *KafkaPublisher) OnOrderCancelled(ev domain.OrderCancelledEvent) {
	eventType := domain.EventTypeOrderCancelled
	if ev.Expired {
		eventType = domain.EventTypeOrderExpired
	}
	p.publish(TopicOrders, eventType, ev.Order.OrderID, ev)
}

// OnMarketEvent 发布市场事件开始
func (p *KafkaPublisher) OnMarketEvent(ev domain.MarketEventStartedEvent) {
	p.publish(TopicEvents, domain.EventTypeMarketEvent, ev.Event.EventID, ev)
}
