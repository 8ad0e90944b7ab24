package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/gnoobs75/vacuum/internal/market/domain"
	"github.com/gnoobs75/vacuum/pkg/scheduler"
)

// taskErr 统一包装任务执行错误，保留原始错误链供取消检测
func taskErr(err error) error {
	return errors.Join(domain.ErrTaskExecution, err)
}

// AITradingTask 一轮 AI 交易，由调度器周期性提交
type AITradingTask struct {
	Service *MarketService
}

func (t *AITradingTask) Name() string { return "ai_trading_round" }

func (t *AITradingTask) Execute(ctx context.Context, report func(float64)) (scheduler.Result, error) {
	report(0)
	count, err := t.Service.RunTradingRound(ctx)
	if err != nil {
		return scheduler.Fail(err.Error()), taskErr(err)
	}
	report(1)
	return scheduler.Ok(fmt.Sprintf("submitted %d agent orders", count)), nil
}

// PriceDynamicsTask 一轮定价与事件演进
type PriceDynamicsTask struct {
	Service *MarketService
}

func (t *PriceDynamicsTask) Name() string { return "price_dynamics" }

func (t *PriceDynamicsTask) Execute(ctx context.Context, report func(float64)) (scheduler.Result, error) {
	report(0)
	changed, err := t.Service.RunPricingPass(ctx)
	if err != nil {
		return scheduler.Fail(err.Error()), taskErr(err)
	}
	report(1)
	return scheduler.Ok(fmt.Sprintf("committed %d price changes", changed)), nil
}

// OrderCleanupTask 过期订单清理
type OrderCleanupTask struct {
	Service *MarketService
}

func (t *OrderCleanupTask) Name() string { return "order_cleanup" }

func (t *OrderCleanupTask) Execute(ctx context.Context, report func(float64)) (scheduler.Result, error) {
	report(0)
	count, err := t.Service.CleanupExpired(ctx)
	if err != nil {
		return scheduler.Fail(err.Error()), taskErr(err)
	}
	report(1)
	return scheduler.Ok(fmt.Sprintf("expired %d orders", count)), nil
}

// SnapshotTask 账本快照落盘
type SnapshotTask struct {
	Service *MarketService
}

func (t *SnapshotTask) Name() string { return "ledger_snapshot" }

func (t *SnapshotTask) Execute(ctx context.Context, report func(float64)) (scheduler.Result, error) {
	report(0)
	if err := t.Service.SaveSnapshot(ctx); err != nil {
		return scheduler.Fail(err.Error()), taskErr(err)
	}
	report(1)
	return scheduler.Ok("snapshot persisted"), nil
}
