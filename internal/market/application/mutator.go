// Package application 市场引擎的应用服务层：命令编排、交易轮调度、
// 结算与查询视图。所有账本写入经由单一 Mutator 串行执行。
package application

import (
	"context"
	"errors"
	"sync"
)

// ErrMutatorStopped 提交到已停止的 mutator
var ErrMutatorStopped = errors.New("mutator stopped")

// Mutator 单 goroutine 串行执行器。领域状态不做内部加锁，
// 一切变更闭包排队到这里依次执行，读写天然互斥。
type Mutator struct {
	ops      chan func()
	stop     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewMutator 创建执行器，buffer 为排队深度
func NewMutator(buffer int) *Mutator {
	return &Mutator{
		ops:     make(chan func(), buffer),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start 启动执行 goroutine
func (m *Mutator) Start() {
	go func() {
		defer close(m.stopped)
		for {
			select {
			case op := <-m.ops:
				op()
			case <-m.stop:
				// 清空剩余队列再退出
				for {
					select {
					case op := <-m.ops:
						op()
					default:
						return
					}
				}
			}
		}
	}()
}

// Stop 停止执行器，等待排队中的操作全部完成
func (m *Mutator) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
	<-m.stopped
}

// Do 在 mutator 上下文内同步执行 fn，返回 fn 的错误。
// mutator 已停止或 ctx 取消时返回相应错误。
func (m *Mutator) Do(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	op := func() { done <- fn() }
	select {
	case m.ops <- op:
	case <-m.stopped:
		return ErrMutatorStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-done:
		return err
	case <-m.stopped:
		// 停止前队列会被清空，再查一次结果
		select {
		case err := <-done:
			return err
		default:
			return ErrMutatorStopped
		}
	}
}
