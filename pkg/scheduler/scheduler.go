// Package scheduler 提供有界并发的后台任务运行器：任务上报进度、响应取消，
// 失败按指数退避重试，重试耗尽后标记 Failed 并通知观察者，但不会停摆调度器。
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/gnoobs75/vacuum/pkg/logger"
)

// Status 任务状态
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// Result 任务执行结果
type Result struct {
	Success  bool          `json:"success"`
	Message  string        `json:"message"`
	Duration time.Duration `json:"duration"`
}

// Ok 构造成功结果
func Ok(message string) Result {
	return Result{Success: true, Message: message}
}

// Fail 构造失败结果
func Fail(message string) Result {
	return Result{Success: false, Message: message}
}

// Task 后台任务契约。Execute 应在步骤之间检查 ctx 取消并立即中止，
// 通过 report 上报 [0,1] 的进度。
type Task interface {
	Name() string
	Execute(ctx context.Context, report func(float64)) (Result, error)
}

// Observer 任务终态回调
type Observer func(taskID string, name string, status Status, result Result)

// Config 调度器配置
type Config struct {
	// 最大并发任务数
	MaxConcurrent int
	// 最大重试次数（不含首次执行）
	MaxRetries int
	// 重试基础延迟，每次失败翻倍
	RetryBaseDelay time.Duration
	// OnRetry 每次重试前回调，可选
	OnRetry func(taskID string, name string, attempt int)
}

type taskState struct {
	id          string
	task        Task
	mu          sync.Mutex
	status      Status
	progress    float64
	result      Result
	submittedAt time.Time
	completedAt time.Time
}

func (ts *taskState) setStatus(s Status) {
	ts.mu.Lock()
	ts.status = s
	ts.mu.Unlock()
}

func (ts *taskState) setProgress(p float64) {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	ts.mu.Lock()
	ts.progress = p
	ts.mu.Unlock()
}

// Scheduler 有界并发任务调度器
type Scheduler struct {
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	tasks     map[string]*taskState
	observers []Observer

	queue chan *taskState
	wg    sync.WaitGroup
}

// New 创建调度器，需调用 Start 启动 worker
func New(cfg Config) *Scheduler {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 100 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		tasks:  make(map[string]*taskState),
		queue:  make(chan *taskState, 256),
	}
}

// Start 启动 worker 池
func (s *Scheduler) Start() {
	for i := 0; i < s.cfg.MaxConcurrent; i++ {
		s.wg.Add(1)
		go s.worker()
	}
}

// Stop 取消所有任务并等待 worker 退出。
// 仍在队列中未被领取的任务就地标记为取消，保证状态收敛到终态。
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	for {
		select {
		case ts := <-s.queue:
			s.finish(ts, StatusCancelled, Fail("cancelled"), ts.submittedAt)
		default:
			return
		}
	}
}

// OnTaskDone 注册终态观察者，需在 Start 之前调用
func (s *Scheduler) OnTaskDone(obs Observer) {
	s.mu.Lock()
	s.observers = append(s.observers, obs)
	s.mu.Unlock()
}

// Submit 提交任务，返回任务 ID
func (s *Scheduler) Submit(t Task) (string, error) {
	if s.ctx.Err() != nil {
		return "", fmt.Errorf("scheduler stopped")
	}

	ts := &taskState{
		id:          uuid.NewString(),
		task:        t,
		status:      StatusPending,
		submittedAt: time.Now(),
	}

	s.mu.Lock()
	s.tasks[ts.id] = ts
	s.mu.Unlock()

	select {
	case s.queue <- ts:
		return ts.id, nil
	default:
		s.mu.Lock()
		delete(s.tasks, ts.id)
		s.mu.Unlock()
		return "", fmt.Errorf("scheduler queue full")
	}
}

// Status 查询任务状态
func (s *Scheduler) Status(taskID string) (Status, bool) {
	s.mu.Lock()
	ts, ok := s.tasks[taskID]
	s.mu.Unlock()
	if !ok {
		return "", false
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.status, true
}

// Progress 查询任务进度 [0,1]
func (s *Scheduler) Progress(taskID string) float64 {
	s.mu.Lock()
	ts, ok := s.tasks[taskID]
	s.mu.Unlock()
	if !ok {
		return 0
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.progress
}

// Result 查询任务结果，仅终态任务有结果
func (s *Scheduler) Result(taskID string) (Result, bool) {
	s.mu.Lock()
	ts, ok := s.tasks[taskID]
	s.mu.Unlock()
	if !ok {
		return Result{}, false
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	switch ts.status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return ts.result, true
	default:
		return Result{}, false
	}
}

func (s *Scheduler) worker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case ts := <-s.queue:
			s.run(ts)
		}
	}
}

func (s *Scheduler) run(ts *taskState) {
	ts.setStatus(StatusRunning)
	start := time.Now()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.cfg.RetryBaseDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0

	for attempt := 0; ; attempt++ {
		res, err := ts.task.Execute(s.ctx, ts.setProgress)

		if s.ctx.Err() != nil || errors.Is(err, context.Canceled) {
			s.finish(ts, StatusCancelled, Fail("cancelled"), start)
			return
		}

		if err == nil && res.Success {
			s.finish(ts, StatusCompleted, res, start)
			return
		}

		msg := res.Message
		if err != nil {
			msg = err.Error()
		}

		if attempt >= s.cfg.MaxRetries {
			logger.Error(s.ctx, "task failed, retries exhausted",
				"task", ts.task.Name(), "task_id", ts.id, "attempts", attempt+1, "error", msg)
			s.finish(ts, StatusFailed, Fail(msg), start)
			return
		}

		if s.cfg.OnRetry != nil {
			s.cfg.OnRetry(ts.id, ts.task.Name(), attempt+1)
		}

		delay := bo.NextBackOff()
		logger.Warn(s.ctx, "task failed, retrying",
			"task", ts.task.Name(), "task_id", ts.id, "attempt", attempt+1, "delay", delay, "error", msg)

		select {
		case <-s.ctx.Done():
			s.finish(ts, StatusCancelled, Fail("cancelled"), start)
			return
		case <-time.After(delay):
		}
	}
}

func (s *Scheduler) finish(ts *taskState, status Status, res Result, start time.Time) {
	res.Duration = time.Since(start)

	ts.mu.Lock()
	ts.status = status
	ts.result = res
	ts.completedAt = time.Now()
	ts.mu.Unlock()

	s.mu.Lock()
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	for _, obs := range observers {
		obs(ts.id, ts.task.Name(), status, res)
	}
}
