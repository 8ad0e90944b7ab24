package domain

import "errors"

// 市场引擎错误分类。校验类错误同步返回给调用方，不重试；
// 任务类错误由调度器按退避策略重试。
var (
	ErrValidation           = errors.New("order validation failed")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	ErrAccessDenied         = errors.New("market access denied")
	ErrNotFound             = errors.New("not found")
	ErrTaskExecution        = errors.New("task execution failed")
)
