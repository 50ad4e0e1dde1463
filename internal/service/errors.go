package service

import "errors"

// 错误类别
var (
	// ErrValidation 校验失败：对单个商品致命，记入拒绝日志后继续下一个
	ErrValidation = errors.New("validation error")

	// ErrAmbiguousMatch 多个可比分数的候选：必须升级到 AI 或人工，绝不静默选择
	ErrAmbiguousMatch = errors.New("ambiguous match")

	// ErrAssistUnavailable AI 后端不可用或拒绝建议：级联继续向下，绝不中断运行
	ErrAssistUnavailable = errors.New("ai assist unavailable")
)
