package pipeline

import (
	"fmt"
)

// Stage 流水线阶段
type Stage string

const (
	StageLoad      Stage = "load"
	StageResolve   Stage = "resolve"
	StageNormalize Stage = "normalize"
	StageAggregate Stage = "aggregate"
	StagePivot     Stage = "pivot"
	StageReconcile Stage = "reconcile"

	// StageCancelled 运行在阶段之间被取消；Source 为尚未处理的来源（如有）
	StageCancelled Stage = "cancelled"
)

// StageError 带阶段与来源信息的错误
type StageError struct {
	Stage  Stage
	Source string
	Err    error
}

func (e *StageError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Stage, e.Source, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// SourceFailure 单个来源失败（不中断整次运行）
type SourceFailure struct {
	Source string `json:"source"`
	Stage  Stage  `json:"stage"`
	Error  string `json:"error"`
	Err    error  `json:"-"`
}
