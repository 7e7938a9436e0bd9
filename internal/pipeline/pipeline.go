package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suribanpo/excelprocess/internal/model"
	"github.com/suribanpo/excelprocess/internal/parser"
	"github.com/suribanpo/excelprocess/internal/pivot"
)

// Options 单次运行的选项
type Options struct {
	Precedence     parser.Precedence
	StrictRoster   bool
	MergeSeparator string
}

// SourceStat 单个来源的处理统计
type SourceStat struct {
	Source    string                `json:"source"`
	Label     string                `json:"label"`
	Mode      string                `json:"mode,omitempty"`
	HeaderRow int                   `json:"headerRow"`
	Records   int                   `json:"records"`
	Status    string                `json:"status"` // imported/error
	Error     string                `json:"error,omitempty"`
	Duration  time.Duration         `json:"duration"`
	Resolved  *parser.ResolvedTable `json:"-"`
}

// Result 一次运行的完整输出
type Result struct {
	RunID      string              `json:"runId"`
	Long       *model.LongTable    `json:"-"`
	Pivots     []*model.PivotTable `json:"-"` // 对齐前
	Final      []*model.PivotTable `json:"-"` // 与名册对齐后（无名册时同 Pivots）
	Sources    []SourceStat        `json:"sources"`
	Failures   []SourceFailure     `json:"failures"`
	Reconciled bool                `json:"reconciled"`
	Duration   time.Duration       `json:"duration"`
}

// Context 单次运行的上下文：持有本次运行的全部中间结果，不跨运行共享
type Context struct {
	ID      string
	Options Options
	Roster  *model.Roster

	resolver   *parser.IdentityResolver
	normalizer *parser.RecordNormalizer
	builder    *pivot.Builder
	logger     *zap.Logger

	// OnSource 每个来源处理完成后回调（可选）
	OnSource func(SourceStat)
}

// NewContext 创建运行上下文；roster 可为 nil
func NewContext(opts Options, roster *model.Roster, logger *zap.Logger) *Context {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.New().String()
	return &Context{
		ID:         id,
		Options:    opts,
		Roster:     roster,
		resolver:   parser.NewIdentityResolver(opts.Precedence),
		normalizer: parser.NewRecordNormalizer(),
		builder:    pivot.NewBuilder(opts.MergeSeparator),
		logger:     logger.With(zap.String("run_id", id)),
	}
}

// Execute 依次执行 解析 → 规范化 → 汇总 → 透视 → 名册对齐
// 单个来源的解析/规范化错误只记录不中断；后续阶段的错误终止整次运行
func (c *Context) Execute(ctx context.Context, sources []model.SourceTable) (*Result, error) {
	start := time.Now()
	result := &Result{
		RunID:    c.ID,
		Sources:  make([]SourceStat, 0, len(sources)),
		Failures: []SourceFailure{},
	}

	c.logger.Info("run started", zap.Int("sources", len(sources)), zap.Bool("roster", c.Roster != nil))

	batches := make([][]model.Record, 0, len(sources))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, &StageError{Stage: StageCancelled, Source: src.Name(), Err: err}
		}
		records, stat, failure := c.processSource(src)
		result.Sources = append(result.Sources, stat)
		if failure != nil {
			result.Failures = append(result.Failures, *failure)
		} else {
			batches = append(batches, records)
		}
		if c.OnSource != nil {
			c.OnSource(stat)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, &StageError{Stage: StageCancelled, Err: err}
	}
	result.Long = pivot.Aggregate(batches...)
	c.logger.Debug("aggregated", zap.Int("records", result.Long.Len()))

	if err := ctx.Err(); err != nil {
		return nil, &StageError{Stage: StageCancelled, Err: err}
	}
	result.Pivots = c.builder.BuildAll(result.Long)

	result.Final = make([]*model.PivotTable, 0, len(result.Pivots))
	for _, p := range result.Pivots {
		reconciled, err := pivot.Reconcile(p, c.Roster, pivot.ReconcileOptions{Strict: c.Options.StrictRoster})
		if err != nil {
			src := ""
			if c.Roster != nil {
				src = c.Roster.Source
			}
			c.logger.Error("reconcile failed", zap.String("category", p.Category), zap.Error(err))
			return nil, &StageError{Stage: StageReconcile, Source: src, Err: err}
		}
		result.Final = append(result.Final, reconciled)
	}
	result.Reconciled = c.Roster != nil

	result.Duration = time.Since(start)
	c.logger.Info("run finished",
		zap.Int("records", result.Long.Len()),
		zap.Int("categories", len(result.Final)),
		zap.Int("failures", len(result.Failures)),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// processSource 解析并规范化单个来源
func (c *Context) processSource(src model.SourceTable) ([]model.Record, SourceStat, *SourceFailure) {
	start := time.Now()
	stat := SourceStat{Source: src.Name(), Label: src.Label, HeaderRow: -1}

	fail := func(stage Stage, err error) ([]model.Record, SourceStat, *SourceFailure) {
		se := &StageError{Stage: stage, Source: stat.Source, Err: err}
		stat.Status = "error"
		stat.Error = se.Error()
		stat.Duration = time.Since(start)
		c.logger.Warn("source skipped", zap.String("source", stat.Source), zap.String("stage", string(stage)), zap.Error(err))
		return nil, stat, &SourceFailure{Source: stat.Source, Stage: stage, Error: se.Error(), Err: se}
	}

	resolved, err := c.resolver.Resolve(src.Table)
	if err != nil {
		return fail(StageResolve, err)
	}
	stat.Mode = resolved.Mode.String()
	stat.HeaderRow = resolved.HeaderRow
	stat.Resolved = resolved

	records, err := c.normalizer.Normalize(resolved, src.Label)
	if err != nil {
		return fail(StageNormalize, err)
	}

	stat.Status = "imported"
	stat.Records = len(records)
	stat.Duration = time.Since(start)
	c.logger.Debug("source normalized", zap.String("source", stat.Source), zap.String("mode", stat.Mode), zap.Int("records", len(records)))
	return records, stat, nil
}
