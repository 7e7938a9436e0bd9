package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/suribanpo/excelprocess/internal/exporter"
	"github.com/suribanpo/excelprocess/internal/model"
	"github.com/suribanpo/excelprocess/internal/pipeline"
	"github.com/suribanpo/excelprocess/internal/store"
)

// 运行状态
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// Coordinator 运行协调器：读取上传文件 → 执行流水线 → 记录结果 → 导出
type Coordinator struct {
	store     *store.Store // 可为 nil（不落库）
	exporter  *exporter.Exporter
	logger    *zap.Logger
	options   pipeline.Options
	labelSkip int
	outputDir string
}

// Settings 协调器设置
type Settings struct {
	Pipeline  pipeline.Options
	LabelSkip int
	OutputDir string // 导出根目录，每次运行一个子目录
}

// NewCoordinator 创建运行协调器
func NewCoordinator(st *store.Store, exp *exporter.Exporter, logger *zap.Logger, settings Settings) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if exp == nil {
		exp = exporter.NewExporter(exporter.Options{})
	}
	return &Coordinator{
		store:     st,
		exporter:  exp,
		logger:    logger,
		options:   settings.Pipeline,
		labelSkip: settings.LabelSkip,
		outputDir: settings.OutputDir,
	}
}

// Upload 上传的文件
type Upload struct {
	Name string
	Data []byte
}

// RunOptions 运行选项
type RunOptions struct {
	Files           []Upload
	Roster          *model.Roster // 本次上传的名册，优先
	UseStoredRoster bool          // Roster 为空时使用已保存的名册
	OutputDir       string        // 覆盖默认导出目录
	SkipExport      bool
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"`    // start/source_start/source_done/warning/progress/error/done
	Message   string      `json:"message"` // 事件消息
	Data      interface{} `json:"data"`    // 附加数据
	Timestamp time.Time   `json:"timestamp"`
}

// RunReport 运行报告（done 事件的 Data）
type RunReport struct {
	RunID      string                   `json:"runId"`
	Status     string                   `json:"status"`
	Files      int                      `json:"files"`
	Sources    []pipeline.SourceStat    `json:"sources"`
	Failures   []pipeline.SourceFailure `json:"failures"`
	Records    int                      `json:"records"`
	Categories []string                 `json:"categories"`
	Reconciled bool                     `json:"reconciled"`
	Bytes      []exporter.ByteStat      `json:"bytes"`
	Outputs    []exporter.Output        `json:"outputs"`
	Duration   time.Duration            `json:"duration"`

	Result *pipeline.Result `json:"-"`
}

// Run 执行一次运行，返回进度通道；通道在运行结束后关闭
func (c *Coordinator) Run(ctx context.Context, opts RunOptions) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 100)

	go func() {
		defer close(progressChan)
		c.doRun(ctx, opts, progressChan)
	}()

	return progressChan
}

// RunSync 同步执行，返回最终报告（批处理模式使用）
func (c *Coordinator) RunSync(ctx context.Context, opts RunOptions, onEvent func(ProgressEvent)) (*RunReport, error) {
	var (
		report *RunReport
		runErr error
	)
	for evt := range c.Run(ctx, opts) {
		if onEvent != nil {
			onEvent(evt)
		}
		switch evt.Type {
		case "done":
			report, _ = evt.Data.(*RunReport)
		case "error":
			runErr = errors.New(evt.Message)
		}
	}
	if runErr != nil {
		return report, runErr
	}
	if report == nil {
		return nil, errors.New("运行未完成")
	}
	return report, nil
}

func (c *Coordinator) doRun(ctx context.Context, opts RunOptions, ch chan<- ProgressEvent) {
	start := time.Now()

	roster, err := c.resolveRoster(opts)
	if err != nil {
		c.send(ctx, ch, "error", fmt.Sprintf("读取名册失败: %v", err), nil)
		return
	}

	run := pipeline.NewContext(c.options, roster, c.logger)
	logger := c.logger.With(zap.String("run_id", run.ID))

	rosterSource := ""
	if roster != nil {
		rosterSource = roster.Source
	}
	c.send(ctx, ch, "start", "开始处理", map[string]any{
		"runId":  run.ID,
		"files":  len(opts.Files),
		"roster": rosterSource,
	})

	sources, loadFailures := c.loadSources(ctx, opts.Files, ch)

	if c.store != nil {
		if err := c.store.CreateRunLog(run.ID, len(sources)+len(loadFailures), rosterSource); err != nil {
			logger.Warn("create run log failed", zap.Error(err))
		}
	}

	run.OnSource = func(stat pipeline.SourceStat) {
		if stat.Status == "error" {
			c.send(ctx, ch, "warning", fmt.Sprintf("来源 %s 已跳过: %s", stat.Source, stat.Error), stat)
			return
		}
		c.send(ctx, ch, "source_done", fmt.Sprintf("来源 %s: %d 条记录", stat.Source, stat.Records), stat)
	}

	result, err := run.Execute(ctx, sources)
	if err != nil {
		c.finishRunLog(logger, store.RunLog{ID: run.ID, Status: StatusFailed, ErrorMessage: err.Error()})
		c.send(ctx, ch, "error", fmt.Sprintf("处理失败: %v", err), nil)
		return
	}
	result.Failures = append(loadFailures, result.Failures...)

	report := &RunReport{
		RunID:      run.ID,
		Files:      len(opts.Files),
		Sources:    result.Sources,
		Failures:   result.Failures,
		Records:    result.Long.Len(),
		Categories: result.Long.Categories(),
		Reconciled: result.Reconciled,
		Bytes:      c.exporter.ByteStats(result.Final),
		Outputs:    []exporter.Output{},
		Result:     result,
	}
	for _, stat := range report.Bytes {
		if len(stat.OverLimit) > 0 {
			c.send(ctx, ch, "warning", fmt.Sprintf("%s: %d 名学生的特记事项超过 %d 字节", stat.Category, len(stat.OverLimit), stat.Limit), stat)
		}
	}
	report.Status = runStatus(len(sources)+len(loadFailures), len(result.Failures))

	c.recordSources(logger, run.ID, result, loadFailures)

	if !opts.SkipExport {
		outputs, err := c.export(ctx, run.ID, opts, result, ch)
		report.Outputs = outputs
		if err != nil {
			c.finishRunLog(logger, store.RunLog{ID: run.ID, Status: StatusFailed, ErrorMessage: err.Error()})
			c.send(ctx, ch, "error", fmt.Sprintf("导出失败: %v", err), nil)
			return
		}
	}

	c.finishRunLog(logger, store.RunLog{
		ID:              run.ID,
		ImportedSources: len(result.Sources) - countFailed(result.Sources),
		FailedSources:   len(result.Failures),
		TotalRecords:    result.Long.Len(),
		Categories:      len(result.Final),
		Reconciled:      result.Reconciled,
		Status:          report.Status,
	})
	if c.store != nil {
		if err := c.store.SetLastRunID(run.ID); err != nil {
			logger.Warn("set last run id failed", zap.Error(err))
		}
	}

	report.Duration = time.Since(start)
	c.send(ctx, ch, "done", "处理完成", report)
}

// resolveRoster 本次上传的名册优先，其次为已保存的名册
func (c *Coordinator) resolveRoster(opts RunOptions) (*model.Roster, error) {
	if opts.Roster != nil {
		return opts.Roster, nil
	}
	if !opts.UseStoredRoster || c.store == nil {
		return nil, nil
	}
	return c.store.LoadRoster()
}

// loadWorkers 并发读取工作簿的上限
const loadWorkers = 4

// loadSources 并发读取所有上传文件，结果保持上传顺序；无法打开的文件记为 load 阶段失败
func (c *Coordinator) loadSources(ctx context.Context, files []Upload, ch chan<- ProgressEvent) ([]model.SourceTable, []pipeline.SourceFailure) {
	type loaded struct {
		tables []model.SourceTable
		err    error
	}
	slots := make([]loaded, len(files))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(loadWorkers)
	for i, file := range files {
		i, file := i, file
		eg.Go(func() error {
			c.send(egCtx, ch, "source_start", fmt.Sprintf("正在读取: %s", file.Name), map[string]string{
				"file": file.Name,
			})
			tables, err := ReadWorkbook(bytes.NewReader(file.Data), file.Name, c.labelSkip)
			slots[i] = loaded{tables: tables, err: err}
			return nil
		})
	}
	_ = eg.Wait()

	var (
		sources  []model.SourceTable
		failures []pipeline.SourceFailure
	)
	for i, slot := range slots {
		name := files[i].Name
		if slot.err != nil {
			se := &pipeline.StageError{Stage: pipeline.StageLoad, Source: name, Err: slot.err}
			failures = append(failures, pipeline.SourceFailure{
				Source: name,
				Stage:  pipeline.StageLoad,
				Error:  se.Error(),
				Err:    se,
			})
			c.send(ctx, ch, "warning", fmt.Sprintf("文件 %s 已跳过: %v", name, slot.err), nil)
			continue
		}
		sources = append(sources, slot.tables...)
	}
	return sources, failures
}

// recordSources 记录每个来源的处理结果
func (c *Coordinator) recordSources(logger *zap.Logger, runID string, result *pipeline.Result, loadFailures []pipeline.SourceFailure) {
	if c.store == nil {
		return
	}
	for _, f := range loadFailures {
		err := c.store.InsertSourceResult(store.SourceResult{
			RunID:        runID,
			Source:       f.Source,
			HeaderRow:    -1,
			Status:       "error",
			Stage:        string(f.Stage),
			ErrorMessage: f.Error,
		})
		if err != nil {
			logger.Warn("record source failed", zap.String("source", f.Source), zap.Error(err))
		}
	}

	stages := make(map[string]pipeline.Stage, len(result.Failures))
	for _, f := range result.Failures {
		stages[f.Source] = f.Stage
	}
	for _, stat := range result.Sources {
		r := store.SourceResult{
			RunID:        runID,
			Source:       stat.Source,
			Label:        stat.Label,
			IdentityMode: stat.Mode,
			HeaderRow:    stat.HeaderRow,
			Records:      stat.Records,
			Status:       stat.Status,
			Stage:        string(stages[stat.Source]),
			ErrorMessage: stat.Error,
			DurationMS:   stat.Duration.Milliseconds(),
		}
		if stat.Resolved != nil {
			r.Columns = stat.Resolved.Labels
		}
		if err := c.store.InsertSourceResult(r); err != nil {
			logger.Warn("record source failed", zap.String("source", stat.Source), zap.Error(err))
		}
	}
}

func (c *Coordinator) export(ctx context.Context, runID string, opts RunOptions, result *pipeline.Result, ch chan<- ProgressEvent) ([]exporter.Output, error) {
	dir := opts.OutputDir
	if dir == "" {
		dir = filepath.Join(c.outputDir, runID)
	}
	bundle := exporter.Bundle{
		Sources: SheetDataFromStats(result.Sources),
		Long:    result.Long,
		Pivots:  result.Final,
	}
	return c.exporter.ExportAll(bundle, dir, time.Now(), func(p exporter.ProgressEvent) {
		c.send(ctx, ch, "progress", p.File, p)
	})
}

func (c *Coordinator) finishRunLog(logger *zap.Logger, log store.RunLog) {
	if c.store == nil {
		return
	}
	if err := c.store.FinishRunLog(log); err != nil {
		logger.Warn("finish run log failed", zap.Error(err))
	}
}

// send 发送进度事件；消费者已离开（ctx 取消）时丢弃
func (c *Coordinator) send(ctx context.Context, ch chan<- ProgressEvent, typ, message string, data interface{}) {
	select {
	case ch <- ProgressEvent{Type: typ, Message: message, Data: data, Timestamp: time.Now()}:
	case <-ctx.Done():
	}
}

// SheetDataFromStats 将解析成功的来源转换为导出用的工作表数据
func SheetDataFromStats(stats []pipeline.SourceStat) []exporter.SheetData {
	out := make([]exporter.SheetData, 0, len(stats))
	for _, stat := range stats {
		if stat.Resolved == nil {
			continue
		}
		rows := make([][]string, 0, len(stat.Resolved.Rows))
		for _, r := range stat.Resolved.Rows {
			rows = append(rows, r.Cells)
		}
		name := stat.Label
		if name == "" {
			name = stat.Source
		}
		out = append(out, exporter.SheetData{Name: name, Header: stat.Resolved.Labels, Rows: rows})
	}
	return out
}

func runStatus(total, failed int) string {
	switch {
	case failed == 0:
		return StatusSuccess
	case failed >= total:
		return StatusFailed
	default:
		return StatusPartial
	}
}

func countFailed(stats []pipeline.SourceStat) int {
	n := 0
	for _, s := range stats {
		if s.Status == "error" {
			n++
		}
	}
	return n
}
