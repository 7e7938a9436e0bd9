package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/suribanpo/excelprocess/internal/model"
)

// Options 导出选项（来自 [excel] 配置段）
type Options struct {
	SheetName   string  // 宽表工作表名，默认 특기사항
	ColumnWidth float64 // 内容列宽，默认 50
	ClassSheets bool    // 是否额外输出按班拆分的工作簿
	ByteLimit   int     // 合本字节上限，0 取默认，负数不检查
}

// DefaultSheetName 宽表工作表名
const DefaultSheetName = "특기사항"

// Bundle 一次运行需要导出的全部数据
type Bundle struct {
	Sources []SheetData
	Long    *model.LongTable
	Pivots  []*model.PivotTable
}

// Output 已写出的文件
type Output struct {
	Kind     Kind   `json:"kind"`
	Category string `json:"category,omitempty"`
	FileName string `json:"fileName"`
	Path     string `json:"-"`
}

// Exporter 将运行结果写成 xlsx 文件
type Exporter struct {
	opts Options
}

// NewExporter 创建导出器
func NewExporter(opts Options) *Exporter {
	if opts.SheetName == "" {
		opts.SheetName = DefaultSheetName
	}
	if opts.ColumnWidth <= 0 {
		opts.ColumnWidth = DefaultColumnWidth
	}
	if opts.ByteLimit == 0 {
		opts.ByteLimit = DefaultByteLimit
	}
	return &Exporter{opts: opts}
}

// ByteStats 按配置的上限统计各宽表的合本字节数
func (e *Exporter) ByteStats(pivots []*model.PivotTable) []ByteStat {
	return SummarizeBytes(pivots, e.opts.ByteLimit)
}

// Merged 所有来源各一个工作表
func (e *Exporter) Merged(sources []SheetData) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := WriteMergedWorkbook(f, sources); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

// Long 长表工作簿
func (e *Exporter) Long(long *model.LongTable) (*excelize.File, error) {
	f, err := newWorkbook(defaultSheet)
	if err != nil {
		return nil, err
	}
	if err := WriteLongTable(f, defaultSheet, long); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

// Pivot 单个领域的宽表工作簿
func (e *Exporter) Pivot(p *model.PivotTable, withFormulas bool) (*excelize.File, error) {
	f, err := newWorkbook(e.opts.SheetName)
	if err != nil {
		return nil, err
	}
	if withFormulas {
		err = WritePivotWithFormulas(f, e.opts.SheetName, p, e.opts.ColumnWidth)
	} else {
		err = WritePivot(f, e.opts.SheetName, p)
	}
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

// Classes 按班拆分的宽表工作簿
func (e *Exporter) Classes(p *model.PivotTable) (*excelize.File, error) {
	f := excelize.NewFile()
	if _, err := WriteClassSheets(f, p); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

// ExportAll 将 Bundle 写入 dir，返回写出的文件列表
func (e *Exporter) ExportAll(b Bundle, dir string, now time.Time, progress func(ProgressEvent)) ([]Output, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	type job struct {
		kind     Kind
		category string
		build    func() (*excelize.File, error)
	}
	jobs := []job{
		{KindMerged, "", func() (*excelize.File, error) { return e.Merged(b.Sources) }},
		{KindLong, "", func() (*excelize.File, error) { return e.Long(b.Long) }},
	}
	for _, p := range b.Pivots {
		p := p
		jobs = append(jobs,
			job{KindPivot, p.Category, func() (*excelize.File, error) { return e.Pivot(p, false) }},
			job{KindFormula, p.Category, func() (*excelize.File, error) { return e.Pivot(p, true) }},
		)
		if e.opts.ClassSheets {
			jobs = append(jobs, job{KindClass, p.Category, func() (*excelize.File, error) { return e.Classes(p) }})
		}
	}

	outputs := make([]Output, 0, len(jobs))
	for i, j := range jobs {
		name := OutputFileName(j.category, j.kind, now)
		f, err := j.build()
		if err != nil {
			return outputs, fmt.Errorf("build %s: %w", name, err)
		}
		path := filepath.Join(dir, name)
		err = f.SaveAs(path)
		_ = f.Close()
		if err != nil {
			return outputs, fmt.Errorf("save %s: %w", name, err)
		}
		outputs = append(outputs, Output{Kind: j.kind, Category: j.category, FileName: name, Path: path})
		reportProgress(progress, i+1, len(jobs), string(j.kind), name)
	}
	return outputs, nil
}
