package exporter

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/suribanpo/excelprocess/internal/model"
)

// SheetData 单个来源的解析结果（表头行之后的数据）
type SheetData struct {
	Name   string
	Header []string
	Rows   [][]string
}

// LongTableHeader 长表列顺序
var LongTableHeader = []string{
	model.ColGrade, model.ColClass, model.ColNumber, model.ColName,
	model.ColCategory, model.ColSubcategory, model.ColContent,
}

// WriteMergedWorkbook 每个来源一个工作表；f 为新建工作簿时默认的 Sheet1 会被移除
func WriteMergedWorkbook(f *excelize.File, sheets []SheetData) error {
	used := make(map[string]bool, len(sheets))
	created := make([]string, 0, len(sheets))
	for _, sd := range sheets {
		name := SheetName(sd.Name, used)
		if err := ensureSheet(f, name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
		rows := make([][]any, len(sd.Rows))
		for i, r := range sd.Rows {
			rows[i] = stringsToAny(r)
		}
		if err := writeRows(f, name, sd.Header, rows); err != nil {
			return fmt.Errorf("sheet %s: %w", name, err)
		}
		created = append(created, name)
	}
	return dropDefaultSheet(f, created)
}

// WriteLongTable 写入长表
func WriteLongTable(f *excelize.File, sheet string, long *model.LongTable) error {
	if err := ensureSheet(f, sheet); err != nil {
		return err
	}
	rows := make([][]any, 0, long.Len())
	for _, r := range long.Records {
		rows = append(rows, []any{
			r.Identity.Grade, r.Identity.Class, r.Identity.Number, r.Identity.Name,
			r.Category, r.Subcategory, r.Content,
		})
	}
	return writeRows(f, sheet, LongTableHeader, rows)
}

// WritePivot 写入宽表：身份列在前，细分领域列在后
func WritePivot(f *excelize.File, sheet string, p *model.PivotTable) error {
	return writePivotRows(f, sheet, p, p.Rows)
}

func writePivotRows(f *excelize.File, sheet string, p *model.PivotTable, pivotRows []model.PivotRow) error {
	if err := ensureSheet(f, sheet); err != nil {
		return err
	}
	rows := make([][]any, 0, len(pivotRows))
	for _, r := range pivotRows {
		row := make([]any, 0, len(model.IdentityColumns)+len(r.Cells))
		row = append(row, r.Identity.Grade, r.Identity.Class, r.Identity.Number, r.Identity.Name)
		for _, c := range r.Cells {
			row = append(row, c)
		}
		rows = append(rows, row)
	}
	return writeRows(f, sheet, p.Header(), rows)
}

// WriteClassSheets 按 학년-반 拆分为多个工作表（按学年、班排序），返回工作表名
func WriteClassSheets(f *excelize.File, p *model.PivotTable) ([]string, error) {
	groups := map[string][]model.PivotRow{}
	var order []model.Identity
	for _, r := range p.Rows {
		label := r.Identity.ClassLabel()
		if _, ok := groups[label]; !ok {
			order = append(order, model.Identity{Grade: r.Identity.Grade, Class: r.Identity.Class})
		}
		groups[label] = append(groups[label], r)
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].Less(order[j]) })

	used := make(map[string]bool, len(order))
	names := make([]string, 0, len(order))
	for _, id := range order {
		label := id.ClassLabel()
		name := SheetName(label, used)
		if err := writePivotRows(f, name, p, groups[label]); err != nil {
			return nil, fmt.Errorf("class sheet %s: %w", label, err)
		}
		names = append(names, name)
	}
	return names, dropDefaultSheet(f, names)
}
