package sheetops

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/suribanpo/excelprocess/internal/parser"
)

// Sheet 一个工作表的文本网格
type Sheet struct {
	File string     `json:"file"`
	Name string     `json:"name"`
	Rows [][]string `json:"rows"`
}

// ReadSheets 读取工作簿全部工作表；合并单元格先拆开，值只保留在左上角
func ReadSheets(r io.Reader, fileName string) ([]Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("打开工作簿失败: %w", err)
	}
	defer f.Close()

	file := parser.NormalizeText(filepath.Base(fileName))
	var out []Sheet
	for _, name := range f.GetSheetList() {
		merged, err := f.GetMergeCells(name)
		if err != nil {
			return nil, fmt.Errorf("读取合并单元格失败 %s: %w", name, err)
		}
		for _, mc := range merged {
			if err := f.UnmergeCell(name, mc.GetStartAxis(), mc.GetEndAxis()); err != nil {
				return nil, fmt.Errorf("拆分合并单元格失败 %s: %w", name, err)
			}
		}
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("读取 Sheet %s 失败: %w", name, err)
		}
		out = append(out, Sheet{File: file, Name: name, Rows: rows})
	}
	return out, nil
}

// WriteSheets 每个 Sheet 写成一个工作表
func WriteSheets(sheets []Sheet) (*excelize.File, error) {
	f := excelize.NewFile()
	used := map[string]bool{}
	for i, s := range sheets {
		name := uniqueSheetName(s.Name, used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				_ = f.Close()
				return nil, err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := writeGrid(f, name, s.Rows); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return f, nil
}

func writeGrid(f *excelize.File, sheet string, rows [][]string) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	return nil
}

func uniqueSheetName(name string, used map[string]bool) string {
	if name == "" {
		name = "Sheet"
	}
	r := []rune(name)
	if len(r) > 31 {
		name = string(r[:31])
	}
	candidate := name
	for i := 2; used[strings.ToLower(candidate)]; i++ {
		suffix := fmt.Sprintf("_%d", i)
		base := []rune(name)
		if len(base)+len(suffix) > 31 {
			base = base[:31-len(suffix)]
		}
		candidate = string(base) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
