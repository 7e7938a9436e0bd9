package exporter

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// MaxSheetNameLen Excel 工作表名的最大字符数
const MaxSheetNameLen = 31

const defaultSheet = "Sheet1"

var invalidSheetChars = strings.NewReplacer(
	":", "", "\\", "", "/", "", "?", "", "*", "", "[", "", "]", "",
)

// SheetName 生成合法的工作表名：去掉非法字符，截断到 31 个字符，与 used 中已有名称去重
func SheetName(name string, used map[string]bool) string {
	name = strings.Trim(invalidSheetChars.Replace(name), "'")
	if name == "" {
		name = "Sheet"
	}
	base := truncateRunes(name, MaxSheetNameLen)
	candidate := base
	for i := 2; used[strings.ToLower(candidate)]; i++ {
		suffix := fmt.Sprintf("~%d", i)
		candidate = truncateRunes(base, MaxSheetNameLen-utf8.RuneCountInString(suffix)) + suffix
	}
	if used != nil {
		used[strings.ToLower(candidate)] = true
	}
	return candidate
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// newWorkbook 新建工作簿，并将默认 Sheet1 改名为 first
func newWorkbook(first string) (*excelize.File, error) {
	f := excelize.NewFile()
	if first != defaultSheet {
		if err := f.SetSheetName(defaultSheet, first); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("rename sheet: %w", err)
		}
	}
	return f, nil
}

// dropDefaultSheet 删除未被写入的默认 Sheet1
func dropDefaultSheet(f *excelize.File, written []string) error {
	if len(written) == 0 {
		return nil
	}
	for _, name := range written {
		if name == defaultSheet {
			return nil
		}
	}
	idx, err := f.GetSheetIndex(defaultSheet)
	if err != nil || idx < 0 {
		return err
	}
	if err := f.DeleteSheet(defaultSheet); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(0)
	return nil
}

// ensureSheet 确保工作表存在
func ensureSheet(f *excelize.File, sheet string) error {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return err
	}
	if idx >= 0 {
		return nil
	}
	_, err = f.NewSheet(sheet)
	return err
}

// writeRows 从 A1 开始逐行写入
func writeRows(f *excelize.File, sheet string, header []string, rows [][]any) error {
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return nil
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
