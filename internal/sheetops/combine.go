package sheetops

import (
	"path/filepath"
	"strings"
)

// 合并结果的前两列
const (
	ColFileName  = "FileName"
	ColSheetName = "SheetName"
)

// CombineSheets 所有工作表上下拼接为一个网格
// 每个工作表前插入一行 [文件名, 工作表名]，数据右移两列；全空行删除
func CombineSheets(sheets []Sheet) [][]string {
	out := [][]string{{ColFileName, ColSheetName}}
	for _, s := range sheets {
		stem := strings.TrimSuffix(s.File, filepath.Ext(s.File))
		out = append(out, []string{stem, s.Name})
		for _, r := range s.Rows {
			if countFilled(r) == 0 {
				continue
			}
			row := make([]string, 2, len(r)+2)
			out = append(out, append(row, r...))
		}
	}
	return out
}
