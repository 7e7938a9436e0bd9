package sheetops

import "fmt"

// CleanupOptions 清理选项
type CleanupOptions struct {
	DropEmptyRows          bool `json:"dropEmptyRows" form:"dropEmptyRows"`
	DropEmptyColumns       bool `json:"dropEmptyColumns" form:"dropEmptyColumns"`
	DropSingleValueRows    bool `json:"dropSingleValueRows" form:"dropSingleValueRows"`
	DropSingleValueColumns bool `json:"dropSingleValueColumns" form:"dropSingleValueColumns"`
}

// SanitizeColumns 空列名改为 Unnamed，重复列名依次加 _1、_2
func SanitizeColumns(columns []string) []string {
	out := make([]string, len(columns))
	seen := make(map[string]int, len(columns))
	for i, col := range columns {
		if isBlank(col) {
			col = "Unnamed"
		}
		if n, ok := seen[col]; ok {
			seen[col] = n + 1
			col = fmt.Sprintf("%s_%d", col, n+1)
		} else {
			seen[col] = 0
		}
		out[i] = col
	}
	return out
}

// Cleanup 第一行作为表头（经 SanitizeColumns），其余行按选项清理
// 列的判断只看数据行，表头不计入
func Cleanup(rows [][]string, opts CleanupOptions) [][]string {
	if len(rows) == 0 {
		return nil
	}
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	header := SanitizeColumns(pad(rows[0], width))
	data := make([][]string, 0, len(rows)-1)
	for _, r := range rows[1:] {
		data = append(data, pad(r, width))
	}

	if opts.DropEmptyRows {
		data = DropEmptyRows(data)
	}
	keep := allColumns(width)
	if opts.DropEmptyColumns {
		keep = filterColumns(data, keep, 1)
	}
	if opts.DropSingleValueRows {
		data = DropSingleValueRows(data)
	}
	if opts.DropSingleValueColumns {
		keep = filterColumns(data, keep, 2)
	}

	out := make([][]string, 0, len(data)+1)
	out = append(out, project(header, keep))
	for _, r := range data {
		out = append(out, project(r, keep))
	}
	return out
}

// DropEmptyRows 删除全空行
func DropEmptyRows(rows [][]string) [][]string {
	return filterRows(rows, 1)
}

// DropSingleValueRows 删除非空值不超过一个的行
func DropSingleValueRows(rows [][]string) [][]string {
	return filterRows(rows, 2)
}

// DropEmptyColumns 删除全空列
func DropEmptyColumns(rows [][]string) [][]string {
	return projectAll(rows, filterColumns(rows, allColumns(maxWidth(rows)), 1))
}

// DropSingleValueColumns 删除非空值不超过一个的列
func DropSingleValueColumns(rows [][]string) [][]string {
	return projectAll(rows, filterColumns(rows, allColumns(maxWidth(rows)), 2))
}

// filterRows 保留非空值个数 >= min 的行
func filterRows(rows [][]string, min int) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		if countFilled(r) >= min {
			out = append(out, r)
		}
	}
	return out
}

// filterColumns 在 keep 中保留非空值个数 >= min 的列
func filterColumns(rows [][]string, keep []int, min int) []int {
	out := make([]int, 0, len(keep))
	for _, col := range keep {
		n := 0
		for _, r := range rows {
			if col < len(r) && !isBlank(r[col]) {
				n++
			}
		}
		if n >= min {
			out = append(out, col)
		}
	}
	return out
}

func countFilled(row []string) int {
	n := 0
	for _, c := range row {
		if !isBlank(c) {
			n++
		}
	}
	return n
}

func pad(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}

func allColumns(width int) []int {
	out := make([]int, width)
	for i := range out {
		out[i] = i
	}
	return out
}

func maxWidth(rows [][]string) int {
	w := 0
	for _, r := range rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

func project(row []string, cols []int) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		if c < len(row) {
			out[i] = row[c]
		}
	}
	return out
}

func projectAll(rows [][]string, cols []int) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = project(r, cols)
	}
	return out
}
