package exporter

import (
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/suribanpo/excelprocess/internal/model"
)

// ByteLength 与 바이트 列公式一致的字节数：LENB*2 - LEN
// LENB 中宽字符（韩文等）计 2，其余计 1；因此韩文 3、ASCII 1
func ByteLength(s string) int {
	lenb := 0
	for _, r := range s {
		if runewidth.RuneWidth(r) == 2 {
			lenb += 2
		} else {
			lenb++
		}
	}
	return lenb*2 - utf8.RuneCountInString(s)
}

// DefaultByteLimit 특기사항 合本的默认字节上限（500 个韩文字符）
const DefaultByteLimit = 1500

// ByteOverflow 超出上限的一行
type ByteOverflow struct {
	Identity model.Identity `json:"identity"`
	Bytes    int            `json:"bytes"`
}

// ByteStat 单个领域宽表的字节统计，与 바이트 列取值一致
type ByteStat struct {
	Category  string         `json:"category"`
	Limit     int            `json:"limit"`
	MaxBytes  int            `json:"maxBytes"`
	OverLimit []ByteOverflow `json:"overLimit"`
}

// CombinedBytes 一行合本（CONCATENATE 各细分领域，无分隔符）的字节数
func CombinedBytes(cells []string) int {
	return ByteLength(strings.Join(cells, ""))
}

// SummarizeBytes 统计每个宽表的最大字节数及超限行；limit <= 0 时不判定超限
func SummarizeBytes(pivots []*model.PivotTable, limit int) []ByteStat {
	stats := make([]ByteStat, 0, len(pivots))
	for _, p := range pivots {
		stat := ByteStat{Category: p.Category, Limit: limit, OverLimit: []ByteOverflow{}}
		for _, row := range p.Rows {
			n := CombinedBytes(row.Cells)
			if n > stat.MaxBytes {
				stat.MaxBytes = n
			}
			if limit > 0 && n > limit {
				stat.OverLimit = append(stat.OverLimit, ByteOverflow{Identity: row.Identity, Bytes: n})
			}
		}
		stats = append(stats, stat)
	}
	return stats
}
