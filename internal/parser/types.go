package parser

import (
	"fmt"
	"strings"

	"github.com/suribanpo/excelprocess/internal/model"
)

// IdentityMode 身份编码方式（每张表判定一次）
type IdentityMode int

const (
	IdentityUnknown  IdentityMode = iota
	IdentityCompound              // 单列学号：1 位学年 + 2 位班 + 号
	IdentityDiscrete              // 学年/班/号 三列
)

func (m IdentityMode) String() string {
	switch m {
	case IdentityCompound:
		return "compound"
	case IdentityDiscrete:
		return "discrete"
	default:
		return "unknown"
	}
}

// Precedence 同时存在两种编码时的优先规则
type Precedence string

const (
	PreferDiscrete Precedence = "discrete"
	PreferCompound Precedence = "compound"
)

// ParsePrecedence 解析配置值，空值取默认（discrete）
func ParsePrecedence(s string) (Precedence, error) {
	switch Precedence(strings.ToLower(strings.TrimSpace(s))) {
	case "", PreferDiscrete:
		return PreferDiscrete, nil
	case PreferCompound:
		return PreferCompound, nil
	default:
		return "", fmt.Errorf("unknown identity precedence %q", s)
	}
}

// IdentityColumns 身份列在表头中的位置，-1 表示不存在
type IdentityColumns struct {
	Code   int `json:"code"`
	Grade  int `json:"grade"`
	Class  int `json:"class"`
	Number int `json:"number"`
	Name   int `json:"name"`
}

// Indexes 返回所有存在的身份列下标
func (c IdentityColumns) Indexes() []int {
	out := []int{}
	for _, idx := range []int{c.Code, c.Grade, c.Class, c.Number, c.Name} {
		if idx >= 0 {
			out = append(out, idx)
		}
	}
	return out
}

// ResolvedRow 已解析身份的数据行
type ResolvedRow struct {
	RowNo    int            `json:"rowNo"` // Excel 行号（从 1 开始）
	Identity model.Identity `json:"identity"`
	Cells    []string       `json:"cells"`
}

// ResolvedTable 身份解析结果
type ResolvedTable struct {
	HeaderRow int             `json:"headerRow"` // 表头所在行（从 0 开始）
	Labels    []string        `json:"labels"`
	Mode      IdentityMode    `json:"mode"`
	Columns   IdentityColumns `json:"columns"`
	Rows      []ResolvedRow   `json:"rows"`
}

// Cell 越界安全地读取单元格（excelize 会截掉行尾空单元格）
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
