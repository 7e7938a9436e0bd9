package pivot

import (
	"strings"

	"github.com/suribanpo/excelprocess/internal/model"
)

// DefaultSeparator 同一学生同一细分领域多条内容的合并分隔符
const DefaultSeparator = " | "

// Builder 透视表构建器
type Builder struct {
	separator string
}

// NewBuilder 创建构建器；separator 为空时使用 DefaultSeparator
func NewBuilder(separator string) *Builder {
	if separator == "" {
		separator = DefaultSeparator
	}
	return &Builder{separator: separator}
}

// MergeContents 按原始顺序以 " | " 连接
func MergeContents(parts []string) string {
	return strings.Join(parts, DefaultSeparator)
}

type groupKey struct {
	identity    string
	subcategory string
}

// Build 将某个领域的长表记录重塑为宽表
// 行：首次出现顺序的学生；列：首次出现顺序的细分领域
func (b *Builder) Build(long *model.LongTable, category string) *model.PivotTable {
	out := &model.PivotTable{
		Category:      category,
		Subcategories: []string{},
		Rows:          []model.PivotRow{},
	}

	subIndex := make(map[string]int)
	rowIndex := make(map[string]int)
	groups := make(map[groupKey][]string)
	identities := []model.Identity{}

	for _, r := range long.Records {
		if r.Category != category {
			continue
		}
		key := r.Identity.Key()
		if _, ok := rowIndex[key]; !ok {
			rowIndex[key] = len(identities)
			identities = append(identities, r.Identity)
		}
		if _, ok := subIndex[r.Subcategory]; !ok {
			subIndex[r.Subcategory] = len(out.Subcategories)
			out.Subcategories = append(out.Subcategories, r.Subcategory)
		}
		gk := groupKey{identity: key, subcategory: r.Subcategory}
		groups[gk] = append(groups[gk], r.Content)
	}

	out.Rows = make([]model.PivotRow, len(identities))
	for i, id := range identities {
		cells := make([]string, len(out.Subcategories))
		for j, sub := range out.Subcategories {
			if parts, ok := groups[groupKey{identity: id.Key(), subcategory: sub}]; ok {
				cells[j] = strings.Join(parts, b.separator)
			}
		}
		out.Rows[i] = model.PivotRow{Identity: id, Cells: cells}
	}

	return out
}

// BuildAll 按领域首次出现顺序为每个领域生成透视表
func (b *Builder) BuildAll(long *model.LongTable) []*model.PivotTable {
	categories := long.Categories()
	out := make([]*model.PivotTable, 0, len(categories))
	for _, c := range categories {
		out = append(out, b.Build(long, c))
	}
	return out
}

// Flatten 宽表还原为长表，空单元格也输出，保证再次透视时行列顺序不变
func Flatten(p *model.PivotTable) *model.LongTable {
	out := &model.LongTable{Records: make([]model.Record, 0, len(p.Rows)*len(p.Subcategories))}
	for _, row := range p.Rows {
		for j, sub := range p.Subcategories {
			out.Records = append(out.Records, model.Record{
				Identity:    row.Identity,
				Category:    p.Category,
				Subcategory: sub,
				Content:     row.Cells[j],
			})
		}
	}
	return out
}
