package parser

import (
	"github.com/suribanpo/excelprocess/internal/model"
)

// PickContentColumn 选出记载内容列：非身份列中单元格最大长度最长者，相同取靠前的列
func PickContentColumn(t *ResolvedTable) (int, error) {
	exclude := make(map[int]struct{})
	for _, idx := range t.Columns.Indexes() {
		exclude[idx] = struct{}{}
	}

	best := -1
	bestLen := -1
	for col := range t.Labels {
		if _, ok := exclude[col]; ok {
			continue
		}
		maxLen := 0
		for _, row := range t.Rows {
			if n := RuneLen(Cell(row.Cells, col)); n > maxLen {
				maxLen = n
			}
		}
		if maxLen > bestLen {
			best = col
			bestLen = maxLen
		}
	}

	if best < 0 {
		return -1, &EmptyCategoryError{Reason: "table has no column besides identity columns"}
	}
	return best, nil
}

// RecordNormalizer 将解析后的表转换为规范化记录
type RecordNormalizer struct{}

// NewRecordNormalizer 创建规范化器
func NewRecordNormalizer() *RecordNormalizer {
	return &RecordNormalizer{}
}

// Normalize 生成规范化记录；label 形如 "领域_细分领域"
func (n *RecordNormalizer) Normalize(t *ResolvedTable, label string) ([]model.Record, error) {
	label = NormalizeText(label)
	contentCol, err := PickContentColumn(t)
	if err != nil {
		if e, ok := err.(*EmptyCategoryError); ok {
			e.Label = label
		}
		return nil, err
	}

	category, subcategory := SplitLabel(label)
	category = NormalizeText(category)
	subcategory = NormalizeText(subcategory)

	records := make([]model.Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		id := row.Identity
		id.Name = NormalizeText(id.Name)
		records = append(records, model.Record{
			Identity:    id,
			Category:    category,
			Subcategory: subcategory,
			Content:     NormalizeText(TrimContent(Cell(row.Cells, contentCol))),
		})
	}
	return records, nil
}
