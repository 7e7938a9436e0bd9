package pivot

import (
	"sort"

	"github.com/suribanpo/excelprocess/internal/model"
)

// ReconcileOptions 名册对齐选项
type ReconcileOptions struct {
	Strict bool // 名册 (学年, 班, 号) 重复时报错
}

// ValidateRoster 检查名册中 (学年, 班, 号) 是否重复
func ValidateRoster(roster *model.Roster) error {
	seen := make(map[string]int, roster.Len())
	for i, id := range roster.Identities {
		if j, ok := seen[id.SeatKey()]; ok {
			return &DuplicateRosterKeyError{
				Grade:  id.Grade,
				Class:  id.Class,
				Number: id.Number,
				Names:  []string{roster.Identities[j].Name, id.Name},
			}
		}
		seen[id.SeatKey()] = i
	}
	return nil
}

// SortedIdentities 名册按 学年 → 班 → 号 稳定排序后的副本
func SortedIdentities(roster *model.Roster) []model.Identity {
	out := make([]model.Identity, roster.Len())
	copy(out, roster.Identities)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Less(out[j])
	})
	return out
}

// Reconcile 以名册为左表做外连接
// 名册中的每个学生恰好出现一次；不在名册中的学生被丢弃；缺失单元格为 ""
func Reconcile(p *model.PivotTable, roster *model.Roster, opts ReconcileOptions) (*model.PivotTable, error) {
	if roster == nil {
		return p, nil
	}
	if opts.Strict {
		if err := ValidateRoster(roster); err != nil {
			return nil, err
		}
	}

	byKey := make(map[string]int, len(p.Rows))
	for i, row := range p.Rows {
		byKey[row.Identity.Key()] = i
	}

	subs := make([]string, len(p.Subcategories))
	copy(subs, p.Subcategories)
	out := &model.PivotTable{
		Category:      p.Category,
		Subcategories: subs,
		Rows:          make([]model.PivotRow, 0, roster.Len()),
	}

	for _, id := range SortedIdentities(roster) {
		cells := make([]string, len(subs))
		if i, ok := byKey[id.Key()]; ok {
			copy(cells, p.Rows[i].Cells)
		}
		out.Rows = append(out.Rows, model.PivotRow{Identity: id, Cells: cells})
	}
	return out, nil
}
