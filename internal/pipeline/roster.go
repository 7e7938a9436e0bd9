package pipeline

import (
	"github.com/suribanpo/excelprocess/internal/model"
	"github.com/suribanpo/excelprocess/internal/parser"
)

// BuildRoster 用与来源表相同的身份解析规则读取名册
func BuildRoster(source string, raw model.RawTable, precedence parser.Precedence) (*model.Roster, error) {
	resolved, err := parser.NewIdentityResolver(precedence).Resolve(raw)
	if err != nil {
		return nil, &StageError{Stage: StageLoad, Source: source, Err: err}
	}
	roster := &model.Roster{
		Source:     source,
		Identities: make([]model.Identity, 0, len(resolved.Rows)),
	}
	for _, row := range resolved.Rows {
		id := row.Identity
		id.Name = parser.NormalizeText(id.Name)
		roster.Identities = append(roster.Identities, id)
	}
	return roster, nil
}
