package parser

import (
	"strconv"
	"strings"

	"github.com/suribanpo/excelprocess/internal/model"
)

// IdentityResolver 定位表头并解析学生身份
type IdentityResolver struct {
	markers    []string
	precedence Precedence
}

// NewIdentityResolver 创建身份解析器
func NewIdentityResolver(precedence Precedence) *IdentityResolver {
	if precedence == "" {
		precedence = PreferDiscrete
	}
	return &IdentityResolver{
		markers:    DefaultHeaderMarkers,
		precedence: precedence,
	}
}

// Resolve 解析原始表格
func (r *IdentityResolver) Resolve(raw model.RawTable) (*ResolvedTable, error) {
	headerIdx, err := FindHeaderRow(raw.Rows, r.markers)
	if err != nil {
		return nil, err
	}

	width := 0
	for _, row := range raw.Rows[headerIdx:] {
		if len(row) > width {
			width = len(row)
		}
	}
	labels := HeaderLabels(raw.Rows[headerIdx], width)
	cols := LocateIdentityColumns(labels)

	mode, err := DetectIdentityMode(cols, r.precedence)
	if err != nil {
		return nil, err
	}

	out := &ResolvedTable{
		HeaderRow: headerIdx,
		Labels:    labels,
		Mode:      mode,
		Columns:   cols,
		Rows:      make([]ResolvedRow, 0, len(raw.Rows)-headerIdx-1),
	}

	for i := headerIdx + 1; i < len(raw.Rows); i++ {
		row := raw.Rows[i]
		if isBlankRow(row) {
			continue
		}
		rowNo := i + 1
		id, err := r.identityOf(row, rowNo, mode, cols, labels)
		if err != nil {
			return nil, err
		}
		out.Rows = append(out.Rows, ResolvedRow{
			RowNo:    rowNo,
			Identity: id,
			Cells:    row,
		})
	}

	return out, nil
}

func (r *IdentityResolver) identityOf(row []string, rowNo int, mode IdentityMode, cols IdentityColumns, labels []string) (model.Identity, error) {
	id := model.Identity{Name: Cell(row, cols.Name)}

	if mode == IdentityCompound {
		g, c, n, err := ParseCompoundCode(Cell(row, cols.Code))
		if err != nil {
			if e, ok := err.(*MalformedIdentityError); ok {
				e.RowNo = rowNo
				e.Column = labels[cols.Code]
			}
			return id, err
		}
		id.Grade, id.Class, id.Number = g, c, n
		return id, nil
	}

	fields := []struct {
		idx int
		dst *int
	}{
		{cols.Grade, &id.Grade},
		{cols.Class, &id.Class},
		{cols.Number, &id.Number},
	}
	for _, f := range fields {
		v := Cell(row, f.idx)
		n, ok := ExtractDigitRun(v)
		if !ok {
			return id, &MalformedIdentityError{RowNo: rowNo, Column: labels[f.idx], Value: v, Reason: "no digits"}
		}
		if n <= 0 {
			return id, &MalformedIdentityError{RowNo: rowNo, Column: labels[f.idx], Value: v, Reason: "must be positive"}
		}
		*f.dst = n
	}
	return id, nil
}

// ParseCompoundCode 拆分学号："30112" → 3 学年 01 班 12 号
func ParseCompoundCode(code string) (grade, class, number int, err error) {
	s := strings.TrimSpace(code)
	if len(s) < 4 {
		return 0, 0, 0, &MalformedIdentityError{Value: code, Reason: "student code shorter than 4 characters"}
	}

	segments := []string{s[:1], s[1:3], s[3:]}
	values := make([]int, len(segments))
	for i, seg := range segments {
		if !isASCIIDigits(seg) {
			return 0, 0, 0, &MalformedIdentityError{Value: code, Reason: "student code segment " + strconv.Quote(seg) + " is not numeric"}
		}
		v, convErr := strconv.Atoi(seg)
		if convErr != nil {
			return 0, 0, 0, &MalformedIdentityError{Value: code, Reason: convErr.Error()}
		}
		if v <= 0 {
			return 0, 0, 0, &MalformedIdentityError{Value: code, Reason: "student code segment " + strconv.Quote(seg) + " must be positive"}
		}
		values[i] = v
	}
	return values[0], values[1], values[2], nil
}

func isASCIIDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
