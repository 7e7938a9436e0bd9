package parser

import (
	"fmt"
	"strings"

	"github.com/suribanpo/excelprocess/internal/model"
)

const legacyNameLabel = "성명"

// DefaultHeaderMarkers 表头行标记：姓名列（含旧写法 성명）
var DefaultHeaderMarkers = []string{model.ColName, legacyNameLabel}

// FindHeaderRow 自上而下查找第一个包含标记的行
func FindHeaderRow(rows [][]string, markers []string) (int, error) {
	for i, row := range rows {
		for _, c := range row {
			if c == "" {
				continue
			}
			if ContainsAny(NormalizeText(c), markers) {
				return i, nil
			}
		}
	}
	return -1, &HeaderNotFoundError{Markers: markers, ScannedRows: len(rows)}
}

// HeaderLabels 生成列名：规范化、성명 → 이름、空列名补 Unnamed、重复列名加后缀
func HeaderLabels(row []string, width int) []string {
	if width < len(row) {
		width = len(row)
	}
	labels := make([]string, width)
	seen := make(map[string]int, width)
	for i := 0; i < width; i++ {
		label := NormalizeColumnName(Cell(row, i))
		label = strings.ReplaceAll(label, legacyNameLabel, model.ColName)
		if label == "" {
			label = "Unnamed"
		}
		if n, ok := seen[label]; ok {
			seen[label] = n + 1
			label = fmt.Sprintf("%s_%d", label, n+1)
		} else {
			seen[label] = 0
		}
		labels[i] = label
	}
	return labels
}

// LocateIdentityColumns 按列名定位身份列
func LocateIdentityColumns(labels []string) IdentityColumns {
	cols := IdentityColumns{Code: -1, Grade: -1, Class: -1, Number: -1, Name: -1}
	nameLike := -1
	for i, l := range labels {
		switch l {
		case model.ColStudentCode:
			if cols.Code < 0 {
				cols.Code = i
			}
		case model.ColGrade:
			if cols.Grade < 0 {
				cols.Grade = i
			}
		case model.ColClass:
			if cols.Class < 0 {
				cols.Class = i
			}
		case model.ColNumber:
			if cols.Number < 0 {
				cols.Number = i
			}
		case model.ColName:
			if cols.Name < 0 {
				cols.Name = i
			}
		}
		if nameLike < 0 && strings.Contains(l, model.ColName) {
			nameLike = i
		}
	}
	// 没有恰好名为 이름 的列时，退回到第一个包含 이름 的列
	if cols.Name < 0 {
		cols.Name = nameLike
	}
	return cols
}

// DetectIdentityMode 判定身份编码方式
func DetectIdentityMode(cols IdentityColumns, precedence Precedence) (IdentityMode, error) {
	hasCompound := cols.Code >= 0
	hasDiscrete := cols.Grade >= 0 && cols.Class >= 0 && cols.Number >= 0

	switch {
	case hasCompound && hasDiscrete:
		if precedence == PreferCompound {
			return IdentityCompound, nil
		}
		return IdentityDiscrete, nil
	case hasDiscrete:
		return IdentityDiscrete, nil
	case hasCompound:
		return IdentityCompound, nil
	default:
		return IdentityUnknown, &MalformedIdentityError{
			Reason: fmt.Sprintf("neither %q nor %q/%q/%q columns present",
				model.ColStudentCode, model.ColGrade, model.ColClass, model.ColNumber),
		}
	}
}
