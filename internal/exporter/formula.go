package exporter

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/suribanpo/excelprocess/internal/model"
)

const (
	// ColCombined 合并列：所有细分领域内容拼接
	ColCombined = "특기사항 합본"
	// ColBytes 字节数列（NEIS 计数方式）
	ColBytes = "바이트"

	DefaultColumnWidth = 50.0
)

// WritePivotWithFormulas 写入宽表并追加 합본 与 바이트 两列公式
// 内容列（第 5 列起）统一列宽并自动换行
func WritePivotWithFormulas(f *excelize.File, sheet string, p *model.PivotTable, width float64) error {
	if width <= 0 {
		width = DefaultColumnWidth
	}
	if err := WritePivot(f, sheet, p); err != nil {
		return err
	}

	firstContent := len(model.IdentityColumns) + 1
	lastContent := firstContent + len(p.Subcategories) - 1
	combinedCol := lastContent + 1
	bytesCol := combinedCol + 1

	for col, title := range map[int]string{combinedCol: ColCombined, bytesCol: ColBytes} {
		cell, err := excelize.CoordinatesToCellName(col, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(sheet, cell, title); err != nil {
			return err
		}
	}

	for i := range p.Rows {
		rowNo := i + 2
		combinedCell, err := excelize.CoordinatesToCellName(combinedCol, rowNo)
		if err != nil {
			return err
		}
		if err := f.SetCellFormula(sheet, combinedCell, ConcatFormula(firstContent, lastContent, rowNo)); err != nil {
			return fmt.Errorf("set combined formula %s: %w", combinedCell, err)
		}
		bytesCell, err := excelize.CoordinatesToCellName(bytesCol, rowNo)
		if err != nil {
			return err
		}
		if err := f.SetCellFormula(sheet, bytesCell, ByteFormula(combinedCell)); err != nil {
			return fmt.Errorf("set byte formula %s: %w", bytesCell, err)
		}
	}

	startName, err := excelize.ColumnNumberToName(firstContent)
	if err != nil {
		return err
	}
	endName, err := excelize.ColumnNumberToName(bytesCol)
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, startName, endName, width); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if len(p.Rows) == 0 {
		return nil
	}
	style, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return fmt.Errorf("create wrap style: %w", err)
	}
	topLeft, _ := excelize.CoordinatesToCellName(firstContent, 2)
	bottomRight, _ := excelize.CoordinatesToCellName(bytesCol, len(p.Rows)+1)
	if err := f.SetCellStyle(sheet, topLeft, bottomRight, style); err != nil {
		return fmt.Errorf("set wrap style: %w", err)
	}
	return nil
}

// ConcatFormula CONCATENATE(E2,F2,...)；没有内容列时为空串
func ConcatFormula(firstCol, lastCol, row int) string {
	if lastCol < firstCol {
		return `""`
	}
	refs := make([]string, 0, lastCol-firstCol+1)
	for col := firstCol; col <= lastCol; col++ {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		refs = append(refs, cell)
	}
	return "CONCATENATE(" + strings.Join(refs, ",") + ")"
}

// ByteFormula LENB(X)*2-LEN(X)
func ByteFormula(cell string) string {
	return fmt.Sprintf("LENB(%s)*2-LEN(%s)", cell, cell)
}
