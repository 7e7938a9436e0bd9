package importer

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/suribanpo/excelprocess/internal/model"
	"github.com/suribanpo/excelprocess/internal/parser"
	"github.com/suribanpo/excelprocess/internal/pipeline"
)

// DefaultLabelSkip 文件名前缀（如 창체）占用的段数
const DefaultLabelSkip = 1

// labelSegments 标签保留的段数：领域 + 细分领域
const labelSegments = 2

// ReadWorkbook 读取工作簿的所有 Sheet，每个 Sheet 一个来源
func ReadWorkbook(r io.Reader, fileName string, skipSegments int) ([]model.SourceTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("打开工作簿失败: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	out := make([]model.SourceTable, 0, len(sheets))
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("读取 Sheet %s 失败: %w", sheet, err)
		}
		out = append(out, model.SourceTable{
			FileName:  parser.NormalizeText(filepath.Base(fileName)),
			SheetName: sheet,
			Label:     SourceLabel(fileName, sheet, len(sheets) > 1, skipSegments),
			Table:     model.RawTable{Rows: rows},
		})
	}
	return out, nil
}

// SourceLabel 由文件名生成来源标签
// "창체_자율활동_활동명1_2학기.xlsx" → "자율활동_활동명1"；多 Sheet 时追加 "_<sheet>"
func SourceLabel(fileName, sheetName string, multiSheet bool, skipSegments int) string {
	stem := parser.NormalizeText(filepath.Base(fileName))
	stem = strings.TrimSuffix(stem, filepath.Ext(stem))

	parts := strings.Split(stem, "_")
	if skipSegments < 0 {
		skipSegments = 0
	}
	if skipSegments >= len(parts) {
		skipSegments = 0
	}
	parts = parts[skipSegments:]
	if len(parts) > labelSegments {
		parts = parts[:labelSegments]
	}
	label := strings.Join(parts, "_")
	if multiSheet {
		label += "_" + parser.NormalizeText(sheetName)
	}
	return label
}

// ReadRoster 读取名册（第一个 Sheet）
func ReadRoster(r io.Reader, fileName string, precedence parser.Precedence) (*model.Roster, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("打开名册失败: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("名册 %s 没有工作表", fileName)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("读取名册失败: %w", err)
	}
	return pipeline.BuildRoster(filepath.Base(fileName), model.RawTable{Rows: rows}, precedence)
}
