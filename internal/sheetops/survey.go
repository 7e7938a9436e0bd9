package sheetops

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/suribanpo/excelprocess/internal/parser"
)

// 合并结果的列名
const (
	ColMergeKey     = "병합키"
	answerColSuffix = "_응답"

	// SurveySheetName 合并结果的工作表名
	SurveySheetName   = "합쳐진 응답"
	surveyColumnWidth = 60
)

var studentIDRe = regexp.MustCompile(`\d{5}`)

// ExtractStudentID 取第一段连续 5 位数字，如 "10203김하나" → "10203"
func ExtractStudentID(s string) (string, bool) {
	m := studentIDRe.FindString(s)
	return m, m != ""
}

// SurveyFile 一份问卷导出（第一行为表头）
type SurveyFile struct {
	Name    string     `json:"name"`
	Header  []string   `json:"header"`
	Rows    [][]string `json:"-"`
	Key     string     `json:"key"`     // 键列，空时取第二列
	Extract bool       `json:"extract"` // 从键列中提取 5 位学号
	Answers []string   `json:"answers"` // 需要合并的答题列，空时取键列以外的全部列
}

// ReadSurvey 读取 csv 或 xlsx 问卷，列名去掉第一个 "_" 之前的前缀
func ReadSurvey(r io.Reader, fileName string) (*SurveyFile, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		rows, err = readCSV(r)
	case ".xlsx", ".xlsm":
		var sheets []Sheet
		sheets, err = ReadSheets(r, fileName)
		if err == nil && len(sheets) > 0 {
			rows = sheets[0].Rows
		}
	default:
		return nil, fmt.Errorf("不支持的文件格式: %s", fileName)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s 没有数据", fileName)
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		if _, after, ok := strings.Cut(h, "_"); ok {
			h = after
		}
		header[i] = parser.NormalizeText(strings.TrimSpace(h))
	}
	return &SurveyFile{
		Name:   parser.NormalizeText(filepath.Base(fileName)),
		Header: SanitizeColumns(header),
		Rows:   rows[1:],
	}, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("解析 csv 失败: %w", err)
	}
	return rows, nil
}

// SurveyMerge 合并结果
type SurveyMerge struct {
	Header  []string   `json:"header"`
	Rows    [][]string `json:"rows"`
	Skipped int        `json:"skipped"` // 键为空而被跳过的行
}

// FormatAnswers 将一行的若干答题合并为 ✅[질문]…✅[답변]… 块
func FormatAnswers(questions, answers []string) string {
	blocks := make([]string, len(questions))
	for i, q := range questions {
		a := ""
		if i < len(answers) {
			a = answers[i]
		}
		blocks[i] = fmt.Sprintf("✅[질문]%s\n✅[답변]%s\n\n", q, a)
	}
	return strings.Join(blocks, "\n")
}

// MergeSurveys 以键做外连接：每个文件一列合并后的答题，键按首次出现排序
// 同一文件中重复的键，其答题块以换行拼接
func MergeSurveys(files []*SurveyFile) (*SurveyMerge, error) {
	out := &SurveyMerge{Header: []string{ColMergeKey}}
	index := map[string]int{}
	var keys []string
	cells := map[string][]string{}

	for fi, f := range files {
		keyIdx, answerIdx, err := f.columns()
		if err != nil {
			return nil, err
		}
		out.Header = append(out.Header, f.Name+answerColSuffix)

		questions := make([]string, len(answerIdx))
		for i, idx := range answerIdx {
			questions[i] = f.Header[idx]
		}

		for _, row := range f.Rows {
			key := strings.TrimSpace(parser.Cell(row, keyIdx))
			if f.Extract {
				key, _ = ExtractStudentID(key)
			}
			if key == "" {
				out.Skipped++
				continue
			}
			answers := make([]string, len(answerIdx))
			for i, idx := range answerIdx {
				answers[i] = parser.Cell(row, idx)
			}

			if _, ok := index[key]; !ok {
				index[key] = len(keys)
				keys = append(keys, key)
				cells[key] = make([]string, len(files))
			}
			block := FormatAnswers(questions, answers)
			if prev := cells[key][fi]; prev != "" {
				block = prev + "\n" + block
			}
			cells[key][fi] = block
		}
	}

	out.Rows = make([][]string, 0, len(keys))
	for _, k := range keys {
		out.Rows = append(out.Rows, append([]string{k}, cells[k]...))
	}
	return out, nil
}

// columns 解析键列与答题列的下标
func (f *SurveyFile) columns() (int, []int, error) {
	lookup := make(map[string]int, len(f.Header))
	for i, h := range f.Header {
		lookup[h] = i
	}

	keyIdx := 0
	if len(f.Header) > 1 {
		keyIdx = 1
	}
	if f.Key != "" {
		idx, ok := lookup[f.Key]
		if !ok {
			return 0, nil, fmt.Errorf("%s: 找不到键列 %q", f.Name, f.Key)
		}
		keyIdx = idx
	}

	var answers []int
	if len(f.Answers) == 0 {
		for i := range f.Header {
			if i != keyIdx {
				answers = append(answers, i)
			}
		}
	}
	for _, a := range f.Answers {
		idx, ok := lookup[a]
		if !ok {
			return 0, nil, fmt.Errorf("%s: 找不到答题列 %q", f.Name, a)
		}
		if idx != keyIdx {
			answers = append(answers, idx)
		}
	}
	if len(answers) == 0 {
		return 0, nil, fmt.Errorf("%s: 没有可合并的答题列", f.Name)
	}
	return keyIdx, answers, nil
}

// WriteSurveyMerge 写出合并结果：所有列宽 60 并自动换行
func WriteSurveyMerge(m *SurveyMerge) (*excelize.File, error) {
	f, err := WriteSheets([]Sheet{{Name: SurveySheetName, Rows: append([][]string{m.Header}, m.Rows...)}})
	if err != nil {
		return nil, err
	}
	style, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	last, err := excelize.ColumnNumberToName(len(m.Header))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := f.SetColWidth(SurveySheetName, "A", last, surveyColumnWidth); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := f.SetColStyle(SurveySheetName, "A:"+last, style); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}
