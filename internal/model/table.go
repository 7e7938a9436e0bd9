package model

// 标准列名（韩文表头，对外输出的列顺序即由此决定）
const (
	ColGrade       = "학년"
	ColClass       = "반"
	ColNumber      = "번호"
	ColName        = "이름"
	ColStudentCode = "학번"
	ColCategory    = "영역명"
	ColSubcategory = "세부영역명"
	ColContent     = "기재내용"
)

// IdentityColumns 透视表/长表的身份列
var IdentityColumns = []string{ColGrade, ColClass, ColNumber, ColName}

// RawTable 原始表格：未知表头位置的二维文本网格
type RawTable struct {
	Rows [][]string `json:"rows"`
}

// SourceTable 上传文件中的单个 Sheet
type SourceTable struct {
	FileName  string   `json:"fileName"`
	SheetName string   `json:"sheetName"`
	Label     string   `json:"label"` // 形如 "자율활동_활동명1"
	Table     RawTable `json:"-"`
}

// Name 用于报告的来源标识
func (s SourceTable) Name() string {
	if s.SheetName == "" {
		return s.FileName
	}
	return s.FileName + "#" + s.SheetName
}

// Record 规范化记录（长表的一行）
type Record struct {
	Identity    Identity `json:"identity"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
	Content     string   `json:"content"`
}

// LongTable 长表：所有来源的记录按顺序拼接，不去重
type LongTable struct {
	Records []Record `json:"records"`
}

// Len 记录数
func (t *LongTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Categories 按首次出现顺序返回所有领域名
func (t *LongTable) Categories() []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range t.Records {
		if _, ok := seen[r.Category]; ok {
			continue
		}
		seen[r.Category] = struct{}{}
		out = append(out, r.Category)
	}
	return out
}

// PivotRow 透视表的一行
type PivotRow struct {
	Identity Identity `json:"identity"`
	Cells    []string `json:"cells"` // 与 PivotTable.Subcategories 一一对应
}

// PivotTable 单个领域的宽表：每个学生一行，每个细分领域一列
type PivotTable struct {
	Category      string     `json:"category"`
	Subcategories []string   `json:"subcategories"`
	Rows          []PivotRow `json:"rows"`
}

// Header 输出表头：身份列在前，细分领域列在后
func (p *PivotTable) Header() []string {
	out := make([]string, 0, len(IdentityColumns)+len(p.Subcategories))
	out = append(out, IdentityColumns...)
	return append(out, p.Subcategories...)
}

// Cell 按行号与细分领域取值，缺失返回 ""
func (p *PivotTable) Cell(row int, subcategory string) string {
	for i, s := range p.Subcategories {
		if s == subcategory {
			return p.Rows[row].Cells[i]
		}
	}
	return ""
}
