package v1

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/suribanpo/excelprocess/internal/sheetops"
)

// 工具输出文件名
const (
	combineFileName = "combined_data.xlsx"
	surveyFileName  = "설문데이터_병합.xlsx"
	cleanupSuffix   = "_병합해제.xlsx"
)

// SurveyOption 单个问卷文件的合并设置（按文件名匹配）
type SurveyOption struct {
	Name    string   `json:"name"`
	Key     string   `json:"key"`
	Extract bool     `json:"extract"`
	Answers []string `json:"answers"`
}

// Cleanup 拆分合并单元格并按选项清理每个工作表
// POST /api/tools/cleanup
func (h *Handler) Cleanup(c *gin.Context) {
	var opts sheetops.CleanupOptions
	if err := c.ShouldBind(&opts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	uploads, err := readFormFiles(c, "file")
	if err != nil || len(uploads) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未找到上传文件"})
		return
	}
	upload := uploads[0]

	sheets, err := sheetops.ReadSheets(bytes.NewReader(upload.Data), upload.Name)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	for i := range sheets {
		sheets[i].Rows = sheetops.Cleanup(sheets[i].Rows, opts)
	}

	f, err := sheetops.WriteSheets(sheets)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	stem := strings.TrimSuffix(upload.Name, filepath.Ext(upload.Name))
	link, err := h.saveToolOutput(c, f, stem+cleanupSuffix)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sheets": sheets, "download": link})
}

// Combine 将多个文件的全部工作表合并为一个工作表
// POST /api/tools/combine
func (h *Handler) Combine(c *gin.Context) {
	uploads, err := readFormFiles(c, "file")
	if err != nil || len(uploads) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未找到上传文件"})
		return
	}

	var all []sheetops.Sheet
	for _, u := range uploads {
		sheets, err := sheetops.ReadSheets(bytes.NewReader(u.Data), u.Name)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": fmt.Sprintf("%s: %v", u.Name, err)})
			return
		}
		all = append(all, sheets...)
	}
	rows := sheetops.CombineSheets(all)

	f, err := sheetops.WriteSheets([]sheetops.Sheet{{Name: "Sheet1", Rows: rows}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	link, err := h.saveToolOutput(c, f, combineFileName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sheets": len(all), "rows": len(rows), "download": link})
}

// Survey 按学号（或指定键）合并多份问卷
// POST /api/tools/survey  form: file[]、options（SurveyOption 数组 JSON，可选）
func (h *Handler) Survey(c *gin.Context) {
	uploads, err := readFormFiles(c, "file")
	if err != nil || len(uploads) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未找到上传文件"})
		return
	}

	byName := map[string]SurveyOption{}
	if raw := c.PostForm("options"); raw != "" {
		var opts []SurveyOption
		if err := json.Unmarshal([]byte(raw), &opts); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "options 格式错误: " + err.Error()})
			return
		}
		for _, o := range opts {
			byName[o.Name] = o
		}
	}

	files := make([]*sheetops.SurveyFile, 0, len(uploads))
	for _, u := range uploads {
		sf, err := sheetops.ReadSurvey(bytes.NewReader(u.Data), u.Name)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": fmt.Sprintf("%s: %v", u.Name, err)})
			return
		}
		if o, ok := byName[u.Name]; ok {
			sf.Key, sf.Extract, sf.Answers = o.Key, o.Extract, o.Answers
		}
		files = append(files, sf)
	}

	merged, err := sheetops.MergeSurveys(files)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	f, err := sheetops.WriteSurveyMerge(merged)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	link, err := h.saveToolOutput(c, f, surveyFileName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"merged": merged, "download": link})
}

// saveToolOutput 保存到临时目录并登记一次性下载（下载后删除）
func (h *Handler) saveToolOutput(c *gin.Context, f *excelize.File, fileName string) (DownloadLink, error) {
	defer f.Close()

	dir := h.toolsDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return DownloadLink{}, err
	}
	path := filepath.Join(dir, uuid.NewString()+".xlsx")
	if err := f.SaveAs(path); err != nil {
		return DownloadLink{}, fmt.Errorf("写入文件失败: %w", err)
	}

	token := h.downloads.put(download{filePath: path, fileName: fileName, removeAfter: true}, downloadTTL)
	return DownloadLink{
		Kind:     "tool",
		FileName: fileName,
		URL:      fmt.Sprintf("%s/export/download/%s", apiPrefix(c), token),
	}, nil
}
