package v1

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gin-gonic/gin"

	"github.com/suribanpo/excelprocess/internal/importer"
	"github.com/suribanpo/excelprocess/internal/model"
)

// readFormFiles 读取表单中某字段的全部文件
func readFormFiles(c *gin.Context, field string) ([]importer.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("无效的表单数据: %w", err)
	}
	headers := form.File[field]
	uploads := make([]importer.Upload, 0, len(headers))
	for _, fh := range headers {
		data, err := readFileHeader(fh)
		if err != nil {
			return nil, fmt.Errorf("读取 %s 失败: %w", fh.Filename, err)
		}
		uploads = append(uploads, importer.Upload{Name: fh.Filename, Data: data})
	}
	return uploads, nil
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// readRosterUpload 读取可选的 roster 字段；未上传时返回 nil
func (h *Handler) readRosterUpload(c *gin.Context) (*model.Roster, error) {
	uploads, err := readFormFiles(c, "roster")
	if err != nil || len(uploads) == 0 {
		return nil, err
	}
	return importer.ReadRoster(bytes.NewReader(uploads[0].Data), uploads[0].Name, h.precedence)
}
