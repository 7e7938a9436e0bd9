package v1

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/suribanpo/excelprocess/internal/exporter"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DownloadLink 下载链接
type DownloadLink struct {
	Kind     string `json:"kind"`
	Category string `json:"category,omitempty"`
	FileName string `json:"fileName"`
	URL      string `json:"url"`
}

// DownloadExport 下载导出文件（一次性链接）
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 token"})
		return
	}

	item, ok := h.downloads.take(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "下载链接已失效"})
		return
	}
	if _, err := os.Stat(item.filePath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "导出文件不存在"})
		return
	}

	c.Header("Content-Disposition", contentDisposition(item.fileName))
	c.Header("Content-Type", xlsxContentType)
	c.File(item.filePath)

	if item.removeAfter {
		if err := os.Remove(item.filePath); err != nil {
			h.logger.Warn("remove download failed", zap.String("path", item.filePath), zap.Error(err))
		}
	}
}

// contentDisposition ASCII 回退名 + RFC 5987 UTF-8 文件名
func contentDisposition(fileName string) string {
	fallback := strings.Map(func(r rune) rune {
		if r > 0x7e || r < 0x20 || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, fileName)
	return fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", fallback, url.PathEscape(fileName))
}

// apiPrefix 与请求路径保持一致的 API 前缀
func apiPrefix(c *gin.Context) string {
	if strings.HasPrefix(c.Request.URL.Path, "/api/v1/") {
		return "/api/v1"
	}
	return "/api"
}

func (h *Handler) registerOutputs(c *gin.Context, outputs []exporter.Output) []DownloadLink {
	prefix := apiPrefix(c)
	links := make([]DownloadLink, 0, len(outputs))
	for _, o := range outputs {
		token := h.downloads.put(download{filePath: o.Path, fileName: o.FileName}, downloadTTL)
		links = append(links, DownloadLink{
			Kind:     string(o.Kind),
			Category: o.Category,
			FileName: o.FileName,
			URL:      fmt.Sprintf("%s/export/download/%s", prefix, token),
		})
	}
	return links
}
