package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// UploadRoster 上传并保存名册（替换旧名册）
// POST /api/roster
func (h *Handler) UploadRoster(c *gin.Context) {
	roster, err := h.readRosterUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "读取名册失败: " + err.Error()})
		return
	}
	if roster == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未找到名册文件"})
		return
	}
	if err := h.store.ReplaceRoster(roster); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"source": roster.Source, "students": roster.Len()})
}

// GetRoster 查看已保存的名册
// GET /api/roster
func (h *Handler) GetRoster(c *gin.Context) {
	roster, err := h.store.LoadRoster()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if roster == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "尚未上传名册"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"source":     roster.Source,
		"students":   roster.Len(),
		"identities": roster.Identities,
	})
}

// DeleteRoster 删除名册
// DELETE /api/roster
func (h *Handler) DeleteRoster(c *gin.Context) {
	if err := h.store.ClearRoster(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
