package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/suribanpo/excelprocess/internal/importer"
	"github.com/suribanpo/excelprocess/internal/store"
)

// RunResponse 运行结果
type RunResponse struct {
	Report    *importer.RunReport `json:"report"`
	Downloads []DownloadLink      `json:"downloads"`
}

// runOptions 解析运行请求：file 多个、roster 可选、useStoredRoster 默认 true
func (h *Handler) runOptions(c *gin.Context) (importer.RunOptions, error) {
	files, err := readFormFiles(c, "file")
	if err != nil {
		return importer.RunOptions{}, err
	}
	if len(files) == 0 {
		return importer.RunOptions{}, errors.New("未找到上传文件")
	}
	roster, err := h.readRosterUpload(c)
	if err != nil {
		return importer.RunOptions{}, fmt.Errorf("读取名册失败: %w", err)
	}
	return importer.RunOptions{
		Files:           files,
		Roster:          roster,
		UseStoredRoster: c.DefaultPostForm("useStoredRoster", "true") == "true",
	}, nil
}

// CreateRun 处理上传的文件并返回报告
// POST /api/runs
func (h *Handler) CreateRun(c *gin.Context) {
	opts, err := h.runOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.coordinator.RunSync(c.Request.Context(), opts, nil)
	if err != nil {
		h.logger.Warn("run failed", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, RunResponse{
		Report:    report,
		Downloads: h.registerOutputs(c, report.Outputs),
	})
}

// StreamRun 处理上传的文件（SSE 进度 + 完成后提供下载地址）
// POST /api/runs/stream
func (h *Handler) StreamRun(c *gin.Context) {
	opts, err := h.runOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "不支持流式响应"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	for event := range h.coordinator.Run(c.Request.Context(), opts) {
		if report, ok := event.Data.(*importer.RunReport); ok && event.Type == "done" {
			event.Data = RunResponse{Report: report, Downloads: h.registerOutputs(c, report.Outputs)}
		}
		b, err := json.Marshal(event)
		if err != nil {
			continue
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}
}

// GetRun 查询运行记录
// GET /api/runs/:id
func (h *Handler) GetRun(c *gin.Context) {
	id := c.Param("id")
	log, err := h.store.GetRunLog(id)
	if errors.Is(err, store.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "运行记录不存在"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	sources, err := h.store.ListSourceResults(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": log, "sources": sources})
}
