package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/suribanpo/excelprocess/internal/importer"
	"github.com/suribanpo/excelprocess/internal/parser"
	"github.com/suribanpo/excelprocess/internal/store"
)

// downloadTTL 下载链接有效期
const downloadTTL = 30 * time.Minute

// Handler API 处理器
type Handler struct {
	store       *store.Store
	coordinator *importer.Coordinator
	downloads   *downloadStore
	logger      *zap.Logger
	precedence  parser.Precedence
	toolsDir    string
	version     string
}

// Deps 处理器依赖
type Deps struct {
	Store       *store.Store
	Coordinator *importer.Coordinator
	Logger      *zap.Logger
	Precedence  parser.Precedence // 名册解析
	ToolsDir    string            // 工具输出的临时目录
	Version     string
}

// NewHandler 创建 API 处理器
func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:       d.Store,
		coordinator: d.Coordinator,
		downloads:   newDownloadStore(),
		logger:      logger,
		precedence:  d.Precedence,
		toolsDir:    d.ToolsDir,
		version:     d.Version,
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 处理流程
	router.POST("/runs", h.CreateRun)
	router.POST("/runs/stream", h.StreamRun)
	router.GET("/runs/:id", h.GetRun)

	// 名册
	router.POST("/roster", h.UploadRoster)
	router.GET("/roster", h.GetRoster)
	router.DELETE("/roster", h.DeleteRoster)

	// 表格工具
	router.POST("/tools/cleanup", h.Cleanup)
	router.POST("/tools/combine", h.Combine)
	router.POST("/tools/survey", h.Survey)

	// 下载
	router.GET("/export/download/:token", h.DownloadExport)
}
