package server

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	v1 "github.com/suribanpo/excelprocess/internal/api/v1"
	"github.com/suribanpo/excelprocess/internal/config"
	"github.com/suribanpo/excelprocess/internal/exporter"
	"github.com/suribanpo/excelprocess/internal/importer"
	"github.com/suribanpo/excelprocess/internal/store"
)

//go:embed web
var staticFiles embed.FS

// Version 版本号（构建时 -ldflags 注入）
var Version = "dev"

// Server HTTP 服务器
type Server struct {
	router *gin.Engine
	store  *store.Store
	api    *v1.Handler
	logger *zap.Logger
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig, logger *zap.Logger) (*Server, error) {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("创建数据目录失败: %w", err)
	}
	st, err := store.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("初始化数据库失败: %w", err)
	}

	exp := exporter.NewExporter(cfg.ExporterOptions())
	opts := cfg.PipelineOptions()
	coordinator := importer.NewCoordinator(st, exp, logger, importer.Settings{
		Pipeline:  opts,
		LabelSkip: cfg.Pipeline.LabelSkipSegments,
		OutputDir: filepath.Join(dataDir, "exports"),
	})

	s := &Server{
		router: gin.New(),
		store:  st,
		logger: logger,
		api: v1.NewHandler(v1.Deps{
			Store:       st,
			Coordinator: coordinator,
			Logger:      logger,
			Precedence:  opts.Precedence,
			ToolsDir:    filepath.Join(dataDir, "tools"),
			Version:     Version,
		}),
	}
	s.setupRoutes()
	return s, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	s.router.Use(requestLogger(s.logger), gin.Recovery())

	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	s.api.RegisterRoutes(s.router.Group("/api"))
	s.api.RegisterRoutes(s.router.Group("/api/v1"))

	sub, _ := fs.Sub(staticFiles, "web")
	s.router.GET("/", func(c *gin.Context) {
		data, err := fs.ReadFile(sub, "index.html")
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", data)
	})
	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}

// Handler 返回 http.Handler（测试用）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Close 关闭数据库
func (s *Server) Close() error {
	return s.store.Close()
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}
