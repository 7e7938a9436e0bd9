package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/suribanpo/excelprocess/internal/config"
	"github.com/suribanpo/excelprocess/internal/exporter"
	"github.com/suribanpo/excelprocess/internal/importer"
	"github.com/suribanpo/excelprocess/internal/logging"
	"github.com/suribanpo/excelprocess/internal/server"
	"github.com/suribanpo/excelprocess/internal/store"
	"github.com/suribanpo/excelprocess/internal/util"
)

var (
	port       = flag.Int("port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	devMode    = flag.Bool("dev", false, "开发模式")
	dataDir    = flag.String("dataDir", "", "数据目录 (覆盖配置文件)")
	rosterPath = flag.String("roster", "", "名册文件 (批处理模式)")
	outDir     = flag.String("out", "", "导出目录 (批处理模式，默认 <dataDir>/exports/<runID>)")
	strict     = flag.Bool("strict", false, "名册出现重复学生时终止运行")
)

func main() {
	flag.Parse()

	cfg, info, err := config.LoadConfigWithInfo()
	if err != nil {
		log.Printf("加载配置失败，使用默认配置: %v", err)
		cfg = config.DefaultConfig()
		info = config.LoadConfigInfo{}
	}

	// 命令行参数覆盖配置
	if *port > 0 && !info.PortSpecified {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}
	if *strict {
		cfg.Pipeline.StrictRoster = true
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Server.DevMode)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if flag.NArg() > 0 {
		if err := runBatch(cfg, logger, flag.Args()); err != nil {
			logger.Error("batch run failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}
	serve(cfg, info, logger)
}

// runBatch 命令行批处理：读取文件、运行流水线、导出到磁盘
func runBatch(cfg *config.AppConfig, logger *zap.Logger, paths []string) error {
	dir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return fmt.Errorf("创建数据目录失败: %w", err)
	}
	st, err := store.Open(dir)
	if err != nil {
		return err
	}
	defer st.Close()

	opts := cfg.PipelineOptions()
	coordinator := importer.NewCoordinator(st, exporter.NewExporter(cfg.ExporterOptions()), logger, importer.Settings{
		Pipeline:  opts,
		LabelSkip: cfg.Pipeline.LabelSkipSegments,
		OutputDir: filepath.Join(dir, "exports"),
	})

	run := importer.RunOptions{OutputDir: *outDir, UseStoredRoster: *rosterPath == ""}
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("读取 %s 失败: %w", p, err)
		}
		run.Files = append(run.Files, importer.Upload{Name: filepath.Base(p), Data: data})
	}
	if *rosterPath != "" {
		f, err := os.Open(*rosterPath)
		if err != nil {
			return fmt.Errorf("读取名册失败: %w", err)
		}
		roster, err := importer.ReadRoster(f, filepath.Base(*rosterPath), opts.Precedence)
		_ = f.Close()
		if err != nil {
			return err
		}
		run.Roster = roster
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := coordinator.RunSync(ctx, run, func(evt importer.ProgressEvent) {
		switch evt.Type {
		case "warning", "error":
			fmt.Printf("[%s] %s\n", evt.Type, evt.Message)
		case "source_done", "done":
			fmt.Println(evt.Message)
		}
	})
	if err != nil {
		return err
	}

	fmt.Printf("状态: %s  记录: %d  失败来源: %d\n", report.Status, report.Records, len(report.Failures))
	for _, o := range report.Outputs {
		fmt.Println("  ", o.Path)
	}
	if report.Status == importer.StatusFailed {
		return fmt.Errorf("所有来源均处理失败")
	}
	return nil
}

// serve 启动 Web 服务并打开浏览器
func serve(cfg *config.AppConfig, info config.LoadConfigInfo, logger *zap.Logger) {
	fmt.Println("==========================================")
	fmt.Println("  창체 특기사항 통합 도구")
	fmt.Println("==========================================")

	if !info.PortSpecified {
		if p, err := util.FindAvailablePort(cfg.Server.Port, 20); err == nil {
			cfg.Server.Port = p
		}
	}

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		logger.Fatal("server init failed", zap.Error(err))
	}
	fmt.Printf("数据目录: %s\n", config.ResolveDataDir(cfg))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	url := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)

	go func() {
		logger.Info("server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.Run(addr); err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	if !cfg.Server.DevMode {
		fmt.Printf("正在打开浏览器: %s\n", url)
		if err := util.OpenBrowserWithFallback(url); err != nil {
			fmt.Printf("无法自动打开浏览器，请手动访问: %s\n", url)
		}
	} else {
		fmt.Printf("开发模式: 请访问 %s\n", url)
	}

	fmt.Println("\n按 Ctrl+C 停止服务...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\n正在关闭服务...")
	if err := srv.Close(); err != nil {
		logger.Warn("close store failed", zap.Error(err))
	}
}
