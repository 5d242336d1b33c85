package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"docstack/internal/config"
	"docstack/internal/importer"
	"docstack/internal/model"
	"docstack/internal/publish"
	"docstack/internal/server"
	"docstack/internal/store"
	"docstack/internal/util"
)

var (
	configPath = flag.String("config", "", "配置文件路径 (默认为可执行文件目录下的 config.toml)")
	initConfig = flag.String("initConfig", "", "写出默认配置文件到指定路径后退出")
	input      = flag.String("in", "", "待对账的装载表；指定后执行一次对账并退出")
	output     = flag.String("out", "", "对账结果输出路径 (默认 <dataDir>/exports/<run id>.xlsx)")
	split      = flag.Bool("split", false, "按 Stack 拆分对账结果")
	splitDir   = flag.String("splitDir", "", "拆分文件输出目录")
	reportPath = flag.String("report", "", "任务结果 JSON 输出路径")
	openResult = flag.Bool("open", false, "完成后用默认程序打开对账结果")
	port       = flag.Int("port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	devMode    = flag.Bool("dev", false, "开发模式")
	dataDir    = flag.String("dataDir", "", "数据目录 (覆盖配置文件)")
	verbose    = flag.Bool("v", false, "输出调试日志")
)

func main() {
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *initConfig != "" {
		if err := writeDefaultConfig(*initConfig); err != nil {
			logger.Error("write config failed", "path", *initConfig, "error", err)
			os.Exit(1)
		}
		fmt.Printf("已写出默认配置: %s\n", *initConfig)
		return
	}

	cfg := loadConfig(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *input != "" {
		if err := reconcileOnce(ctx, cfg, logger); err != nil {
			logger.Error("reconcile failed", "error", err)
			stop()
			os.Exit(1)
		}
		return
	}

	serve(ctx, cfg, logger)
}

// writeDefaultConfig 写出默认配置，已存在的文件不覆盖
func writeDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("配置文件已存在: %s", path)
	}
	return config.SaveConfig(config.DefaultConfig(), path)
}

// loadConfig 加载配置并应用命令行覆盖
func loadConfig(logger *slog.Logger) *config.AppConfig {
	var (
		cfg  *config.AppConfig
		info config.LoadConfigInfo
		err  error
	)
	if *configPath != "" {
		cfg, info, err = config.LoadConfigFrom(*configPath)
	} else {
		cfg, info, err = config.LoadConfigWithInfo()
	}
	if err != nil {
		logger.Warn("加载配置失败，使用默认配置", "error", err)
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
	if *split {
		cfg.Split.Enabled = true
	}
	return cfg
}

// reconcileOnce 命令行模式：对账一个文件后退出
func reconcileOnce(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) error {
	dir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return fmt.Errorf("创建数据目录失败: %w", err)
	}

	st, err := store.New(filepath.Join(dir, "docstack.db"))
	if err != nil {
		return err
	}
	defer st.Close()

	coordinator := importer.NewCoordinator(st, cfg, logger)
	if cfg.Publish.Bucket != "" {
		publisher, closeFn, err := publish.NewGCS(ctx, cfg.Publish, logger)
		if err != nil {
			return err
		}
		defer closeFn()
		coordinator.SetPublisher(publisher)
	}

	report, err := coordinator.Run(ctx, importer.ImportOptions{
		FilePath:   *input,
		ExportPath: *output,
		Split:      cfg.Split.Enabled,
		SplitDir:   *splitDir,
	})
	if err != nil {
		return err
	}

	printReport(report)

	if *reportPath != "" {
		if err := importer.WriteReport(*reportPath, report); err != nil {
			return fmt.Errorf("写入任务结果失败: %w", err)
		}
	}

	if *openResult {
		if err := util.OpenWithDefaultApp(report.ExportPath); err != nil {
			fmt.Printf("无法自动打开文件，请手动打开: %s\n", report.ExportPath)
		}
	}
	return nil
}

func printReport(report *importer.RunReport) {
	s := report.Summary
	fmt.Println("==========================================")
	fmt.Printf("  任务: %s\n", report.RunID)
	fmt.Printf("  Sheet: %s (%d 行, 跳过 %d 行空行)\n", report.Sheet.SheetName, report.Sheet.ImportedRows, report.Sheet.SkippedRows)
	fmt.Printf("  Stack: %d, 重复记录: %d, XREF: %d\n", s.TotalStacks, s.DuplicateRecords, s.XrefRecords)

	kinds := make([]model.ErrorKind, 0, len(s.Failures))
	for kind, n := range s.Failures {
		if n > 0 {
			kinds = append(kinds, kind)
		}
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	for _, kind := range kinds {
		fmt.Printf("  %s: %d\n", kind, s.Failures[kind])
	}
	if len(s.UnresolvedStacks) > 0 {
		fmt.Printf("  未确定最新版本的 Stack: %v\n", s.UnresolvedStacks)
	}

	fmt.Printf("  输出: %s\n", report.ExportPath)
	for _, out := range report.Splits {
		fmt.Printf("  拆分: %s (%s, %d 行)\n", out.Path, out.ImportCode, out.Rows)
	}
	for _, p := range report.Published {
		fmt.Printf("  上传: %s\n", p.URI)
	}
	fmt.Println("==========================================")
}

// serve 服务模式
func serve(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) {
	fmt.Println("==========================================")
	fmt.Println("  docstack - 图纸装载表对账工具")
	fmt.Println("==========================================")

	srv, err := server.NewServer(ctx, cfg, logger)
	if err != nil {
		logger.Error("服务初始化失败", "error", err)
		os.Exit(1)
	}
	defer srv.Close()

	fmt.Printf("数据目录: %s\n", config.ResolveDataDir(cfg))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		fmt.Printf("服务启动中，监听端口 %d ...\n", cfg.Server.Port)
		if err := srv.Run(addr); err != nil {
			logger.Error("服务启动失败", "error", err)
			os.Exit(1)
		}
	}()

	fmt.Printf("API: http://localhost:%d/api/status\n", cfg.Server.Port)
	fmt.Println("\n按 Ctrl+C 停止服务...")

	<-ctx.Done()
	fmt.Println("\n正在关闭服务...")
}
