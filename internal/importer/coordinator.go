package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"docstack/internal/config"
	"docstack/internal/exporter"
	"docstack/internal/model"
	"docstack/internal/parser"
	"docstack/internal/publish"
	"docstack/internal/reconcile"
	"docstack/internal/splitter"
	"docstack/internal/store"
)

// Coordinator 对账任务协调器
type Coordinator struct {
	store     *store.Store
	cfg       *config.AppConfig
	publisher *publish.Publisher
	logger    *slog.Logger
}

// NewCoordinator 创建协调器
func NewCoordinator(st *store.Store, cfg *config.AppConfig, logger *slog.Logger) *Coordinator {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		store:  st,
		cfg:    cfg,
		logger: logger,
	}
}

// SetPublisher 设置产物上传目标；nil 表示不上传
func (c *Coordinator) SetPublisher(p *publish.Publisher) {
	c.publisher = p
}

// ImportOptions 任务选项
type ImportOptions struct {
	FilePath   string
	Filename   string // 原始文件名，为空时取 FilePath 的文件名
	RunID      string // 为空时自动生成
	ExportPath string // 为空时写入 data/exports/<run id>.xlsx
	Split      bool   // 是否按 Stack 拆分
	SplitDir   string // 为空时写入 data/splits/<run id>
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"`      // start/info/warning/sheet_start/sheet_done/done/error
	Message   string      `json:"message"`   // 事件消息
	Data      interface{} `json:"data"`      // 附加数据
	Timestamp time.Time   `json:"timestamp"` // 时间戳
}

// RunReport 一次任务的结果
type RunReport struct {
	RunID      string                `json:"runId"`
	Filename   string                `json:"filename"`
	Sheet      parser.ParseResult    `json:"sheet"`
	Summary    model.Summary         `json:"summary"`
	ExportPath string                `json:"exportPath"`
	Splits     []splitter.Output     `json:"splits,omitempty"`
	SplitPlan  *splitter.Diagnostics `json:"splitDiagnostics,omitempty"`
	Published  []publish.Published   `json:"published,omitempty"`
	Stacks     []model.StackSummary  `json:"-"`
	Duration   time.Duration         `json:"duration"`
}

// runContext 单次任务的上下文
type runContext struct {
	ctx          context.Context
	opts         ImportOptions
	report       *RunReport
	progressChan chan ProgressEvent
	logger       *slog.Logger
}

// Import 异步执行，返回进度通道；最后一个事件为 done 或 error
func (c *Coordinator) Import(ctx context.Context, opts ImportOptions) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 100)

	go func() {
		defer close(progressChan)
		report, err := c.run(ctx, opts, progressChan)
		if err != nil {
			c.sendFinal(ctx, progressChan, ProgressEvent{
				Type:      "error",
				Message:   err.Error(),
				Data:      report,
				Timestamp: time.Now(),
			})
			return
		}
		c.sendFinal(ctx, progressChan, ProgressEvent{
			Type:      "done",
			Message:   "对账完成",
			Data:      report,
			Timestamp: time.Now(),
		})
	}()

	return progressChan
}

// Run 同步执行，不产生进度事件
func (c *Coordinator) Run(ctx context.Context, opts ImportOptions) (*RunReport, error) {
	return c.run(ctx, opts, nil)
}

func (c *Coordinator) run(ctx context.Context, opts ImportOptions, progressChan chan ProgressEvent) (*RunReport, error) {
	startTime := time.Now()

	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.Filename == "" {
		opts.Filename = filepath.Base(opts.FilePath)
	}

	rc := &runContext{
		ctx:          ctx,
		opts:         opts,
		progressChan: progressChan,
		logger:       c.logger.With("run_id", opts.RunID, "filename", opts.Filename),
		report: &RunReport{
			RunID:    opts.RunID,
			Filename: opts.Filename,
		},
	}

	c.sendProgress(progressChan, ProgressEvent{
		Type:    "start",
		Message: "开始对账",
		Data: map[string]string{
			"run_id":   opts.RunID,
			"filename": opts.Filename,
		},
		Timestamp: time.Now(),
	})

	run := &model.Run{
		ID:       opts.RunID,
		Filename: opts.Filename,
		FilePath: opts.FilePath,
	}
	if info, err := os.Stat(opts.FilePath); err == nil {
		run.FileSize = info.Size()
	}
	if err := c.store.CreateRun(run); err != nil {
		return rc.report, err
	}

	if err := c.process(rc); err != nil {
		rc.logger.Error("run failed", "error", err)
		if ferr := c.store.FailRun(opts.RunID, err.Error()); ferr != nil {
			rc.logger.Warn("failed to mark run as failed", "error", ferr)
		}
		return rc.report, err
	}

	rc.report.Duration = time.Since(startTime)
	rc.logger.Info("run completed",
		"records", rc.report.Summary.TotalRecords,
		"stacks", rc.report.Summary.TotalStacks,
		"failures", rc.report.Summary.FailureTotal(),
		"duration", rc.report.Duration)
	return rc.report, nil
}

// process 打开 -> 识别 -> 解析 -> 对账 -> 导出 -> 拆分 -> 上传 -> 落库
func (c *Coordinator) process(rc *runContext) error {
	file, err := excelize.OpenFile(rc.opts.FilePath)
	if err != nil {
		return fmt.Errorf("打开文件失败: %w", err)
	}
	defer file.Close()

	sheet, err := c.parseSheet(rc, file)
	if err != nil {
		return err
	}

	result, err := c.reconcile(rc, sheet.Records)
	if err != nil {
		return err
	}
	rc.report.Summary = result.Summary
	rc.report.Stacks = result.Stacks

	in := exporter.Input{
		Headers:     sheet.Headers,
		Records:     sheet.Records,
		Result:      result,
		DateColumns: c.cfg.Reconcile.DateColumnNames(),
	}
	if err := c.export(rc, in); err != nil {
		return err
	}

	if rc.opts.Split {
		if err := c.split(rc, in); err != nil {
			return err
		}
	}

	if c.publisher != nil {
		c.publish(rc)
	}

	if err := c.store.CompleteRun(rc.opts.RunID, sheet.SheetName, rc.report.ExportPath, result.Summary, result.Stacks); err != nil {
		return err
	}
	c.updateCurrentRun(rc)
	return nil
}

// parseSheet 定位并解析装载表，记录 Sheet 元数据
func (c *Coordinator) parseSheet(rc *runContext, file *excelize.File) (*parser.Loadsheet, error) {
	sheetStartTime := time.Now()
	p := parser.NewLoadsheetParser(file, c.cfg.Reconcile.DateColumnNames())

	recognition, err := p.FindSheet(c.cfg.Reconcile.SheetName)
	if err != nil {
		return nil, fmt.Errorf("识别装载表失败: %w", err)
	}

	c.sendProgress(rc.progressChan, ProgressEvent{
		Type:    "info",
		Message: fmt.Sprintf("Sheet \"%s\" 识别为: %s (置信度: %.2f)", recognition.SheetName, recognition.SheetType, recognition.Confidence),
		Data: map[string]interface{}{
			"sheet_name": recognition.SheetName,
			"sheet_type": recognition.SheetType,
			"confidence": recognition.Confidence,
		},
		Timestamp: time.Now(),
	})
	c.sendProgress(rc.progressChan, ProgressEvent{
		Type:    "sheet_start",
		Message: fmt.Sprintf("正在解析 Sheet: %s", recognition.SheetName),
		Data: map[string]string{
			"sheet_name": recognition.SheetName,
		},
		Timestamp: time.Now(),
	})

	sheet, err := p.ParseSheet(recognition.SheetName)
	if err != nil {
		c.recordSheetMeta(rc, recognition, nil, err)
		return nil, fmt.Errorf("解析 Sheet %s 失败: %w", recognition.SheetName, err)
	}
	c.recordSheetMeta(rc, recognition, sheet, nil)

	rc.report.Sheet = parser.ParseResult{
		SheetName:    sheet.SheetName,
		SheetType:    recognition.SheetType,
		Status:       "imported",
		ImportedRows: len(sheet.Records),
		SkippedRows:  sheet.Skipped,
		Duration:     time.Since(sheetStartTime),
	}
	c.sendProgress(rc.progressChan, ProgressEvent{
		Type:      "sheet_done",
		Message:   fmt.Sprintf("Sheet %s 解析完成: %d 行", sheet.SheetName, len(sheet.Records)),
		Data:      rc.report.Sheet,
		Timestamp: time.Now(),
	})
	return sheet, nil
}

// recordSheetMeta 记录 Sheet 元数据；失败只告警
func (c *Coordinator) recordSheetMeta(rc *runContext, recognition parser.SheetRecognitionResult, sheet *parser.Loadsheet, parseErr error) {
	meta := model.SheetMeta{
		RunID:      rc.opts.RunID,
		SheetName:  recognition.SheetName,
		SheetType:  string(recognition.SheetType),
		Confidence: recognition.Confidence,
		Status:     "imported",
	}
	if parseErr != nil {
		meta.Status = "error"
		meta.ErrorMessage = parseErr.Error()
	}
	if sheet != nil {
		mapping := make(map[int]string, len(sheet.Mappings))
		for idx, m := range sheet.Mappings {
			mapping[idx] = m.Field
		}
		meta.TotalRows = len(sheet.Records) + sheet.Skipped
		meta.TotalColumns = len(sheet.Headers)
		meta.ImportedRows = len(sheet.Records)
		meta.ColumnsJSON = store.BuildColumnsJSON(sheet.Headers)
		meta.ColumnMappingJSON = store.BuildMappingJSON(mapping)
	}
	if err := c.store.InsertSheetMeta(meta); err != nil {
		c.warn(rc, fmt.Sprintf("记录 Sheet 元数据失败: %v", err))
	}
}

func (c *Coordinator) reconcile(rc *runContext, records []model.Record) (*reconcile.Result, error) {
	opts, err := c.cfg.Reconcile.Options()
	if err != nil {
		return nil, fmt.Errorf("对账配置无效: %w", err)
	}

	engine := reconcile.New(opts, rc.logger)
	result, err := engine.Reconcile(rc.ctx, records)
	if err != nil {
		return nil, fmt.Errorf("对账失败: %w", err)
	}

	s := result.Summary
	c.sendProgress(rc.progressChan, ProgressEvent{
		Type:      "info",
		Message:   fmt.Sprintf("对账完成: %d 条记录, %d 个 Stack, %d 条重复", s.TotalRecords, s.TotalStacks, s.DuplicateRecords),
		Data:      s,
		Timestamp: time.Now(),
	})
	if n := s.FailureTotal(); n > 0 {
		c.warn(rc, fmt.Sprintf("%d 条记录存在错误，详见 Errors 列", n))
	}
	if len(s.UnresolvedStacks) > 0 {
		c.warn(rc, fmt.Sprintf("%d 个 Stack 无法确定最新版本", len(s.UnresolvedStacks)))
	}
	return result, nil
}

// export 写出对账工作簿并登记产物
func (c *Coordinator) export(rc *runContext, in exporter.Input) error {
	exportPath := rc.opts.ExportPath
	if exportPath == "" {
		exportPath = config.GetDataPath(c.cfg, "exports", rc.opts.RunID+".xlsx")
	}
	if err := os.MkdirAll(filepath.Dir(exportPath), 0755); err != nil {
		return fmt.Errorf("创建导出目录失败: %w", err)
	}

	f, err := exporter.NewExporter().Export(in, func(p exporter.ProgressEvent) {
		c.sendProgress(rc.progressChan, ProgressEvent{
			Type:    "info",
			Message: p.Stage,
			Data: map[string]interface{}{
				"stage":   "export",
				"percent": p.Percent,
			},
			Timestamp: time.Now(),
		})
	})
	if err != nil {
		return fmt.Errorf("导出失败: %w", err)
	}
	defer f.Close()

	if err := f.SaveAs(exportPath); err != nil {
		return fmt.Errorf("保存导出文件失败: %w", err)
	}
	rc.report.ExportPath = exportPath

	if err := c.store.AddRunOutput(model.RunOutput{
		RunID: rc.opts.RunID,
		Kind:  model.OutputKindExport,
		Path:  exportPath,
		Rows:  len(in.Records),
	}); err != nil {
		return err
	}
	return nil
}

// split 按 Stack 拆分对账明细
func (c *Coordinator) split(rc *runContext, in exporter.Input) error {
	headers, rows, err := exporter.ReconciledRows(in)
	if err != nil {
		return err
	}
	// Stack ID 是追加的第一个输出列
	stackColumn := len(in.Headers)

	splitDir := rc.opts.SplitDir
	if splitDir == "" {
		splitDir = config.GetDataPath(c.cfg, "splits", rc.opts.RunID)
	}
	if err := os.MkdirAll(splitDir, 0755); err != nil {
		return fmt.Errorf("创建拆分目录失败: %w", err)
	}

	sp := splitter.New(splitter.Options{
		RowsPerSheet:     c.cfg.Split.RowsPerSheet,
		BaseName:         c.cfg.Split.BaseName,
		ImportCodePrefix: c.cfg.Split.ImportCodePrefix,
		Workers:          c.cfg.Reconcile.Workers,
	}, rc.logger)
	outputs, plan, err := sp.Split(rc.ctx, headers, rows, stackColumn, splitDir)
	if err != nil {
		return fmt.Errorf("拆分失败: %w", err)
	}

	diag := plan.Diagnostics
	rc.report.Splits = outputs
	rc.report.SplitPlan = &diag
	if diag.OversizedStackCount > 0 {
		c.warn(rc, fmt.Sprintf("%d 个 Stack 超过每表行数上限 %d (最大 %d 行)，已整体保留", diag.OversizedStackCount, c.cfg.Split.RowsPerSheet, diag.MaxStackSize))
	}

	for _, out := range outputs {
		if err := c.store.AddRunOutput(model.RunOutput{
			RunID:      rc.opts.RunID,
			Kind:       model.OutputKindSplit,
			Path:       out.Path,
			ImportCode: out.ImportCode,
			Rows:       out.Rows,
		}); err != nil {
			return err
		}
	}

	c.sendProgress(rc.progressChan, ProgressEvent{
		Type:      "info",
		Message:   fmt.Sprintf("拆分为 %d 个文件", len(outputs)),
		Data:      outputs,
		Timestamp: time.Now(),
	})
	return nil
}

// publish 上传产物；失败只告警，本地文件已保留
func (c *Coordinator) publish(rc *runContext) {
	paths := []string{rc.report.ExportPath}
	for _, out := range rc.report.Splits {
		paths = append(paths, out.Path)
	}

	published, err := c.publisher.Publish(rc.ctx, rc.opts.RunID, paths)
	if err != nil {
		c.warn(rc, fmt.Sprintf("上传失败: %v", err))
		return
	}
	rc.report.Published = published

	for _, p := range published {
		if err := c.store.SetOutputRemoteURI(rc.opts.RunID, p.Path, p.URI); err != nil {
			c.warn(rc, fmt.Sprintf("记录远端地址失败: %v", err))
		}
	}
	c.sendProgress(rc.progressChan, ProgressEvent{
		Type:      "info",
		Message:   fmt.Sprintf("已上传 %d 个文件", len(published)),
		Data:      published,
		Timestamp: time.Now(),
	})
}

// updateCurrentRun 更新配置中的当前任务
func (c *Coordinator) updateCurrentRun(rc *runContext) {
	if err := c.store.SetCurrentRunID(rc.opts.RunID); err != nil {
		c.warn(rc, fmt.Sprintf("更新当前任务失败: %v", err))
	}
}

func (c *Coordinator) warn(rc *runContext, message string) {
	rc.logger.Warn(message)
	c.sendProgress(rc.progressChan, ProgressEvent{
		Type:      "warning",
		Message:   message,
		Timestamp: time.Now(),
	})
}

// sendProgress 发送进度事件
func (c *Coordinator) sendProgress(ch chan ProgressEvent, event ProgressEvent) {
	if ch == nil {
		return
	}
	select {
	case ch <- event:
	default:
		// 通道已满，丢弃事件
	}
}

// sendFinal 终止事件不丢弃，除非调用方已取消
func (c *Coordinator) sendFinal(ctx context.Context, ch chan ProgressEvent, event ProgressEvent) {
	select {
	case ch <- event:
	case <-ctx.Done():
	}
}

// IsCancelled 任务是否因取消而失败
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
