package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"docstack/internal/config"
	"docstack/internal/importer"
	"docstack/internal/store"
)

// Handler API 处理器
type Handler struct {
	store       *store.Store
	cfg         *config.AppConfig
	coordinator *importer.Coordinator
	downloads   *exportDownloadStore
	logger      *slog.Logger
}

// NewHandler 创建 API 处理器
func NewHandler(st *store.Store, cfg *config.AppConfig, coordinator *importer.Coordinator, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:       st,
		cfg:         cfg,
		coordinator: coordinator,
		downloads:   newExportDownloadStore(),
		logger:      logger,
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 配置查看
	router.GET("/config", h.GetConfig)

	// 对账
	router.POST("/reconcile", h.Reconcile)

	// 任务历史
	router.GET("/runs", h.ListRuns)
	router.GET("/runs/:id", h.GetRun)
	router.GET("/runs/:id/stacks", h.GetRunStacks)
	router.POST("/runs/:id/download", h.CreateDownload)

	// 下载
	router.GET("/export/download/:token", h.DownloadExport)
}
