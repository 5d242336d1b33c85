package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"docstack/internal/api"
	"docstack/internal/config"
	"docstack/internal/importer"
	"docstack/internal/publish"
	"docstack/internal/store"
)

// Server HTTP服务器
type Server struct {
	router  *gin.Engine
	store   *store.Store
	api     *api.Handler
	closers []func() error
}

// NewServer 按配置创建服务器：打开数据库，按需连接 GCS
func NewServer(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "docstack.db")

	sqliteStore, err := store.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	coordinator := importer.NewCoordinator(sqliteStore, cfg, logger)
	s := New(cfg, sqliteStore, coordinator, logger)
	s.closers = append(s.closers, sqliteStore.Close)

	if cfg.Publish.Bucket != "" {
		publisher, closeFn, err := publish.NewGCS(ctx, cfg.Publish, logger)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		coordinator.SetPublisher(publisher)
		s.closers = append(s.closers, closeFn)
		logger.Info("publishing enabled", "bucket", cfg.Publish.Bucket, "prefix", cfg.Publish.Prefix)
	}

	return s, nil
}

// New 使用已有的存储与协调器创建服务器
func New(cfg *config.AppConfig, st *store.Store, coordinator *importer.Coordinator, logger *slog.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Server.DevMode {
		router.Use(gin.Logger())
	}

	s := &Server{
		router: router,
		store:  st,
		api:    api.NewHandler(st, cfg, coordinator, logger),
	}
	s.setupRoutes()
	return s
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	apiGroup := s.router.Group("/api")
	{
		s.api.RegisterRoutes(apiGroup)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}

// Handler 返回 http.Handler（用于测试与自定义监听）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Close 释放数据库与 GCS 客户端
func (s *Server) Close() error {
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.closers = nil
	return firstErr
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}
