package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docstack/internal/model"
	"docstack/internal/store"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Database     string     `json:"database"`     // ok 或 unavailable
	Initialized  bool       `json:"initialized"`  // 是否已有完成的任务
	CurrentRunID string     `json:"currentRunId"` // 最近一次完成的任务
	RunCount     int        `json:"runCount"`     // 完成的任务数
	CurrentRun   *model.Run `json:"currentRun,omitempty"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	if err := h.store.Ping(); err != nil {
		h.logger.Error("database ping failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, StatusResponse{Database: "unavailable"})
		return
	}

	runID, err := h.store.GetCurrentRunID()
	if err != nil || runID == "" {
		c.JSON(http.StatusOK, StatusResponse{
			Database:    "ok",
			Initialized: false,
		})
		return
	}

	runCount, err := h.store.GetConfigInt(store.ConfigRunCount)
	if err != nil {
		runCount = 0
	}

	resp := StatusResponse{
		Database:     "ok",
		Initialized:  true,
		CurrentRunID: runID,
		RunCount:     runCount,
	}
	if run, err := h.store.GetRun(runID); err == nil {
		resp.CurrentRun = run
	}
	c.JSON(http.StatusOK, resp)
}
