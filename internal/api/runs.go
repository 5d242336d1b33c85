package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docstack/internal/model"
	"docstack/internal/store"
)

// RunDetailResponse 任务详情
type RunDetailResponse struct {
	Run     *model.Run        `json:"run"`
	Outputs []model.RunOutput `json:"outputs"`
	Sheets  []model.SheetMeta `json:"sheets"`
}

// ListRuns 任务历史
// GET /api/runs?limit=20
func (h *Handler) ListRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的 limit"})
		return
	}

	runs, err := h.store.ListRuns(limit)
	if err != nil {
		h.logger.Error("list runs failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询任务失败"})
		return
	}
	if runs == nil {
		runs = []*model.Run{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// GetRun 任务详情
// GET /api/runs/:id
func (h *Handler) GetRun(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}

	outputs, err := h.store.ListRunOutputs(run.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询产出文件失败"})
		return
	}
	sheets, err := h.store.ListSheetMeta(run.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询 Sheet 信息失败"})
		return
	}
	if outputs == nil {
		outputs = []model.RunOutput{}
	}
	if sheets == nil {
		sheets = []model.SheetMeta{}
	}

	c.JSON(http.StatusOK, RunDetailResponse{
		Run:     run,
		Outputs: outputs,
		Sheets:  sheets,
	})
}

// GetRunStacks 任务的 Stack 汇总
// GET /api/runs/:id/stacks
func (h *Handler) GetRunStacks(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}

	stacks, err := h.store.GetRunStacks(run.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询 Stack 失败"})
		return
	}
	if stacks == nil {
		stacks = []model.StackSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"runId": run.ID, "stacks": stacks})
}

// CreateDownload 为已完成任务的对账结果生成下载地址
// POST /api/runs/:id/download
func (h *Handler) CreateDownload(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}
	if run.Status != model.RunStatusCompleted || run.ExportPath == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "任务未完成"})
		return
	}

	token := h.downloads.put(run.ExportPath, exportFilename(run.Filename), downloadTTL)
	c.JSON(http.StatusOK, gin.H{"downloadUrl": downloadURL(token)})
}

// loadRun 读取路径参数中的任务；失败时已写入响应
func (h *Handler) loadRun(c *gin.Context) (*model.Run, bool) {
	run, err := h.store.GetRun(c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "任务不存在"})
			return nil, false
		}
		h.logger.Error("get run failed", "run_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询任务失败"})
		return nil, false
	}
	return run, true
}
