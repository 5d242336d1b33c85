package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docstack/internal/config"
	"docstack/internal/importer"
)

// downloadTTL 下载链接有效期
const downloadTTL = 10 * time.Minute

// Reconcile 上传装载表并对账 (SSE 流式响应)
// POST /api/reconcile
func (h *Handler) Reconcile(c *gin.Context) {
	uploadedFile, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未找到上传文件"})
		return
	}

	ext := strings.ToLower(filepath.Ext(uploadedFile.Filename))
	if ext != ".xlsx" && ext != ".xlsm" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "仅支持 .xlsx / .xlsm 文件"})
		return
	}

	// 上传文件按任务 id 保存，任务记录中保留路径
	runID := uuid.NewString()
	uploadPath := config.GetDataPath(h.cfg, "uploads", runID+ext)
	if err := os.MkdirAll(filepath.Dir(uploadPath), 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建上传目录失败"})
		return
	}
	if err := c.SaveUploadedFile(uploadedFile, uploadPath); err != nil {
		h.logger.Error("save upload failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存文件失败"})
		return
	}

	split := h.cfg.Split.Enabled
	if v, ok := c.GetPostForm("split"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			split = b
		}
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "不支持流式响应"})
		return
	}

	// 设置 SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	progressChan := h.coordinator.Import(c.Request.Context(), importer.ImportOptions{
		FilePath: uploadPath,
		Filename: uploadedFile.Filename,
		RunID:    runID,
		Split:    split,
	})

	for event := range progressChan {
		if event.Type == "done" {
			event.Data = h.withDownload(event.Data)
		}

		eventData, err := json.Marshal(event)
		if err != nil {
			continue
		}

		// SSE 格式: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", eventData)
		flusher.Flush()
	}
}

// withDownload 为完成事件附加一次性下载地址
func (h *Handler) withDownload(data interface{}) interface{} {
	report, ok := data.(*importer.RunReport)
	if !ok || report.ExportPath == "" {
		return data
	}
	token := h.downloads.put(report.ExportPath, exportFilename(report.Filename), downloadTTL)
	return gin.H{
		"report":      report,
		"downloadUrl": downloadURL(token),
	}
}

func downloadURL(token string) string {
	return "/api/export/download/" + token
}

// exportFilename 对账结果的下载文件名: <原文件名>-reconciled.xlsx
func exportFilename(source string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if base == "" || base == "." {
		base = "loadsheet"
	}
	return base + "-reconciled.xlsx"
}

