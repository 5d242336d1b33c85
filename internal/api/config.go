package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docstack/internal/config"
)

// ConfigResponse 配置响应
type ConfigResponse struct {
	Reconcile config.ReconcileConfig `json:"reconcile"`
	Split     config.SplitConfig     `json:"split"`
	Publish   PublishView            `json:"publish"`
	State     map[string]string      `json:"state"` // 数据库中的运行状态
}

// PublishView 上传配置（不含 endpoint）
type PublishView struct {
	Enabled bool   `json:"enabled"`
	Bucket  string `json:"bucket,omitempty"`
	Prefix  string `json:"prefix,omitempty"`
}

// GetConfig 获取当前配置
// GET /api/config
func (h *Handler) GetConfig(c *gin.Context) {
	state, err := h.store.GetAllConfig()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取配置失败"})
		return
	}

	c.JSON(http.StatusOK, ConfigResponse{
		Reconcile: h.cfg.Reconcile,
		Split:     h.cfg.Split,
		Publish: PublishView{
			Enabled: h.cfg.Publish.Bucket != "",
			Bucket:  h.cfg.Publish.Bucket,
			Prefix:  h.cfg.Publish.Prefix,
		},
		State: state,
	})
}
