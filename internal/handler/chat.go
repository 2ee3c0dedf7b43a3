package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Cang-Fang/xingchen-dialogue/internal/service"
	"github.com/Cang-Fang/xingchen-dialogue/internal/spark"
	"github.com/Cang-Fang/xingchen-dialogue/internal/storage"
)

// Chat 处理聊天请求
func Chat(svc *service.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			SessionID string `json:"session_id"`
			Message   string `json:"message" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "消息不能为空", "success": false})
			return
		}

		sessionID := req.SessionID
		if sessionID == "" {
			sessionID = uuid.New().String()
		}

		resp, err := svc.Chat(c.Request.Context(), sessionID, req.Message)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error(), "success": false})
			return
		}

		refInfo := resp.RefInfo
		if refInfo == nil {
			refInfo = []json.RawMessage{}
		}
		c.JSON(http.StatusOK, gin.H{
			"session_id": sessionID,
			"response":   resp.Text,
			"ref_info":   refInfo,
			"success":    true,
		})
	}
}

// statusFor 把核心错误映射为HTTP状态码
func statusFor(err error) int {
	var provErr *spark.ProviderError
	switch {
	case errors.As(err, &provErr):
		return http.StatusBadGateway
	case errors.Is(err, spark.ErrResponseTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, spark.ErrConnect), errors.Is(err, spark.ErrConnClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ClearContext 清理对话上下文
func ClearContext(svc *service.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			SessionID string `json:"session_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session_id不能为空", "success": false})
			return
		}
		svc.ClearSession(c.Request.Context(), req.SessionID)
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// SessionInfo 获取会话信息
func SessionInfo(svc *service.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"session_count": svc.SessionCount(),
			"success":       true,
		})
	}
}

// Export 导出全部对话历史，仅文件后端支持
func Export(store *storage.FileStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		format := c.DefaultQuery("format", "json")
		content, err := store.Export(format)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
			return
		}
		if format == "txt" {
			c.String(http.StatusOK, content)
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(content))
	}
}
