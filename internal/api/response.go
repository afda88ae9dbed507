package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taoyao-code/park-rs485/internal/service"
	"github.com/taoyao-code/park-rs485/internal/storage"
)

// StandardResponse 标准响应格式
type StandardResponse struct {
	Code      int         `json:"code"`           // 0=成功, >0=错误码
	Message   string      `json:"message"`        // 消息
	Data      interface{} `json:"data,omitempty"` // 业务数据
	RequestID string      `json:"request_id"`     // 请求追踪ID
	Timestamp int64       `json:"timestamp"`      // 时间戳
}

func respondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, StandardResponse{
		Code:      0,
		Message:   message,
		Data:      data,
		RequestID: c.GetString("request_id"),
		Timestamp: time.Now().Unix(),
	})
}

func respondWithError(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, StandardResponse{
		Code:      status,
		Message:   message,
		Data:      data,
		RequestID: c.GetString("request_id"),
		Timestamp: time.Now().Unix(),
	})
}

// statusFor 业务错误映射为 HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case service.IsBadRequest(err):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrDispatch):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
