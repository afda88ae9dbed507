package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	redisstorage "github.com/taoyao-code/park-rs485/internal/storage/redis"
)

// GatewayQueue 网关拉取队列
type GatewayQueue interface {
	Pop(ctx context.Context, gateway string) (*redisstorage.QueuedEnvelope, error)
	Len(ctx context.Context, gateway string) (int64, error)
}

// GatewayHandler 串口网关 HTTP 轮询取报文
type GatewayHandler struct {
	queue  GatewayQueue
	logger *zap.Logger
}

func NewGatewayHandler(queue GatewayQueue, logger *zap.Logger) *GatewayHandler {
	return &GatewayHandler{queue: queue, logger: logger}
}

// Next 取出一条待下发报文，队列为空返回 204。
// 响应体即网关报文本身，网关固件直接解析。
// GET /api/gateways/:id/next
func (h *GatewayHandler) Next(c *gin.Context) {
	gw := c.Param("id")
	msg, err := h.queue.Pop(c.Request.Context(), gw)
	if err != nil {
		h.logger.Warn("gateway pop failed", zap.String("gateway", gw), zap.Error(err))
		respondWithError(c, http.StatusServiceUnavailable, err.Error(), nil)
		return
	}
	if msg == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.Header("X-Dispatch-ID", msg.ID)
	c.Data(http.StatusOK, "application/json; charset=utf-8", msg.Envelope)
}

// Depth 队列积压
// GET /api/gateways/:id/depth
func (h *GatewayHandler) Depth(c *gin.Context) {
	gw := c.Param("id")
	n, err := h.queue.Len(c.Request.Context(), gw)
	if err != nil {
		respondWithError(c, http.StatusServiceUnavailable, err.Error(), nil)
		return
	}
	respondOK(c, "ok", gin.H{"gateway": gw, "depth": n})
}
