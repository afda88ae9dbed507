package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/park-rs485/internal/envelope"
	"github.com/taoyao-code/park-rs485/internal/service"
	"github.com/taoyao-code/park-rs485/internal/storage"
	"github.com/taoyao-code/park-rs485/internal/storage/models"
)

// DisplayService 场景与指令下发
type DisplayService interface {
	Scene(ctx context.Context, code, name string, req service.SceneRequest) (*service.Result, error)
	Command(ctx context.Context, code, name string, req service.CommandRequest) (*service.Result, error)
}

// KioskHandler 一体机下发与管理
type KioskHandler struct {
	svc      DisplayService
	kiosks   storage.KioskRepo
	dispatch storage.DispatchRepo
	logger   *zap.Logger
}

// NewKioskHandler dispatch 可为 nil（不记录流水）
func NewKioskHandler(svc DisplayService, kiosks storage.KioskRepo, dispatch storage.DispatchRepo, logger *zap.Logger) *KioskHandler {
	return &KioskHandler{svc: svc, kiosks: kiosks, dispatch: dispatch, logger: logger}
}

// DispatchView 下发结果
type DispatchView struct {
	DispatchID string             `json:"dispatch_id,omitempty"`
	Kiosk      string             `json:"kiosk"`
	Sink       string             `json:"sink,omitempty"`
	Target     string             `json:"target,omitempty"`
	Frames     []string           `json:"frames"`
	Envelope   *envelope.Envelope `json:"envelope"`
	Error      string             `json:"error,omitempty"`
}

func newDispatchView(code string, res *service.Result) *DispatchView {
	v := &DispatchView{Kiosk: code, Envelope: res.Envelope, Frames: make([]string, len(res.Packets))}
	for i, p := range res.Packets {
		v.Frames[i] = p.Hex()
	}
	if res.Record != nil {
		v.DispatchID = res.Record.DispatchID
		v.Sink = res.Record.Sink
		v.Target = res.Record.Target
		v.Error = res.Record.Error
	}
	return v
}

func (h *KioskHandler) respondResult(c *gin.Context, code, op string, res *service.Result, err error) {
	if err != nil {
		status := statusFor(err)
		var data interface{}
		if res != nil {
			// 报文已生成，投递失败时仍返回便于排查
			data = newDispatchView(code, res)
		}
		if status >= http.StatusInternalServerError {
			h.logger.Warn("kiosk request failed", zap.String("kiosk", code), zap.String("op", op), zap.Error(err))
		}
		respondWithError(c, status, err.Error(), data)
		return
	}
	respondOK(c, "下发成功", newDispatchView(code, res))
}

// Scene 下发业务场景
// POST /api/kiosks/:code/scenes/:scene
func (h *KioskHandler) Scene(c *gin.Context) {
	code, scene := c.Param("code"), c.Param("scene")

	var req service.SceneRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, fmt.Sprintf("无效的请求: %v", err), nil)
			return
		}
	}
	res, err := h.svc.Scene(c.Request.Context(), code, scene, req)
	h.respondResult(c, code, scene, res, err)
}

// Command 下发原子指令
// POST /api/kiosks/:code/commands/:command
func (h *KioskHandler) Command(c *gin.Context) {
	code, cmd := c.Param("code"), c.Param("command")

	var req service.CommandRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, fmt.Sprintf("无效的请求: %v", err), nil)
			return
		}
	}
	res, err := h.svc.Command(c.Request.Context(), code, cmd, req)
	h.respondResult(c, code, cmd, res, err)
}

// ListKiosks 分页查询一体机
// GET /api/kiosks?limit=&offset=
func (h *KioskHandler) ListKiosks(c *gin.Context) {
	limit := queryInt(c, "limit", 100)
	offset := queryInt(c, "offset", 0)

	list, err := h.kiosks.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	respondOK(c, "ok", gin.H{"kiosks": list})
}

// GetKiosk 查询单台一体机
func (h *KioskHandler) GetKiosk(c *gin.Context) {
	k, err := h.kiosks.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondWithError(c, statusFor(err), err.Error(), nil)
		return
	}
	respondOK(c, "ok", k)
}

// UpsertKioskRequest 一体机登记
type UpsertKioskRequest struct {
	Name       string `json:"name"`
	ScreenType int    `json:"screen_type" binding:"min=0,max=6"`
	Profile    string `json:"profile" binding:"omitempty,oneof=standard color small_vertical tts card"`
	Address    int    `json:"address" binding:"min=0,max=255"`
	GatewayID  string `json:"gateway_id"`
	Sink       string `json:"sink" binding:"omitempty,oneof=inline redis mqtt serial"`
	Direction  string `json:"direction" binding:"omitempty,oneof=entry exit"`
}

// UpsertKiosk 新增或更新一体机
// PUT /api/kiosks/:code
func (h *KioskHandler) UpsertKiosk(c *gin.Context) {
	var req UpsertKioskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusBadRequest, fmt.Sprintf("无效的请求: %v", err), nil)
		return
	}
	k := &models.Kiosk{
		Code:       c.Param("code"),
		Name:       req.Name,
		ScreenType: req.ScreenType,
		Profile:    req.Profile,
		Address:    req.Address,
		GatewayID:  req.GatewayID,
		Sink:       req.Sink,
		Direction:  req.Direction,
	}
	if k.Sink == "" {
		k.Sink = models.SinkInline
	}
	if k.Direction == "" {
		k.Direction = models.DirectionEntry
	}
	if err := h.kiosks.Upsert(c.Request.Context(), k); err != nil {
		respondWithError(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	h.logger.Info("kiosk upserted", zap.String("kiosk", k.Code), zap.String("sink", k.Sink), zap.Int("screen_type", k.ScreenType))
	respondOK(c, "保存成功", k)
}

// ListDispatches 最近下发流水
// GET /api/kiosks/:code/dispatches?limit=
func (h *KioskHandler) ListDispatches(c *gin.Context) {
	if h.dispatch == nil {
		respondWithError(c, http.StatusNotImplemented, "未启用下发流水", nil)
		return
	}
	list, err := h.dispatch.ListRecent(c.Request.Context(), c.Param("code"), queryInt(c, "limit", 20))
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	respondOK(c, "ok", gin.H{"dispatches": list})
}

func queryInt(c *gin.Context, key string, def int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
