package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taoyao-code/park-rs485/internal/config"
	"github.com/taoyao-code/park-rs485/internal/gateway"
	"github.com/taoyao-code/park-rs485/internal/protocol/rs485"
	"github.com/taoyao-code/park-rs485/internal/service"
	"github.com/taoyao-code/park-rs485/internal/storage"
	"github.com/taoyao-code/park-rs485/internal/storage/models"
	redisstorage "github.com/taoyao-code/park-rs485/internal/storage/redis"
)

type brokenSink struct{}

func (brokenSink) Name() string { return models.SinkMQTT }

func (brokenSink) Deliver(context.Context, *gateway.Delivery) error { return errors.New("broker down") }

type fakeQueue struct {
	msgs []*redisstorage.QueuedEnvelope
}

func (q *fakeQueue) Pop(context.Context, string) (*redisstorage.QueuedEnvelope, error) {
	if len(q.msgs) == 0 {
		return nil, nil
	}
	m := q.msgs[0]
	q.msgs = q.msgs[1:]
	return m, nil
}

func (q *fakeQueue) Len(context.Context, string) (int64, error) { return int64(len(q.msgs)), nil }

type envelopeResp struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	RequestID string          `json:"request_id"`
}

func newTestEngine(t *testing.T, queue GatewayQueue) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	kiosks := storage.NewMemoryKioskRepo(
		models.Kiosk{Code: "K1", ScreenType: 4, Sink: models.SinkInline},
		models.Kiosk{Code: "K2", ScreenType: 5, Sink: models.SinkMQTT, GatewayID: "gw-2"},
	)
	logs := storage.NewMemoryDispatchRepo(20)
	router := gateway.NewRouter(zap.NewNop(), gateway.WithDispatchLog(logs))
	router.Register(brokenSink{})
	svc := service.NewDisplayService(kiosks, rs485.NewPool(nil), router, nil, zap.NewNop(), 0)

	r := gin.New()
	RegisterRoutes(r, Deps{Service: svc, Kiosks: kiosks, Dispatch: logs, Queue: queue}, config.APIConfig{}, zap.NewNop())
	return r
}

func call(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelopeResp) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp envelopeResp
	if w.Body.Len() > 0 && w.Code != http.StatusNoContent {
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
	}
	return w, resp
}

func TestSceneEndpoint(t *testing.T) {
	r := newTestEngine(t, nil)

	t.Run("入场下发成功", func(t *testing.T) {
		w, resp := call(t, r, http.MethodPost, "/api/kiosks/K1/scenes/entry", map[string]interface{}{"plate": "渝A12345", "spaces": 7})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 0, resp.Code)
		assert.NotEmpty(t, resp.RequestID)

		var view DispatchView
		require.NoError(t, json.Unmarshal(resp.Data, &view))
		assert.Len(t, view.Frames, 6)
		assert.Equal(t, "inline", view.Sink)
		assert.Equal(t, view.Frames[0], view.Envelope.RS485Data[0].Data)
	})

	t.Run("无请求体", func(t *testing.T) {
		w, _ := call(t, r, http.MethodPost, "/api/kiosks/K1/scenes/welcome", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("一体机不存在", func(t *testing.T) {
		w, resp := call(t, r, http.MethodPost, "/api/kiosks/NONE/scenes/welcome", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("未知场景", func(t *testing.T) {
		w, _ := call(t, r, http.MethodPost, "/api/kiosks/K1/scenes/parade", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("通道失败仍返回报文", func(t *testing.T) {
		w, resp := call(t, r, http.MethodPost, "/api/kiosks/K2/scenes/welcome", nil)
		require.Equal(t, http.StatusBadGateway, w.Code)

		var view DispatchView
		require.NoError(t, json.Unmarshal(resp.Data, &view))
		assert.Len(t, view.Frames, 4)
		assert.Equal(t, "gw-2", view.Target)
		assert.Contains(t, view.Error, "broker down")
	})
}

func TestCommandEndpoint(t *testing.T) {
	r := newTestEngine(t, nil)

	w, resp := call(t, r, http.MethodPost, "/api/kiosks/K1/commands/display", map[string]interface{}{
		"lines": []map[string]interface{}{{"line": 1, "color": 2, "text": "欢迎光临"}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var view DispatchView
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	require.Len(t, view.Frames, 1)

	f, err := rs485.ParseFrameHex(view.Frames[0], rs485.CRCZeroFilledBE)
	require.NoError(t, err)
	assert.Equal(t, byte(rs485.CmdLoadTempDisplay), f.Command)

	w, _ = call(t, r, http.MethodPost, "/api/kiosks/K1/commands/display", map[string]interface{}{
		"lines": []map[string]interface{}{{"line": 12, "text": "x"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = call(t, r, http.MethodPost, "/api/kiosks/K1/commands/display", "not-an-object")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestKioskEndpoints(t *testing.T) {
	r := newTestEngine(t, nil)

	w, _ := call(t, r, http.MethodPut, "/api/kiosks/K9", map[string]interface{}{"screen_type": 6, "profile": "lcd"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = call(t, r, http.MethodPut, "/api/kiosks/K9", map[string]interface{}{"name": "东门出口", "screen_type": 6, "direction": "exit"})
	require.Equal(t, http.StatusOK, w.Code)

	w, resp := call(t, r, http.MethodGet, "/api/kiosks/K9", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var k models.Kiosk
	require.NoError(t, json.Unmarshal(resp.Data, &k))
	assert.Equal(t, models.SinkInline, k.Sink)
	assert.Equal(t, models.DirectionExit, k.Direction)

	w, resp = call(t, r, http.MethodGet, "/api/kiosks?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Kiosks []models.Kiosk `json:"kiosks"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	require.Len(t, list.Kiosks, 2)
	assert.Equal(t, "K1", list.Kiosks[0].Code)

	call(t, r, http.MethodPost, "/api/kiosks/K1/scenes/welcome", nil)
	w, resp = call(t, r, http.MethodGet, "/api/kiosks/K1/dispatches", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ds struct {
		Dispatches []models.DispatchRecord `json:"dispatches"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &ds))
	require.Len(t, ds.Dispatches, 1)
	assert.Equal(t, "welcome", ds.Dispatches[0].Scene)
	assert.Equal(t, 4, ds.Dispatches[0].FrameCount)
}

func TestVerifyFrames(t *testing.T) {
	r := newTestEngine(t, nil)

	type result struct {
		Valid  bool        `json:"valid"`
		Frames []FrameView `json:"frames"`
	}

	w, resp := call(t, r, http.MethodPost, "/api/frames/verify", map[string]string{"hex": "AA550164002200010B0776AF"})
	require.Equal(t, http.StatusOK, w.Code)
	var got result
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	assert.True(t, got.Valid)
	assert.Equal(t, "0x22", got.Frames[0].Command)
	assert.Equal(t, "0B", got.Frames[0].Payload)
	assert.Equal(t, "0776", got.Frames[0].CRC)

	_, resp = call(t, r, http.MethodPost, "/api/frames/verify", map[string]string{"hex": "AA550164002200010B0777AF"})
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	assert.False(t, got.Valid)
	assert.Contains(t, got.Frames[0].Error, "crc mismatch")

	w, _ = call(t, r, http.MethodPost, "/api/frames/verify", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = call(t, r, http.MethodPost, "/api/frames/verify", map[string]string{"hex": "ZZ"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGatewayPull(t *testing.T) {
	q := &fakeQueue{msgs: []*redisstorage.QueuedEnvelope{
		{ID: "d-1", Envelope: json.RawMessage(`{"error_str":"noerror"}`)},
	}}
	r := newTestEngine(t, q)

	w, _ := call(t, r, http.MethodGet, "/api/gateways/gw-1/depth", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = call(t, r, http.MethodGet, "/api/gateways/gw-1/next", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "d-1", w.Header().Get("X-Dispatch-ID"))
	assert.JSONEq(t, `{"error_str":"noerror"}`, w.Body.String())

	w, _ = call(t, r, http.MethodGet, "/api/gateways/gw-1/next", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestGatewayRoutesRequireQueue(t *testing.T) {
	r := newTestEngine(t, nil)
	w, _ := call(t, r, http.MethodGet, "/api/gateways/gw-1/next", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
