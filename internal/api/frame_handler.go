package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taoyao-code/park-rs485/internal/envelope"
	"github.com/taoyao-code/park-rs485/internal/protocol/rs485"
)

// VerifyRequest 报文校验；hex 与 envelope 二选一
type VerifyRequest struct {
	Hex      string             `json:"hex"`
	Envelope *envelope.Envelope `json:"envelope"`
	CRC      string             `json:"crc" binding:"omitempty,oneof=be le"` // be=补零高字节在前(默认) le=覆盖包头低字节在前
}

// FrameView 解析后的帧
type FrameView struct {
	Hex     string `json:"hex"`
	Seq     byte   `json:"seq"`
	Address byte   `json:"address"`
	Command string `json:"command"`
	Length  int    `json:"length"`
	Payload string `json:"payload"`
	CRC     string `json:"crc"`
	Valid   bool   `json:"valid"`
	Error   string `json:"error,omitempty"`
}

// VerifyFrames 解析并校验 AA55 帧
// POST /api/frames/verify
func VerifyFrames(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusBadRequest, fmt.Sprintf("无效的请求: %v", err), nil)
		return
	}
	conv := rs485.CRCZeroFilledBE
	if req.CRC == "le" {
		conv = rs485.CRCRawLE
	}

	var frames [][]byte
	switch {
	case req.Envelope != nil:
		fs, err := req.Envelope.Frames()
		if err != nil {
			respondWithError(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		frames = fs
	case req.Hex != "":
		b, err := rs485.HexToBytes(req.Hex)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		frames = [][]byte{b}
	default:
		respondWithError(c, http.StatusBadRequest, "hex 或 envelope 必填", nil)
		return
	}

	views := make([]FrameView, len(frames))
	allValid := true
	for i, raw := range frames {
		views[i] = verifyOne(raw, conv)
		allValid = allValid && views[i].Valid
	}
	respondOK(c, "ok", gin.H{"valid": allValid, "frames": views})
}

func verifyOne(raw []byte, conv rs485.CRCConvention) FrameView {
	v := FrameView{Hex: rs485.ToHexString(raw)}
	f, err := rs485.ParseFrame(raw, conv)
	if err != nil {
		v.Error = err.Error()
		return v
	}
	v.Seq = f.Seq
	v.Address = f.Address
	v.Command = fmt.Sprintf("0x%02X", f.Command)
	v.Length = len(f.Payload)
	v.Payload = rs485.ToHexString(f.Payload)
	v.CRC = fmt.Sprintf("%04X", f.CRC)
	v.Valid = true
	return v
}
