package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/taoyao-code/park-rs485/internal/protocol/rs485"
)

// 单条指令名
const (
	CmdDisplay     = "display"
	CmdAd          = "ad"
	CmdCancel      = "cancel"
	CmdVoice       = "voice"
	CmdQRCode      = "qrcode"
	CmdTTS         = "tts"
	CmdSmallScreen = "small-screen"
	CmdVersion     = "version"
	CmdTime        = "time"
	CmdVolume      = "volume"
	CmdLEDVoice    = "led-voice"
	CmdLEDText     = "led-text"
)

// CommandLine 多行指令中的一行
type CommandLine struct {
	Line     int    `json:"line"`
	Color    int    `json:"color"`
	Text     string `json:"text"`
	Duration int    `json:"duration"`
}

// CommandRequest 原子指令参数，按指令取用其中字段
type CommandRequest struct {
	Lines    []CommandLine `json:"lines"`
	Mask     *int          `json:"mask,omitempty"`
	Indices  []int         `json:"indices"`
	Text     string        `json:"text"`
	Plate    string        `json:"plate"`
	Mode     int           `json:"mode"`
	Color    int           `json:"color"`
	Duration int           `json:"duration"`
	Content  string        `json:"content"`
	Volume   int           `json:"volume"`
	Time     *time.Time    `json:"time,omitempty"`
	GPIO     *GPIO         `json:"gpio,omitempty"`
}

// Command 下发一条（或一组同类）原子指令
func (s *DisplayService) Command(ctx context.Context, code, name string, req CommandRequest) (*Result, error) {
	start := time.Now()
	k, err := s.Kiosk(ctx, code)
	if err != nil {
		return nil, err
	}
	enc, err := s.Encoder(k)
	if err != nil {
		return nil, s.encodeFailed(code, name, err)
	}

	packets, err := BuildCommand(enc, name, req)
	if err != nil {
		return nil, s.encodeFailed(code, name, err)
	}
	return s.deliver(ctx, k, name, packets, req.GPIO, start)
}

// BuildCommand 仅编码不下发
func BuildCommand(enc *rs485.Encoder, name string, req CommandRequest) ([]rs485.Packet, error) {
	b := enc.NewBatch()
	switch name {
	case CmdDisplay:
		if len(req.Lines) == 0 {
			return nil, fmt.Errorf("%w: no display lines", rs485.ErrInvalidArgument)
		}
		for _, l := range req.Lines {
			b.DisplayLine(l.Line, l.Color, l.Text, l.Duration)
		}
	case CmdAd:
		if len(req.Lines) == 0 {
			return nil, fmt.Errorf("%w: no ad lines", rs485.ErrInvalidArgument)
		}
		for _, l := range req.Lines {
			b.LoadAd(l.Line, l.Color, l.Text)
		}
	case CmdCancel:
		if req.Mask == nil {
			b.CancelAll()
		} else {
			b.CancelDisplay(*req.Mask)
		}
	case CmdVoice:
		switch {
		case req.Plate != "":
			idx, err := voiceIndices(req.Indices)
			if err != nil {
				return nil, err
			}
			if len(idx) != 1 {
				return nil, fmt.Errorf("%w: plate voice needs exactly one index", rs485.ErrInvalidArgument)
			}
			b.PlayPlate(req.Plate, idx[0])
		case req.Text != "":
			b.PlayVoiceText(req.Text)
		default:
			idx, err := voiceIndices(req.Indices)
			if err != nil {
				return nil, err
			}
			b.PlayVoice(idx...)
		}
	case CmdQRCode:
		b.QRCode(req.Mode, req.Duration, req.Color, req.Content)
	case CmdTTS:
		b.Speak(req.Text)
	case CmdSmallScreen:
		lines := make([]rs485.ScreenLine, len(req.Lines))
		for i, l := range req.Lines {
			lines[i] = rs485.ScreenLine{Color: l.Color, Text: l.Text}
		}
		b.SmallScreen(lines)
	case CmdVersion:
		b.QueryVersion()
	case CmdTime:
		t := time.Now()
		if req.Time != nil {
			t = *req.Time
		}
		b.SetTime(t)
	case CmdVolume:
		b.SetVolume(req.Volume)
	case CmdLEDVoice:
		p, err := rs485.LEDPlayVoice(enc.TextEncoder(), req.Text)
		if err != nil {
			return nil, err
		}
		return []rs485.Packet{p}, nil
	case CmdLEDText:
		if len(req.Lines) != 1 {
			return nil, fmt.Errorf("%w: led text needs one line", rs485.ErrInvalidArgument)
		}
		l := req.Lines[0]
		if l.Line < 0 || l.Line > 0xFF {
			return nil, fmt.Errorf("%w: led line %d", rs485.ErrInvalidArgument, l.Line)
		}
		if l.Color < 0 || uint64(l.Color) > math.MaxUint32 {
			return nil, fmt.Errorf("%w: led color %d", rs485.ErrInvalidArgument, l.Color)
		}
		p, err := rs485.LEDDisplayText(enc.TextEncoder(), rs485.LEDText{
			Line:  byte(l.Line),
			Text:  l.Text,
			Color: uint32(l.Color),
		})
		if err != nil {
			return nil, err
		}
		return []rs485.Packet{p}, nil
	default:
		return nil, fmt.Errorf("%w: unknown command %q", rs485.ErrInvalidArgument, name)
	}
	return b.Seal()
}

func voiceIndices(in []int) ([]byte, error) {
	out := make([]byte, len(in))
	for i, v := range in {
		if v < 0 || v > 0xFF {
			return nil, fmt.Errorf("%w: voice index %d", rs485.ErrInvalidArgument, v)
		}
		out[i] = byte(v)
	}
	return out, nil
}
