package rs485

import (
	"encoding/binary"
	"fmt"
)

// 旧版 LED 控制卡协议：ADDR(00) 64 FF FF CMD LEN DATA CRClo CRChi
// 不带帧序号，与 AA55 帧不可混用

const (
	LEDCmdPlayVoice = 0x30
	LEDCmdDisText   = 0x62
	LEDCmdMultiLine = 0x6E
	LEDCmdQRCode    = 0xE1
)

// LED 字体颜色（32 位 RGBA，低字节为红）
const (
	LEDColorRed    uint32 = 0x000000FF
	LEDColorGreen  uint32 = 0x0000FF00
	LEDColorYellow uint32 = 0x0000FFFF
)

// LEDPacket 旧版 LED 指令包
type LEDPacket struct {
	Command byte
	raw     []byte
}

// Bytes 完整包字节
func (p *LEDPacket) Bytes() []byte { return p.raw }

// Hex 大写十六进制
func (p *LEDPacket) Hex() string { return ToHexString(p.raw) }

// Kind 包类别
func (p *LEDPacket) Kind() PacketKind { return PacketLED }

func ledHeader(cmd byte, n int) []byte {
	buf := make([]byte, 0, 8+n)
	return append(buf, 0x00, 0x64, 0xFF, 0xFF, cmd, byte(n))
}

func sealLED(cmd byte, buf []byte) *LEDPacket {
	buf = binary.LittleEndian.AppendUint16(buf, CRC16(buf))
	return &LEDPacket{Command: cmd, raw: buf}
}

func appendColor(buf []byte, c uint32) []byte {
	return binary.LittleEndian.AppendUint32(buf, c)
}

// LEDPlayVoice 播放语音文本（0x30）
func LEDPlayVoice(te *TextEncoder, text string) (*LEDPacket, error) {
	if te == nil {
		te = DefaultText
	}
	tb := te.Bytes(text)
	if 1+len(tb) >= 255 {
		return nil, fmt.Errorf("%w: voice text %d bytes", ErrPayloadTooLarge, len(tb))
	}
	buf := ledHeader(LEDCmdPlayVoice, 1+len(tb))
	buf = append(buf, 0x01) // 播放选项
	buf = append(buf, tb...)
	return sealLED(LEDCmdPlayVoice, buf), nil
}

// LEDText 单行显示参数
type LEDText struct {
	Line      byte
	Text      string
	Mode      byte // 显示/退出模式
	Speed     byte
	DelayTime byte
	Times     byte
	Color     uint32 // 0 使用红色
}

// LEDDisplayText 单行文本显示（0x62）
func LEDDisplayText(te *TextEncoder, t LEDText) (*LEDPacket, error) {
	if te == nil {
		te = DefaultText
	}
	tb := te.Bytes(t.Text)
	if 20+len(tb) >= 255 {
		return nil, fmt.Errorf("%w: display text %d bytes", ErrPayloadTooLarge, len(tb))
	}
	color := t.Color
	if color == 0 {
		color = LEDColorRed
	}

	buf := ledHeader(LEDCmdDisText, 19+len(tb))
	buf = append(buf,
		t.Line,
		t.Mode,
		t.Speed,
		0x00, // 停留模式
		t.DelayTime,
		t.Mode, // 退出模式
		0x01,   // 退出速度
		0x03,   // 字体
		t.Times,
	)
	buf = appendColor(buf, color)
	buf = append(buf, 0x00, 0x00, 0x00, 0x00) // 背景色
	buf = append(buf, byte(len(tb)), 0x00)
	buf = append(buf, tb...)
	return sealLED(LEDCmdDisText, buf), nil
}

// LEDLine 多行显示中的一行
type LEDLine struct {
	LID       byte
	Mode      byte
	DelayTime byte
	Times     byte
	Color     uint32
	Text      string
}

// LEDMultiLineAndVoice 多行临显并播报（0x6E），voice 为空时不播报
func LEDMultiLineAndVoice(te *TextEncoder, lines []LEDLine, voice string) (*LEDPacket, error) {
	if te == nil {
		te = DefaultText
	}
	if len(lines) == 0 {
		return nil, invalidArg("no display lines")
	}

	buf := ledHeader(LEDCmdMultiLine, 0)
	buf = append(buf, 0x00, byte(len(lines))) // 文本类型：0 临时信息
	for i, l := range lines {
		buf = append(buf, l.LID, l.Mode, 0x01, l.DelayTime, l.Times)
		buf = appendColor(buf, l.Color)

		tb := te.Bytes(l.Text)
		if len(buf)+len(tb) >= 255 {
			return nil, fmt.Errorf("%w: line %d overflows packet", ErrPayloadTooLarge, i+1)
		}
		buf = append(buf, byte(len(tb)))
		buf = append(buf, tb...)
		if i == len(lines)-1 {
			buf = append(buf, 0x00)
		} else {
			buf = append(buf, 0x0D)
		}
	}

	vb := te.Bytes(voice)
	if len(vb) > 0 {
		buf = append(buf, 0x0A, byte(len(vb)))
		if len(buf)+len(vb) >= 255 {
			return nil, fmt.Errorf("%w: voice overflows packet", ErrPayloadTooLarge)
		}
		buf = append(buf, vb...)
	} else {
		buf = append(buf, 0x00)
	}
	buf = append(buf, 0x00)
	buf[5] = byte(len(buf) - 6)
	return sealLED(LEDCmdMultiLine, buf), nil
}

// LEDQRCode 二维码界面（0xE1）
type LEDQRCode struct {
	ShowTime  byte
	QRMessage string
	Text      string
	Voice     bool
	QRSize    byte
}

// LEDDisplayQRCode 构造二维码界面包
func LEDDisplayQRCode(te *TextEncoder, q LEDQRCode) (*LEDPacket, error) {
	if te == nil {
		te = DefaultText
	}
	tb := te.Bytes(q.Text)
	qb := te.Bytes(q.QRMessage)
	n := len(tb) + len(qb) + 34
	if n > 255 {
		return nil, fmt.Errorf("%w: qr packet %d bytes", ErrPayloadTooLarge, n)
	}
	var voice byte
	if q.Voice {
		voice = 1
	}

	buf := ledHeader(LEDCmdQRCode, n)
	buf = append(buf,
		1, // 显示标志
		0, // 进入模式
		0, // 退出模式
		q.ShowTime,
		0, // 下一界面
	)
	buf = append(buf, make([]byte, 8)...) // 停车时长、收费金额保留
	buf = append(buf, byte(len(qb)), byte(len(tb)), 0x80|voice, q.QRSize)
	buf = append(buf, make([]byte, 15)...)
	buf = append(buf, qb...)
	buf = append(buf, 0)
	buf = append(buf, tb...)
	buf = append(buf, 0)
	return sealLED(LEDCmdQRCode, buf), nil
}
