package rs485

import "fmt"

// TTS 简包：FD 00 LEN 01 01 + "TTS"+文本
// LEN = len("TTS"+文本) + 3，单字节，无序号无 CRC
const ttsPrefix = "TTS"

// TTSPacket 万能语音包
type TTSPacket struct {
	Text string
	raw  []byte
}

// Bytes 完整包字节
func (p *TTSPacket) Bytes() []byte { return p.raw }

// Hex 大写十六进制
func (p *TTSPacket) Hex() string { return ToHexString(p.raw) }

// Kind 包类别
func (p *TTSPacket) Kind() PacketKind { return PacketTTS }

// BuildTTS 构造 TTS 包，文本按 te 编码（nil 使用 GBK）
func BuildTTS(te *TextEncoder, text string) (*TTSPacket, error) {
	if text == "" {
		return nil, invalidArg("tts text is empty")
	}
	if te == nil {
		te = DefaultText
	}
	content := te.Bytes(ttsPrefix + text)
	n := len(content) + 3
	if n > MaxPayloadLen {
		return nil, fmt.Errorf("%w: tts length %d", ErrPayloadTooLarge, n)
	}

	buf := make([]byte, 0, 5+len(content))
	buf = append(buf, 0xFD, 0x00, byte(n), 0x01, 0x01)
	buf = append(buf, content...)
	return &TTSPacket{Text: text, raw: buf}, nil
}
