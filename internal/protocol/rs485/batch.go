package rs485

import (
	"fmt"
	"time"
)

// ScreenLine 小竖屏单行
type ScreenLine struct {
	Color int
	Text  string
}

type pending struct {
	cmd     byte
	payload []byte
	packet  Packet // 非 AA55 包（TTS）
}

// Batch 一组连续下发的指令。
// 所有指令先校验，Seal 时一次性分配连续序号；任一指令失败则整组不生成、不消耗序号。
type Batch struct {
	enc   *Encoder
	items []pending
	err   error
}

// NewBatch 创建指令组
func (e *Encoder) NewBatch() *Batch {
	return &Batch{enc: e}
}

// Err 第一个校验错误
func (b *Batch) Err() error { return b.err }

// Len 已加入的指令数
func (b *Batch) Len() int { return len(b.items) }

func (b *Batch) fail(err error) *Batch {
	if b.err == nil {
		b.err = err
	}
	return b
}

func (b *Batch) add(op string, cmd byte, payload []byte) *Batch {
	if b.err != nil {
		return b
	}
	p := b.enc.profile
	if !p.Framed() {
		return b.fail(unsupported(p.Name, op))
	}
	if len(payload) > p.MaxPayload {
		return b.fail(fmt.Errorf("%w: %s payload %d > %d", ErrPayloadTooLarge, op, len(payload), p.MaxPayload))
	}
	b.items = append(b.items, pending{cmd: cmd, payload: payload})
	return b
}

// Seal 生成全部数据包
func (b *Batch) Seal() ([]Packet, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.items) == 0 {
		return nil, invalidArg("empty batch")
	}

	frames := 0
	for _, it := range b.items {
		if it.packet == nil {
			frames++
		}
	}

	p := b.enc.profile
	seq := b.enc.seq.Reserve(frames)
	out := make([]Packet, 0, len(b.items))
	for _, it := range b.items {
		if it.packet != nil {
			out = append(out, it.packet)
			continue
		}
		out = append(out, buildFrame(p.CRC, seq, b.enc.address, it.cmd, it.payload))
		seq++
	}
	return out, nil
}

// Raw 任意指令
func (b *Batch) Raw(cmd byte, payload []byte) *Batch {
	data := make([]byte, len(payload))
	copy(data, payload)
	return b.add("raw", cmd, data)
}

func (b *Batch) checkLine(line, max int) error {
	if line < 1 || line > max {
		return invalidArg("line %d out of range 1-%d", line, max)
	}
	return nil
}

func checkByte(name string, v int) error {
	if v < 0 || v > 0xFF {
		return invalidArg("%s %d out of range 0-255", name, v)
	}
	return nil
}

// DisplayLine 临显：行号 | 时长 | 颜色 | 00 | 内容
func (b *Batch) DisplayLine(line, color int, text string, duration int) *Batch {
	p := b.enc.profile
	if p.TempDisplayCmd == 0 {
		return b.fail(unsupported(p.Name, "display line"))
	}
	if err := b.checkLine(line, p.MaxVirtualLine); err != nil {
		return b.fail(err)
	}
	if err := checkByte("duration", duration); err != nil {
		return b.fail(err)
	}
	data := []byte{byte(line), byte(duration), p.Color.Clamp(color), Reserved}
	data = append(data, b.enc.text.Bytes(text)...)
	return b.add("display line", p.TempDisplayCmd, data)
}

// LoadAd 广告：行号 | 颜色 | 00 | 内容
func (b *Batch) LoadAd(line, color int, text string) *Batch {
	p := b.enc.profile
	if p.AdsCmd == 0 {
		return b.fail(unsupported(p.Name, "load ad"))
	}
	if err := b.checkLine(line, p.MaxLine); err != nil {
		return b.fail(err)
	}
	data := []byte{byte(line), p.Color.Clamp(color), Reserved}
	data = append(data, b.enc.text.Bytes(text)...)
	return b.add("load ad", p.AdsCmd, data)
}

// ParkingSpaceRow 剩余车位虚拟行
func (b *Batch) ParkingSpaceRow(count, duration, color int) *Batch {
	if count < 0 {
		return b.fail(invalidArg("parking space count %d", count))
	}
	return b.DisplayLine(ParkingSpaceLine, color, fmt.Sprintf("剩余车位%03d", count), duration)
}

// ParkingSpaceLine 剩余车位虚拟行号
const ParkingSpaceLine = 6

// CancelDisplay 行掩码 0x00-0x0F
func (b *Batch) CancelDisplay(mask int) *Batch {
	if mask < 0 || mask > 0x0F {
		return b.fail(invalidArg("line mask 0x%X out of range 0x00-0x0F", mask))
	}
	return b.add("cancel display", CmdCancelTempDisplay, []byte{byte(mask)})
}

// CancelAll 取消全部临显
func (b *Batch) CancelAll() *Batch {
	return b.CancelDisplay(0x0F)
}

// CancelLine 取消 1-4 行中的一行
func (b *Batch) CancelLine(line int) *Batch {
	if err := b.checkLine(line, 4); err != nil {
		return b.fail(err)
	}
	return b.CancelDisplay(1 << (line - 1))
}

// PlayVoice 语音索引序列
func (b *Batch) PlayVoice(indices ...byte) *Batch {
	if len(indices) == 0 {
		return b.fail(invalidArg("empty voice index list"))
	}
	data := make([]byte, len(indices))
	copy(data, indices)
	return b.add("play voice", CmdPlayVoice, data)
}

// PlayVoiceText 文本播报
func (b *Batch) PlayVoiceText(text string) *Batch {
	if text == "" {
		return b.fail(invalidArg("empty voice text"))
	}
	return b.add("play voice", CmdPlayVoice, b.enc.text.Bytes(text))
}

// PlayPlate 车牌文本 + 语音索引
func (b *Batch) PlayPlate(plate string, index byte) *Batch {
	data := append(b.enc.text.Bytes(plate), index)
	return b.add("play plate", CmdPlayVoice, data)
}

// QRCode 模式 | 时长 | 颜色 | 内容
func (b *Batch) QRCode(mode, duration, color int, content string) *Batch {
	p := b.enc.profile
	if !p.QRCode {
		return b.fail(unsupported(p.Name, "qrcode"))
	}
	if mode < QRModeCenter || mode > QRModeThreeLine {
		return b.fail(invalidArg("qrcode mode %d out of range 0-2", mode))
	}
	if err := checkByte("duration", duration); err != nil {
		return b.fail(err)
	}
	data := []byte{byte(mode), byte(duration), p.Color.Clamp(color)}
	data = append(data, b.enc.text.Bytes(EncodeURLParams(content))...)
	return b.add("qrcode", CmdLoadQRCode, data)
}

// SmallScreen 必须恰好 4 行，每行：00 01 颜色 内容
func (b *Batch) SmallScreen(lines []ScreenLine) *Batch {
	p := b.enc.profile
	if !p.SmallScreen {
		return b.fail(unsupported(p.Name, "small screen"))
	}
	if len(lines) != 4 {
		return b.fail(invalidArg("small screen needs 4 lines, got %d", len(lines)))
	}
	var data []byte
	for _, l := range lines {
		data = append(data, 0x00, 0x01, p.Color.Clamp(l.Color))
		data = append(data, b.enc.text.Bytes(l.Text)...)
	}
	return b.add("small screen", CmdSmallScreen, data)
}

// QueryVersion 无载荷
func (b *Batch) QueryVersion() *Batch {
	return b.add("query version", CmdQueryVersion, []byte{})
}

// SetTime 年(两位) 月 日 时 分 秒
func (b *Batch) SetTime(t time.Time) *Batch {
	data := []byte{
		byte(t.Year() % 100),
		byte(t.Month()),
		byte(t.Day()),
		byte(t.Hour()),
		byte(t.Minute()),
		byte(t.Second()),
	}
	return b.add("set time", CmdSetTime, data)
}

// SetVolume 音量截断到 0-9
func (b *Batch) SetVolume(v int) *Batch {
	v = max(0, min(9, v))
	return b.add("set volume", CmdSetVolume, []byte{byte(v)})
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

// SetAnimation 彩屏专用
func (b *Batch) SetAnimation(enable bool) *Batch {
	p := b.enc.profile
	if !p.ColorControl {
		return b.fail(unsupported(p.Name, "set animation"))
	}
	return b.add("set animation", CmdSetAnimation, []byte{boolByte(enable)})
}

// SetCompatibilityMode 彩屏专用
func (b *Batch) SetCompatibilityMode(lineRandom bool) *Batch {
	p := b.enc.profile
	if !p.ColorControl {
		return b.fail(unsupported(p.Name, "set compatibility mode"))
	}
	return b.add("set compatibility mode", CmdSetCompatibility, []byte{boolByte(lineRandom)})
}

// Speak 追加 TTS 包（不占用序号）
func (b *Batch) Speak(text string) *Batch {
	if b.err != nil {
		return b
	}
	pkt, err := BuildTTS(b.enc.text, text)
	if err != nil {
		return b.fail(err)
	}
	b.items = append(b.items, pending{packet: pkt})
	return b
}
