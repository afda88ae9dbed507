package rs485

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrCRCMismatch CRC 校验失败
	ErrCRCMismatch = errors.New("crc mismatch")
	// ErrFrameMalformed 帧结构错误
	ErrFrameMalformed = errors.New("frame malformed")
)

// frameOverhead 头(2)+序号(1)+地址(1)+保留(1)+指令(1)+长度(2)+CRC(2)+尾(1)
const frameOverhead = 11

// PacketKind 下行包类别
type PacketKind string

const (
	PacketFrame PacketKind = "frame" // AA55 ... AF
	PacketTTS   PacketKind = "tts"   // FD00 ...
	PacketLED   PacketKind = "led"   // 00 64 FF FF ...
)

// Packet 可下发到 485 总线的数据包
type Packet interface {
	Bytes() []byte
	Hex() string
	Kind() PacketKind
}

// Frame AA55 协议帧
// 格式：AA55(2) + SEQ(1) + ADDR(1) + 00(1) + CMD(1) + LEN(2,BE) + DATA + CRC(2) + AF(1)
type Frame struct {
	Seq        byte
	Address    byte
	Command    byte
	Payload    []byte
	CRC        uint16
	Convention CRCConvention

	raw []byte
}

// Bytes 完整帧字节
func (f *Frame) Bytes() []byte {
	return f.raw
}

// Hex 大写十六进制
func (f *Frame) Hex() string {
	return ToHexString(f.raw)
}

// Kind 包类别
func (f *Frame) Kind() PacketKind {
	return PacketFrame
}

// buildFrame 组帧并按约定计算 CRC
func buildFrame(conv CRCConvention, seq, addr, cmd byte, payload []byte) *Frame {
	buf := make([]byte, 0, frameOverhead+len(payload))
	buf = append(buf, Header1, Header2, seq, addr, Reserved, cmd)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(payload)))
	buf = append(buf, payload...)

	crc := frameCRC(conv, buf)
	if conv == CRCRawLE {
		buf = binary.LittleEndian.AppendUint16(buf, crc)
	} else {
		buf = binary.BigEndian.AppendUint16(buf, crc)
	}
	buf = append(buf, Terminator)

	return &Frame{
		Seq:        seq,
		Address:    addr,
		Command:    cmd,
		Payload:    buf[8 : 8+len(payload)],
		CRC:        crc,
		Convention: conv,
		raw:        buf,
	}
}

// frameCRC head 为 AA55..PAYLOAD
func frameCRC(conv CRCConvention, head []byte) uint16 {
	if conv == CRCRawLE {
		return CRC16(head)
	}
	// SEQ..PAYLOAD + 0000
	data := make([]byte, 0, len(head))
	data = append(data, head[2:]...)
	data = append(data, 0x00, 0x00)
	return CRC16(data)
}

// ParseFrame 解析并校验一帧（用于自检下发内容）
func ParseFrame(b []byte, conv CRCConvention) (*Frame, error) {
	if len(b) < frameOverhead {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameMalformed, len(b))
	}
	if b[0] != Header1 || b[1] != Header2 {
		return nil, fmt.Errorf("%w: header %02X%02X", ErrFrameMalformed, b[0], b[1])
	}
	if b[len(b)-1] != Terminator {
		return nil, fmt.Errorf("%w: terminator %02X", ErrFrameMalformed, b[len(b)-1])
	}
	n := int(binary.BigEndian.Uint16(b[6:8]))
	if n != len(b)-frameOverhead {
		return nil, fmt.Errorf("%w: length field %d, actual %d", ErrFrameMalformed, n, len(b)-frameOverhead)
	}

	head := b[:8+n]
	var got uint16
	if conv == CRCRawLE {
		got = binary.LittleEndian.Uint16(b[8+n:])
	} else {
		got = binary.BigEndian.Uint16(b[8+n:])
	}
	want := frameCRC(conv, head)
	if got != want {
		return nil, fmt.Errorf("%w: got %04X, want %04X", ErrCRCMismatch, got, want)
	}

	raw := make([]byte, len(b))
	copy(raw, b)
	return &Frame{
		Seq:        raw[2],
		Address:    raw[3],
		Command:    raw[5],
		Payload:    raw[8 : 8+n],
		CRC:        got,
		Convention: conv,
		raw:        raw,
	}, nil
}

// ParseFrameHex 十六进制形式的 ParseFrame
func ParseFrameHex(s string, conv CRCConvention) (*Frame, error) {
	b, err := HexToBytes(s)
	if err != nil {
		return nil, err
	}
	return ParseFrame(b, conv)
}
