package rs485

import "fmt"

// 帧常量
const (
	Header1       = 0xAA
	Header2       = 0x55
	Terminator    = 0xAF
	Reserved      = 0x00
	DefaultAddr   = 0x64 // 默认地址100
	MaxPayloadLen = 255
)

// 指令码
const (
	CmdQueryVersion       = 0x01 // 查询版本
	CmdSetTime            = 0x10 // 设置时间
	CmdTrafficLight1      = 0x12 // 红绿灯1
	CmdTrafficLight2      = 0x13 // 红绿灯2
	CmdCancelTempDisplay  = 0x21 // 取消临显
	CmdPlayVoice          = 0x22 // 立即播报
	CmdLoadAds            = 0x25 // 加载广告
	CmdLoadTempDisplay    = 0x27 // 下发临显
	CmdLoadQRCode         = 0x28 // 二维码
	CmdSmallScreen        = 0x29 // 小竖屏四行
	CmdCacheVoice         = 0x32 // 缓存语音
	CmdLoadAdsColor       = 0x35 // 彩屏广告
	CmdLoadTempColor      = 0x37 // 彩屏临显
	CmdSetDND             = 0x56 // 免打扰
	CmdSetVolume          = 0xF0
	CmdSetSpeed           = 0xF1
	CmdEncryptDecrypt     = 0xF2
	CmdSuperChangeAddr    = 0xF3
	CmdChangeAddr         = 0xF4
	CmdAdjustPolarity     = 0xF5
	CmdTimeDisplayMode    = 0xF6
	CmdSetColorMode       = 0xF7
	CmdSetBaudRate        = 0xF8
	CmdSetAnimation       = 0xF9 // 彩屏：插播动画
	CmdSetCompatibility   = 0xFA // 彩屏：兼容指令显示方式
)

// 标准屏颜色
const (
	ColorRed    = 1
	ColorGreen  = 2
	ColorYellow = 3
)

// 彩屏颜色：0=按字随机，1-7 具体颜色，8=按行随机
const (
	ColorCharRandom = 0
	ColorLineRandom = 8
)

// QR 显示模式
const (
	QRModeCenter    = 0 // 两行居中
	QRModeLeft      = 1 // 两行居左带文字
	QRModeThreeLine = 2 // 三行
)

// Kind 设备规格类别
type Kind int

const (
	KindStandard Kind = iota + 1
	KindColor
	KindSmallVertical
	KindTTS
)

func (k Kind) String() string {
	switch k {
	case KindStandard:
		return "standard"
	case KindColor:
		return "color"
	case KindSmallVertical:
		return "small_vertical"
	case KindTTS:
		return "tts"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// CRCConvention CRC 覆盖范围与写入字节序
type CRCConvention int

const (
	// CRCZeroFilledBE 覆盖 SEQ..PAYLOAD 并补两个 0x00，高字节在前
	CRCZeroFilledBE CRCConvention = iota
	// CRCRawLE 覆盖 AA55..PAYLOAD，低字节在前
	CRCRawLE
)

// ColorRule 颜色越界时回落到 Fallback（固件约定，不报错）
type ColorRule struct {
	Min, Max, Fallback int
}

// Clamp 返回合法颜色
func (r ColorRule) Clamp(c int) byte {
	if c < r.Min || c > r.Max {
		return byte(r.Fallback)
	}
	return byte(c)
}

// Profile 设备规格
type Profile struct {
	Name  string
	Kind  Kind
	Color ColorRule

	MaxLine        int // 物理行上限（行号从1开始）
	MaxVirtualLine int // 临显允许的最大行号（含虚拟行）

	CRC        CRCConvention
	MaxPayload int
	InitialSeq byte

	TempDisplayCmd byte // 0 表示不支持
	AdsCmd         byte
	QRCode         bool
	SmallScreen    bool
	ColorControl   bool // F9/FA
}

// Framed 是否使用 AA55/AF 帧
func (p Profile) Framed() bool {
	return p.Kind != KindTTS
}

var standardRule = ColorRule{Min: 1, Max: 3, Fallback: ColorRed}
var colorRule = ColorRule{Min: 0, Max: 8, Fallback: ColorLineRandom}

// Standard 标准单色/三色屏（行 1-4，5-7 为虚拟行，6 为剩余车位行）
func Standard() Profile {
	return Profile{
		Name:           "standard",
		Kind:           KindStandard,
		Color:          standardRule,
		MaxLine:        4,
		MaxVirtualLine: 7,
		CRC:            CRCZeroFilledBE,
		MaxPayload:     MaxPayloadLen,
		InitialSeq:     0x6C,
		TempDisplayCmd: CmdLoadTempDisplay,
		AdsCmd:         CmdLoadAds,
		QRCode:         true,
	}
}

// Color 全彩屏
func Color() Profile {
	return Profile{
		Name:           "color",
		Kind:           KindColor,
		Color:          colorRule,
		MaxLine:        4,
		MaxVirtualLine: 4,
		CRC:            CRCZeroFilledBE,
		MaxPayload:     MaxPayloadLen,
		InitialSeq:     0x20,
		TempDisplayCmd: CmdLoadTempColor,
		AdsCmd:         CmdLoadAdsColor,
		QRCode:         true,
		ColorControl:   true,
	}
}

// SmallVertical 小竖屏，四行整体下发
func SmallVertical() Profile {
	return Profile{
		Name:        "small_vertical",
		Kind:        KindSmallVertical,
		Color:       colorRule,
		MaxLine:     4,
		CRC:         CRCZeroFilledBE,
		MaxPayload:  MaxPayloadLen,
		InitialSeq:  0x20,
		SmallScreen: true,
	}
}

// TTS 万能语音模块，FD00 简包，无序号无 CRC
func TTS() Profile {
	return Profile{
		Name:       "tts",
		Kind:       KindTTS,
		MaxPayload: MaxPayloadLen,
	}
}

// ScreenType 屏幕型号编码
type ScreenType int

const (
	ScreenVerticalLargeP     ScreenType = 1 // 1模组竖屏_大P
	ScreenVerticalSmallP     ScreenType = 2 // 1模组竖屏_小P
	ScreenTwoModuleVertical  ScreenType = 3 // 2模组_竖屏
	ScreenStandardHorizontal ScreenType = 4 // 标准横屏
	ScreenFullColor          ScreenType = 5 // 全彩屏
	ScreenSmallVertical      ScreenType = 6 // 小竖屏
)

var screenNames = map[ScreenType]string{
	ScreenVerticalLargeP:     "1模组竖屏_大P",
	ScreenVerticalSmallP:     "1模组竖屏_小P",
	ScreenTwoModuleVertical:  "2模组_竖屏",
	ScreenStandardHorizontal: "标准横屏",
	ScreenFullColor:          "全彩屏",
	ScreenSmallVertical:      "小竖屏",
}

// ScreenTypeFromCode 未知编码默认标准横屏
func ScreenTypeFromCode(code int) ScreenType {
	st := ScreenType(code)
	if _, ok := screenNames[st]; ok {
		return st
	}
	return ScreenStandardHorizontal
}

func (s ScreenType) String() string {
	if name, ok := screenNames[s]; ok {
		return name
	}
	return fmt.Sprintf("screen(%d)", int(s))
}

// ProfileForScreen 按屏型选择规格。
// 屏型卡按字节拼帧：CRC 覆盖包头、低字节在前，序号从 0 开始，行号仅 1-4。
func ProfileForScreen(st ScreenType) Profile {
	var p Profile
	switch st {
	case ScreenFullColor:
		p = Color()
	case ScreenSmallVertical:
		p = SmallVertical()
	default:
		p = Standard()
		p.MaxVirtualLine = p.MaxLine
	}
	p.Name = p.Name + "_card"
	p.CRC = CRCRawLE
	p.InitialSeq = 0x00
	return p
}

// ProfileByName 按名称查找预置规格
func ProfileByName(name string) (Profile, error) {
	switch name {
	case "standard", "":
		return Standard(), nil
	case "color":
		return Color(), nil
	case "small_vertical":
		return SmallVertical(), nil
	case "tts":
		return TTS(), nil
	}
	return Profile{}, invalidArg("unknown profile %q", name)
}
