package scene

import (
	"strconv"

	"github.com/taoyao-code/park-rs485/internal/protocol/rs485"
)

// 彩屏四行配色：按字随机、3、4、按行随机
var colorPalette = [4]int{rs485.ColorCharRandom, 3, 4, rs485.ColorLineRandom}

// 剩余车位虚拟行停留时长
const parkingRowDuration = 60

// Composer 将停车业务事件组合为按屏型适配的下发指令序列（先显示后语音）
type Composer struct {
	enc *rs485.Encoder
}

// NewComposer 创建场景组合器
func NewComposer(enc *rs485.Encoder) *Composer {
	return &Composer{enc: enc}
}

// Encoder 底层编码器
func (c *Composer) Encoder() *rs485.Encoder { return c.enc }

func (c *Composer) kind() rs485.Kind { return c.enc.Profile().Kind }

// addDisplay 追加显示部分；TTS 模块无屏，直接跳过
func (c *Composer) addDisplay(b *rs485.Batch, d Display) *rs485.Batch {
	switch c.kind() {
	case rs485.KindTTS:
		return b
	case rs485.KindSmallVertical:
		lines := make([]rs485.ScreenLine, len(d.Lines))
		for i, l := range d.Lines {
			lines[i] = rs485.ScreenLine{Color: rs485.ColorLineRandom, Text: l.Text}
		}
		return b.SmallScreen(lines)
	}

	for i, l := range d.Lines {
		color := l.Color
		if c.kind() == rs485.KindColor && i < len(colorPalette) {
			color = colorPalette[i]
		}
		if d.Fixed {
			b = b.LoadAd(l.Row, color, l.Text)
		} else {
			b = b.DisplayLine(l.Row, color, l.Text, l.Duration)
		}
	}
	return b
}

// Render 仅下发一屏显示
func (c *Composer) Render(d Display) ([]rs485.Packet, error) {
	if c.kind() == rs485.KindTTS {
		return nil, rs485.ErrUnsupportedCommand
	}
	return c.addDisplay(c.enc.NewBatch(), d).Seal()
}

// Entry 入场：欢迎屏 + 欢迎语音
func (c *Composer) Entry(plate string, spaces int) ([]rs485.Packet, error) {
	b := c.enc.NewBatch()
	switch c.kind() {
	case rs485.KindTTS:
		b.Speak(EntryTTS(plate))
	case rs485.KindStandard:
		c.addDisplay(b, StandardEntryDisplay(plate))
		if c.enc.Profile().MaxVirtualLine >= rs485.ParkingSpaceLine {
			b.ParkingSpaceRow(spaces, parkingRowDuration, rs485.ColorGreen)
		}
		b.PlayPlate(plate, PhraseWelcome)
	default:
		c.addDisplay(b, EntryDisplay(plate, spaces))
		b.PlayPlate(plate, PhraseWelcome).PlayVoice(PhrasePleaseEnter)
	}
	return b.Seal()
}

// Exit 出场。标准屏只播车牌+一路平安；其他屏有费用时播报金额，免费则出场祝福
func (c *Composer) Exit(plate string, amount uint32) ([]rs485.Packet, error) {
	b := c.enc.NewBatch()
	switch c.kind() {
	case rs485.KindTTS:
		if amount > 0 {
			b.Speak(PaymentSceneTTS(plate, formatAmount(amount)))
		} else {
			b.Speak(ExitTTS(plate))
		}
	case rs485.KindStandard:
		c.addDisplay(b, StandardExitDisplay(plate, amount))
		b.PlayPlate(plate, PhraseSafeJourney)
	default:
		c.addDisplay(b, ExitDisplay(plate, amount))
		if amount > 0 {
			b.PlayPlate(plate, PhrasePleasePay).
				PlayVoice(PaymentAmountVoice(amount)...).
				PlayVoice(PhraseSmoothJourney)
		} else {
			b.PlayPlate(plate, PhraseSmoothJourney).PlayVoice(PhraseAgainWelcome)
		}
	}
	return b.Seal()
}

// Payment 缴费提示；payURL 非空且屏支持时附带支付二维码
func (c *Composer) Payment(amount uint32, payURL string) ([]rs485.Packet, error) {
	b := c.enc.NewBatch()
	if c.kind() == rs485.KindTTS {
		b.Speak(PaymentReminderTTS(formatAmount(amount)))
		return b.Seal()
	}
	if payURL != "" && c.enc.Profile().QRCode {
		b.QRCode(rs485.QRModeThreeLine, 0, rs485.ColorGreen, payURL)
	}
	b.PlayVoice(PaymentVoice(amount)...)
	return b.Seal()
}

// PaymentSuccess 支付成功：定屏 + 缴费成功语音
func (c *Composer) PaymentSuccess(plate string, amount uint32) ([]rs485.Packet, error) {
	b := c.enc.NewBatch()
	if c.kind() == rs485.KindTTS {
		b.Speak(ConsumptionTTS(formatAmount(amount)))
		return b.Seal()
	}
	if c.kind() == rs485.KindSmallVertical {
		c.addDisplay(b, FixedPaymentSuccessDisplay(plate, amount))
	} else {
		b.CancelAll()
		c.addDisplay(b, FixedPaymentSuccessDisplay(plate, amount))
	}
	b.PlayVoice(PaySuccessVoice()...)
	return b.Seal()
}

// Consumption 扣款完成播报
func (c *Composer) Consumption(amount uint32) ([]rs485.Packet, error) {
	b := c.enc.NewBatch()
	switch c.kind() {
	case rs485.KindTTS:
		b.Speak(ConsumptionTTS(formatAmount(amount)))
	case rs485.KindStandard:
		b.PlayVoice(ConsumptionVoice(amount)...)
	default:
		b.PlayVoice(ConsumptionShortVoice(amount)...)
	}
	return b.Seal()
}

// CapacityWarning 车位紧张提示 + 文本播报
func (c *Composer) CapacityWarning(spaces int) ([]rs485.Packet, error) {
	b := c.enc.NewBatch()
	if c.kind() == rs485.KindTTS {
		b.Speak(ParkingSpaceTTS(spaces))
		return b.Seal()
	}
	c.addDisplay(b, CapacityWarningDisplay(spaces))
	b.PlayVoiceText(CapacityVoiceText(spaces))
	return b.Seal()
}

// SmartParking 待机屏（默认红色）
func (c *Composer) SmartParking(spaces int) ([]rs485.Packet, error) {
	return c.Render(SmartParkingDisplay(spaces, rs485.ColorRed))
}

// Welcome 待机欢迎屏；标准屏使用定屏内容
func (c *Composer) Welcome() ([]rs485.Packet, error) {
	if c.kind() == rs485.KindStandard {
		return c.Render(FixedWelcomeDisplay())
	}
	return c.Render(WelcomeDisplay())
}

// Maintenance 系统维护定屏
func (c *Composer) Maintenance() ([]rs485.Packet, error) {
	return c.Render(FixedMaintenanceDisplay())
}

func formatAmount(a uint32) string {
	return strconv.FormatUint(uint64(a), 10)
}
