package scene

import (
	"fmt"

	"github.com/taoyao-code/park-rs485/internal/protocol/rs485"
)

// Line 一行显示内容
type Line struct {
	Row      int
	Color    int
	Text     string
	Duration int // 秒，0 为长期
}

// Display 一屏内容（最多 4 个物理行）
type Display struct {
	Lines []Line
	Fixed bool // true 使用广告指令（定屏不滚动），否则临显
}

func rows(color int, texts ...string) []Line {
	lines := make([]Line, len(texts))
	for i, t := range texts {
		lines[i] = Line{Row: i + 1, Color: color, Text: t}
	}
	return lines
}

// Texts 各行文本
func (d Display) Texts() []string {
	out := make([]string, len(d.Lines))
	for i, l := range d.Lines {
		out[i] = l.Text
	}
	return out
}

// SmartParkingDisplay 智慧停车待机屏
func SmartParkingDisplay(spaces, color int) Display {
	return Display{Lines: rows(color, "智慧停车", fmt.Sprintf("车位%d个", spaces), "一车一杆", "请勿跟车")}
}

// EntryDisplay 入场欢迎屏（绿色）
func EntryDisplay(plate string, spaces int) Display {
	return Display{Lines: rows(rs485.ColorGreen, "欢迎光临", plate, "一车一杆自动识别", fmt.Sprintf("剩余车位%d个", spaces))}
}

// StandardEntryDisplay 标准屏入场（红色，第四行减速慢行；剩余车位走虚拟行）
func StandardEntryDisplay(plate string) Display {
	return Display{Lines: rows(rs485.ColorRed, "欢迎光临", plate, "一车一杆自动识别", "减速慢行")}
}

// StandardExitDisplay 标准屏出场（红色）
func StandardExitDisplay(plate string, amount uint32) Display {
	return Display{Lines: rows(rs485.ColorRed, "一路平安", plate, fmt.Sprintf("请交费%d元", amount), "谢谢光临")}
}

// ExitDisplay 出场屏（绿色）
func ExitDisplay(plate string, amount uint32) Display {
	return Display{Lines: rows(rs485.ColorGreen, "一路平安", plate, fmt.Sprintf("缴费%d元", amount), "谢谢光临")}
}

// CapacityWarningDisplay 车位紧张提示；5 个及以下红色，否则黄色
func CapacityWarningDisplay(spaces int) Display {
	color, title := rs485.ColorYellow, "车位较少"
	if spaces <= 5 {
		color, title = rs485.ColorRed, "车位紧张"
	}
	return Display{Lines: rows(color, title, fmt.Sprintf("剩余%d个", spaces), "请尽快停车", "谢谢配合")}
}

// WelcomeDisplay 待机欢迎屏
func WelcomeDisplay() Display {
	return Display{Lines: rows(rs485.ColorGreen, "欢迎光临", "车牌识别", "一车一杆", "减速慢行")}
}

// FixedDisplay 定屏四行，必须恰好 4 行
func FixedDisplay(lines []string, color int) (Display, error) {
	if len(lines) != 4 {
		return Display{}, fmt.Errorf("%w: fixed display needs 4 lines, got %d", rs485.ErrInvalidArgument, len(lines))
	}
	return Display{Lines: rows(color, lines...), Fixed: true}, nil
}

func mustFixed(color int, lines ...string) Display {
	return Display{Lines: rows(color, lines...), Fixed: true}
}

// FixedWelcomeDisplay 固定欢迎
func FixedWelcomeDisplay() Display {
	return mustFixed(rs485.ColorGreen, "欢迎光临", "恭喜发财万事如意", "一车一杆自动识别", "减速慢行")
}

// FixedParkingInfoDisplay 车场信息
func FixedParkingInfoDisplay(available, total int) Display {
	return mustFixed(rs485.ColorGreen, "停车场信息", fmt.Sprintf("总车位:%d 剩余:%d", total, available), "请有序停车", "谢谢配合")
}

// FixedPaymentSuccessDisplay 支付成功
func FixedPaymentSuccessDisplay(plate string, amount uint32) Display {
	return mustFixed(rs485.ColorGreen, "支付成功", "车牌:"+plate, fmt.Sprintf("金额:%d元", amount), "一路平安")
}

// FixedMaintenanceDisplay 系统维护（黄色）
func FixedMaintenanceDisplay() Display {
	return mustFixed(rs485.ColorYellow, "系统维护中", "请稍候", "给您带来不便", "敬请谅解")
}
