package scene

import (
	"fmt"
	"strconv"
	"strings"
)

// TTS 播报文本模板

// EntryTTS 入场欢迎
func EntryTTS(plate string) string {
	return plate + "欢迎光临，请入场停车"
}

// ExitTTS 出场祝福
func ExitTTS(plate string) string {
	return plate + "一路平安，欢迎再次光临"
}

// ConsumptionTTS 扣款完成
func ConsumptionTTS(amount string) string {
	return "本次消费" + amount + "元，欢迎再次光临"
}

// PaymentReminderTTS 缴费提醒（不带车牌）
func PaymentReminderTTS(amount string) string {
	return "请支付停车费" + amount + "元"
}

// PaymentSceneTTS 出场缴费（带车牌）
func PaymentSceneTTS(plate, amount string) string {
	return plate + "请支付停车费" + amount + "元"
}

// ParkingSpaceTTS 剩余车位播报
func ParkingSpaceTTS(spaces int) string {
	return fmt.Sprintf("剩余车位%d个，请合理安排", spaces)
}

// TemplateTTS 按序替换 {0} {1} ... 占位符
func TemplateTTS(template string, params ...string) string {
	out := template
	for i, p := range params {
		out = strings.ReplaceAll(out, "{"+strconv.Itoa(i)+"}", p)
	}
	return out
}

// FormattedTTS fmt 风格模板
func FormattedTTS(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
