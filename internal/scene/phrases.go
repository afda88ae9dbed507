package scene

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/taoyao-code/park-rs485/internal/protocol/rs485"
)

// 语音板内置语音索引
const (
	PhraseWelcome       byte = 0x01 // 欢迎光临
	PhraseSafeJourney   byte = 0x02 // 一路平安
	PhraseThankYou      byte = 0x03 // 谢谢
	PhrasePleasePay     byte = 0x0B // 请缴费
	PhrasePleaseWait    byte = 0x0C // 请稍候
	PhraseThisCar       byte = 0x13 // 此车（车牌占位）
	PhrasePleaseEnter   byte = 0x14 // 请入场停车
	PhraseThisTime      byte = 0x16 // 本次
	PhraseYuan          byte = 0x2D // 元
	PhraseDigitZero     byte = 0x30 // 数字 0-9 为 0x30-0x39
	PhraseConsumption   byte = 0x44 // 消费（扣款）
	PhrasePaySuccess    byte = 0x45 // 缴费成功
	PhraseSmoothJourney byte = 0x5F // 一路顺风
	PhraseAgainWelcome  byte = 0x62 // 欢迎再次光临
	PhraseParkingFee    byte = 0x6A // 停车费
)

// AmountToDigits 金额逐位转为数字语音索引，0 为 [0x30]
func AmountToDigits(amount uint32) []byte {
	s := strconv.FormatUint(uint64(amount), 10)
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = PhraseDigitZero + (s[i] - '0')
	}
	return out
}

// ParseAmount 取金额字符串的整数部分（"15.50" -> 15）
func ParseAmount(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	intPart, _, _ := strings.Cut(s, ".")
	if intPart == "" {
		if s == "" {
			return 0, fmt.Errorf("%w: empty amount", rs485.ErrInvalidArgument)
		}
		return 0, nil
	}
	v, err := strconv.ParseUint(intPart, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q", rs485.ErrInvalidArgument, s)
	}
	return uint32(v), nil
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// EntryWelcomeVoice 此车 欢迎光临 请入场停车
func EntryWelcomeVoice() []byte {
	return []byte{PhraseThisCar, PhraseWelcome, PhrasePleaseEnter}
}

// EntryCompleteVoice 欢迎光临 请入场停车
func EntryCompleteVoice() []byte {
	return []byte{PhraseWelcome, PhrasePleaseEnter}
}

// ExitBlessingVoice 此车 一路顺风 欢迎 再次光临
func ExitBlessingVoice() []byte {
	return []byte{PhraseThisCar, PhraseSmoothJourney, PhraseWelcome, PhraseAgainWelcome}
}

// ExitShortVoice 一路顺风 再次光临
func ExitShortVoice() []byte {
	return []byte{PhraseSmoothJourney, PhraseAgainWelcome}
}

// ConsumptionVoice 本次 消费 金额 元 欢迎 再次光临
func ConsumptionVoice(amount uint32) []byte {
	return concat(
		[]byte{PhraseThisTime, PhraseConsumption},
		AmountToDigits(amount),
		[]byte{PhraseYuan, PhraseWelcome, PhraseAgainWelcome},
	)
}

// ConsumptionShortVoice 本次 消费 金额 元 再次光临
func ConsumptionShortVoice(amount uint32) []byte {
	return concat(
		[]byte{PhraseThisTime, PhraseConsumption},
		AmountToDigits(amount),
		[]byte{PhraseYuan, PhraseAgainWelcome},
	)
}

// PaymentVoice 请缴费 停车费 金额 元
func PaymentVoice(amount uint32) []byte {
	return concat(
		[]byte{PhrasePleasePay, PhraseParkingFee},
		AmountToDigits(amount),
		[]byte{PhraseYuan},
	)
}

// PaymentAmountVoice 请缴费 金额 元
func PaymentAmountVoice(amount uint32) []byte {
	return concat([]byte{PhrasePleasePay}, AmountToDigits(amount), []byte{PhraseYuan})
}

// PaySuccessVoice 此车 缴费成功 谢谢
func PaySuccessVoice() []byte {
	return []byte{PhraseThisCar, PhrasePaySuccess, PhraseThankYou}
}

// ExitVoice 有费用时提示缴费，否则出场祝福
func ExitVoice(amount uint32) []byte {
	if amount > 0 {
		return PaymentVoice(amount)
	}
	return ExitBlessingVoice()
}

// CapacityVoiceText 剩余车位文本播报
func CapacityVoiceText(spaces int) string {
	switch {
	case spaces > 10:
		return "剩余车位充足，欢迎停车"
	case spaces > 0:
		return fmt.Sprintf("剩余车位%d个，请尽快停车", spaces)
	default:
		return "车位已满，请稍候"
	}
}
