package rs485

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument 参数越界（行号、掩码、模式、行数等）
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidInput 输入格式错误（非法十六进制串等）
	ErrInvalidInput = errors.New("invalid input")
	// ErrPayloadTooLarge 载荷超过设备规格上限
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrEncodingUnavailable 文本字符集不可用，已回退 UTF-8
	ErrEncodingUnavailable = errors.New("encoding unavailable")
	// ErrUnsupportedCommand 当前屏型不支持该指令
	ErrUnsupportedCommand = fmt.Errorf("%w: unsupported command", ErrInvalidArgument)
)

func invalidArg(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func unsupported(profile string, op string) error {
	return fmt.Errorf("%w: %s on %s", ErrUnsupportedCommand, op, profile)
}
