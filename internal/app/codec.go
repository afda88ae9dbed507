package app

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/park-rs485/internal/config"
	"github.com/taoyao-code/park-rs485/internal/protocol/rs485"
)

// NewEncoderPool 按配置字符集创建编码器池，返回默认 485 地址
func NewEncoderPool(cfg cfgpkg.CodecConfig, log *zap.Logger) (*rs485.Pool, byte, error) {
	te, err := rs485.NewTextEncoder(cfg.Charset)
	switch {
	case errors.Is(err, rs485.ErrEncodingUnavailable):
		// 回退 UTF-8 直出
		log.Warn("charset unavailable, falling back to utf-8", zap.String("charset", cfg.Charset))
	case err != nil:
		return nil, 0, err
	}
	if cfg.Address < 0 || cfg.Address > 0xFF {
		return nil, 0, fmt.Errorf("codec.address out of range: %d", cfg.Address)
	}
	log.Info("rs485 codec initialized", zap.String("charset", te.Name()), zap.Int("address", cfg.Address))
	return rs485.NewPool(te), byte(cfg.Address), nil
}
