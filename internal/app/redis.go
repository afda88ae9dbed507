package app

import (
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/park-rs485/internal/config"
	"github.com/taoyao-code/park-rs485/internal/health"
	redisstorage "github.com/taoyao-code/park-rs485/internal/storage/redis"
)

// NewRedisClient 创建Redis客户端；未启用返回 nil
func NewRedisClient(cfg cfgpkg.RedisConfig, logger *zap.Logger) (*redisstorage.Client, error) {
	if !cfg.Enabled {
		logger.Info("redis is disabled, skipping initialization")
		return nil, nil
	}

	client, err := redisstorage.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("redis client initialized",
		zap.String("addr", cfg.Addr),
		zap.Int("pool_size", cfg.PoolSize))

	return client, nil
}

// NewEnvelopeQueue 网关拉取队列
func NewEnvelopeQueue(client *redisstorage.Client, cfg cfgpkg.RedisConfig) *redisstorage.EnvelopeQueue {
	return redisstorage.NewEnvelopeQueue(client, cfg.QueueMaxLen)
}

// AddRedisChecker 添加Redis检查器；积压达到队列上限视为降级
func AddRedisChecker(aggregator *health.Aggregator, client *redisstorage.Client, queue *redisstorage.EnvelopeQueue, maxLen int64) {
	if client == nil {
		return
	}
	var depths health.QueueDepths
	if queue != nil {
		depths = queue
	}
	aggregator.AddChecker(health.NewRedisChecker(client, depths, maxLen))
}
