// rs485relay 部署在岗亭边缘机：从 Redis 拉取本网关报文写入本地 485 串口
package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/park-rs485/internal/config"
	"github.com/taoyao-code/park-rs485/internal/gateway"
	"github.com/taoyao-code/park-rs485/internal/logging"
	"github.com/taoyao-code/park-rs485/internal/outbound"
	redisstorage "github.com/taoyao-code/park-rs485/internal/storage/redis"
)

func main() {
	var (
		configPath = flag.String("config", "", "配置文件路径")
		gatewayID  = flag.String("gateway", "", "网关编号（必填）")
		port       = flag.String("port", "", "串口设备，覆盖 serial.port")
		idle       = flag.Duration("idle", 200*time.Millisecond, "队列为空时的轮询间隔")
	)
	flag.Parse()

	cfg, err := cfgpkg.Load(*configPath)
	if err != nil {
		panic(err)
	}
	logger, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)
	log := zap.L()

	if *gatewayID == "" {
		log.Fatal("gateway id is required")
	}
	if *port != "" {
		cfg.Serial.Port = *port
	}

	// 边缘侧只依赖 Redis 拉取队列
	cfg.Redis.Enabled = true
	client, err := redisstorage.NewClient(cfg.Redis)
	if err != nil {
		log.Fatal("redis connect failed", zap.Error(err))
	}
	defer client.Close()

	sp, err := gateway.OpenSerial(cfg.Serial)
	if err != nil {
		log.Fatal("serial open failed", zap.Error(err))
	}
	defer sp.Close()

	sink := gateway.NewSerialSink(sp, time.Duration(cfg.Serial.FrameGapMs)*time.Millisecond)
	queue := redisstorage.NewEnvelopeQueue(client, cfg.Redis.QueueMaxLen)
	relay := outbound.NewRelay(queue, sink, *gatewayID, *idle, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("rs485 relay running",
		zap.String("gateway", *gatewayID),
		zap.String("port", cfg.Serial.Port),
		zap.Int("baud", cfg.Serial.BaudRate))
	relay.Start(ctx)
	log.Info("rs485 relay stopped", zap.Any("stats", relay.Stats()))
}
