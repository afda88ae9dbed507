package health

import (
	"context"
	"sort"
	"time"

	"github.com/taoyao-code/park-rs485/internal/gateway"
)

// SinkStates 下发通道状态来源
type SinkStates interface {
	Sinks() []string
	BreakerState(sink string) gateway.BreakerState
	Throttled() int64
}

// SinkChecker 下发通道健康检查：任一通道熔断则降级，全部熔断则不健康
type SinkChecker struct {
	router SinkStates
	mqtt   func() bool
}

// NewSinkChecker mqttConnected 可为 nil（未启用 MQTT）
func NewSinkChecker(router SinkStates, mqttConnected func() bool) *SinkChecker {
	return &SinkChecker{router: router, mqtt: mqttConnected}
}

func (c *SinkChecker) Name() string {
	return "sinks"
}

func (c *SinkChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()

	sinks := c.router.Sinks()
	sort.Strings(sinks)

	states := make(map[string]interface{}, len(sinks))
	open, guarded := 0, 0
	for _, name := range sinks {
		st := c.router.BreakerState(name)
		states[name] = st.String()
		if name == "inline" {
			continue
		}
		guarded++
		if st == gateway.BreakerOpen {
			open++
		}
	}

	details := map[string]interface{}{
		"sinks":     states,
		"throttled": c.router.Throttled(),
	}

	status, message := StatusHealthy, "ok"
	if open > 0 {
		status, message = StatusDegraded, "circuit open"
		if open == guarded {
			status, message = StatusUnhealthy, "all sinks circuit open"
		}
	}
	if c.mqtt != nil {
		connected := c.mqtt()
		details["mqtt_connected"] = connected
		if !connected && status == StatusHealthy {
			status, message = StatusDegraded, "mqtt disconnected"
		}
	}

	return CheckResult{
		Status:  status,
		Message: message,
		Details: details,
		Latency: time.Since(start),
	}
}
