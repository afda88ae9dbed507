package app

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/taoyao-code/park-rs485/internal/metrics"
)

// NewMetrics 注册表、业务指标与版本信息
func NewMetrics(version string) (*prometheus.Registry, *metrics.AppMetrics) {
	reg := metrics.NewRegistry()
	appm := metrics.NewAppMetrics(reg)
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name:        "rs485_build_info",
		Help:        "Build version of the running service.",
		ConstLabels: prometheus.Labels{"version": version},
	}, func() float64 { return 1 }))
	return reg, appm
}
