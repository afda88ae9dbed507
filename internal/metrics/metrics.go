package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// AppMetrics 自定义业务指标
type AppMetrics struct {
	FramesBuilt   *prometheus.CounterVec // labels: profile, cmd
	EncodeErrors  *prometheus.CounterVec // labels: kind=invalid_argument|payload_too_large|unsupported|other
	DispatchTotal *prometheus.CounterVec // labels: sink, result=ok|error|throttled
	QueueDepth    *prometheus.GaugeVec   // labels: gateway
	SceneLatency  *prometheus.HistogramVec
}

// NewAppMetrics 注册并返回业务指标
func NewAppMetrics(reg prometheus.Registerer) *AppMetrics {
	m := &AppMetrics{
		FramesBuilt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rs485_frames_built_total",
			Help: "RS485 packets built by profile and command.",
		}, []string{"profile", "cmd"}),
		EncodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rs485_encode_errors_total",
			Help: "Rejected encode requests by error kind.",
		}, []string{"kind"}),
		DispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rs485_dispatch_total",
			Help: "Envelope deliveries by sink and result.",
		}, []string{"sink", "result"}),
		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rs485_gateway_queue_depth",
			Help: "Envelopes waiting for gateway pull.",
		}, []string{"gateway"}),
		SceneLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rs485_scene_duration_seconds",
			Help:    "Time from request to delivered envelope.",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"scene"}),
	}
	reg.MustRegister(m.FramesBuilt, m.EncodeErrors, m.DispatchTotal, m.QueueDepth, m.SceneLatency)
	return m
}
