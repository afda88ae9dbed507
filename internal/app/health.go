package app

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taoyao-code/park-rs485/internal/health"
)

// NewHealthAggregator 创建健康检查聚合器；dbpool 为 nil 时不检查数据库
func NewHealthAggregator(dbpool *pgxpool.Pool) *health.Aggregator {
	agg := health.NewAggregator()
	if dbpool != nil {
		agg.AddChecker(health.NewDatabaseChecker(dbpool))
	}
	return agg
}

// RegisterHealthRoutes 注册健康检查HTTP路由
func RegisterHealthRoutes(r *gin.Engine, aggregator *health.Aggregator, ready *health.Readiness) {
	health.RegisterHTTPRoutes(r, aggregator, ready)
}
