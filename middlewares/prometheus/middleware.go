// Package prometheus 按语句类型和表统计执行耗时
package prometheus

import (
	"context"
	"time"

	"github.com/coderi421/qorm"
	"github.com/prometheus/client_golang/prometheus"
)

type MiddlewareBuilder struct {
	Name        string
	Subsystem   string
	ConstLabels map[string]string
	Help        string
}

func (b *MiddlewareBuilder) Build() qorm.Middleware {
	summaryVec := prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name:        b.Name,
		Subsystem:   b.Subsystem,
		ConstLabels: b.ConstLabels,
		Help:        b.Help,
		Objectives: map[float64]float64{
			0.5:   0.01,
			0.75:  0.01,
			0.90:  0.01,
			0.99:  0.001,
			0.999: 0.0001,
		},
	}, []string{"type", "table"})
	prometheus.MustRegister(summaryVec)

	return func(next qorm.Handler) qorm.Handler {
		return func(ctx context.Context, qc *qorm.QueryContext) *qorm.QueryResult {
			startTime := time.Now()
			defer func() {
				tbl := "unknown"
				if qc.Model != nil {
					tbl = qc.Model.TableName
				}
				summaryVec.WithLabelValues(qc.Type, tbl).
					Observe(float64(time.Since(startTime).Microseconds()))
			}()
			return next(ctx, qc)
		}
	}
}
