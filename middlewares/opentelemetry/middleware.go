// Package opentelemetry 为每条语句开一个 span，
// 挂在调用方传进来的 ctx 上
package opentelemetry

import (
	"context"

	"github.com/coderi421/qorm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/coderi421/qorm/middlewares/opentelemetry"

type MiddlewareBuilder struct {
	Tracer trace.Tracer
}

func NewBuilder() *MiddlewareBuilder {
	return &MiddlewareBuilder{}
}

func (b *MiddlewareBuilder) Build() qorm.Middleware {
	if b.Tracer == nil {
		b.Tracer = otel.GetTracerProvider().Tracer(instrumentationName)
	}
	return func(next qorm.Handler) qorm.Handler {
		return func(ctx context.Context, qc *qorm.QueryContext) *qorm.QueryResult {
			tbl := "unknown"
			if qc.Model != nil {
				tbl = qc.Model.TableName
			}
			spanCtx, span := b.Tracer.Start(ctx, qc.Type+"-"+tbl)
			defer span.End()

			q, err := qc.Query()
			if err == nil {
				span.SetAttributes(attribute.String("sql", q.SQL))
			}
			span.SetAttributes(
				attribute.String("component", "qorm"),
				attribute.String("table", tbl),
			)

			res := next(spanCtx, qc)
			if res.Err != nil {
				span.RecordError(res.Err)
				span.SetStatus(codes.Error, res.Err.Error())
			}
			return res
		}
	}
}
