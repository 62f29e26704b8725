// Package querylog 打印每条语句和参数，带一个随机 id
// 方便和慢查询、trace 里的记录对上
package querylog

import (
	"context"
	"log"

	"github.com/coderi421/qorm"
	"github.com/google/uuid"
)

type MiddlewareBuilder struct {
	logFunc func(id, typ, sql string, args []any)
}

func NewBuilder() *MiddlewareBuilder {
	return &MiddlewareBuilder{
		logFunc: func(id, typ, sql string, args []any) {
			log.Printf("qorm [%s] %s: sql: %s, args: %v", id, typ, sql, args)
		},
	}
}

// LogFunc 替换默认的 log.Printf，测试里常用来断言
func (b *MiddlewareBuilder) LogFunc(fn func(id, typ, sql string, args []any)) *MiddlewareBuilder {
	b.logFunc = fn
	return b
}

func (b *MiddlewareBuilder) Build() qorm.Middleware {
	return func(next qorm.Handler) qorm.Handler {
		return func(ctx context.Context, qc *qorm.QueryContext) *qorm.QueryResult {
			q, err := qc.Query()
			if err != nil {
				return &qorm.QueryResult{Err: err}
			}
			b.logFunc(uuid.New().String(), qc.Type, q.SQL, q.DriverArgs())
			return next(ctx, qc)
		}
	}
}
