// Package slowquery 把超过阈值的语句记下来。
// 默认只打日志，配了 redis 客户端的话还会推一份到队列，
// 留给离线分析
package slowquery

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/coderi421/qorm"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultQueue = "qorm:slow_queries"

type MiddlewareBuilder struct {
	threshold time.Duration
	logFunc   func(id, sql string, args []any, elapsed time.Duration)

	client redis.Cmdable
	queue  string
}

func NewBuilder(threshold time.Duration) *MiddlewareBuilder {
	return &MiddlewareBuilder{
		threshold: threshold,
		logFunc: func(id, sql string, args []any, elapsed time.Duration) {
			log.Printf("qorm 慢查询 [%s] %s: sql: %s, args: %v", id, elapsed, sql, args)
		},
		queue: defaultQueue,
	}
}

func (b *MiddlewareBuilder) LogFunc(fn func(id, sql string, args []any, elapsed time.Duration)) *MiddlewareBuilder {
	b.logFunc = fn
	return b
}

// ReportTo 把慢查询额外推到 redis 队列
func (b *MiddlewareBuilder) ReportTo(client redis.Cmdable) *MiddlewareBuilder {
	b.client = client
	return b
}

func (b *MiddlewareBuilder) Queue(name string) *MiddlewareBuilder {
	b.queue = name
	return b
}

func (b *MiddlewareBuilder) Build() qorm.Middleware {
	return func(next qorm.Handler) qorm.Handler {
		return func(ctx context.Context, qc *qorm.QueryContext) *qorm.QueryResult {
			start := time.Now()
			defer func() {
				elapsed := time.Since(start)
				if elapsed <= b.threshold {
					return
				}
				q, err := qc.Query()
				if err != nil {
					return
				}
				id := uuid.New().String()
				b.logFunc(id, q.SQL, q.DriverArgs(), elapsed)
				if b.client != nil {
					payload := fmt.Sprintf("%s|%dms|%s", id, elapsed.Milliseconds(), q.SQL)
					// 上报失败不影响业务语句
					_ = b.client.LPush(ctx, b.queue, payload).Err()
				}
			}()
			return next(ctx, qc)
		}
	}
}
