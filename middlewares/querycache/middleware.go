// Package querycache 缓存 SELECT 的结果。
// key 是编译后的 SQL 加参数，所以同一个构建器重复执行天然命中。
// 缓存里存的是解码后的实体指针，调用方不要改它
package querycache

import (
	"context"
	"fmt"
	"strings"

	"github.com/coderi421/qorm"
)

// Store 抽象底层缓存，lru 和 ttl 两个实现都在本包里
type Store interface {
	Get(key string) (any, bool)
	Set(key string, val any)
}

type MiddlewareBuilder struct {
	store Store
}

func NewBuilder(store Store) *MiddlewareBuilder {
	return &MiddlewareBuilder{store: store}
}

func (b *MiddlewareBuilder) Build() qorm.Middleware {
	return func(next qorm.Handler) qorm.Handler {
		return func(ctx context.Context, qc *qorm.QueryContext) *qorm.QueryResult {
			// 写语句直接放行，缓存失效交给 TTL/LRU
			if qc.Type != "SELECT" {
				return next(ctx, qc)
			}
			q, err := qc.Query()
			if err != nil {
				return &qorm.QueryResult{Err: err}
			}
			key := cacheKey(q)
			if val, ok := b.store.Get(key); ok {
				return &qorm.QueryResult{Result: val}
			}
			res := next(ctx, qc)
			if res.Err == nil {
				b.store.Set(key, res.Result)
			}
			return res
		}
	}
}

func cacheKey(q *qorm.Query) string {
	var sb strings.Builder
	sb.WriteString(q.SQL)
	for _, arg := range q.DriverArgs() {
		sb.WriteByte('|')
		fmt.Fprintf(&sb, "%v", arg)
	}
	return sb.String()
}
