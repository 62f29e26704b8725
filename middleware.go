package qorm

import (
	"context"

	"github.com/coderi421/qorm/model"
)

// QueryContext 传给中间件的语句上下文
type QueryContext struct {
	// Type 语句类型：SELECT、INSERT、UPDATE、DELETE 或 RAW
	Type string

	builder QueryBuilder
	q       *Query

	Model *model.Model
}

// Query 返回编译结果。编译只做一次，
// 多个中间件读它不会重复构建
func (qc *QueryContext) Query() (*Query, error) {
	if qc.q != nil {
		return qc.q, nil
	}
	q, err := qc.builder.Build()
	if err != nil {
		return nil, err
	}
	qc.q = q
	return q, nil
}

// QueryResult 语句执行结果。
// SELECT 的 Result 是 *T 或 []*T，写语句的 Result 是 Result 结构体
type QueryResult struct {
	Result any
	Err    error
}

type Handler func(ctx context.Context, qc *QueryContext) *QueryResult

// Middleware 以洋葱模型包裹执行链
type Middleware func(next Handler) Handler
