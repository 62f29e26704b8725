package qorm

import (
	"context"

	"github.com/coderi421/qorm/internal/errs"
	"github.com/coderi421/qorm/internal/valuer"
	"github.com/coderi421/qorm/model"
)

// core 语句执行需要的全部依赖，DB 和 Tx 共享同一份
type core struct {
	r          model.Registry
	dialect    Dialect
	valCreator valuer.Creator
	ms         []Middleware
}

// get 单行查询入口：先穿过中间件链，最里层是 getHandler
func get[T any](ctx context.Context, sess Session, c core, qc *QueryContext) *QueryResult {
	var handler Handler = func(ctx context.Context, qc *QueryContext) *QueryResult {
		return getHandler[T](ctx, sess, c, qc)
	}
	for i := len(c.ms) - 1; i >= 0; i-- {
		handler = c.ms[i](handler)
	}
	return handler(ctx, qc)
}

// getHandler 严格单行语义：没有行报 ErrNoRows，
// 第二行存在报 ErrTooManyRows。宽松的调用方自己翻译
func getHandler[T any](ctx context.Context, sess Session, c core, qc *QueryContext) *QueryResult {
	q, err := qc.Query()
	if err != nil {
		return &QueryResult{Err: err}
	}
	rows, err := sess.queryContext(ctx, q.SQL, q.DriverArgs()...)
	if err != nil {
		return &QueryResult{Err: err}
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return &QueryResult{Err: err}
		}
		return &QueryResult{Err: errs.ErrNoRows}
	}
	tp := new(T)
	val := c.valCreator(tp, qc.Model)
	if err = val.SetColumns(rows); err != nil {
		return &QueryResult{Err: err}
	}
	if rows.Next() {
		return &QueryResult{Err: errs.ErrTooManyRows}
	}
	return &QueryResult{Result: tp}
}

// getMulti 多行查询入口
func getMulti[T any](ctx context.Context, sess Session, c core, qc *QueryContext) *QueryResult {
	var handler Handler = func(ctx context.Context, qc *QueryContext) *QueryResult {
		return getMultiHandler[T](ctx, sess, c, qc)
	}
	for i := len(c.ms) - 1; i >= 0; i-- {
		handler = c.ms[i](handler)
	}
	return handler(ctx, qc)
}

func getMultiHandler[T any](ctx context.Context, sess Session, c core, qc *QueryContext) *QueryResult {
	q, err := qc.Query()
	if err != nil {
		return &QueryResult{Err: err}
	}
	rows, err := sess.queryContext(ctx, q.SQL, q.DriverArgs()...)
	if err != nil {
		return &QueryResult{Err: err}
	}
	defer func() { _ = rows.Close() }()

	res := make([]*T, 0, 16)
	for rows.Next() {
		tp := new(T)
		val := c.valCreator(tp, qc.Model)
		if err = val.SetColumns(rows); err != nil {
			return &QueryResult{Err: err}
		}
		res = append(res, tp)
	}
	if err = rows.Err(); err != nil {
		return &QueryResult{Err: err}
	}
	return &QueryResult{Result: res}
}

// exec 写语句入口
func exec(ctx context.Context, sess Session, c core, qc *QueryContext) *QueryResult {
	var handler Handler = func(ctx context.Context, qc *QueryContext) *QueryResult {
		return execHandler(ctx, sess, qc)
	}
	for i := len(c.ms) - 1; i >= 0; i-- {
		handler = c.ms[i](handler)
	}
	return handler(ctx, qc)
}

func execHandler(ctx context.Context, sess Session, qc *QueryContext) *QueryResult {
	q, err := qc.Query()
	if err != nil {
		return &QueryResult{Result: Result{err: err}, Err: err}
	}
	res, err := sess.execContext(ctx, q.SQL, q.DriverArgs()...)
	return &QueryResult{Result: Result{res: res, err: err}, Err: err}
}
