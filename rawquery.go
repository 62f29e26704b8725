package qorm

import (
	"context"

	"github.com/coderi421/qorm/internal/errs"
)

// RawQuerier 执行手写 SQL，但结果仍然走统一的解码协议
type RawQuerier[T any] struct {
	sess Session
	sql  string
	args []any
}

// RawQuery 例如 RawQuery[User](db, "SELECT * FROM `user` WHERE `id`=?;", 1)
func RawQuery[T any](sess Session, sql string, args ...any) *RawQuerier[T] {
	return &RawQuerier[T]{
		sess: sess,
		sql:  sql,
		args: args,
	}
}

func (r *RawQuerier[T]) Build() (*Query, error) {
	args := make([]Value, 0, len(r.args))
	for _, arg := range r.args {
		v, ok := valueOf(arg)
		if !ok {
			return nil, errs.NewErrUnsupportedArgType(arg)
		}
		args = append(args, v)
	}
	return &Query{SQL: r.sql, Args: args}, nil
}

func (r *RawQuerier[T]) queryContext(ctx context.Context) *QueryContext {
	return &QueryContext{Type: "RAW", builder: r}
}

func (r *RawQuerier[T]) Get(ctx context.Context) (*T, error) {
	c := r.sess.getCore()
	meta, err := c.r.Get(new(T))
	if err != nil {
		return nil, err
	}
	qc := r.queryContext(ctx)
	qc.Model = meta
	res := get[T](ctx, r.sess, c, qc)
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Result.(*T), nil
}

func (r *RawQuerier[T]) GetMulti(ctx context.Context) ([]*T, error) {
	c := r.sess.getCore()
	meta, err := c.r.Get(new(T))
	if err != nil {
		return nil, err
	}
	qc := r.queryContext(ctx)
	qc.Model = meta
	res := getMulti[T](ctx, r.sess, c, qc)
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Result.([]*T), nil
}

func (r *RawQuerier[T]) Exec(ctx context.Context) Result {
	c := r.sess.getCore()
	meta, err := c.r.Get(new(T))
	if err != nil {
		return Result{err: err}
	}
	qc := r.queryContext(ctx)
	qc.Model = meta
	res := exec(ctx, r.sess, c, qc)
	if out, ok := res.Result.(Result); ok {
		return out
	}
	return Result{err: res.Err}
}
