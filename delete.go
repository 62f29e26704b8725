package qorm

import (
	"context"

	"github.com/coderi421/qorm/internal/errs"
)

// Deleter 构建并执行 DELETE 语句。
// 和 Updater 一样，全表删除必须显式 AllRows
type Deleter[T any] struct {
	builder
	sess Session

	table   string
	where   []Condition
	allRows bool

	err error
}

func NewDeleter[T any](sess Session) *Deleter[T] {
	c := sess.getCore()
	return &Deleter[T]{
		sess: sess,
		builder: builder{
			r:       c.r,
			dialect: c.dialect,
			quoter:  c.dialect.quoter(),
		},
	}
}

func (d *Deleter[T]) From(table string) *Deleter[T] {
	d.table = table
	return d
}

func (d *Deleter[T]) Where(ps ...Condition) *Deleter[T] {
	if d.where != nil && d.err == nil {
		d.err = errs.ErrConditionAlreadySet
		return d
	}
	d.where = ps
	return d
}

func (d *Deleter[T]) AllRows() *Deleter[T] {
	d.allRows = true
	return d
}

func (d *Deleter[T]) Build() (*Query, error) {
	if d.err != nil {
		return nil, d.err
	}
	if len(d.where) == 0 && !d.allRows {
		return nil, errs.ErrNoPredicate
	}
	var err error
	d.model, err = d.r.Get(new(T))
	if err != nil {
		return nil, err
	}
	d.sb.Reset()
	d.args = nil

	d.sb.WriteString("DELETE FROM ")
	table := d.table
	if table == "" {
		table = d.model.TableName
	}
	d.quote(table)

	if len(d.where) > 0 {
		d.sb.WriteString(" WHERE ")
		if err = d.buildPredicates(d.where); err != nil {
			return nil, err
		}
	}
	d.sb.WriteByte(';')
	return &Query{SQL: d.sb.String(), Args: d.args}, nil
}

func (d *Deleter[T]) Exec(ctx context.Context) Result {
	c := d.sess.getCore()
	meta, err := c.r.Get(new(T))
	if err != nil {
		return Result{err: err}
	}
	res := exec(ctx, d.sess, c, &QueryContext{
		Type:    "DELETE",
		builder: d,
		Model:   meta,
	})
	if r, ok := res.Result.(Result); ok {
		return r
	}
	return Result{err: res.Err}
}
