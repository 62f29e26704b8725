package qorm

import (
	"database/sql"

	"github.com/coderi421/qorm/internal/valuer"
	"github.com/coderi421/qorm/model"
)

// Rows 惰性结果流，对游标逐行解码。
// 用法和 sql.Rows 一致：Next 推进，Entity 解码当前行，最后 Close
type Rows[T any] struct {
	rows       *sql.Rows
	meta       *model.Model
	valCreator valuer.Creator
}

func (r *Rows[T]) Next() bool {
	return r.rows.Next()
}

// Entity 解码当前行。在 Next 返回 true 之前调用是未定义行为，
// 和 sql.Rows.Scan 一样
func (r *Rows[T]) Entity() (*T, error) {
	tp := new(T)
	val := r.valCreator(tp, r.meta)
	if err := val.SetColumns(r.rows); err != nil {
		return nil, err
	}
	return tp, nil
}

func (r *Rows[T]) Err() error {
	return r.rows.Err()
}

func (r *Rows[T]) Close() error {
	return r.rows.Close()
}
