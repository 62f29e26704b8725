package valuer

import (
	"database/sql"
	"reflect"
	"strings"

	"github.com/coderi421/qorm/internal/errs"
	"github.com/coderi421/qorm/model"
)

type reflectValue struct {
	val  reflect.Value
	meta *model.Model
}

var _ Creator = NewReflectValue

// NewReflectValue 返回一个封装了 reflect.Value 的 Value
// 输入 val 必须是一个指向结构体实例的指针，而不能是任何其它类型
func NewReflectValue(val any, meta *model.Model) Value {
	return reflectValue{
		val:  reflect.ValueOf(val).Elem(),
		meta: meta,
	}
}

func (r reflectValue) Field(name string) (any, error) {
	target, err := r.fieldValue(name)
	if err != nil {
		return nil, err
	}
	return target.Interface(), nil
}

func (r reflectValue) fieldValue(name string) (reflect.Value, error) {
	outer, sub, dotted := strings.Cut(name, ".")
	fd, ok := r.meta.FieldMap[outer]
	if !ok {
		return reflect.Value{}, errs.NewErrUnknownField(name)
	}
	if !dotted {
		return r.val.Field(fd.Index), nil
	}
	for _, s := range fd.Subs {
		if s.GoName == sub {
			return r.val.Field(fd.Index).Field(s.Index), nil
		}
	}
	return reflect.Value{}, errs.NewErrUnknownField(name)
}

func (r reflectValue) SetColumns(rows *sql.Rows) error {
	cs, err := rows.Columns()
	if err != nil {
		return err
	}

	// 先为每一列准备一个正确类型的接收坑位
	fds := make([]*model.Field, 0, len(cs))
	vals := make([]any, 0, len(cs))
	for _, c := range cs {
		fd, ok := r.meta.ColumnMap[c]
		if !ok {
			return errs.NewErrUnknownColumn(c)
		}
		fds = append(fds, fd)
		vals = append(vals, reflect.New(fd.Type).Interface())
	}

	if err = rows.Scan(vals...); err != nil {
		return err
	}

	for i, c := range cs {
		fd := fds[i]
		got := reflect.ValueOf(vals[i]).Elem()
		if err = validateColumn(fd, got); err != nil {
			return errs.NewErrRowDecode(c, err)
		}
		target := r.val.Field(fd.Index)
		if fd.Owner != nil {
			target = r.val.Field(fd.Owner.Index).Field(fd.Index)
		}
		target.Set(got)
	}
	return nil
}
