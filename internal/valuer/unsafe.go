package valuer

import (
	"database/sql"
	"reflect"
	"strings"
	"unsafe"

	"github.com/coderi421/qorm/internal/errs"
	"github.com/coderi421/qorm/model"
)

type unsafeValue struct {
	addr unsafe.Pointer
	meta *model.Model
}

var _ Creator = NewUnsafeValue

// NewUnsafeValue 基于字段偏移量直接读写实体内存。
// 多列子字段在解析期就记了绝对偏移，这里不需要区分
func NewUnsafeValue(val any, meta *model.Model) Value {
	return unsafeValue{
		addr: unsafe.Pointer(reflect.ValueOf(val).Pointer()),
		meta: meta,
	}
}

func (u unsafeValue) fieldDesc(name string) (*model.Field, error) {
	outer, sub, dotted := strings.Cut(name, ".")
	fd, ok := u.meta.FieldMap[outer]
	if !ok {
		return nil, errs.NewErrUnknownField(name)
	}
	if !dotted {
		return fd, nil
	}
	for _, s := range fd.Subs {
		if s.GoName == sub {
			return s, nil
		}
	}
	return nil, errs.NewErrUnknownField(name)
}

func (u unsafeValue) Field(name string) (any, error) {
	fd, err := u.fieldDesc(name)
	if err != nil {
		return nil, err
	}
	val := reflect.NewAt(fd.Type, unsafe.Pointer(uintptr(u.addr)+fd.Offset))
	return val.Elem().Interface(), nil
}

func (u unsafeValue) SetColumns(rows *sql.Rows) error {
	cs, err := rows.Columns()
	if err != nil {
		return err
	}

	// 直接把字段内存当作 Scan 的目标，省掉一次拷贝
	fds := make([]*model.Field, 0, len(cs))
	vals := make([]any, 0, len(cs))
	for _, c := range cs {
		fd, ok := u.meta.ColumnMap[c]
		if !ok {
			return errs.NewErrUnknownColumn(c)
		}
		fds = append(fds, fd)
		val := reflect.NewAt(fd.Type, unsafe.Pointer(uintptr(u.addr)+fd.Offset))
		vals = append(vals, val.Interface())
	}

	if err = rows.Scan(vals...); err != nil {
		return err
	}

	for i, c := range cs {
		fd := fds[i]
		got := reflect.NewAt(fd.Type, unsafe.Pointer(uintptr(u.addr)+fd.Offset)).Elem()
		if err = validateColumn(fd, got); err != nil {
			return errs.NewErrRowDecode(c, err)
		}
	}
	return nil
}
