// Package valuer 封装实体和数据库行之间的取值/回填。
// 两种实现行为完全一致：reflect 版好理解，unsafe 版快。
package valuer

import (
	"database/sql"
	"fmt"
	"reflect"

	"github.com/coderi421/qorm/model"
)

// Value 是对结构体实例的内部抽象
type Value interface {
	// Field 按 Go 字段名取值，多列字段的子列写成 Outer.Sub
	Field(name string) (any, error)
	// SetColumns 把当前行回填进实体，按列名匹配字段
	SetColumns(rows *sql.Rows) error
}

// Creator 本质上也是一种 factory 模式
type Creator func(val any, meta *model.Model) Value

// validateColumn 按注解校验刚解码出来的值。
// 行里存了非法值说明有别的写入方绕过了模型定义，
// 必须在解码期暴露而不是让脏数据继续往下流
func validateColumn(fd *model.Field, val reflect.Value) error {
	a := fd.Annotations
	if a.MaxLength == 0 && len(a.Choices) == 0 {
		return nil
	}
	s, ok := stringOf(val)
	if !ok {
		return nil
	}
	if a.MaxLength > 0 && len(s) > a.MaxLength {
		return fmt.Errorf("长度 %d 超出 max_length=%d", len(s), a.MaxLength)
	}
	if len(a.Choices) > 0 {
		for _, c := range a.Choices {
			if s == c {
				return nil
			}
		}
		return fmt.Errorf("%q 不在 choices 里", s)
	}
	return nil
}

// stringOf 解开指针和 sql.NullString 拿到字符串内容，
// NULL 不参与校验
func stringOf(val reflect.Value) (string, bool) {
	switch val.Kind() {
	case reflect.String:
		return val.String(), true
	case reflect.Ptr:
		if val.IsNil() {
			return "", false
		}
		return stringOf(val.Elem())
	case reflect.Struct:
		if ns, ok := val.Interface().(sql.NullString); ok {
			if !ns.Valid {
				return "", false
			}
			return ns.String, true
		}
	}
	return "", false
}
