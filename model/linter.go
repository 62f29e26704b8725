package model

import (
	"fmt"

	"github.com/coderi421/qorm/internal/errs"
)

// lintRule 一条互斥/依赖规则。
// check 返回非空字符串表示违反
type lintRule func(a Annotations, nullable bool) string

// 规则表是封闭的：每一条都有对应的测试用例，
// 没列出来的组合就是合法的
var lintRules = []lintRule{
	exclusive("auto_create_time", "auto_increment",
		func(a Annotations) bool { return a.AutoCreateTime }, func(a Annotations) bool { return a.AutoIncrement }),
	exclusive("auto_create_time", "choices",
		func(a Annotations) bool { return a.AutoCreateTime }, func(a Annotations) bool { return len(a.Choices) > 0 }),
	exclusive("auto_create_time", "default",
		func(a Annotations) bool { return a.AutoCreateTime }, func(a Annotations) bool { return a.Default != nil }),
	exclusive("auto_create_time", "max_length",
		func(a Annotations) bool { return a.AutoCreateTime }, func(a Annotations) bool { return a.MaxLength > 0 }),
	exclusive("auto_create_time", "primary_key",
		func(a Annotations) bool { return a.AutoCreateTime }, func(a Annotations) bool { return a.PrimaryKey }),
	exclusive("auto_create_time", "unique",
		func(a Annotations) bool { return a.AutoCreateTime }, func(a Annotations) bool { return a.Unique }),

	exclusive("auto_update_time", "auto_increment",
		func(a Annotations) bool { return a.AutoUpdateTime }, func(a Annotations) bool { return a.AutoIncrement }),
	exclusive("auto_update_time", "choices",
		func(a Annotations) bool { return a.AutoUpdateTime }, func(a Annotations) bool { return len(a.Choices) > 0 }),
	exclusive("auto_update_time", "default",
		func(a Annotations) bool { return a.AutoUpdateTime }, func(a Annotations) bool { return a.Default != nil }),
	exclusive("auto_update_time", "max_length",
		func(a Annotations) bool { return a.AutoUpdateTime }, func(a Annotations) bool { return a.MaxLength > 0 }),
	exclusive("auto_update_time", "primary_key",
		func(a Annotations) bool { return a.AutoUpdateTime }, func(a Annotations) bool { return a.PrimaryKey }),
	exclusive("auto_update_time", "unique",
		func(a Annotations) bool { return a.AutoUpdateTime }, func(a Annotations) bool { return a.Unique }),

	exclusive("auto_increment", "choices",
		func(a Annotations) bool { return a.AutoIncrement }, func(a Annotations) bool { return len(a.Choices) > 0 }),
	exclusive("auto_increment", "default",
		func(a Annotations) bool { return a.AutoIncrement }, func(a Annotations) bool { return a.Default != nil }),
	exclusive("auto_increment", "max_length",
		func(a Annotations) bool { return a.AutoIncrement }, func(a Annotations) bool { return a.MaxLength > 0 }),

	exclusive("max_length", "choices",
		func(a Annotations) bool { return a.MaxLength > 0 }, func(a Annotations) bool { return len(a.Choices) > 0 }),
	exclusive("choices", "primary_key",
		func(a Annotations) bool { return len(a.Choices) > 0 }, func(a Annotations) bool { return a.PrimaryKey }),
	exclusive("choices", "unique",
		func(a Annotations) bool { return len(a.Choices) > 0 }, func(a Annotations) bool { return a.Unique }),
	exclusive("default", "primary_key",
		func(a Annotations) bool { return a.Default != nil }, func(a Annotations) bool { return a.PrimaryKey }),
	exclusive("default", "unique",
		func(a Annotations) bool { return a.Default != nil }, func(a Annotations) bool { return a.Unique }),
	exclusive("index", "primary_key",
		func(a Annotations) bool { return a.Index }, func(a Annotations) bool { return a.PrimaryKey }),

	func(a Annotations, nullable bool) string {
		if a.PrimaryKey && nullable {
			return "primary_key 不能是可空字段"
		}
		return ""
	},
	func(a Annotations, nullable bool) string {
		if a.AutoUpdateTime && !nullable && a.Default == nil && !a.AutoCreateTime {
			return "auto_update_time 要求字段可空，或者有 default，或者同时带 auto_create_time"
		}
		return ""
	},
	func(a Annotations, _ bool) string {
		if a.AutoIncrement && !a.PrimaryKey && !a.Unique {
			return "auto_increment 必须设置在 primary_key 或 unique 字段上"
		}
		return ""
	},
	func(a Annotations, _ bool) string {
		if len(a.Choices) > 0 && a.Default == nil {
			return "choices 要求一个 default"
		}
		return ""
	},
}

func exclusive(x, y string, hasX, hasY func(Annotations) bool) lintRule {
	return func(a Annotations, _ bool) string {
		if hasX(a) && hasY(a) {
			return fmt.Sprintf("%s 和 %s 互斥", x, y)
		}
		return ""
	}
}

// checkAnnotations runs the full rule table against a field's merged
// annotation set. Any violation is a definition-time error: the model
// never becomes queryable.
func checkAnnotations(fd *Field) error {
	for _, rule := range lintRules {
		if msg := rule(fd.Annotations, fd.Nullable); msg != "" {
			src := ""
			if fd.Source != nil {
				src = fmt.Sprintf("%s:%d", fd.Source.File, fd.Source.Line)
			}
			return errs.NewErrInvalidAnnotations(fd.GoName, src, msg)
		}
	}
	return nil
}
