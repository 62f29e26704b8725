package qorm

import (
	"strconv"

	"github.com/coderi421/qorm/internal/errs"
)

var (
	MySQL    Dialect = &mysqlDialect{}
	SQLite3  Dialect = &sqlite3Dialect{}
	Postgres Dialect = &postgresDialect{}
)

// Dialect 抽象各个 SQL 方言的差异：
// 标识符引用、占位符、LIMIT/OFFSET 形态和 UPSERT。
// 除了标识符，任何值都不会被内联进 SQL 文本
type Dialect interface {
	name() string
	quoter() byte
	// placeholder 第 n 个（从 1 开始）参数的占位符
	placeholder(n int) string
	// binaryOp 把比较算子翻译成方言的写法，
	// 不支持的算子必须报错而不是退化成错误的 SQL
	binaryOp(op binaryOp) (string, error)
	// buildLimitOffset 拼接分页子句，值走占位符
	buildLimitOffset(b *builder, hasLimit bool, limit int64, hasOffset bool, offset int64) error
	buildUpsert(b *builder, u *Upsert) error
}

type standardSQL struct{}

func (standardSQL) quoter() byte {
	return '"'
}

func (standardSQL) placeholder(_ int) string {
	return "?"
}

func (standardSQL) binaryOp(op binaryOp) (string, error) {
	return string(op), nil
}

type mysqlDialect struct {
	standardSQL
}

func (mysqlDialect) name() string {
	return "mysql"
}

func (mysqlDialect) quoter() byte {
	return '`'
}

func (d mysqlDialect) buildLimitOffset(b *builder, hasLimit bool, limit int64, hasOffset bool, offset int64) error {
	if hasOffset && !hasLimit {
		// MySQL 的 OFFSET 必须跟在 LIMIT 后面，没有无限 LIMIT 的写法
		return errs.NewErrUnsupportedOperation(d.name(), "OFFSET without LIMIT")
	}
	if hasLimit {
		b.sb.WriteString(" LIMIT ")
		b.addArg(Int64(limit))
	}
	if hasOffset {
		b.sb.WriteString(" OFFSET ")
		b.addArg(Int64(offset))
	}
	return nil
}

func (d mysqlDialect) buildUpsert(b *builder, u *Upsert) error {
	b.sb.WriteString(" ON DUPLICATE KEY UPDATE ")
	for idx, a := range u.assigns {
		if idx > 0 {
			b.sb.WriteByte(',')
		}
		switch assign := a.(type) {
		case columnAssign:
			// 使用原本插入的值：`first_name`=VALUES(`first_name`)
			fd, ok := b.model.FieldMap[assign.name]
			if !ok {
				return errs.NewErrUnknownField(assign.name)
			}
			b.quote(fd.ColName)
			b.sb.WriteString("=VALUES(")
			b.quote(fd.ColName)
			b.sb.WriteByte(')')
		case Assignment:
			if err := b.buildAssignment(assign); err != nil {
				return err
			}
		default:
			return errs.NewErrUnsupportedAssignableType(a)
		}
	}
	return nil
}

type sqlite3Dialect struct {
	standardSQL
}

func (sqlite3Dialect) name() string {
	return "sqlite3"
}

func (sqlite3Dialect) buildLimitOffset(b *builder, hasLimit bool, limit int64, hasOffset bool, offset int64) error {
	if hasLimit {
		b.sb.WriteString(" LIMIT ")
		b.addArg(Int64(limit))
	} else if hasOffset {
		// SQLite 要求 OFFSET 前面有 LIMIT，-1 表示不限制
		b.sb.WriteString(" LIMIT -1")
	}
	if hasOffset {
		b.sb.WriteString(" OFFSET ")
		b.addArg(Int64(offset))
	}
	return nil
}

func (d sqlite3Dialect) buildUpsert(b *builder, u *Upsert) error {
	b.sb.WriteString(" ON CONFLICT")
	if len(u.conflictColumns) > 0 {
		b.sb.WriteByte('(')
		for i, col := range u.conflictColumns {
			if i > 0 {
				b.sb.WriteByte(',')
			}
			fd, ok := b.model.FieldMap[col]
			if !ok {
				return errs.NewErrUnknownField(col)
			}
			b.quote(fd.ColName)
		}
		b.sb.WriteByte(')')
	}
	b.sb.WriteString(" DO UPDATE SET ")

	for idx, a := range u.assigns {
		if idx > 0 {
			b.sb.WriteByte(',')
		}
		switch assign := a.(type) {
		case columnAssign:
			fd, ok := b.model.FieldMap[assign.name]
			if !ok {
				return errs.NewErrUnknownField(assign.name)
			}
			b.quote(fd.ColName)
			b.sb.WriteString("=excluded.")
			b.quote(fd.ColName)
		case Assignment:
			if err := b.buildAssignment(assign); err != nil {
				return err
			}
		default:
			return errs.NewErrUnsupportedAssignableType(a)
		}
	}
	return nil
}

type postgresDialect struct {
	standardSQL
}

func (postgresDialect) name() string {
	return "postgres"
}

func (postgresDialect) placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func (d postgresDialect) binaryOp(op binaryOp) (string, error) {
	switch op {
	case opRegexp:
		return "~", nil
	case opNotRegexp:
		return "!~", nil
	default:
		return string(op), nil
	}
}

func (postgresDialect) buildLimitOffset(b *builder, hasLimit bool, limit int64, hasOffset bool, offset int64) error {
	if hasLimit {
		b.sb.WriteString(" LIMIT ")
		b.addArg(Int64(limit))
	}
	// Postgres 允许单独的 OFFSET
	if hasOffset {
		b.sb.WriteString(" OFFSET ")
		b.addArg(Int64(offset))
	}
	return nil
}

func (d postgresDialect) buildUpsert(b *builder, u *Upsert) error {
	b.sb.WriteString(" ON CONFLICT")
	if len(u.conflictColumns) > 0 {
		b.sb.WriteByte('(')
		for i, col := range u.conflictColumns {
			if i > 0 {
				b.sb.WriteByte(',')
			}
			fd, ok := b.model.FieldMap[col]
			if !ok {
				return errs.NewErrUnknownField(col)
			}
			b.quote(fd.ColName)
		}
		b.sb.WriteByte(')')
	}
	b.sb.WriteString(" DO UPDATE SET ")
	for idx, a := range u.assigns {
		if idx > 0 {
			b.sb.WriteByte(',')
		}
		switch assign := a.(type) {
		case columnAssign:
			fd, ok := b.model.FieldMap[assign.name]
			if !ok {
				return errs.NewErrUnknownField(assign.name)
			}
			b.quote(fd.ColName)
			b.sb.WriteString("=excluded.")
			b.quote(fd.ColName)
		case Assignment:
			if err := b.buildAssignment(assign); err != nil {
				return err
			}
		default:
			return errs.NewErrUnsupportedAssignableType(a)
		}
	}
	return nil
}
