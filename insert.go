package qorm

import (
	"context"

	"github.com/coderi421/qorm/internal/errs"
	"github.com/coderi421/qorm/model"
)

// Inserter 构建并执行 INSERT 语句
type Inserter[T any] struct {
	builder
	sess Session

	values  []*T
	columns []string
	upsert  *Upsert
}

func NewInserter[T any](sess Session) *Inserter[T] {
	c := sess.getCore()
	return &Inserter[T]{
		sess: sess,
		builder: builder{
			r:       c.r,
			dialect: c.dialect,
			quoter:  c.dialect.quoter(),
		},
	}
}

func (i *Inserter[T]) Values(vals ...*T) *Inserter[T] {
	i.values = vals
	return i
}

// Columns 只插入给出的字段子集，顺序按照给出的顺序。
// 不调用就插入全部可插入列
func (i *Inserter[T]) Columns(cols ...string) *Inserter[T] {
	i.columns = cols
	return i
}

// OnDuplicateKey 进入 UPSERT 构建，
// 具体长什么样由方言决定
func (i *Inserter[T]) OnDuplicateKey() *UpsertBuilder[T] {
	return &UpsertBuilder[T]{i: i}
}

// Upsert 冲突时的更新动作
type Upsert struct {
	assigns         []Assignable
	conflictColumns []string
}

type UpsertBuilder[T any] struct {
	i               *Inserter[T]
	conflictColumns []string
}

// ConflictColumns SQLite 和 Postgres 的 ON CONFLICT(...) 列，
// MySQL 会忽略它
func (u *UpsertBuilder[T]) ConflictColumns(cols ...string) *UpsertBuilder[T] {
	u.conflictColumns = cols
	return u
}

func (u *UpsertBuilder[T]) Update(assigns ...Assignable) *Inserter[T] {
	u.i.upsert = &Upsert{
		assigns:         assigns,
		conflictColumns: u.conflictColumns,
	}
	return u.i
}

func (i *Inserter[T]) Build() (*Query, error) {
	if len(i.values) == 0 {
		return nil, errs.ErrInsertZeroRow
	}
	var err error
	i.model, err = i.r.Get(i.values[0])
	if err != nil {
		return nil, err
	}
	i.sb.Reset()
	i.args = nil

	fields, err := i.insertFields()
	if err != nil {
		return nil, err
	}

	i.sb.WriteString("INSERT INTO ")
	i.quote(i.model.TableName)
	i.sb.WriteByte('(')
	for idx, fd := range fields {
		if idx > 0 {
			i.sb.WriteByte(',')
		}
		i.quote(fd.fd.ColName)
	}
	i.sb.WriteString(") VALUES ")

	c := i.sess.getCore()
	for vIdx, val := range i.values {
		if vIdx > 0 {
			i.sb.WriteByte(',')
		}
		i.sb.WriteByte('(')
		refVal := c.valCreator(val, i.model)
		for fIdx, fd := range fields {
			if fIdx > 0 {
				i.sb.WriteByte(',')
			}
			fdVal, err := refVal.Field(fd.name)
			if err != nil {
				return nil, err
			}
			leaf := leafOf(fdVal)
			if leaf.err != nil {
				return nil, leaf.err
			}
			i.addArg(leaf.val)
		}
		i.sb.WriteByte(')')
	}

	if i.upsert != nil {
		if err = i.dialect.buildUpsert(&i.builder, i.upsert); err != nil {
			return nil, err
		}
	}

	i.sb.WriteByte(';')
	return &Query{SQL: i.sb.String(), Args: i.args}, nil
}

// insertField 一列以及取值时用的字段路径，
// 多列字段的子列路径形如 Outer.Sub
type insertField struct {
	fd   *model.Field
	name string
}

func expandComposite(fd *model.Field, into []insertField) []insertField {
	for _, sub := range fd.Subs {
		into = append(into, insertField{fd: sub, name: fd.GoName + "." + sub.GoName})
	}
	return into
}

// insertFields 确定插入的列。
// 反向引用不占列，多列字段展开成子列，自增列交给数据库
func (i *Inserter[T]) insertFields() ([]insertField, error) {
	if len(i.columns) > 0 {
		fields := make([]insertField, 0, len(i.columns))
		for _, name := range i.columns {
			fd, ok := i.model.FieldMap[name]
			if !ok || fd.Kind == model.KindBackRef {
				return nil, errs.NewErrUnknownField(name)
			}
			if fd.Kind == model.KindComposite {
				fields = expandComposite(fd, fields)
				continue
			}
			fields = append(fields, insertField{fd: fd, name: fd.GoName})
		}
		if len(fields) == 0 {
			return nil, errs.ErrEmptyPatch
		}
		return fields, nil
	}

	fields := make([]insertField, 0, len(i.model.Fields))
	for _, fd := range i.model.Fields {
		switch fd.Kind {
		case model.KindBackRef:
			continue
		case model.KindComposite:
			fields = expandComposite(fd, fields)
		default:
			if fd.Annotations.AutoIncrement {
				continue
			}
			fields = append(fields, insertField{fd: fd, name: fd.GoName})
		}
	}
	return fields, nil
}

func (i *Inserter[T]) Exec(ctx context.Context) Result {
	c := i.sess.getCore()
	meta, err := c.r.Get(new(T))
	if err != nil {
		return Result{err: err}
	}
	res := exec(ctx, i.sess, c, &QueryContext{
		Type:    "INSERT",
		builder: i,
		Model:   meta,
	})
	if r, ok := res.Result.(Result); ok {
		return r
	}
	return Result{err: res.Err}
}
