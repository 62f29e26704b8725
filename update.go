package qorm

import (
	"context"

	"github.com/coderi421/qorm/internal/errs"
)

// Updater 构建并执行 UPDATE 语句。
// 没有 WHERE 的全表更新必须显式调用 AllRows，防止手滑
type Updater[T any] struct {
	builder
	sess Session

	val     *T
	assigns []Assignable
	where   []Condition
	allRows bool

	err error
}

func NewUpdater[T any](sess Session) *Updater[T] {
	c := sess.getCore()
	return &Updater[T]{
		sess: sess,
		builder: builder{
			r:       c.r,
			dialect: c.dialect,
			quoter:  c.dialect.quoter(),
		},
	}
}

// Update 指定取值用的实体，Set(Col(...)) 会从它身上拿值
func (u *Updater[T]) Update(t *T) *Updater[T] {
	u.val = t
	return u
}

func (u *Updater[T]) Set(assigns ...Assignable) *Updater[T] {
	u.assigns = assigns
	return u
}

func (u *Updater[T]) Where(ps ...Condition) *Updater[T] {
	if u.where != nil && u.err == nil {
		u.err = errs.ErrConditionAlreadySet
		return u
	}
	u.where = ps
	return u
}

// AllRows 显式声明这是一次全表更新
func (u *Updater[T]) AllRows() *Updater[T] {
	u.allRows = true
	return u
}

func (u *Updater[T]) Build() (*Query, error) {
	if u.err != nil {
		return nil, u.err
	}
	if len(u.assigns) == 0 {
		return nil, errs.ErrNoUpdatedColumns
	}
	if len(u.where) == 0 && !u.allRows {
		return nil, errs.ErrNoPredicate
	}
	var err error
	u.model, err = u.r.Get(new(T))
	if err != nil {
		return nil, err
	}
	u.sb.Reset()
	u.args = nil

	u.sb.WriteString("UPDATE ")
	u.quote(u.model.TableName)
	u.sb.WriteString(" SET ")

	c := u.sess.getCore()
	for idx, a := range u.assigns {
		if idx > 0 {
			u.sb.WriteByte(',')
		}
		switch assign := a.(type) {
		case columnAssign:
			// 从实体上取当前值
			if u.val == nil {
				u.val = new(T)
			}
			fd, ok := u.model.FieldMap[assign.name]
			if !ok {
				return nil, errs.NewErrUnknownField(assign.name)
			}
			refVal := c.valCreator(u.val, u.model)
			fdVal, err := refVal.Field(assign.name)
			if err != nil {
				return nil, err
			}
			u.quote(fd.ColName)
			u.sb.WriteByte('=')
			leaf := leafOf(fdVal)
			if leaf.err != nil {
				return nil, leaf.err
			}
			u.addArg(leaf.val)
		case Assignment:
			if err = u.buildAssignment(assign); err != nil {
				return nil, err
			}
		default:
			return nil, errs.NewErrUnsupportedAssignableType(a)
		}
	}

	if len(u.where) > 0 {
		u.sb.WriteString(" WHERE ")
		if err = u.buildPredicates(u.where); err != nil {
			return nil, err
		}
	}
	u.sb.WriteByte(';')
	return &Query{SQL: u.sb.String(), Args: u.args}, nil
}

func (u *Updater[T]) Exec(ctx context.Context) Result {
	c := u.sess.getCore()
	meta, err := c.r.Get(new(T))
	if err != nil {
		return Result{err: err}
	}
	res := exec(ctx, u.sess, c, &QueryContext{
		Type:    "UPDATE",
		builder: u,
		Model:   meta,
	})
	if r, ok := res.Result.(Result); ok {
		return r
	}
	return Result{err: res.Err}
}
