package qorm

import (
	"context"
	"errors"

	"github.com/coderi421/qorm/internal/errs"
	"github.com/coderi421/qorm/model"
)

// Selector 构建并执行 SELECT 语句。
// 各个子句只能设置一次，重复设置在 Build 时报错
type Selector[T any] struct {
	builder
	sess Session

	table   string
	columns []Selectable
	where   []Condition
	groupBy []string
	having  []Condition
	orderBy []OrderBy

	limit     int64
	hasLimit  bool
	offset    int64
	hasOffset bool

	err error
}

func NewSelector[T any](sess Session) *Selector[T] {
	c := sess.getCore()
	return &Selector[T]{
		sess: sess,
		builder: builder{
			r:       c.r,
			dialect: c.dialect,
			quoter:  c.dialect.quoter(),
		},
	}
}

// Select 指定目标列，不调用就是模型的全部列
func (s *Selector[T]) Select(cols ...Selectable) *Selector[T] {
	s.columns = cols
	return s
}

// From 覆盖模型推导出来的表名
func (s *Selector[T]) From(table string) *Selector[T] {
	s.table = table
	return s
}

// Where 多个条件按 AND 合并。
// 条件阶段只有一次，第二次调用是使用错误
func (s *Selector[T]) Where(ps ...Condition) *Selector[T] {
	if s.where != nil && s.err == nil {
		s.err = errs.ErrConditionAlreadySet
		return s
	}
	s.where = ps
	return s
}

func (s *Selector[T]) GroupBy(fields ...string) *Selector[T] {
	s.groupBy = fields
	return s
}

func (s *Selector[T]) Having(ps ...Condition) *Selector[T] {
	if s.having != nil && s.err == nil {
		s.err = errs.ErrConditionAlreadySet
		return s
	}
	s.having = ps
	return s
}

func (s *Selector[T]) OrderBy(os ...OrderBy) *Selector[T] {
	s.orderBy = os
	return s
}

func (s *Selector[T]) Limit(limit int64) *Selector[T] {
	s.limit = limit
	s.hasLimit = true
	return s
}

func (s *Selector[T]) Offset(offset int64) *Selector[T] {
	s.offset = offset
	s.hasOffset = true
	return s
}

// Range 半开区间 [start, end)，翻译成 OFFSET start LIMIT end-start
func (s *Selector[T]) Range(start, end int64) *Selector[T] {
	if end < start {
		end = start
	}
	return s.Offset(start).Limit(end - start)
}

// RangeInclusive 闭区间 [start, end]
func (s *Selector[T]) RangeInclusive(start, end int64) *Selector[T] {
	if end < start {
		return s.Offset(start).Limit(0)
	}
	return s.Offset(start).Limit(end - start + 1)
}

func (s *Selector[T]) Build() (*Query, error) {
	if s.err != nil {
		return nil, s.err
	}
	var err error
	s.model, err = s.r.Get(new(T))
	if err != nil {
		return nil, err
	}
	s.sb.Reset()
	s.args = nil
	s.joins = nil

	// JOIN 要写在 WHERE 前面，先把所有跨表路径收齐
	for _, col := range s.columns {
		if ref, ok := col.selectedExpr().(ColumnRef); ok && len(ref.path) > 0 {
			if err = s.registerPath(ref.path); err != nil {
				return nil, err
			}
		}
	}
	for _, p := range s.where {
		if err = s.collectJoins(p); err != nil {
			return nil, err
		}
	}
	for _, p := range s.having {
		if err = s.collectJoins(p); err != nil {
			return nil, err
		}
	}

	s.sb.WriteString("SELECT ")
	if err = s.buildColumns(); err != nil {
		return nil, err
	}
	s.sb.WriteString(" FROM ")
	table := s.table
	if table == "" {
		table = s.model.TableName
	}
	s.quote(table)
	if err = s.buildJoins(); err != nil {
		return nil, err
	}

	if len(s.where) > 0 {
		s.sb.WriteString(" WHERE ")
		if err = s.buildPredicates(s.where); err != nil {
			return nil, err
		}
	}

	if len(s.groupBy) > 0 {
		s.sb.WriteString(" GROUP BY ")
		for i, fd := range s.groupBy {
			if i > 0 {
				s.sb.WriteByte(',')
			}
			if err = s.buildColumnRef(ColumnRef{field: fd}); err != nil {
				return nil, err
			}
		}
	}

	if len(s.having) > 0 {
		s.sb.WriteString(" HAVING ")
		if err = s.buildPredicates(s.having); err != nil {
			return nil, err
		}
	}

	if len(s.orderBy) > 0 {
		s.sb.WriteString(" ORDER BY ")
		for i, ob := range s.orderBy {
			if i > 0 {
				s.sb.WriteByte(',')
			}
			if err = s.buildColumnRef(ColumnRef{field: ob.field}); err != nil {
				return nil, err
			}
			s.sb.WriteByte(' ')
			s.sb.WriteString(ob.order)
		}
	}

	if s.hasLimit || s.hasOffset {
		if err = s.dialect.buildLimitOffset(&s.builder, s.hasLimit, s.limit, s.hasOffset, s.offset); err != nil {
			return nil, err
		}
	}

	s.sb.WriteByte(';')
	return &Query{SQL: s.sb.String(), Args: s.args}, nil
}

func (s *Selector[T]) buildColumns() error {
	if len(s.columns) == 0 {
		// 全部列：反向引用不占列，多列字段按子列展开
		first := true
		for _, fd := range s.model.Fields {
			switch fd.Kind {
			case model.KindBackRef:
				continue
			case model.KindComposite:
				for _, sub := range fd.Subs {
					if !first {
						s.sb.WriteByte(',')
					}
					first = false
					s.quote(sub.ColName)
				}
			default:
				if !first {
					s.sb.WriteByte(',')
				}
				first = false
				s.quote(fd.ColName)
			}
		}
		return nil
	}

	for i, col := range s.columns {
		if i > 0 {
			s.sb.WriteByte(',')
		}
		switch expr := col.selectedExpr().(type) {
		case ColumnRef:
			if err := s.buildColumnRef(expr); err != nil {
				return err
			}
			if expr.as != "" {
				s.sb.WriteString(" AS ")
				s.quote(expr.as)
			}
		case Aggregate:
			if err := s.buildAggregate(expr, true); err != nil {
				return err
			}
		case RawExpr:
			if err := s.buildRaw(expr); err != nil {
				return err
			}
		default:
			return errs.NewErrUnsupportedSelectable(col)
		}
	}
	return nil
}

// collectJoins 在渲染前把条件树里的跨表路径收集起来
func (b *builder) collectJoins(c Condition) error {
	switch cond := c.(type) {
	case Conjunction:
		for _, sub := range cond {
			if err := b.collectJoins(sub); err != nil {
				return err
			}
		}
	case Disjunction:
		for _, sub := range cond {
			if err := b.collectJoins(sub); err != nil {
				return err
			}
		}
	case UnaryCondition:
		return b.collectJoins(cond.operand)
	case BinaryCondition:
		if err := b.collectJoins(cond.left); err != nil {
			return err
		}
		return b.collectJoins(cond.right)
	case TernaryCondition:
		if err := b.collectJoins(cond.first); err != nil {
			return err
		}
		if err := b.collectJoins(cond.second); err != nil {
			return err
		}
		return b.collectJoins(cond.third)
	case ColumnRef:
		if len(cond.path) > 0 {
			return b.registerPath(cond.path)
		}
	}
	return nil
}

// Get 严格单行：没有行返回 ErrNoRows，多于一行返回 ErrTooManyRows。
// 没设置过 LIMIT 时只探测两行，不会拖全表
func (s *Selector[T]) Get(ctx context.Context) (*T, error) {
	if !s.hasLimit {
		s.Limit(2)
	}
	c := s.sess.getCore()
	meta, err := c.r.Get(new(T))
	if err != nil {
		return nil, err
	}
	res := get[T](ctx, s.sess, c, &QueryContext{
		Type:    "SELECT",
		builder: s,
		Model:   meta,
	})
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Result.(*T), nil
}

// GetOptional 和 Get 一样严格，只是没有行不算错误
func (s *Selector[T]) GetOptional(ctx context.Context) (*T, error) {
	res, err := s.Get(ctx)
	if errors.Is(err, errs.ErrNoRows) {
		return nil, nil
	}
	return res, err
}

func (s *Selector[T]) GetMulti(ctx context.Context) ([]*T, error) {
	c := s.sess.getCore()
	meta, err := c.r.Get(new(T))
	if err != nil {
		return nil, err
	}
	res := getMulti[T](ctx, s.sess, c, &QueryContext{
		Type:    "SELECT",
		builder: s,
		Model:   meta,
	})
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Result.([]*T), nil
}

// Stream 惰性逐行读取，调用方负责 Close。
// 行是从游标上解码的，不会一次性进内存
func (s *Selector[T]) Stream(ctx context.Context) (*Rows[T], error) {
	q, err := s.Build()
	if err != nil {
		return nil, err
	}
	c := s.sess.getCore()
	rows, err := s.sess.queryContext(ctx, q.SQL, q.DriverArgs()...)
	if err != nil {
		return nil, err
	}
	return &Rows[T]{
		rows:       rows,
		meta:       s.model,
		valCreator: c.valCreator,
	}, nil
}

// OrderBy 排序子句的一项
type OrderBy struct {
	field string
	order string
}

func Asc(field string) OrderBy {
	return OrderBy{field: field, order: "ASC"}
}

func Desc(field string) OrderBy {
	return OrderBy{field: field, order: "DESC"}
}
