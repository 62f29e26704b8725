package qorm

import (
	"reflect"
	"strings"

	"github.com/coderi421/qorm/internal/errs"
	"github.com/coderi421/qorm/model"
)

type builder struct {
	sb      strings.Builder // sb is used to build the SQL query string.
	args    []Value         // args holds the parameters in placeholder order.
	model   *model.Model    // model is the model the statement targets.
	dialect Dialect
	quoter  byte
	r       model.Registry
	joins   []JoinStep // joins collected from column paths, in first-use order
}

func (b *builder) quote(name string) {
	b.sb.WriteByte(b.quoter)
	b.sb.WriteString(name)
	b.sb.WriteByte(b.quoter)
}

// addArg 写入占位符并把值追加到参数列表，
// 两者的顺序必须严格一致
func (b *builder) addArg(v Value) {
	b.sb.WriteString(b.dialect.placeholder(len(b.args) + 1))
	b.args = append(b.args, v)
}

// buildPredicates 把 WHERE/HAVING 的多个条件按 AND 拼起来
func (b *builder) buildPredicates(ps []Condition) error {
	if len(ps) == 1 {
		return b.buildCondition(ps[0], false)
	}
	return b.buildCondition(Conjunction(ps), false)
}

// buildCondition recursively renders a condition tree.
// Parameter values become placeholders in depth-first order;
// identifiers are the only thing ever inlined.
func (b *builder) buildCondition(c Condition, paren bool) error {
	if c == nil {
		return nil
	}
	switch cond := c.(type) {
	case Conjunction:
		return b.buildJunction([]Condition(cond), "AND", "TRUE", paren)
	case Disjunction:
		return b.buildJunction([]Condition(cond), "OR", "FALSE", paren)
	case UnaryCondition:
		return b.buildUnary(cond)
	case BinaryCondition:
		return b.buildBinary(cond, paren)
	case TernaryCondition:
		return b.buildTernary(cond)
	case ColumnRef:
		return b.buildColumnRef(cond)
	case Aggregate:
		return b.buildAggregate(cond, false)
	case valueLeaf:
		if cond.err != nil {
			return cond.err
		}
		b.addArg(cond.val)
		return nil
	case RawExpr:
		return b.buildRaw(cond)
	default:
		return errs.NewErrUnsupportedExpressionType(c)
	}
}

// buildJunction 渲染 AND/OR 列表。
// 空列表渲染成恒真/恒假字面量，这样空的 In()/NotIn()
// 不需要任何特殊处理
func (b *builder) buildJunction(cs []Condition, op, empty string, paren bool) error {
	if len(cs) == 0 {
		b.sb.WriteString(empty)
		return nil
	}
	if len(cs) == 1 {
		return b.buildCondition(cs[0], paren)
	}
	if paren {
		b.sb.WriteByte('(')
	}
	for i, c := range cs {
		if i > 0 {
			b.sb.WriteByte(' ')
			b.sb.WriteString(op)
			b.sb.WriteByte(' ')
		}
		if err := b.buildCondition(c, true); err != nil {
			return err
		}
	}
	if paren {
		b.sb.WriteByte(')')
	}
	return nil
}

func (b *builder) buildUnary(cond UnaryCondition) error {
	switch cond.op {
	case opIsNull, opIsNotNull:
		if err := b.buildCondition(cond.operand, true); err != nil {
			return err
		}
		b.sb.WriteByte(' ')
		b.sb.WriteString(string(cond.op))
	case opNot, opExists, opNotExists:
		b.sb.WriteString(string(cond.op))
		b.sb.WriteString(" (")
		if err := b.buildCondition(cond.operand, false); err != nil {
			return err
		}
		b.sb.WriteByte(')')
	default:
		return errs.NewErrUnsupportedExpressionType(cond.op)
	}
	return nil
}

func (b *builder) buildBinary(cond BinaryCondition, paren bool) error {
	// 多列字段的比较要按列展开，左边是列引用、
	// 右边是值叶子的时候才可能出现
	if ref, ok := cond.left.(ColumnRef); ok && len(ref.path) == 0 && b.model != nil {
		if fd, exist := b.model.FieldMap[ref.field]; exist && fd.Kind == model.KindComposite {
			return b.buildComposite(fd, cond, paren)
		}
	}

	op, err := b.dialect.binaryOp(cond.op)
	if err != nil {
		return err
	}
	if paren {
		b.sb.WriteByte('(')
	}
	if err := b.buildCondition(cond.left, true); err != nil {
		return err
	}
	b.sb.WriteByte(' ')
	b.sb.WriteString(op)
	b.sb.WriteByte(' ')
	if err := b.buildCondition(cond.right, true); err != nil {
		return err
	}
	if paren {
		b.sb.WriteByte(')')
	}
	return nil
}

// buildComposite 把对多列字段的一次比较展开成
// 每列一个比较的合取。只支持 = 和 <>
func (b *builder) buildComposite(fd *model.Field, cond BinaryCondition, paren bool) error {
	if cond.op != opEQ && cond.op != opNEQ {
		return errs.NewErrUnsupportedOperation(b.dialect.name(), "多列字段只支持 = 和 <> 比较")
	}
	leaf, ok := cond.right.(valueLeaf)
	if !ok {
		return errs.NewErrUnsupportedExpressionType(cond.right)
	}
	if leaf.raw == nil {
		return errs.NewErrUnsupportedArgType(leaf.raw)
	}
	rv := reflect.ValueOf(leaf.raw)
	if rv.Kind() != reflect.Struct {
		return errs.NewErrUnsupportedArgType(leaf.raw)
	}
	cs := make(Conjunction, 0, len(fd.Subs))
	for _, sub := range fd.Subs {
		sv := rv.Field(sub.Index).Interface()
		cs = append(cs, BinaryCondition{
			op:    cond.op,
			left:  ColumnRef{field: fd.GoName + "." + sub.GoName},
			right: leafOf(sv),
		})
	}
	return b.buildJunction(cs, "AND", "TRUE", paren)
}

func (b *builder) buildTernary(cond TernaryCondition) error {
	if err := b.buildCondition(cond.first, true); err != nil {
		return err
	}
	b.sb.WriteByte(' ')
	b.sb.WriteString(string(cond.op))
	b.sb.WriteByte(' ')
	if err := b.buildCondition(cond.second, true); err != nil {
		return err
	}
	b.sb.WriteString(" AND ")
	return b.buildCondition(cond.third, true)
}

// buildColumnRef resolves a field reference through the metadata and
// writes the quoted column. Unknown fields fail here, before any SQL
// reaches a database.
func (b *builder) buildColumnRef(ref ColumnRef) error {
	if len(ref.path) > 0 {
		if err := b.registerPath(ref.path); err != nil {
			return err
		}
		last := ref.path[len(ref.path)-1]
		fd, err := b.r.Resolve(last.Table, ref.field)
		if err != nil {
			return err
		}
		b.quote(ref.alias)
		b.sb.WriteByte('.')
		b.quote(fd.ColName)
		return nil
	}

	if b.model == nil {
		return errs.NewErrUnknownField(ref.field)
	}
	// Composite 的子列写成 Outer.Sub
	if outer, sub, ok := strings.Cut(ref.field, "."); ok {
		fd, exist := b.model.FieldMap[outer]
		if !exist || fd.Kind != model.KindComposite {
			return errs.NewErrUnknownField(ref.field)
		}
		for _, s := range fd.Subs {
			if s.GoName == sub {
				b.quote(s.ColName)
				return nil
			}
		}
		return errs.NewErrUnknownField(ref.field)
	}
	fd, ok := b.model.FieldMap[ref.field]
	// 反向引用不占列，多列字段没有整体列名，都不能直接出现在 SQL 里
	if !ok || fd.Kind == model.KindBackRef || fd.Kind == model.KindComposite {
		return errs.NewErrUnknownField(ref.field)
	}
	b.quote(fd.ColName)
	return nil
}

// buildAggregate 渲染聚合调用，useAlias 只在 SELECT 列表里为真
func (b *builder) buildAggregate(a Aggregate, useAlias bool) error {
	fd, ok := b.model.FieldMap[a.arg]
	if !ok {
		return errs.NewErrUnknownField(a.arg)
	}
	b.sb.WriteString(a.fn)
	b.sb.WriteByte('(')
	b.quote(fd.ColName)
	b.sb.WriteByte(')')
	if useAlias && a.alias != "" {
		b.sb.WriteString(" AS ")
		b.quote(a.alias)
	}
	return nil
}

// registerPath 去重收集 JOIN 步骤，别名冲突视为错误
func (b *builder) registerPath(path []JoinStep) error {
	for _, step := range path {
		dup := false
		for _, got := range b.joins {
			if got.Alias == step.Alias {
				if got != step {
					return errs.NewErrUnsupportedOperation(b.dialect.name(), "JOIN 别名 "+step.Alias+" 冲突")
				}
				dup = true
				break
			}
		}
		if !dup {
			b.joins = append(b.joins, step)
		}
	}
	return nil
}

// buildJoins 渲染收集到的 JOIN 子句，
// 第一步挂在主表上，后续步骤挂在前一步的别名上
func (b *builder) buildJoins() error {
	prevTable := b.model.TableName
	prevRef := b.model.TableName
	for _, step := range b.joins {
		from, err := b.r.Resolve(prevTable, step.From)
		if err != nil {
			return err
		}
		to, err := b.r.Resolve(step.Table, step.To)
		if err != nil {
			return err
		}
		b.sb.WriteString(" JOIN ")
		b.quote(step.Table)
		b.sb.WriteString(" AS ")
		b.quote(step.Alias)
		b.sb.WriteString(" ON ")
		b.quote(prevRef)
		b.sb.WriteByte('.')
		b.quote(from.ColName)
		b.sb.WriteString(" = ")
		b.quote(step.Alias)
		b.sb.WriteByte('.')
		b.quote(to.ColName)
		prevTable = step.Table
		prevRef = step.Alias
	}
	return nil
}

func (b *builder) buildRaw(raw RawExpr) error {
	b.sb.WriteString(raw.raw)
	for _, arg := range raw.args {
		v, ok := valueOf(arg)
		if !ok {
			return errs.NewErrUnsupportedArgType(arg)
		}
		b.args = append(b.args, v)
	}
	return nil
}

// buildAssignment 渲染 SET col = expr
func (b *builder) buildAssignment(assign Assignment) error {
	fd, ok := b.model.FieldMap[assign.column]
	if !ok {
		return errs.NewErrUnknownField(assign.column)
	}
	b.quote(fd.ColName)
	b.sb.WriteByte('=')
	return b.buildExpr(assign.val)
}

// buildExpr 渲染赋值位置上的表达式
func (b *builder) buildExpr(e any) error {
	switch expr := e.(type) {
	case valueLeaf:
		if expr.err != nil {
			return expr.err
		}
		b.addArg(expr.val)
		return nil
	case ColumnRef:
		return b.buildColumnRef(expr)
	case MathExpr:
		b.sb.WriteByte('(')
		if err := b.buildExpr(expr.left); err != nil {
			return err
		}
		b.sb.WriteByte(' ')
		b.sb.WriteString(expr.op)
		b.sb.WriteByte(' ')
		if err := b.buildExpr(expr.right); err != nil {
			return err
		}
		b.sb.WriteByte(')')
		return nil
	case RawExpr:
		return b.buildRaw(expr)
	default:
		return errs.NewErrUnsupportedExpressionType(e)
	}
}
