package qorm

// Selectable 标记能出现在 SELECT 列表里的表达式：
// 列、聚合函数和原生片段
type Selectable interface {
	selectedExpr() any
}

func (c Column[T]) selectedExpr() any {
	return c.ref()
}

// As 给这一列起别名，只对 SELECT 列表生效
func (c Column[T]) As(alias string) Selectable {
	r := c.ref()
	r.as = alias
	return selected{expr: r}
}

// selected 包一层，让带别名的 ColumnRef 也能作为 Selectable 传递
type selected struct {
	expr any
}

func (s selected) selectedExpr() any {
	return s.expr
}

// RawExpr 代表一段原生 SQL。
// 它绕过元数据校验，占位符和参数的对应关系由调用方自己保证
type RawExpr struct {
	raw  string
	args []any
}

// Raw 例如 Raw("`age` < ?", 18).AsCondition()
func Raw(expr string, args ...any) RawExpr {
	return RawExpr{raw: expr, args: args}
}

func (r RawExpr) cond() {}

func (r RawExpr) selectedExpr() any {
	return r
}

// AsCondition 把原生片段当作 WHERE/HAVING 条件用。
// RawExpr 本身就实现了 Condition，这个方法只是让调用处读起来更清楚
func (r RawExpr) AsCondition() Condition {
	return r
}

// MathExpr 赋值位置上的算术表达式，
// 例如 Assign("Age", O[int]("Age").Add(1))
type MathExpr struct {
	left  any
	op    string
	right any
}

func (m MathExpr) Add(delta any) MathExpr {
	return MathExpr{left: m, op: "+", right: leafOf(delta)}
}

func (m MathExpr) Multi(factor any) MathExpr {
	return MathExpr{left: m, op: "*", right: leafOf(factor)}
}

func (c OrdColumn[T]) Add(delta T) MathExpr {
	return MathExpr{left: c.ref(), op: "+", right: leafOf(delta)}
}

func (c OrdColumn[T]) Multi(factor T) MathExpr {
	return MathExpr{left: c.ref(), op: "*", right: leafOf(factor)}
}
