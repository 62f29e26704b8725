package qorm

// ordered 约束了支持 < <= > >= BETWEEN 的字段类型
type ordered interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 |
		~float32 | ~float64 | ~string
}

// JoinStep 是跨表路径上的一步：
// JOIN table AS alias ON current.from = alias.to
type JoinStep struct {
	Table string
	Alias string
	From  string
	To    string
}

// Column 是对注册字段的类型化引用。
// 比较的右值类型在编译期就被钉死成 T，
// 字段本身是否存在、类型是否一致，在 Build 时通过元数据校验
type Column[T any] struct {
	name string
	path []JoinStep
}

// C 引用当前模型的字段，例如 C[int64]("Id").EQ(12)
func C[T any](name string) Column[T] {
	return Column[T]{name: name}
}

// Via 把这个引用挂到一条 JOIN 路径上，
// 字段将相对路径终点的模型解析
func (c Column[T]) Via(steps ...JoinStep) Column[T] {
	c.path = steps
	return c
}

func (c Column[T]) ref() ColumnRef {
	r := ColumnRef{field: c.name, path: c.path}
	if len(c.path) > 0 {
		r.alias = c.path[len(c.path)-1].Alias
	}
	return r
}

func (c Column[T]) binary(op binaryOp, arg T) Condition {
	return BinaryCondition{op: op, left: c.ref(), right: leafOf(arg)}
}

// EQ 例如 C[int64]("Id").EQ(12)
func (c Column[T]) EQ(arg T) Condition {
	return c.binary(opEQ, arg)
}

func (c Column[T]) NEQ(arg T) Condition {
	return c.binary(opNEQ, arg)
}

func (c Column[T]) IsNull() Condition {
	return UnaryCondition{op: opIsNull, operand: c.ref()}
}

func (c Column[T]) IsNotNull() Condition {
	return UnaryCondition{op: opIsNotNull, operand: c.ref()}
}

// In 展开成每个值一个等值比较的 Disjunction，
// 空列表就是一个空 Disjunction，渲染成恒假
func (c Column[T]) In(args ...T) Condition {
	ds := make(Disjunction, 0, len(args))
	for _, arg := range args {
		ds = append(ds, c.binary(opEQ, arg))
	}
	return ds
}

// NotIn 展开成每个值一个不等比较的 Conjunction，
// 空列表渲染成恒真
func (c Column[T]) NotIn(args ...T) Condition {
	cs := make(Conjunction, 0, len(args))
	for _, arg := range args {
		cs = append(cs, c.binary(opNEQ, arg))
	}
	return cs
}

// OrdColumn 在 Column 上追加全序比较
type OrdColumn[T ordered] struct {
	Column[T]
}

// O 引用一个可排序字段，例如 O[int64]("Age").GT(18)
func O[T ordered](name string) OrdColumn[T] {
	return OrdColumn[T]{Column: C[T](name)}
}

func (c OrdColumn[T]) Via(steps ...JoinStep) OrdColumn[T] {
	c.Column = c.Column.Via(steps...)
	return c
}

func (c OrdColumn[T]) LT(arg T) Condition  { return c.binary(opLT, arg) }
func (c OrdColumn[T]) LTE(arg T) Condition { return c.binary(opLTE, arg) }
func (c OrdColumn[T]) GT(arg T) Condition  { return c.binary(opGT, arg) }
func (c OrdColumn[T]) GTE(arg T) Condition { return c.binary(opGTE, arg) }

func (c OrdColumn[T]) Between(lower, upper T) Condition {
	return TernaryCondition{
		op:     opBetween,
		first:  c.ref(),
		second: leafOf(lower),
		third:  leafOf(upper),
	}
}

func (c OrdColumn[T]) NotBetween(lower, upper T) Condition {
	return TernaryCondition{
		op:     opNotBetween,
		first:  c.ref(),
		second: leafOf(lower),
		third:  leafOf(upper),
	}
}

// StrColumn 在 OrdColumn 上追加模式匹配
type StrColumn struct {
	OrdColumn[string]
}

// S 引用一个字符串字段，例如 S("Name").Like("Bob%")
func S(name string) StrColumn {
	return StrColumn{OrdColumn: O[string](name)}
}

func (c StrColumn) Via(steps ...JoinStep) StrColumn {
	c.OrdColumn = c.OrdColumn.Via(steps...)
	return c
}

func (c StrColumn) Like(pattern string) Condition    { return c.binary(opLike, pattern) }
func (c StrColumn) NotLike(pattern string) Condition { return c.binary(opNotLike, pattern) }

// Regexp 不是所有方言都支持，构造本身总是成功，
// 不支持的方言在 Build 时返回 UnsupportedOperation
func (c StrColumn) Regexp(pattern string) Condition    { return c.binary(opRegexp, pattern) }
func (c StrColumn) NotRegexp(pattern string) Condition { return c.binary(opNotRegexp, pattern) }
