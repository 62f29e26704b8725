package qorm

import "github.com/coderi421/qorm/internal/errs"

// Condition 是与方言无关的条件树。
// 暂时没想好怎么设计方法，所以直接做成标记接口
type Condition interface {
	cond()
}

type unaryOp string
type binaryOp string
type ternaryOp string

const (
	opIsNull    unaryOp = "IS NULL"
	opIsNotNull unaryOp = "IS NOT NULL"
	opNot       unaryOp = "NOT"
	opExists    unaryOp = "EXISTS"
	opNotExists unaryOp = "NOT EXISTS"

	opEQ        binaryOp = "="
	opNEQ       binaryOp = "<>"
	opGT        binaryOp = ">"
	opGTE       binaryOp = ">="
	opLT        binaryOp = "<"
	opLTE       binaryOp = "<="
	opLike      binaryOp = "LIKE"
	opNotLike   binaryOp = "NOT LIKE"
	opRegexp    binaryOp = "REGEXP"
	opNotRegexp binaryOp = "NOT REGEXP"

	opBetween    ternaryOp = "BETWEEN"
	opNotBetween ternaryOp = "NOT BETWEEN"
)

// Conjunction 是一组用 AND 连接的条件。
// 空的 Conjunction 渲染成恒真
type Conjunction []Condition

func (Conjunction) cond() {}

// Disjunction 是一组用 OR 连接的条件。
// 空的 Disjunction 渲染成恒假
type Disjunction []Condition

func (Disjunction) cond() {}

// UnaryCondition 例如 IS NULL、NOT
type UnaryCondition struct {
	op      unaryOp
	operand Condition
}

func (UnaryCondition) cond() {}

// BinaryCondition 例如 `age` > ?
type BinaryCondition struct {
	op    binaryOp
	left  Condition
	right Condition
}

func (BinaryCondition) cond() {}

// TernaryCondition 例如 `age` BETWEEN ? AND ?
type TernaryCondition struct {
	op     ternaryOp
	first  Condition
	second Condition
	third  Condition
}

func (TernaryCondition) cond() {}

// ColumnRef 引用某个模型的字段，渲染前会通过元数据校验。
// path 非空时表示这是一条跨表引用，需要 JOIN
type ColumnRef struct {
	field string
	alias string
	path  []JoinStep
	// as 只在 SELECT 列表里生效
	as string
}

func (ColumnRef) cond() {}

// valueLeaf 是条件树中的参数叶子。
// err 记录构造时的类型转换失败，Build 的时候统一抛出
type valueLeaf struct {
	val Value
	// raw 保留原始 Go 值，多列字段展开的时候要用
	raw any
	err error
}

func (valueLeaf) cond() {}

// And 把多个条件合并成一个 Conjunction
func And(cs ...Condition) Condition {
	return Conjunction(cs)
}

// Or 把多个条件合并成一个 Disjunction
func Or(cs ...Condition) Condition {
	return Disjunction(cs)
}

// Not 对一个条件取反
func Not(c Condition) Condition {
	return UnaryCondition{op: opNot, operand: c}
}

// Exists 子查询存在性判断，配合 Raw 使用
func Exists(c Condition) Condition {
	return UnaryCondition{op: opExists, operand: c}
}

func NotExists(c Condition) Condition {
	return UnaryCondition{op: opNotExists, operand: c}
}

func leafOf(val any) valueLeaf {
	v, ok := valueOf(val)
	if !ok {
		return valueLeaf{raw: val, err: errs.NewErrUnsupportedArgType(val)}
	}
	return valueLeaf{val: v, raw: val}
}
