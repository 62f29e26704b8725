package qorm

// Aggregate 聚合函数调用，可以出现在 SELECT 列表和 HAVING 里
type Aggregate struct {
	fn    string
	arg   string
	alias string
}

func Avg(field string) Aggregate {
	return Aggregate{fn: "AVG", arg: field}
}

func Max(field string) Aggregate {
	return Aggregate{fn: "MAX", arg: field}
}

func Min(field string) Aggregate {
	return Aggregate{fn: "MIN", arg: field}
}

func Count(field string) Aggregate {
	return Aggregate{fn: "COUNT", arg: field}
}

func Sum(field string) Aggregate {
	return Aggregate{fn: "SUM", arg: field}
}

// As 给聚合结果起别名，只对 SELECT 列表生效
func (a Aggregate) As(alias string) Aggregate {
	return Aggregate{fn: a.fn, arg: a.arg, alias: alias}
}

func (a Aggregate) cond() {}

func (a Aggregate) selectedExpr() any {
	return a
}

func (a Aggregate) binary(op binaryOp, arg any) Condition {
	return BinaryCondition{op: op, left: a, right: leafOf(arg)}
}

// EQ 等只在 HAVING 里有意义
func (a Aggregate) EQ(arg any) Condition  { return a.binary(opEQ, arg) }
func (a Aggregate) NEQ(arg any) Condition { return a.binary(opNEQ, arg) }
func (a Aggregate) LT(arg any) Condition  { return a.binary(opLT, arg) }
func (a Aggregate) LTE(arg any) Condition { return a.binary(opLTE, arg) }
func (a Aggregate) GT(arg any) Condition  { return a.binary(opGT, arg) }
func (a Aggregate) GTE(arg any) Condition { return a.binary(opGTE, arg) }
