package qorm

// Assignable 标记能出现在 UPDATE SET 和 UPSERT 更新列表里的东西
type Assignable interface {
	assign()
}

// Assignment 一条 col = expr 赋值
type Assignment struct {
	column string
	val    any
}

func (Assignment) assign() {}

// Assign 右边可以是普通值、MathExpr 或 Raw 片段，
// 例如 Assign("Age", 19)、Assign("Age", O[int]("Age").Add(1))
func Assign(column string, val any) Assignment {
	switch val.(type) {
	case MathExpr, RawExpr, ColumnRef:
		return Assignment{column: column, val: val}
	default:
		return Assignment{column: column, val: leafOf(val)}
	}
}

// columnAssign 在赋值位置引用一列：
// Updater.Set 里表示取实体的当前值，
// UPSERT 里表示沿用这次插入的值
type columnAssign struct {
	name string
}

func (columnAssign) assign() {}

// Col 例如 Updater.Set(Col("Age")) 或 Upsert 的 Update(Col("Age"))
func Col(name string) Assignable {
	return columnAssign{name: name}
}
