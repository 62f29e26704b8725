package model

// DefaultKind 标记默认值字面量的类型
type DefaultKind uint8

const (
	DefaultString DefaultKind = iota
	DefaultInteger
	DefaultFloat
	DefaultBoolean
)

// DefaultValue 字段的默认值字面量
type DefaultValue struct {
	Kind    DefaultKind
	String  string
	Integer int64
	Float   float64
	Boolean bool
}

// Annotations 是字段上一组可选属性的平铺记录。
// 合法组合由 Check 在注册时校验，见 linter.go
type Annotations struct {
	AutoCreateTime bool
	AutoUpdateTime bool
	AutoIncrement  bool
	PrimaryKey     bool
	Unique         bool
	Index          bool
	// MaxLength 0 表示未设置
	MaxLength int
	Choices   []string
	Default   *DefaultValue
	// ForeignKey 外键目标，由 on=table.column 标签或类型推导而来
	ForeignKey *Reference
}

// merge 把类型隐含的注解并进显式注解。
// 例如外键字段继承目标字段的 max_length
func (a Annotations) merge(implied Annotations) Annotations {
	out := a
	if !out.AutoCreateTime {
		out.AutoCreateTime = implied.AutoCreateTime
	}
	if !out.AutoUpdateTime {
		out.AutoUpdateTime = implied.AutoUpdateTime
	}
	if out.MaxLength == 0 {
		out.MaxLength = implied.MaxLength
	}
	if len(out.Choices) == 0 {
		out.Choices = implied.Choices
	}
	if out.Default == nil {
		out.Default = implied.Default
	}
	if out.ForeignKey == nil {
		out.ForeignKey = implied.ForeignKey
	}
	return out
}
