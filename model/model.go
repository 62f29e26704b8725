package model

import (
	"reflect"

	"github.com/coderi421/qorm/internal/errs"
)

// Option is a function type that modifies a Model.
type Option func(model *Model) error

// DBType 是字段在数据库中的类型，
// 词汇表是封闭的，扩展它意味着破坏 IMR 接口
type DBType string

const (
	DBTypeVarChar   DBType = "varchar"
	DBTypeVarBinary DBType = "varbinary"
	DBTypeInt8      DBType = "int8"
	DBTypeInt16     DBType = "int16"
	DBTypeInt32     DBType = "int32"
	DBTypeInt64     DBType = "int64"
	DBTypeUInt8     DBType = "uint8"
	DBTypeUInt16    DBType = "uint16"
	DBTypeUInt32    DBType = "uint32"
	DBTypeFloat     DBType = "float"
	DBTypeDouble    DBType = "double"
	DBTypeBoolean   DBType = "boolean"
	DBTypeDate      DBType = "date"
	DBTypeDateTime  DBType = "datetime"
	DBTypeTime      DBType = "time"
	// DBTypeChoices 带 choices 注解的字符串字段会映射过来
	DBTypeChoices DBType = "choices"
)

// Kind 区分字段的列数语义
type Kind uint8

const (
	// KindScalar 普通字段，占一列
	KindScalar Kind = iota
	// KindForeignKey 外键字段，存的是目标模型主键的值，占一列
	KindForeignKey
	// KindBackRef 反向引用，只是视图，不占列
	KindBackRef
	// KindComposite 多列字段，由内嵌结构体展开而来
	KindComposite
)

// Source 记录模型或字段定义在源码中的位置，
// 迁移工具靠它给出更好的报错
type Source struct {
	File string
	Line int
}

// Reference 外键目标：某个模型的单列字段
type Reference struct {
	Table  string
	Column string
}

// Field 字段相关的全部静态描述
type Field struct {
	// ColName 数据库中的字段名
	ColName string
	// GoName go struct 中的名字
	GoName string
	Kind   Kind
	// Columns 该字段占据的列数，BackRef 为 0，Composite 为 N
	Columns int
	DBType  DBType
	// Type go 中的数据类型，转换成 reflect.Value 的时候要用
	Type reflect.Type
	// Offset 相对于对象起始地址的字段偏移量
	Offset uintptr
	// Index 在结构体中的下标，Inserter 取值时用
	Index int
	// Nullable 由类型推导：指针或者 sql.Null* 包装
	Nullable    bool
	Annotations Annotations
	// Ref 只在 Kind 为 ForeignKey/BackRef 时非空
	Ref *Reference
	// Subs 只在 Kind 为 Composite 时非空，按展开顺序排列
	Subs []*Field
	// Owner 子列回指所属的多列字段，顶层字段为 nil
	Owner *Field
	// Source 可选的定义位置
	Source *Source
}

// Model 结构体映射 db 后的结构
type Model struct {
	// TableName 结构体对应的表名，注册表内唯一
	TableName string
	// Fields 按定义顺序排列
	Fields []*Field
	// FieldMap 结构体属性名为 key
	FieldMap map[string]*Field
	// ColumnMap DB column name 为 key
	ColumnMap map[string]*Field
	// PrimaryKey 有且仅有一个
	PrimaryKey *Field
	Source     *Source
}

// 我们支持的全部标签上的 key 都放在这里
// 方便用户查找，和我们后期维护
const (
	tagORMName = "orm"

	tagKeyColumn         = "column"
	tagKeyPrimaryKey     = "primary_key"
	tagKeyUnique         = "unique"
	tagKeyIndex          = "index"
	tagKeyAutoIncrement  = "auto_increment"
	tagKeyAutoCreateTime = "auto_create_time"
	tagKeyAutoUpdateTime = "auto_update_time"
	tagKeyMaxLength      = "max_length"
	tagKeyDefault        = "default"
	tagKeyChoices        = "choices"
	tagKeyOn             = "on"
	tagKeyBackRef        = "back_ref"
	tagKeyComposite      = "composite"
	tagKeyIgnore         = "-"
)

// TableName 用户实现这个接口来返回自定义的表名
type TableName interface {
	TableName() string
}

// WithTableName is an Option that sets the table name for a Model.
func WithTableName(tableName string) Option {
	return func(model *Model) error {
		model.TableName = tableName
		return nil
	}
}

// WithColumnName returns an Option that overrides the column name
// for a specific field in a model.
func WithColumnName(field, columnName string) Option {
	return func(model *Model) error {
		fd, ok := model.FieldMap[field]
		if !ok {
			return errs.NewErrUnknownField(field)
		}
		delete(model.ColumnMap, fd.ColName)
		fd.ColName = columnName
		model.ColumnMap[columnName] = fd
		return nil
	}
}
