// Package imr 定义中间模型表示（Intermediate Model Representation）。
//
// IMR 是注册表元数据的可序列化快照，唯一的消费者是外部的迁移
// diff 工具。字段和注解词汇表是封闭的、带版本语义的集合：
// 扩展它对迁移工具是破坏性变更。
package imr

import (
	"encoding/json"
	"fmt"
)

// DbType 数据库类型词汇表
type DbType string

const (
	VarChar   DbType = "varchar"
	VarBinary DbType = "varbinary"
	Int8      DbType = "int8"
	Int16     DbType = "int16"
	Int32     DbType = "int32"
	Int64     DbType = "int64"
	UInt8     DbType = "uint8"
	UInt16    DbType = "uint16"
	UInt32    DbType = "uint32"
	Float     DbType = "float"
	Double    DbType = "double"
	Boolean   DbType = "boolean"
	Date      DbType = "date"
	DateTime  DbType = "datetime"
	Time      DbType = "time"
	Choices   DbType = "choices"
)

// Source 模型或字段在源码中的定义位置
type Source struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// Model IMR 中的一个模型记录
type Model struct {
	Name            string  `json:"name"`
	Fields          []Field `json:"fields"`
	SourceDefinedAt *Source `json:"source_defined_at,omitempty"`
}

// Field IMR 中的一个字段记录
type Field struct {
	Name            string       `json:"name"`
	DbType          DbType       `json:"type"`
	Annotations     []Annotation `json:"annotations"`
	SourceDefinedAt *Source      `json:"source_defined_at,omitempty"`
}

// AnnotationKind 注解词汇表
type AnnotationKind string

const (
	AnnoAutoCreateTime AnnotationKind = "auto_create_time"
	AnnoAutoUpdateTime AnnotationKind = "auto_update_time"
	AnnoAutoIncrement  AnnotationKind = "auto_increment"
	AnnoPrimaryKey     AnnotationKind = "primary_key"
	AnnoUnique         AnnotationKind = "unique"
	AnnoIndex          AnnotationKind = "index"
	AnnoNotNull        AnnotationKind = "not_null"
	AnnoMaxLength      AnnotationKind = "max_length"
	AnnoChoices        AnnotationKind = "choices"
	AnnoDefaultValue   AnnotationKind = "default_value"
	AnnoForeignKey     AnnotationKind = "foreign_key"
)

// Annotation 一条注解。无参注解序列化成裸字符串，
// 带参注解序列化成单键对象，例如 {"max_length": 255}
type Annotation struct {
	Kind AnnotationKind
	// Value 只在带参注解上非空：
	// max_length -> int，choices -> []string，
	// default_value -> string/int64/float64/bool，
	// foreign_key -> ForeignKey
	Value any
}

// ForeignKey foreign_key 注解的参数
type ForeignKey struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

func (a Annotation) MarshalJSON() ([]byte, error) {
	if a.Value == nil {
		return json.Marshal(string(a.Kind))
	}
	return json.Marshal(map[string]any{string(a.Kind): a.Value})
}

func (a *Annotation) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		a.Kind = AnnotationKind(bare)
		a.Value = nil
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if len(obj) != 1 {
		return fmt.Errorf("imr: 非法注解 %s", data)
	}
	for k, raw := range obj {
		a.Kind = AnnotationKind(k)
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		a.Value = v
	}
	return nil
}
