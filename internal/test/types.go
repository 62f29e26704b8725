// Package test 提供跨包共享的测试模型
package test

import (
	"database/sql"
	"time"
)

// SimpleStruct 覆盖全部受支持的标量类型
type SimpleStruct struct {
	Id         int64 `orm:"primary_key,auto_increment"`
	Bool       bool
	Int8       int8
	Int16      int16
	Int32      int32
	Int64      int64
	Uint8      uint8
	Uint16     uint16
	Uint32     uint32
	Float32    float32
	Float64    float64
	String     string
	Bytes      []byte
	NullString sql.NullString
	Birthday   time.Time
}

// NewSimpleStruct 每个字段都填上可预测的非零值
func NewSimpleStruct(id int64) *SimpleStruct {
	return &SimpleStruct{
		Id:         id,
		Bool:       true,
		Int8:       8,
		Int16:      16,
		Int32:      32,
		Int64:      64,
		Uint8:      8,
		Uint16:     16,
		Uint32:     32,
		Float32:    3.2,
		Float64:    6.4,
		String:     "hello",
		Bytes:      []byte("world"),
		NullString: sql.NullString{String: "null-string", Valid: true},
		Birthday:   time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}
