package qorm

import (
	"database/sql"
	"time"
)

// Kind 标记 Value 中实际存储的类型
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt16
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindString
	KindBinary
	// KindIdent 代表一个标识符，例如列名。
	// 这个变体不会被转义，所以绝对不要把用户输入塞进来
	KindIdent
	KindDate
	KindTime
	KindDateTime
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt16:
		return "int16"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	case KindIdent:
		return "ident"
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	case KindDateTime:
		return "datetime"
	default:
		return "unknown"
	}
}

// Value 是一个封闭的原始值集合，
// 既作为查询参数，也作为条件树的叶子节点。
type Value struct {
	kind Kind
	// null 记录 NULL 的类型标签，只在 kind == KindNull 时有意义
	null Kind
	b    bool
	i    int64
	f    float64
	s    string
	bs   []byte
	t    time.Time
}

// Null 返回一个带类型标签的 NULL
func Null(of Kind) Value { return Value{kind: KindNull, null: of} }

func Bool(b bool) Value       { return Value{kind: KindBool, b: b} }
func Int16(i int16) Value     { return Value{kind: KindInt16, i: int64(i)} }
func Int32(i int32) Value     { return Value{kind: KindInt32, i: int64(i)} }
func Int64(i int64) Value     { return Value{kind: KindInt64, i: i} }
func Float32(f float32) Value { return Value{kind: KindFloat32, f: float64(f)} }
func Float64(f float64) Value { return Value{kind: KindFloat64, f: f} }
func String(s string) Value   { return Value{kind: KindString, s: s} }
func Binary(bs []byte) Value  { return Value{kind: KindBinary, bs: bs} }

// Ident 构造一个标识符引用。
// 它会被原样拼进 SQL 文本，调用方必须保证它来自受信任的元数据
func Ident(name string) Value { return Value{kind: KindIdent, s: name} }

func Date(t time.Time) Value     { return Value{kind: KindDate, t: t} }
func Time(t time.Time) Value     { return Value{kind: KindTime, t: t} }
func DateTime(t time.Time) Value { return Value{kind: KindDateTime, t: t} }

func (v Value) Kind() Kind { return v.kind }

// NullOf 返回 NULL 的类型标签
func (v Value) NullOf() Kind { return v.null }

// driverArg 转换成 database/sql 驱动可以接受的参数。
// KindIdent 永远不会走到这里，它在拼接 SQL 时被内联
func (v Value) driverArg() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt16:
		return int16(v.i)
	case KindInt32:
		return int32(v.i)
	case KindInt64:
		return v.i
	case KindFloat32:
		return float32(v.f)
	case KindFloat64:
		return v.f
	case KindString:
		return v.s
	case KindBinary:
		return v.bs
	case KindDate, KindTime, KindDateTime:
		return v.t
	default:
		return nil
	}
}

// valueOf 把 Go 值转换成 Value。
// 支持的类型就是 Kind 列出的那些，其它类型返回 false
func valueOf(val any) (Value, bool) {
	switch v := val.(type) {
	case Value:
		return v, true
	case nil:
		return Null(KindNull), true
	case bool:
		return Bool(v), true
	case int8:
		return Int16(int16(v)), true
	case int16:
		return Int16(v), true
	case int32:
		return Int32(v), true
	case int:
		return Int64(int64(v)), true
	case int64:
		return Int64(v), true
	case uint8:
		return Int16(int16(v)), true
	case uint16:
		return Int32(int32(v)), true
	case uint32:
		return Int64(int64(v)), true
	case float32:
		return Float32(v), true
	case float64:
		return Float64(v), true
	case string:
		return String(v), true
	case []byte:
		return Binary(v), true
	case time.Time:
		return DateTime(v), true
	case *bool:
		if v == nil {
			return Null(KindBool), true
		}
		return Bool(*v), true
	case *int16:
		if v == nil {
			return Null(KindInt16), true
		}
		return Int16(*v), true
	case *int32:
		if v == nil {
			return Null(KindInt32), true
		}
		return Int32(*v), true
	case *int64:
		if v == nil {
			return Null(KindInt64), true
		}
		return Int64(*v), true
	case *float32:
		if v == nil {
			return Null(KindFloat32), true
		}
		return Float32(*v), true
	case *float64:
		if v == nil {
			return Null(KindFloat64), true
		}
		return Float64(*v), true
	case *string:
		if v == nil {
			return Null(KindString), true
		}
		return String(*v), true
	case *time.Time:
		if v == nil {
			return Null(KindDateTime), true
		}
		return DateTime(*v), true
	case sql.NullBool:
		if !v.Valid {
			return Null(KindBool), true
		}
		return Bool(v.Bool), true
	case sql.NullInt16:
		if !v.Valid {
			return Null(KindInt16), true
		}
		return Int16(v.Int16), true
	case sql.NullInt32:
		if !v.Valid {
			return Null(KindInt32), true
		}
		return Int32(v.Int32), true
	case sql.NullInt64:
		if !v.Valid {
			return Null(KindInt64), true
		}
		return Int64(v.Int64), true
	case sql.NullFloat64:
		if !v.Valid {
			return Null(KindFloat64), true
		}
		return Float64(v.Float64), true
	case sql.NullString:
		if !v.Valid {
			return Null(KindString), true
		}
		return String(v.String), true
	case sql.NullTime:
		if !v.Valid {
			return Null(KindDateTime), true
		}
		return DateTime(v.Time), true
	case *sql.NullString:
		if v == nil || !v.Valid {
			return Null(KindString), true
		}
		return String(v.String), true
	default:
		return Value{}, false
	}
}
