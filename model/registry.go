package model

import (
	"database/sql"
	"path/filepath"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/coderi421/qorm/internal/errs"
)

// Registry 进程级的模型元数据注册表。
// 注册发生在并发查询开始之前，之后只读，读不需要加锁
type Registry interface {
	// Get 查找元数据模型，没注册过就顺手注册
	Get(val any) (*Model, error)
	// Register 显式注册，同一个模型注册两次是定义错误
	Register(val any, opts ...Option) (*Model, error)
	// Resolve 按表名和字段名查找字段描述，
	// 这是保证后续条件/列引用合法的唯一关口
	Resolve(table, field string) (*Field, error)
	// Models 按注册顺序返回全部模型
	Models() []*Model
}

type registry struct {
	// models key 是 reflect.Type，解决不同包下的同名结构体冲突
	models sync.Map

	// mu 保护 byTable 和 order，只在注册期竞争
	mu      sync.Mutex
	byTable map[string]*Model
	order   []*Model
}

func NewRegistry() Registry {
	return &registry{
		byTable: make(map[string]*Model, 16),
	}
}

func (r *registry) Get(val any) (*Model, error) {
	typ := reflect.TypeOf(val)
	if m, ok := r.models.Load(typ); ok {
		return m.(*Model), nil
	}
	return r.Register(val)
}

// Register registers a model in the registry with the given options.
// It parses the struct, merges type-implied annotations, runs the
// annotation linter and stores the result. All failures here are
// definition errors: the model never becomes queryable.
func (r *registry) Register(val any, opts ...Option) (*Model, error) {
	typ := reflect.TypeOf(val)
	if _, ok := r.models.Load(typ); ok {
		return nil, errs.NewErrDuplicateModel(typ.String())
	}

	m, err := r.parseModel(val)
	if err != nil {
		return nil, err
	}

	for _, opt := range opts {
		if err = opt(m); err != nil {
			return nil, err
		}
	}

	// 先检查用户声明的注解，再做外键链接：
	// 从目标字段继承来的注解不需要重新过规则表
	for _, fd := range m.Fields {
		if err = checkAnnotations(fd); err != nil {
			return nil, err
		}
	}
	if err = r.link(m); err != nil {
		return nil, err
	}
	if m.PrimaryKey == nil {
		return nil, errs.ErrMissingPrimaryKey
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byTable[m.TableName]; ok {
		return nil, errs.NewErrDuplicateModel(m.TableName)
	}
	r.byTable[m.TableName] = m
	r.order = append(r.order, m)
	r.models.Store(typ, m)

	return m, nil
}

func (r *registry) Resolve(table, field string) (*Field, error) {
	r.mu.Lock()
	m, ok := r.byTable[table]
	r.mu.Unlock()
	if !ok {
		return nil, errs.NewErrUnknownModel(table)
	}
	fd, ok := m.FieldMap[field]
	if !ok {
		return nil, errs.NewErrUnknownField(field)
	}
	return fd, nil
}

func (r *registry) Models() []*Model {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Model, len(r.order))
	copy(out, r.order)
	return out
}

// link resolves foreign key targets and merges the annotations a
// foreign field inherits from its target (max_length, choices).
// The target model has to be registered first.
func (r *registry) link(m *Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, fd := range m.Fields {
		if fd.Ref == nil || fd.Kind == KindBackRef {
			continue
		}
		target, ok := r.byTable[fd.Ref.Table]
		if !ok {
			return errs.NewErrUnknownModel(fd.Ref.Table)
		}
		tfd, ok := target.ColumnMap[fd.Ref.Column]
		if !ok {
			return errs.NewErrUnknownColumn(fd.Ref.Column)
		}
		fd.DBType = tfd.DBType
		fd.Annotations = fd.Annotations.merge(Annotations{
			MaxLength: tfd.Annotations.MaxLength,
			Choices:   tfd.Annotations.Choices,
		})
	}
	return nil
}

// parseModel parses a given value and returns a new Model or an error.
// It checks that the value is a pointer to a struct and builds the
// field descriptor list from the struct's fields and their tags.
// orm:"key1=value1,key2"
func (r *registry) parseModel(val any) (*Model, error) {
	typ := reflect.TypeOf(val)
	// Only support one-level pointer as input,
	// e.g. *User; neither **User nor User
	if typ.Kind() != reflect.Ptr || typ.Elem().Kind() != reflect.Struct {
		return nil, errs.ErrPointerOnly
	}
	typ = typ.Elem()

	src := callerSource()

	numField := typ.NumField()
	fields := make([]*Field, 0, numField)
	fds := make(map[string]*Field, numField)
	colMap := make(map[string]*Field, numField)
	var pk *Field

	for i := 0; i < numField; i++ {
		fdStruct := typ.Field(i)

		tags, err := r.parseTag(fdStruct.Tag)
		if err != nil {
			return nil, err
		}
		if _, ok := tags[tagKeyIgnore]; ok {
			continue
		}

		colName := tags[tagKeyColumn]
		if colName == "" {
			// ItemId -> item_id
			colName = underscoreName(fdStruct.Name)
		}

		f := &Field{
			ColName: colName,
			GoName:  fdStruct.Name,
			Type:    fdStruct.Type,
			Offset:  fdStruct.Offset,
			Index:   i,
			Source:  src,
		}
		if _, ok := fds[fdStruct.Name]; ok {
			return nil, errs.NewErrDuplicateField(fdStruct.Name)
		}
		if err = r.parseField(f, fdStruct, tags); err != nil {
			return nil, err
		}

		fields = append(fields, f)
		fds[fdStruct.Name] = f
		switch f.Kind {
		case KindBackRef:
			// 不占列
		case KindComposite:
			// 多列字段的列名是子列的，外层名字不会出现在 SQL 里
			for _, sub := range f.Subs {
				if _, ok := colMap[sub.ColName]; ok {
					return nil, errs.NewErrDuplicateField(sub.ColName)
				}
				colMap[sub.ColName] = sub
			}
		default:
			if _, ok := colMap[f.ColName]; ok {
				return nil, errs.NewErrDuplicateField(f.ColName)
			}
			colMap[f.ColName] = f
		}
		if f.Annotations.PrimaryKey {
			if pk != nil {
				return nil, errs.NewErrInvalidAnnotations(f.GoName, "", "一个模型只能有一个 primary_key")
			}
			pk = f
		}
	}

	var tableName string
	if tn, ok := val.(TableName); ok {
		tableName = tn.TableName()
	}
	if tableName == "" {
		tableName = underscoreName(typ.Name())
	}

	return &Model{
		TableName:  tableName,
		Fields:     fields,
		FieldMap:   fds,
		ColumnMap:  colMap,
		PrimaryKey: pk,
		Source:     src,
	}, nil
}

// parseField fills in kind, column count, db type, nullability and
// annotations for a single struct field.
func (r *registry) parseField(f *Field, sf reflect.StructField, tags map[string]string) error {
	anno, err := parseAnnotations(sf, tags)
	if err != nil {
		return err
	}
	f.Annotations = anno

	if ref, ok := tags[tagKeyBackRef]; ok {
		target, column, ok := splitRef(ref)
		if !ok {
			return errs.NewErrInvalidTagContent(tagKeyBackRef + "=" + ref)
		}
		f.Kind = KindBackRef
		f.Columns = 0
		f.Ref = &Reference{Table: target, Column: column}
		return nil
	}

	typ, nullable := unwrapNullable(sf.Type)
	f.Nullable = nullable

	if ref, ok := tags[tagKeyOn]; ok {
		target, column, ok := splitRef(ref)
		if !ok {
			return errs.NewErrInvalidTagContent(tagKeyOn + "=" + ref)
		}
		f.Kind = KindForeignKey
		f.Columns = 1
		f.Ref = &Reference{Table: target, Column: column}
		f.Annotations.ForeignKey = f.Ref
		// DBType 在 link 阶段从目标字段继承
		return nil
	}

	if _, ok := tags[tagKeyComposite]; ok {
		if typ.Kind() != reflect.Struct || typ == reflect.TypeOf(time.Time{}) {
			return errs.NewErrInvalidTagContent(tagKeyComposite)
		}
		f.Kind = KindComposite
		return r.parseComposite(f, typ)
	}

	f.Kind = KindScalar
	f.Columns = 1
	dbType, err := dbTypeOf(typ, f.Annotations)
	if err != nil {
		return errs.NewErrInvalidAnnotations(f.GoName, "", err.Error())
	}
	f.DBType = dbType
	return nil
}

// parseComposite flattens an embedded struct into N columns named
// <col>_<sub>. Sub-fields only support scalar types.
func (r *registry) parseComposite(f *Field, typ reflect.Type) error {
	n := typ.NumField()
	subs := make([]*Field, 0, n)
	for i := 0; i < n; i++ {
		sf := typ.Field(i)
		if !sf.IsExported() {
			continue
		}
		st, nullable := unwrapNullable(sf.Type)
		dbType, err := dbTypeOf(st, Annotations{})
		if err != nil {
			return errs.NewErrInvalidAnnotations(f.GoName+"."+sf.Name, "", err.Error())
		}
		subs = append(subs, &Field{
			ColName:  f.ColName + "_" + underscoreName(sf.Name),
			GoName:   sf.Name,
			Kind:     KindScalar,
			Columns:  1,
			DBType:   dbType,
			Type:     sf.Type,
			Offset:   f.Offset + sf.Offset,
			Index:    i,
			Nullable: nullable,
			Source:   f.Source,
			Owner:    f,
		})
	}
	if len(subs) == 0 {
		return errs.NewErrInvalidTagContent(tagKeyComposite)
	}
	f.Subs = subs
	f.Columns = len(subs)
	return nil
}

// parseTag parses the given struct tag and returns a map of key-value
// pairs. Bare keys (e.g. primary_key) map to an empty string.
func (r *registry) parseTag(tag reflect.StructTag) (map[string]string, error) {
	ormTag := tag.Get(tagORMName)
	if ormTag == "" {
		// Return an empty map so that the caller doesn't need to check for nil
		return map[string]string{}, nil
	}

	pairs := strings.Split(ormTag, ",")
	res := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		kv := strings.SplitN(pair, "=", 2)
		key := strings.TrimSpace(kv[0])
		if key == "" {
			return nil, errs.NewErrInvalidTagContent(pair)
		}
		if len(kv) == 1 {
			res[key] = ""
			continue
		}
		if kv[1] == "" {
			return nil, errs.NewErrInvalidTagContent(pair)
		}
		res[key] = kv[1]
	}
	return res, nil
}

func parseAnnotations(sf reflect.StructField, tags map[string]string) (Annotations, error) {
	var a Annotations
	_, a.PrimaryKey = tags[tagKeyPrimaryKey]
	_, a.Unique = tags[tagKeyUnique]
	_, a.Index = tags[tagKeyIndex]
	_, a.AutoIncrement = tags[tagKeyAutoIncrement]
	_, a.AutoCreateTime = tags[tagKeyAutoCreateTime]
	_, a.AutoUpdateTime = tags[tagKeyAutoUpdateTime]

	if v, ok := tags[tagKeyMaxLength]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return a, errs.NewErrInvalidTagContent(tagKeyMaxLength + "=" + v)
		}
		a.MaxLength = n
	}
	if v, ok := tags[tagKeyChoices]; ok {
		a.Choices = strings.Split(v, "|")
	}
	if v, ok := tags[tagKeyDefault]; ok {
		dv, err := parseDefault(sf.Type, v)
		if err != nil {
			return a, err
		}
		a.Default = dv
	}
	return a, nil
}

// parseDefault 按字段的 Go 类型解释 default 字面量
func parseDefault(typ reflect.Type, lit string) (*DefaultValue, error) {
	t, _ := unwrapNullable(typ)
	switch t.Kind() {
	case reflect.String:
		return &DefaultValue{Kind: DefaultString, String: lit}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			return nil, errs.NewErrInvalidTagContent(tagKeyDefault + "=" + lit)
		}
		return &DefaultValue{Kind: DefaultInteger, Integer: n}, nil
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return nil, errs.NewErrInvalidTagContent(tagKeyDefault + "=" + lit)
		}
		return &DefaultValue{Kind: DefaultFloat, Float: f}, nil
	case reflect.Bool:
		b, err := strconv.ParseBool(lit)
		if err != nil {
			return nil, errs.NewErrInvalidTagContent(tagKeyDefault + "=" + lit)
		}
		return &DefaultValue{Kind: DefaultBoolean, Boolean: b}, nil
	default:
		return nil, errs.NewErrInvalidTagContent(tagKeyDefault + "=" + lit)
	}
}

// unwrapNullable 解开指针和 sql.Null* 包装，
// 返回底层类型和是否可空
func unwrapNullable(typ reflect.Type) (reflect.Type, bool) {
	if typ.Kind() == reflect.Ptr {
		// *sql.NullString 之类的写法也按可空处理
		t, _ := unwrapNullable(typ.Elem())
		return t, true
	}
	switch typ {
	case reflect.TypeOf(sql.NullString{}):
		return reflect.TypeOf(""), true
	case reflect.TypeOf(sql.NullInt16{}):
		return reflect.TypeOf(int16(0)), true
	case reflect.TypeOf(sql.NullInt32{}):
		return reflect.TypeOf(int32(0)), true
	case reflect.TypeOf(sql.NullInt64{}):
		return reflect.TypeOf(int64(0)), true
	case reflect.TypeOf(sql.NullFloat64{}):
		return reflect.TypeOf(float64(0)), true
	case reflect.TypeOf(sql.NullBool{}):
		return reflect.TypeOf(false), true
	case reflect.TypeOf(sql.NullTime{}):
		return reflect.TypeOf(time.Time{}), true
	}
	return typ, false
}

func dbTypeOf(typ reflect.Type, a Annotations) (DBType, error) {
	if typ == reflect.TypeOf(time.Time{}) {
		return DBTypeDateTime, nil
	}
	switch typ.Kind() {
	case reflect.Bool:
		return DBTypeBoolean, nil
	case reflect.Int8:
		return DBTypeInt8, nil
	case reflect.Int16:
		return DBTypeInt16, nil
	case reflect.Int32:
		return DBTypeInt32, nil
	case reflect.Int, reflect.Int64:
		return DBTypeInt64, nil
	case reflect.Uint8:
		return DBTypeUInt8, nil
	case reflect.Uint16:
		return DBTypeUInt16, nil
	case reflect.Uint32:
		return DBTypeUInt32, nil
	case reflect.Float32:
		return DBTypeFloat, nil
	case reflect.Float64:
		return DBTypeDouble, nil
	case reflect.String:
		// 带 choices 的字符串在 IMR 中是枚举类型
		if len(a.Choices) > 0 {
			return DBTypeChoices, nil
		}
		return DBTypeVarChar, nil
	case reflect.Slice:
		if typ.Elem().Kind() == reflect.Uint8 {
			return DBTypeVarBinary, nil
		}
	}
	return "", errs.NewErrUnsupportedArgType(reflect.New(typ).Elem().Interface())
}

func splitRef(ref string) (table, column string, ok bool) {
	idx := strings.IndexByte(ref, '.')
	if idx <= 0 || idx >= len(ref)-1 {
		return "", "", false
	}
	return ref[:idx], ref[idx+1:], true
}

// packageDir 本包源码所在目录，用来在调用栈里认出自己的帧
var packageDir = func() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Dir(file)
}()

// callerSource 记录 Register 调用点作为模型的定义位置
func callerSource() *Source {
	for skip := 2; skip < 10; skip++ {
		_, file, line, ok := runtime.Caller(skip)
		if !ok {
			return nil
		}
		// 本包自己的帧跳过去，测试文件除外
		if filepath.Dir(file) == packageDir && !strings.HasSuffix(file, "_test.go") {
			continue
		}
		return &Source{File: file, Line: line}
	}
	return nil
}

// underscoreName converts a given name to underscore case.
// UserName -> user_name
func underscoreName(name string) string {
	var buf []byte
	for i, v := range name {
		if unicode.IsUpper(v) {
			if i != 0 {
				buf = append(buf, '_')
			}
			buf = append(buf, byte(unicode.ToLower(v)))
		} else {
			buf = append(buf, byte(v))
		}
	}
	return string(buf)
}
