package qorm

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/coderi421/qorm/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestModel struct {
	Id        int64 `orm:"primary_key,auto_increment"`
	FirstName string
	Age       int8
	LastName  *sql.NullString
}

func memoryDB(t *testing.T, opts ...DBOption) *DB {
	db, err := OpenDB(nil, opts...)
	require.NoError(t, err)
	return db
}

func mockDB(t *testing.T, opts ...DBOption) (*DB, sqlmock.Sqlmock) {
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDb.Close() })
	db, err := OpenDB(mockDb, opts...)
	require.NoError(t, err)
	return db, mock
}

func TestSelector_Build(t *testing.T) {
	db := memoryDB(t)
	testCases := []struct {
		name      string
		q         QueryBuilder
		wantQuery *Query
		wantErr   error
	}{
		{
			name: "no where",
			q:    NewSelector[TestModel](db),
			wantQuery: &Query{
				SQL: "SELECT `id`,`first_name`,`age`,`last_name` FROM `test_model`;",
			},
		},
		{
			name: "from",
			q:    NewSelector[TestModel](db).From("test_model_t"),
			wantQuery: &Query{
				SQL: "SELECT `id`,`first_name`,`age`,`last_name` FROM `test_model_t`;",
			},
		},
		{
			name: "single predicate",
			q:    NewSelector[TestModel](db).Where(C[int64]("Id").EQ(12)),
			wantQuery: &Query{
				SQL:  "SELECT `id`,`first_name`,`age`,`last_name` FROM `test_model` WHERE `id` = ?;",
				Args: []Value{Int64(12)},
			},
		},
		{
			name: "two predicates joined by and",
			q: NewSelector[TestModel](db).
				Where(O[int8]("Age").GT(18), O[int8]("Age").LT(35)),
			wantQuery: &Query{
				SQL:  "SELECT `id`,`first_name`,`age`,`last_name` FROM `test_model` WHERE (`age` > ?) AND (`age` < ?);",
				Args: []Value{Int16(18), Int16(35)},
			},
		},
		{
			name: "or",
			q: NewSelector[TestModel](db).
				Where(Or(C[int64]("Id").EQ(11), O[int8]("Age").GTE(18))),
			wantQuery: &Query{
				SQL:  "SELECT `id`,`first_name`,`age`,`last_name` FROM `test_model` WHERE (`id` = ?) OR (`age` >= ?);",
				Args: []Value{Int64(11), Int16(18)},
			},
		},
		{
			name: "not",
			q:    NewSelector[TestModel](db).Where(Not(O[int8]("Age").GT(18))),
			wantQuery: &Query{
				SQL:  "SELECT `id`,`first_name`,`age`,`last_name` FROM `test_model` WHERE NOT (`age` > ?);",
				Args: []Value{Int16(18)},
			},
		},
		{
			name: "is null",
			q:    NewSelector[TestModel](db).Where(C[string]("LastName").IsNull()),
			wantQuery: &Query{
				SQL: "SELECT `id`,`first_name`,`age`,`last_name` FROM `test_model` WHERE `last_name` IS NULL;",
			},
		},
		{
			name: "in",
			q:    NewSelector[TestModel](db).Where(C[int64]("Id").In(1, 2, 3)),
			wantQuery: &Query{
				SQL:  "SELECT `id`,`first_name`,`age`,`last_name` FROM `test_model` WHERE (`id` = ?) OR (`id` = ?) OR (`id` = ?);",
				Args: []Value{Int64(1), Int64(2), Int64(3)},
			},
		},
		{
			// 空 IN 列表是恒假条件，不是语法错误
			name: "empty in",
			q:    NewSelector[TestModel](db).Where(C[int64]("Id").In()),
			wantQuery: &Query{
				SQL: "SELECT `id`,`first_name`,`age`,`last_name` FROM `test_model` WHERE FALSE;",
			},
		},
		{
			name: "empty not in",
			q:    NewSelector[TestModel](db).Where(C[int64]("Id").NotIn()),
			wantQuery: &Query{
				SQL: "SELECT `id`,`first_name`,`age`,`last_name` FROM `test_model` WHERE TRUE;",
			},
		},
		{
			name: "between",
			q:    NewSelector[TestModel](db).Where(O[int8]("Age").Between(18, 35)),
			wantQuery: &Query{
				SQL:  "SELECT `id`,`first_name`,`age`,`last_name` FROM `test_model` WHERE `age` BETWEEN ? AND ?;",
				Args: []Value{Int16(18), Int16(35)},
			},
		},
		{
			name: "like",
			q:    NewSelector[TestModel](db).Where(S("FirstName").Like("Da%")),
			wantQuery: &Query{
				SQL:  "SELECT `id`,`first_name`,`age`,`last_name` FROM `test_model` WHERE `first_name` LIKE ?;",
				Args: []Value{String("Da%")},
			},
		},
		{
			name: "select columns",
			q:    NewSelector[TestModel](db).Select(C[int64]("Id"), C[string]("FirstName")),
			wantQuery: &Query{
				SQL: "SELECT `id`,`first_name` FROM `test_model`;",
			},
		},
		{
			name: "select alias",
			q:    NewSelector[TestModel](db).Select(C[int64]("Id").As("uid")),
			wantQuery: &Query{
				SQL: "SELECT `id` AS `uid` FROM `test_model`;",
			},
		},
		{
			name: "select aggregate with alias",
			q:    NewSelector[TestModel](db).Select(Avg("Age").As("avg_age")),
			wantQuery: &Query{
				SQL: "SELECT AVG(`age`) AS `avg_age` FROM `test_model`;",
			},
		},
		{
			name: "select raw",
			q:    NewSelector[TestModel](db).Select(Raw("COUNT(DISTINCT `first_name`)")),
			wantQuery: &Query{
				SQL: "SELECT COUNT(DISTINCT `first_name`) FROM `test_model`;",
			},
		},
		{
			name: "raw as condition",
			q:    NewSelector[TestModel](db).Where(Raw("`age` < ?", 18).AsCondition()),
			wantQuery: &Query{
				SQL:  "SELECT `id`,`first_name`,`age`,`last_name` FROM `test_model` WHERE `age` < ?;",
				Args: []Value{Int64(18)},
			},
		},
		{
			name: "group by and having",
			q: NewSelector[TestModel](db).Select(Avg("Age")).
				GroupBy("FirstName").Having(Avg("Age").LT(20)),
			wantQuery: &Query{
				SQL:  "SELECT AVG(`age`) FROM `test_model` GROUP BY `first_name` HAVING AVG(`age`) < ?;",
				Args: []Value{Int64(20)},
			},
		},
		{
			name: "order by",
			q:    NewSelector[TestModel](db).OrderBy(Asc("Age"), Desc("Id")),
			wantQuery: &Query{
				SQL: "SELECT `id`,`first_name`,`age`,`last_name` FROM `test_model` ORDER BY `age` ASC,`id` DESC;",
			},
		},
		{
			name: "limit offset",
			q:    NewSelector[TestModel](db).Limit(10).Offset(20),
			wantQuery: &Query{
				SQL:  "SELECT `id`,`first_name`,`age`,`last_name` FROM `test_model` LIMIT ? OFFSET ?;",
				Args: []Value{Int64(10), Int64(20)},
			},
		},
		{
			// [10, 20) 等价于 OFFSET 10 LIMIT 10
			name: "range",
			q:    NewSelector[TestModel](db).Range(10, 20),
			wantQuery: &Query{
				SQL:  "SELECT `id`,`first_name`,`age`,`last_name` FROM `test_model` LIMIT ? OFFSET ?;",
				Args: []Value{Int64(10), Int64(10)},
			},
		},
		{
			name: "range inclusive",
			q:    NewSelector[TestModel](db).RangeInclusive(10, 20),
			wantQuery: &Query{
				SQL:  "SELECT `id`,`first_name`,`age`,`last_name` FROM `test_model` LIMIT ? OFFSET ?;",
				Args: []Value{Int64(11), Int64(10)},
			},
		},
		{
			name:    "where twice",
			q:       NewSelector[TestModel](db).Where(C[int64]("Id").EQ(1)).Where(O[int8]("Age").GT(18)),
			wantErr: errs.ErrConditionAlreadySet,
		},
		{
			name:    "unknown field",
			q:       NewSelector[TestModel](db).Where(C[int64]("XXX").EQ(1)),
			wantErr: errs.NewErrUnknownField("XXX"),
		},
		{
			name:    "unknown field in order by",
			q:       NewSelector[TestModel](db).OrderBy(Asc("XXX")),
			wantErr: errs.NewErrUnknownField("XXX"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			query, err := tc.q.Build()
			assert.Equal(t, tc.wantErr, err)
			if err != nil {
				return
			}
			assert.Equal(t, tc.wantQuery, query)
		})
	}
}

// 同一个构建器重复 Build 必须得到完全一样的结果
func TestSelector_BuildIdempotent(t *testing.T) {
	db := memoryDB(t, DBWithDialect(Postgres))
	s := NewSelector[TestModel](db).
		Where(S("FirstName").Regexp("^Da"), O[int8]("Age").GT(18)).
		Limit(5)
	first, err := s.Build()
	require.NoError(t, err)
	second, err := s.Build()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t,
		`SELECT "id","first_name","age","last_name" FROM "test_model" WHERE ("first_name" ~ $1) AND ("age" > $2) LIMIT $3;`,
		first.SQL)
}

func TestSelector_Dialects(t *testing.T) {
	testCases := []struct {
		name      string
		dialect   Dialect
		q         func(db *DB) QueryBuilder
		wantQuery *Query
		wantErr   error
	}{
		{
			name:    "sqlite quoting",
			dialect: SQLite3,
			q: func(db *DB) QueryBuilder {
				return NewSelector[TestModel](db).Where(S("FirstName").EQ("Bob"))
			},
			wantQuery: &Query{
				SQL:  `SELECT "id","first_name","age","last_name" FROM "test_model" WHERE "first_name" = ?;`,
				Args: []Value{String("Bob")},
			},
		},
		{
			name:    "sqlite offset without limit",
			dialect: SQLite3,
			q: func(db *DB) QueryBuilder {
				return NewSelector[TestModel](db).Offset(7)
			},
			wantQuery: &Query{
				SQL:  `SELECT "id","first_name","age","last_name" FROM "test_model" LIMIT -1 OFFSET ?;`,
				Args: []Value{Int64(7)},
			},
		},
		{
			name:    "mysql offset without limit",
			dialect: MySQL,
			q: func(db *DB) QueryBuilder {
				return NewSelector[TestModel](db).Offset(7)
			},
			wantErr: errs.NewErrUnsupportedOperation("mysql", "OFFSET without LIMIT"),
		},
		{
			name:    "postgres placeholders and regexp",
			dialect: Postgres,
			q: func(db *DB) QueryBuilder {
				return NewSelector[TestModel](db).
					Where(S("FirstName").NotRegexp("^Da"), C[int64]("Id").EQ(5))
			},
			wantQuery: &Query{
				SQL:  `SELECT "id","first_name","age","last_name" FROM "test_model" WHERE ("first_name" !~ $1) AND ("id" = $2);`,
				Args: []Value{String("^Da"), Int64(5)},
			},
		},
		{
			name:    "postgres offset alone",
			dialect: Postgres,
			q: func(db *DB) QueryBuilder {
				return NewSelector[TestModel](db).Offset(7)
			},
			wantQuery: &Query{
				SQL:  `SELECT "id","first_name","age","last_name" FROM "test_model" OFFSET $1;`,
				Args: []Value{Int64(7)},
			},
		},
		{
			// REGEXP 是 MySQL 原生写法，直接透传
			name:    "mysql regexp",
			dialect: MySQL,
			q: func(db *DB) QueryBuilder {
				return NewSelector[TestModel](db).Where(S("FirstName").Regexp("^Da"))
			},
			wantQuery: &Query{
				SQL:  "SELECT `id`,`first_name`,`age`,`last_name` FROM `test_model` WHERE `first_name` REGEXP ?;",
				Args: []Value{String("^Da")},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db := memoryDB(t, DBWithDialect(tc.dialect))
			query, err := tc.q(db).Build()
			assert.Equal(t, tc.wantErr, err)
			if err != nil {
				return
			}
			assert.Equal(t, tc.wantQuery, query)
		})
	}
}

type Department struct {
	Id   int64 `orm:"primary_key,auto_increment"`
	Name string
}

type Employee struct {
	Id     int64 `orm:"primary_key,auto_increment"`
	Name   string
	DeptId int64 `orm:"on=department.id"`
}

func TestSelector_Join(t *testing.T) {
	db := memoryDB(t)
	require.NoError(t, db.Register(&Department{}, &Employee{}))

	step := JoinStep{Table: "department", Alias: "d", From: "DeptId", To: "Id"}
	q, err := NewSelector[Employee](db).
		Where(C[string]("Name").Via(step).EQ("HR")).
		Build()
	require.NoError(t, err)
	assert.Equal(t, &Query{
		SQL: "SELECT `id`,`name`,`dept_id` FROM `employee`" +
			" JOIN `department` AS `d` ON `employee`.`dept_id` = `d`.`id`" +
			" WHERE `d`.`name` = ?;",
		Args: []Value{String("HR")},
	}, q)
}

type Address struct {
	City string
	Zip  string
}

type Customer struct {
	Id      int64 `orm:"primary_key,auto_increment"`
	Name    string
	Address Address `orm:"composite"`
}

func TestSelector_Composite(t *testing.T) {
	db := memoryDB(t)

	t.Run("columns flattened", func(t *testing.T) {
		q, err := NewSelector[Customer](db).Build()
		require.NoError(t, err)
		assert.Equal(t,
			"SELECT `id`,`name`,`address_city`,`address_zip` FROM `customer`;",
			q.SQL)
	})

	t.Run("eq expands per column", func(t *testing.T) {
		q, err := NewSelector[Customer](db).
			Where(C[Address]("Address").EQ(Address{City: "SH", Zip: "200000"})).
			Build()
		require.NoError(t, err)
		assert.Equal(t, &Query{
			SQL:  "SELECT `id`,`name`,`address_city`,`address_zip` FROM `customer` WHERE (`address_city` = ?) AND (`address_zip` = ?);",
			Args: []Value{String("SH"), String("200000")},
		}, q)
	})

	t.Run("sub column ref", func(t *testing.T) {
		q, err := NewSelector[Customer](db).
			Where(C[string]("Address.City").EQ("SH")).
			Build()
		require.NoError(t, err)
		assert.Equal(t, &Query{
			SQL:  "SELECT `id`,`name`,`address_city`,`address_zip` FROM `customer` WHERE `address_city` = ?;",
			Args: []Value{String("SH")},
		}, q)
	})

	t.Run("composite comparison other than eq", func(t *testing.T) {
		_, err := NewSelector[Customer](db).
			Where(BinaryCondition{op: opGT, left: ColumnRef{field: "Address"}, right: leafOf(Address{})}).
			Build()
		assert.Error(t, err)
	})
}

func TestSelector_Get(t *testing.T) {
	db, mock := mockDB(t)

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "first_name", "age", "last_name"}).
			AddRow(1, "Da", 18, "Ming")
		mock.ExpectQuery("SELECT .*").WillReturnRows(rows)
		res, err := NewSelector[TestModel](db).Where(C[int64]("Id").EQ(1)).Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, &TestModel{
			Id:        1,
			FirstName: "Da",
			Age:       18,
			LastName:  &sql.NullString{String: "Ming", Valid: true},
		}, res)
	})

	t.Run("no rows", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "first_name", "age", "last_name"})
		mock.ExpectQuery("SELECT .*").WillReturnRows(rows)
		_, err := NewSelector[TestModel](db).Where(C[int64]("Id").EQ(1)).Get(context.Background())
		assert.True(t, errors.Is(err, ErrNoRows))
	})

	t.Run("too many rows", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "first_name", "age", "last_name"}).
			AddRow(1, "Da", 18, "Ming").
			AddRow(2, "Xiao", 16, "Ming")
		mock.ExpectQuery("SELECT .*").WillReturnRows(rows)
		_, err := NewSelector[TestModel](db).Where(S("LastName").EQ("Ming")).Get(context.Background())
		assert.True(t, errors.Is(err, ErrTooManyRows))
	})

	t.Run("optional no rows", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "first_name", "age", "last_name"})
		mock.ExpectQuery("SELECT .*").WillReturnRows(rows)
		res, err := NewSelector[TestModel](db).Where(C[int64]("Id").EQ(1)).GetOptional(context.Background())
		require.NoError(t, err)
		assert.Nil(t, res)
	})

	t.Run("unknown column in result", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "nick_name"}).AddRow(1, "Da")
		mock.ExpectQuery("SELECT .*").WillReturnRows(rows)
		_, err := NewSelector[TestModel](db).Where(C[int64]("Id").EQ(1)).Get(context.Background())
		assert.Equal(t, errs.NewErrUnknownColumn("nick_name"), err)
	})
}

func TestSelector_GetMulti(t *testing.T) {
	db, mock := mockDB(t)
	rows := sqlmock.NewRows([]string{"id", "first_name", "age", "last_name"}).
		AddRow(1, "Da", 18, "Ming").
		AddRow(2, "Xiao", 16, "Ming")
	mock.ExpectQuery("SELECT .*").WillReturnRows(rows)

	res, err := NewSelector[TestModel](db).Where(S("LastName").EQ("Ming")).GetMulti(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []*TestModel{
		{Id: 1, FirstName: "Da", Age: 18, LastName: &sql.NullString{String: "Ming", Valid: true}},
		{Id: 2, FirstName: "Xiao", Age: 16, LastName: &sql.NullString{String: "Ming", Valid: true}},
	}, res)
}

func TestSelector_Stream(t *testing.T) {
	db, mock := mockDB(t)
	rows := sqlmock.NewRows([]string{"id", "first_name", "age", "last_name"}).
		AddRow(1, "Da", 18, "Ming").
		AddRow(2, "Xiao", 16, "Ming")
	mock.ExpectQuery("SELECT .*").WillReturnRows(rows)

	stream, err := NewSelector[TestModel](db).Stream(context.Background())
	require.NoError(t, err)
	defer func() { _ = stream.Close() }()

	got := make([]int64, 0, 2)
	for stream.Next() {
		entity, err := stream.Entity()
		require.NoError(t, err)
		got = append(got, entity.Id)
	}
	require.NoError(t, stream.Err())
	assert.Equal(t, []int64{1, 2}, got)
}
