package qorm

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/coderi421/qorm/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdater_Build(t *testing.T) {
	db := memoryDB(t)
	testCases := []struct {
		name      string
		q         QueryBuilder
		wantQuery *Query
		wantErr   error
	}{
		{
			name:    "no columns",
			q:       NewUpdater[TestModel](db).Where(C[int64]("Id").EQ(1)),
			wantErr: errs.ErrNoUpdatedColumns,
		},
		{
			// 没有 WHERE 也没有 AllRows，拒绝执行
			name:    "no predicate",
			q:       NewUpdater[TestModel](db).Set(Assign("Age", 19)),
			wantErr: errs.ErrNoPredicate,
		},
		{
			name: "assignment",
			q: NewUpdater[TestModel](db).
				Set(Assign("Age", 19)).
				Where(C[int64]("Id").EQ(1)),
			wantQuery: &Query{
				SQL:  "UPDATE `test_model` SET `age`=? WHERE `id` = ?;",
				Args: []Value{Int64(19), Int64(1)},
			},
		},
		{
			name: "column from entity",
			q: NewUpdater[TestModel](db).
				Update(&TestModel{FirstName: "Da", Age: 19}).
				Set(Col("FirstName"), Col("Age")).
				Where(C[int64]("Id").EQ(1)),
			wantQuery: &Query{
				SQL:  "UPDATE `test_model` SET `first_name`=?,`age`=? WHERE `id` = ?;",
				Args: []Value{String("Da"), Int16(19), Int64(1)},
			},
		},
		{
			name: "math expression",
			q: NewUpdater[TestModel](db).
				Set(Assign("Age", O[int8]("Age").Add(1))).
				Where(C[int64]("Id").EQ(1)),
			wantQuery: &Query{
				SQL:  "UPDATE `test_model` SET `age`=(`age` + ?) WHERE `id` = ?;",
				Args: []Value{Int16(1), Int64(1)},
			},
		},
		{
			name: "chained math expression",
			q: NewUpdater[TestModel](db).
				Set(Assign("Age", O[int8]("Age").Add(1).Multi(2))).
				Where(C[int64]("Id").EQ(1)),
			wantQuery: &Query{
				SQL:  "UPDATE `test_model` SET `age`=((`age` + ?) * ?) WHERE `id` = ?;",
				Args: []Value{Int16(1), Int64(2), Int64(1)},
			},
		},
		{
			name: "all rows",
			q: NewUpdater[TestModel](db).
				Set(Assign("Age", 19)).
				AllRows(),
			wantQuery: &Query{
				SQL:  "UPDATE `test_model` SET `age`=?;",
				Args: []Value{Int64(19)},
			},
		},
		{
			name: "where twice",
			q: NewUpdater[TestModel](db).
				Set(Assign("Age", 19)).
				Where(C[int64]("Id").EQ(1)).
				Where(C[int64]("Id").EQ(2)),
			wantErr: errs.ErrConditionAlreadySet,
		},
		{
			name: "unknown assigned field",
			q: NewUpdater[TestModel](db).
				Set(Assign("Invalid", 19)).
				AllRows(),
			wantErr: errs.NewErrUnknownField("Invalid"),
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

func TestUpdater_Exec(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectExec("UPDATE .*").WillReturnResult(sqlmock.NewResult(0, 3))

	res := NewUpdater[TestModel](db).
		Set(Assign("Age", 19)).
		Where(S("LastName").EQ("Ming")).
		Exec(context.Background())
	require.NoError(t, res.Err())
	affected, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)
}
