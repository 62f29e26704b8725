package qorm

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/coderi421/qorm/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleter_Build(t *testing.T) {
	db := memoryDB(t)
	testCases := []struct {
		name      string
		q         QueryBuilder
		wantQuery *Query
		wantErr   error
	}{
		{
			name:    "no predicate",
			q:       NewDeleter[TestModel](db),
			wantErr: errs.ErrNoPredicate,
		},
		{
			name: "where",
			q:    NewDeleter[TestModel](db).Where(C[int64]("Id").EQ(16)),
			wantQuery: &Query{
				SQL:  "DELETE FROM `test_model` WHERE `id` = ?;",
				Args: []Value{Int64(16)},
			},
		},
		{
			name: "all rows",
			q:    NewDeleter[TestModel](db).AllRows(),
			wantQuery: &Query{
				SQL: "DELETE FROM `test_model`;",
			},
		},
		{
			name: "from",
			q:    NewDeleter[TestModel](db).From("test_model_t").AllRows(),
			wantQuery: &Query{
				SQL: "DELETE FROM `test_model_t`;",
			},
		},
		{
			name: "where twice",
			q: NewDeleter[TestModel](db).
				Where(C[int64]("Id").EQ(1)).
				Where(C[int64]("Id").EQ(2)),
			wantErr: errs.ErrConditionAlreadySet,
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

func TestDeleter_Exec(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectExec("DELETE .*").WillReturnResult(sqlmock.NewResult(0, 1))

	res := NewDeleter[TestModel](db).Where(C[int64]("Id").EQ(16)).Exec(context.Background())
	require.NoError(t, res.Err())
	affected, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
}
