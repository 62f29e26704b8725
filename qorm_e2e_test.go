//go:build e2e

package qorm

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLite3_CRUD(t *testing.T) {
	db, err := Open("sqlite3", "file:qorm_e2e?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()
	require.NoError(t, db.Wait(ctx))

	res := RawQuery[TestModel](db, `CREATE TABLE IF NOT EXISTS test_model(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		first_name TEXT NOT NULL,
		age INTEGER,
		last_name TEXT)`).Exec(ctx)
	require.NoError(t, res.Err())
	t.Cleanup(func() {
		_ = RawQuery[TestModel](db, "DROP TABLE test_model").Exec(ctx)
	})

	t.Run("insert", func(t *testing.T) {
		res := NewInserter[TestModel](db).Values(
			&TestModel{FirstName: "Da", Age: 18},
			&TestModel{FirstName: "Xiao", Age: 16,
				LastName: &sql.NullString{String: "Ming", Valid: true}},
		).Exec(ctx)
		require.NoError(t, res.Err())
		affected, err := res.RowsAffected()
		require.NoError(t, err)
		assert.Equal(t, int64(2), affected)
		id, err := res.LastInsertId()
		require.NoError(t, err)
		assert.Equal(t, int64(2), id)
	})

	t.Run("get", func(t *testing.T) {
		got, err := NewSelector[TestModel](db).
			Where(C[string]("FirstName").EQ("Da")).
			Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.Id)
		assert.Equal(t, int8(18), got.Age)

		_, err = NewSelector[TestModel](db).
			Where(C[string]("FirstName").EQ("Nobody")).
			Get(ctx)
		assert.True(t, errors.Is(err, ErrNoRows))

		got, err = NewSelector[TestModel](db).
			Where(C[string]("FirstName").EQ("Nobody")).
			GetOptional(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)

		_, err = NewSelector[TestModel](db).Get(ctx)
		assert.True(t, errors.Is(err, ErrTooManyRows))
	})

	t.Run("upsert", func(t *testing.T) {
		res := NewInserter[TestModel](db).Values(
			&TestModel{Id: 1, FirstName: "Da", Age: 19},
		).Columns("Id", "FirstName", "Age").
			OnDuplicateKey().
			ConflictColumns("Id").
			Update(Col("Age")).
			Exec(ctx)
		require.NoError(t, res.Err())

		got, err := NewSelector[TestModel](db).
			Where(C[int64]("Id").EQ(1)).
			Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, int8(19), got.Age)
	})

	t.Run("update", func(t *testing.T) {
		res := NewUpdater[TestModel](db).
			Set(Assign("Age", O[int8]("Age").Add(1))).
			Where(C[int64]("Id").EQ(2)).
			Exec(ctx)
		require.NoError(t, res.Err())

		got, err := NewSelector[TestModel](db).
			Where(C[int64]("Id").EQ(2)).
			Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, int8(17), got.Age)
	})

	t.Run("get multi and stream", func(t *testing.T) {
		all, err := NewSelector[TestModel](db).
			OrderBy(Asc("Id")).
			GetMulti(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "Da", all[0].FirstName)

		rows, err := NewSelector[TestModel](db).
			OrderBy(Asc("Id")).
			Stream(ctx)
		require.NoError(t, err)
		t.Cleanup(func() { _ = rows.Close() })
		var streamed []*TestModel
		for rows.Next() {
			entity, err := rows.Entity()
			require.NoError(t, err)
			streamed = append(streamed, entity)
		}
		require.NoError(t, rows.Err())
		assert.Equal(t, all, streamed)
	})

	t.Run("tx rollback", func(t *testing.T) {
		err := db.DoTx(ctx, nil, func(ctx context.Context, tx *Tx) error {
			res := NewDeleter[TestModel](tx).AllRows().Exec(ctx)
			if res.Err() != nil {
				return res.Err()
			}
			return errors.New("放弃这次删除")
		})
		assert.Error(t, err)

		cnt, err := NewSelector[TestModel](db).GetMulti(ctx)
		require.NoError(t, err)
		assert.Len(t, cnt, 2, "回滚后数据还在")
	})

	t.Run("delete", func(t *testing.T) {
		res := NewDeleter[TestModel](db).
			Where(C[int64]("Id").EQ(1)).
			Exec(ctx)
		require.NoError(t, res.Err())
		affected, err := res.RowsAffected()
		require.NoError(t, err)
		assert.Equal(t, int64(1), affected)
	})
}

func TestMySQL_CRUD(t *testing.T) {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		t.Skip("未配置 MYSQL_DSN，跳过")
	}
	db, err := Open("mysql", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()
	require.NoError(t, db.Wait(ctx))

	res := RawQuery[TestModel](db, `CREATE TABLE IF NOT EXISTS test_model(
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		first_name VARCHAR(128) NOT NULL,
		age TINYINT,
		last_name VARCHAR(128))`).Exec(ctx)
	require.NoError(t, res.Err())
	t.Cleanup(func() {
		_ = RawQuery[TestModel](db, "DROP TABLE test_model").Exec(ctx)
	})

	res = NewInserter[TestModel](db).Values(
		&TestModel{FirstName: "Da", Age: 18},
	).Exec(ctx)
	require.NoError(t, res.Err())
	id, err := res.LastInsertId()
	require.NoError(t, err)

	// MySQL 的 upsert 不需要冲突列
	res = NewInserter[TestModel](db).Values(
		&TestModel{Id: id, FirstName: "Da", Age: 19},
	).Columns("Id", "FirstName", "Age").
		OnDuplicateKey().
		Update(Col("Age")).
		Exec(ctx)
	require.NoError(t, res.Err())

	got, err := NewSelector[TestModel](db).
		Where(C[int64]("Id").EQ(id)).
		Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int8(19), got.Age)

	res = NewDeleter[TestModel](db).AllRows().Exec(ctx)
	require.NoError(t, res.Err())
}
