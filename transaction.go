package qorm

import (
	"context"
	"database/sql"
	"errors"

	"github.com/coderi421/qorm/internal/errs"
)

// Tx 事务中的 Session，语句构建器拿到它之后用法和 DB 完全一致
type Tx struct {
	tx *sql.Tx
	db *DB
	// done 标记事务是否已经提交或回滚
	done bool
}

func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	tx, err := db.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, db: db}, nil
}

// DoTx 闭包式事务：fn 返回错误或者 panic 都会回滚，否则提交
func (db *DB) DoTx(ctx context.Context, opts *sql.TxOptions,
	fn func(ctx context.Context, tx *Tx) error) (err error) {
	var tx *Tx
	tx, err = db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	panicked := true
	defer func() {
		if panicked || err != nil {
			e := tx.Rollback()
			err = errs.NewErrFailedToRollbackTx(err, e, panicked)
		} else {
			err = tx.Commit()
		}
	}()

	err = fn(ctx, tx)
	panicked = false
	return err
}

func (tx *Tx) Commit() error {
	tx.done = true
	return tx.tx.Commit()
}

func (tx *Tx) Rollback() error {
	tx.done = true
	return tx.tx.Rollback()
}

// RollbackIfNotCommit 放在 defer 里兜底，
// 事务已经结束的情况下是无害的空操作
func (tx *Tx) RollbackIfNotCommit() error {
	tx.done = true
	err := tx.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

func (tx *Tx) getCore() core {
	return tx.db.core
}

func (tx *Tx) queryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return tx.tx.QueryContext(ctx, query, args...)
}

func (tx *Tx) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return tx.tx.ExecContext(ctx, query, args...)
}
