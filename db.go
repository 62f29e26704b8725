package qorm

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"time"

	"github.com/coderi421/qorm/internal/valuer"
	"github.com/coderi421/qorm/model"
)

type DBOption func(*DB)

// DB 是构建器的根，持有连接池、元数据注册表、方言和中间件链。
// 它同时也是一个 Session，语句可以直接在上面执行
type DB struct {
	core
	db *sql.DB
}

// Open 打开连接池并根据驱动名推断方言。
// 推断结果可以用 DBWithDialect 覆盖
func Open(driver string, dsn string, opts ...DBOption) (*DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	return OpenDB(db, append([]DBOption{DBWithDialect(dialectOf(driver))}, opts...)...)
}

// OpenDB 包装一个已有的连接池，方便接入 sqlmock 之类的东西
func OpenDB(db *sql.DB, opts ...DBOption) (*DB, error) {
	res := &DB{
		core: core{
			r:          model.NewRegistry(),
			dialect:    MySQL,
			valCreator: valuer.NewUnsafeValue,
		},
		db: db,
	}
	for _, opt := range opts {
		opt(res)
	}
	return res, nil
}

func dialectOf(driver string) Dialect {
	switch driver {
	case "sqlite3":
		return SQLite3
	case "postgres", "pgx":
		return Postgres
	default:
		return MySQL
	}
}

func DBWithDialect(dialect Dialect) DBOption {
	return func(db *DB) {
		db.dialect = dialect
	}
}

func DBWithRegistry(r model.Registry) DBOption {
	return func(db *DB) {
		db.r = r
	}
}

func DBWithMiddlewares(ms ...Middleware) DBOption {
	return func(db *DB) {
		db.ms = ms
	}
}

// DBWithReflectValuer 用纯反射解码替换默认的 unsafe 解码，
// 两者行为一致，只有性能差别
func DBWithReflectValuer() DBOption {
	return func(db *DB) {
		db.valCreator = valuer.NewReflectValue
	}
}

func (db *DB) getCore() core {
	return db.core
}

func (db *DB) queryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

func (db *DB) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

// Register 提前注册模型，拿到注解校验的结果。
// 不提前注册的模型会在第一次 Build 时注册
func (db *DB) Register(vals ...any) error {
	for _, val := range vals {
		if _, err := db.r.Register(val); err != nil {
			return err
		}
	}
	return nil
}

// Wait 等数据库可用，常用于容器化测试的启动阶段
func (db *DB) Wait(ctx context.Context) error {
	err := db.db.PingContext(ctx)
	for errors.Is(err, driver.ErrBadConn) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
		err = db.db.PingContext(ctx)
	}
	return err
}

func (db *DB) Close() error {
	return db.db.Close()
}
