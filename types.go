package qorm

import (
	"context"
	"database/sql"
)

// Query 一条编译完成的语句：SQL 文本加上按占位符顺序排列的参数。
// 编译是纯函数，同一个构建器重复 Build 得到相同的 Query
type Query struct {
	SQL  string
	Args []Value
}

// DriverArgs 把类型化参数转成 database/sql 驱动接受的形式
func (q *Query) DriverArgs() []any {
	if len(q.Args) == 0 {
		return nil
	}
	args := make([]any, 0, len(q.Args))
	for _, v := range q.Args {
		args = append(args, v.driverArg())
	}
	return args
}

// QueryBuilder 所有语句构建器的统一出口
type QueryBuilder interface {
	Build() (*Query, error)
}

// Querier 查询语句的终结方法
type Querier[T any] interface {
	Get(ctx context.Context) (*T, error)
	GetMulti(ctx context.Context) ([]*T, error)
}

// Executor 写语句的终结方法
type Executor interface {
	Exec(ctx context.Context) Result
}

// Session 统一 DB 和 Tx，语句构建器不关心自己跑在事务里还是连接池上
type Session interface {
	getCore() core
	queryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	execContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
