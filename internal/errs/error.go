package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrPointerOnly 只支持一级指针作为输入
	// 看到这个 error 说明你输入了其它的东西
	ErrPointerOnly = errors.New("qorm: 只支持指向结构体的一级指针")

	ErrNoRows              = errors.New("qorm: 未找到数据")
	ErrTooManyRows         = errors.New("qorm: 返回了多于预期的行数")
	ErrInsertZeroRow       = errors.New("qorm: 插入 0 行")
	ErrNoUpdatedColumns    = errors.New("qorm: 未指定更新的列")
	ErrNoPredicate         = errors.New("qorm: 没有 WHERE 条件，全表操作必须显式调用 AllRows")
	ErrConditionAlreadySet = errors.New("qorm: WHERE 条件已经设置过了")
	ErrMissingPrimaryKey   = errors.New("qorm: 模型缺少主键")
	ErrEmptyPatch          = errors.New("qorm: Patch 至少需要一个字段")
)

// NewErrDuplicateModel 同一个表名注册了两次
func NewErrDuplicateModel(table string) error {
	return fmt.Errorf("qorm: 重复注册模型 %q", table)
}

func NewErrDuplicateField(name string) error {
	return fmt.Errorf("qorm: 模型中存在重复字段 %q", name)
}

func NewErrUnknownField(fd string) error {
	return fmt.Errorf("qorm: 未知字段 %q", fd)
}

func NewErrUnknownColumn(col string) error {
	return fmt.Errorf("qorm: 未知列 %q", col)
}

func NewErrUnknownModel(table string) error {
	return fmt.Errorf("qorm: 未注册的模型 %q", table)
}

func NewErrInvalidTagContent(pair string) error {
	return fmt.Errorf("qorm: 非法标签值 %q", pair)
}

// NewErrInvalidAnnotations 注解检查（linter）失败。
// src 是字段定义所在位置，便于定位，形如 file.go:12
func NewErrInvalidAnnotations(field, src, msg string) error {
	if src == "" {
		return fmt.Errorf("qorm: 字段 %s 注解非法: %s", field, msg)
	}
	return fmt.Errorf("qorm: 字段 %s (%s) 注解非法: %s", field, src, msg)
}

func NewErrUnsupportedExpressionType(exp any) error {
	return fmt.Errorf("qorm: 不支持的表达式类型 %T", exp)
}

func NewErrUnsupportedAssignableType(exp any) error {
	return fmt.Errorf("qorm: 不支持的赋值表达式类型 %T", exp)
}

func NewErrUnsupportedSelectable(exp any) error {
	return fmt.Errorf("qorm: 不支持的目标列 %T", exp)
}

func NewErrUnsupportedArgType(arg any) error {
	return fmt.Errorf("qorm: 不支持的参数类型 %T", arg)
}

// NewErrUnsupportedOperation 方言无法表达请求的构造，
// 宁可失败也不能悄悄生成错误的 SQL
func NewErrUnsupportedOperation(dialect, op string) error {
	return fmt.Errorf("qorm: 方言 %s 不支持 %s", dialect, op)
}

// NewErrRowDecode 行中存的值无法转换成期望的类型。
// col 是列名或者下标
func NewErrRowDecode(col any, cause error) error {
	return fmt.Errorf("qorm: 解码列 %v 失败: %w", col, cause)
}

func NewErrUnrepresentableAnnotation(field string, anno any) error {
	return fmt.Errorf("qorm: 字段 %s 的注解 %v 无法导出到 IMR", field, anno)
}

// NewErrFailedToRollbackTx 事务回滚本身失败了，
// bizErr 是触发回滚的业务错误
func NewErrFailedToRollbackTx(bizErr error, rbErr error, panicked bool) error {
	if rbErr == nil {
		if panicked {
			return fmt.Errorf("qorm: 事务闭包 panic, 业务错误 %w", bizErr)
		}
		return bizErr
	}
	return fmt.Errorf("qorm: 回滚事务失败, 业务错误 %w, 回滚错误 %s, 是否panic %t",
		bizErr, rbErr.Error(), panicked)
}
