package qorm

import "github.com/coderi421/qorm/internal/errs"

// 把调用方需要用 errors.Is 判断的哨兵错误重新导出，
// 避免用户 import internal 包
var (
	ErrNoRows           = errs.ErrNoRows
	ErrTooManyRows      = errs.ErrTooManyRows
	ErrPointerOnly      = errs.ErrPointerOnly
	ErrInsertZeroRow    = errs.ErrInsertZeroRow
	ErrNoUpdatedColumns = errs.ErrNoUpdatedColumns
	ErrNoPredicate      = errs.ErrNoPredicate
	// ErrConditionAlreadySet Where/Having 之类的子句只能设置一次
	ErrConditionAlreadySet = errs.ErrConditionAlreadySet
	ErrEmptyPatch          = errs.ErrEmptyPatch
)
