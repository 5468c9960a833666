package errors

import "errors"

var (
	// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
	ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

	// ErrNotFound 查询目标不存在（课程、开课、学生、作业等）
	ErrNotFound = errors.New("记录不存在")

	// ErrStoreFailure 持久层读写失败
	ErrStoreFailure = errors.New("存储访问失败")
)
