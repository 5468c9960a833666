package repository

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User          UserRepository
	Course        CourseRepository
	ClassOffering ClassOfferingRepository
	Category      AssignmentCategoryRepository
	Assignment    AssignmentRepository
	Submission    SubmissionRepository
	Enrollment    EnrollmentRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:            db,
		User:          NewUserRepo(db),
		Course:        NewCourseRepo(db),
		ClassOffering: NewClassOfferingRepo(db),
		Category:      NewAssignmentCategoryRepo(db),
		Assignment:    NewAssignmentRepo(db),
		Submission:    NewSubmissionRepo(db),
		Enrollment:    NewEnrollmentRepo(db),
	}
}

// WithTx 返回绑定到事务连接的 Repository 副本
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Transaction 在事务中执行 fn，fn 返回错误时回滚
// 未绑定数据库连接（单元测试注入 mock 时）直接以当前 Repository 执行
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error, opts ...*sql.TxOptions) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	}, opts...)
}
