package repository

import (
	"context"

	"gorm.io/gorm"

	"lms-core/internal/model"
)

// AssignmentRepository 作业数据访问接口
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *model.Assignment) error
	// GetByID 预加载所属类别，用于反查开课
	GetByID(ctx context.Context, id string) (*model.Assignment, error)
	GetByCategoryAndName(ctx context.Context, categoryID, name string) (*model.Assignment, error)
}

type assignmentRepo struct {
	db *gorm.DB
}

// NewAssignmentRepo 创建 AssignmentRepository 实例
func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) Create(ctx context.Context, assignment *model.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepo) GetByID(ctx context.Context, id string) (*model.Assignment, error) {
	var assignment model.Assignment
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("assignment_id = ?", id).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepo) GetByCategoryAndName(ctx context.Context, categoryID, name string) (*model.Assignment, error) {
	var assignment model.Assignment
	err := r.db.WithContext(ctx).
		Where("category_id = ? AND name = ?", categoryID, name).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}
