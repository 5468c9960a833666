package repository

import (
	"context"

	"gorm.io/gorm"

	"lms-core/internal/model"
)

// AssignmentCategoryRepository 作业类别数据访问接口
type AssignmentCategoryRepository interface {
	Create(ctx context.Context, category *model.AssignmentCategory) error
	GetByID(ctx context.Context, id string) (*model.AssignmentCategory, error)
	GetByClassAndName(ctx context.Context, classID, name string) (*model.AssignmentCategory, error)
	// ListWithAssignments 返回开课下全部类别，并预加载各类别的作业
	ListWithAssignments(ctx context.Context, classID string) ([]model.AssignmentCategory, error)
}

type assignmentCategoryRepo struct {
	db *gorm.DB
}

// NewAssignmentCategoryRepo 创建 AssignmentCategoryRepository 实例
func NewAssignmentCategoryRepo(db *gorm.DB) AssignmentCategoryRepository {
	return &assignmentCategoryRepo{db: db}
}

func (r *assignmentCategoryRepo) Create(ctx context.Context, category *model.AssignmentCategory) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *assignmentCategoryRepo) GetByID(ctx context.Context, id string) (*model.AssignmentCategory, error) {
	var category model.AssignmentCategory
	err := r.db.WithContext(ctx).
		Where("category_id = ?", id).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *assignmentCategoryRepo) GetByClassAndName(ctx context.Context, classID, name string) (*model.AssignmentCategory, error) {
	var category model.AssignmentCategory
	err := r.db.WithContext(ctx).
		Where("class_id = ? AND name = ?", classID, name).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *assignmentCategoryRepo) ListWithAssignments(ctx context.Context, classID string) ([]model.AssignmentCategory, error) {
	var categories []model.AssignmentCategory
	err := r.db.WithContext(ctx).
		Preload("Assignments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("class_id = ?", classID).
		Order("name ASC").
		Find(&categories).Error
	return categories, err
}
