package repository

import (
	"context"

	"gorm.io/gorm"

	"lms-core/internal/model"
)

// CourseRepository 课程数据访问接口
type CourseRepository interface {
	FindBySubjectAndNumber(ctx context.Context, subject string, number int) (*model.Course, error)
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) FindBySubjectAndNumber(ctx context.Context, subject string, number int) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Where("subject = ? AND number = ?", subject, number).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}
