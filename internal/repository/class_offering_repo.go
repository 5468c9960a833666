package repository

import (
	"context"

	"gorm.io/gorm"

	"lms-core/internal/model"
)

// ClassOfferingRepository 开课数据访问接口
type ClassOfferingRepository interface {
	Create(ctx context.Context, offering *model.ClassOffering) error
	GetByID(ctx context.Context, id string) (*model.ClassOffering, error)
	ListByCourseAndSemester(ctx context.Context, courseID string, season model.Season, year int) ([]model.ClassOffering, error)
	ListByLocationAndSemester(ctx context.Context, location string, season model.Season, year int) ([]model.ClassOffering, error)
}

type classOfferingRepo struct {
	db *gorm.DB
}

// NewClassOfferingRepo 创建 ClassOfferingRepository 实例
func NewClassOfferingRepo(db *gorm.DB) ClassOfferingRepository {
	return &classOfferingRepo{db: db}
}

func (r *classOfferingRepo) Create(ctx context.Context, offering *model.ClassOffering) error {
	return r.db.WithContext(ctx).Create(offering).Error
}

func (r *classOfferingRepo) GetByID(ctx context.Context, id string) (*model.ClassOffering, error) {
	var offering model.ClassOffering
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("class_id = ?", id).
		First(&offering).Error
	if err != nil {
		return nil, err
	}
	return &offering, nil
}

func (r *classOfferingRepo) ListByCourseAndSemester(ctx context.Context, courseID string, season model.Season, year int) ([]model.ClassOffering, error) {
	var offerings []model.ClassOffering
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND season = ? AND year = ?", courseID, season, year).
		Find(&offerings).Error
	return offerings, err
}

func (r *classOfferingRepo) ListByLocationAndSemester(ctx context.Context, location string, season model.Season, year int) ([]model.ClassOffering, error) {
	var offerings []model.ClassOffering
	err := r.db.WithContext(ctx).
		Where("location = ? AND season = ? AND year = ?", location, season, year).
		Order("start_time ASC").
		Find(&offerings).Error
	return offerings, err
}
