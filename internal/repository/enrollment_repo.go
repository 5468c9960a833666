package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"lms-core/internal/model"
	pkgerrors "lms-core/pkg/errors"
)

// EnrollmentRepository 选课数据访问接口
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *model.Enrollment) error
	Get(ctx context.Context, classID, studentUID string) (*model.Enrollment, error)
	ListByClass(ctx context.Context, classID string) ([]model.Enrollment, error)
	ListStudentIDs(ctx context.Context, classID string) ([]string, error)
	// ListGradesByStudent 返回学生全部选课的存储成绩（含 "--"，由调用方过滤）
	ListGradesByStudent(ctx context.Context, studentUID string) ([]string, error)
	// UpdateGrade 按版本号写入成绩，版本不匹配返回 pkgerrors.ErrOptimisticLock
	UpdateGrade(ctx context.Context, classID, studentUID, grade string, version int) error
}

type enrollmentRepo struct {
	db *gorm.DB
}

// NewEnrollmentRepo 创建 EnrollmentRepository 实例
func NewEnrollmentRepo(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepo{db: db}
}

func (r *enrollmentRepo) Create(ctx context.Context, enrollment *model.Enrollment) error {
	return r.db.WithContext(ctx).Create(enrollment).Error
}

func (r *enrollmentRepo) Get(ctx context.Context, classID, studentUID string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.db.WithContext(ctx).
		Where("class_id = ? AND student_uid = ?", classID, studentUID).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepo) ListByClass(ctx context.Context, classID string) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.db.WithContext(ctx).
		Where("class_id = ?", classID).
		Order("student_uid ASC").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *enrollmentRepo) ListStudentIDs(ctx context.Context, classID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("class_id = ?", classID).
		Order("student_uid ASC").
		Pluck("student_uid", &ids).Error
	return ids, err
}

func (r *enrollmentRepo) ListGradesByStudent(ctx context.Context, studentUID string) ([]string, error) {
	var grades []string
	err := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("student_uid = ?", studentUID).
		Pluck("grade", &grades).Error
	return grades, err
}

func (r *enrollmentRepo) UpdateGrade(ctx context.Context, classID, studentUID, grade string, version int) error {
	result := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("class_id = ? AND student_uid = ? AND version = ?", classID, studentUID, version).
		Updates(map[string]interface{}{
			"grade":      grade,
			"version":    version + 1,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}
