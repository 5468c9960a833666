package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lms-core/config"
	"lms-core/internal/repository"
	pkgerrors "lms-core/pkg/errors"
)

// GPACache GPA 读穿缓存，*redis.Client 实现该接口
// gen 为学生的缓存代数，每次 InvalidateGPA 自增；SetGPA 仅在代数未变时写入
type GPACache interface {
	GetGPA(ctx context.Context, studentID string) (gpa float64, hit bool, gen int64, err error)
	SetGPA(ctx context.Context, studentID string, gpa float64, gen int64, ttl time.Duration) (bool, error)
	InvalidateGPA(ctx context.Context, studentID string) error
}

// Service 所有 Service 的聚合入口
type Service struct {
	Grade       GradeService
	Propagation PropagationService
	GPA         GPAService
	Offering    OfferingService
	Coursework  CourseworkService
	Export      ExportService
}

// NewService 创建 Service 聚合
// cache 为 nil 时不启用 GPA 缓存
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	cache GPACache,
	logger *zap.Logger,
) *Service {
	grade := NewGradeService(repo, logger)
	propagation := NewPropagationService(&cfg.Grading, repo, grade, cache, logger)

	return &Service{
		Grade:       grade,
		Propagation: propagation,
		GPA:         NewGPAService(&cfg.Grading, repo, cache, logger),
		Offering:    NewOfferingService(repo, logger),
		Coursework:  NewCourseworkService(repo, propagation, logger),
		Export:      NewExportService(repo, grade, logger),
	}
}

// storeError 将底层存储错误包装为 ErrStoreFailure
func storeError(err error) error {
	return fmt.Errorf("%w: %w", pkgerrors.ErrStoreFailure, err)
}
