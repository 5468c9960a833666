package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"lms-core/config"
	"lms-core/internal/dto"
	"lms-core/internal/repository"
	pkgerrors "lms-core/pkg/errors"
)

// ── 成绩重算模块业务错误 ──

var (
	ErrEnrollmentNotFound = fmt.Errorf("%w: 选课记录不存在", pkgerrors.ErrNotFound)
	ErrAssignmentNotFound = fmt.Errorf("%w: 作业不存在", pkgerrors.ErrNotFound)
	ErrCategoryNotFound   = fmt.Errorf("%w: 作业类别不存在", pkgerrors.ErrNotFound)
)

// PropagationService 成绩重算业务接口
//
// 写入约定：
//   - Enrollment.Grade 只由本服务写入
//   - 每次写入带版本号，并发修改时重读并重算，重试次数由 grading.propagate_retries 控制
//   - 写入成功后使该学生的 GPA 缓存失效
//
// Hook 由写入方在自身事务提交后调用
type PropagationService interface {
	PropagateOne(ctx context.Context, classID, studentID string) (string, error)
	PropagateAll(ctx context.Context, classID string) (*dto.PropagationReport, error)

	// AfterSubmissionScored 作业得分更新后重算该学生所在班级成绩
	AfterSubmissionScored(ctx context.Context, assignmentID, studentID string) (string, error)
	// AfterAssignmentCreated 新作业创建后重算所在班级全部学生成绩
	AfterAssignmentCreated(ctx context.Context, assignmentID string) (*dto.PropagationReport, error)
}

type propagationService struct {
	cfg    *config.GradingConfig
	repo   *repository.Repository
	grade  GradeService
	cache  GPACache
	logger *zap.Logger
}

// NewPropagationService 创建 PropagationService 实例
func NewPropagationService(
	cfg *config.GradingConfig,
	repo *repository.Repository,
	grade GradeService,
	cache GPACache,
	logger *zap.Logger,
) PropagationService {
	return &propagationService{cfg: cfg, repo: repo, grade: grade, cache: cache, logger: logger}
}

// ────────────────────── PropagateOne ──────────────────────

func (s *propagationService) PropagateOne(ctx context.Context, classID, studentID string) (string, error) {
	for attempt := 0; attempt <= s.cfg.PropagateRetries; attempt++ {
		enrollment, err := s.repo.Enrollment.Get(ctx, classID, studentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", ErrEnrollmentNotFound
			}
			s.logger.Error("查询选课记录失败",
				zap.String("class_id", classID), zap.String("student_id", studentID), zap.Error(err))
			return "", storeError(err)
		}

		letter, err := s.grade.ComputeGrade(ctx, classID, studentID)
		if err != nil {
			return "", err
		}

		err = s.repo.Enrollment.UpdateGrade(ctx, classID, studentID, letter, enrollment.Version)
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Debug("成绩写入版本冲突，重新计算",
				zap.String("class_id", classID),
				zap.String("student_id", studentID),
				zap.Int("attempt", attempt+1),
			)
			continue
		}
		if err != nil {
			s.logger.Error("写入成绩失败",
				zap.String("class_id", classID), zap.String("student_id", studentID), zap.Error(err))
			return "", storeError(err)
		}

		s.invalidateGPA(ctx, studentID)
		return letter, nil
	}

	s.logger.Warn("成绩写入重试次数耗尽",
		zap.String("class_id", classID),
		zap.String("student_id", studentID),
		zap.Int("retries", s.cfg.PropagateRetries),
	)
	return "", pkgerrors.ErrOptimisticLock
}

// ────────────────────── PropagateAll ──────────────────────

// PropagateAll 对班级内每个选课学生执行 PropagateOne
// 单个学生失败记入报告，不影响其他学生；仅当无法列出学生时返回错误
func (s *propagationService) PropagateAll(ctx context.Context, classID string) (*dto.PropagationReport, error) {
	studentIDs, err := s.repo.Enrollment.ListStudentIDs(ctx, classID)
	if err != nil {
		s.logger.Error("列出班级学生失败", zap.String("class_id", classID), zap.Error(err))
		return nil, storeError(err)
	}

	report := &dto.PropagationReport{
		ClassID:  classID,
		Total:    len(studentIDs),
		Grades:   make([]dto.GradeResponse, 0, len(studentIDs)),
		Failures: make([]dto.PropagationFailure, 0),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.PropagateWorkers)

	for _, studentID := range studentIDs {
		g.Go(func() error {
			letter, err := s.PropagateOne(gctx, classID, studentID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Warn("学生成绩重算失败",
					zap.String("class_id", classID), zap.String("student_id", studentID), zap.Error(err))
				report.Failures = append(report.Failures, dto.PropagationFailure{
					StudentID: studentID,
					Error:     err.Error(),
				})
				return nil
			}
			report.Updated++
			report.Grades = append(report.Grades, dto.GradeResponse{
				ClassID:   classID,
				StudentID: studentID,
				Grade:     letter,
			})
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(report.Grades, func(i, j int) bool { return report.Grades[i].StudentID < report.Grades[j].StudentID })
	sort.Slice(report.Failures, func(i, j int) bool { return report.Failures[i].StudentID < report.Failures[j].StudentID })

	s.logger.Info("班级成绩批量重算完成",
		zap.String("class_id", classID),
		zap.Int("total", report.Total),
		zap.Int("updated", report.Updated),
		zap.Int("failed", len(report.Failures)),
	)
	return report, nil
}

// ────────────────────── Hooks ──────────────────────

func (s *propagationService) AfterSubmissionScored(ctx context.Context, assignmentID, studentID string) (string, error) {
	classID, err := s.classOfAssignment(ctx, assignmentID)
	if err != nil {
		return "", err
	}
	return s.PropagateOne(ctx, classID, studentID)
}

func (s *propagationService) AfterAssignmentCreated(ctx context.Context, assignmentID string) (*dto.PropagationReport, error) {
	classID, err := s.classOfAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	return s.PropagateAll(ctx, classID)
}

// ── 内部辅助方法 ──

// classOfAssignment 作业 → 类别 → 班级
func (s *propagationService) classOfAssignment(ctx context.Context, assignmentID string) (string, error) {
	assignment, err := s.repo.Assignment.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrAssignmentNotFound
		}
		s.logger.Error("查询作业失败", zap.String("assignment_id", assignmentID), zap.Error(err))
		return "", storeError(err)
	}
	if assignment.Category != nil {
		return assignment.Category.ClassID, nil
	}

	category, err := s.repo.Category.GetByID(ctx, assignment.CategoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrCategoryNotFound
		}
		s.logger.Error("查询作业类别失败", zap.String("category_id", assignment.CategoryID), zap.Error(err))
		return "", storeError(err)
	}
	return category.ClassID, nil
}

// invalidateGPA 缓存失效失败只记录日志，成绩已落库
func (s *propagationService) invalidateGPA(ctx context.Context, studentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateGPA(ctx, studentID); err != nil {
		s.logger.Warn("GPA 缓存失效失败", zap.String("student_id", studentID), zap.Error(err))
	}
}
