package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lms-core/internal/dto"
	"lms-core/internal/model"
	"lms-core/internal/repository"
	pkgerrors "lms-core/pkg/errors"
)

// ── 课程作业模块业务错误 ──

var (
	ErrClassNotFound      = fmt.Errorf("%w: 开课班级不存在", pkgerrors.ErrNotFound)
	ErrStudentNotFound    = fmt.Errorf("%w: 学生不存在", pkgerrors.ErrNotFound)
	ErrSubmissionNotFound = fmt.Errorf("%w: 作业提交不存在", pkgerrors.ErrNotFound)
	ErrAlreadyEnrolled    = errors.New("该学生已选修此课程")
	ErrCategoryExists     = errors.New("同名作业类别已存在")
	ErrAssignmentExists   = errors.New("同名作业已存在")
	ErrInvalidWeight      = errors.New("类别权重不能为负数")
	ErrInvalidMaxPoints   = errors.New("作业满分不能为负数")
	ErrInvalidScore       = errors.New("得分不能为负数")
	ErrInvalidDueAt       = errors.New("截止时间格式无效，应为 RFC3339")
)

// CourseworkService 选课、作业类别、作业、提交与评分业务接口
//
// 成绩重算时机：
//   - 新建作业后重算整个班级（满分变化影响所有学生）
//   - 评分后重算该学生
//   - 提交内容不影响成绩，不触发重算
type CourseworkService interface {
	Enroll(ctx context.Context, classID string, req *dto.EnrollRequest) (*dto.EnrollmentResponse, error)
	CreateCategory(ctx context.Context, classID string, req *dto.CreateCategoryRequest) (*dto.CategoryResponse, error)
	CreateAssignment(ctx context.Context, categoryID string, req *dto.CreateAssignmentRequest) (*dto.AssignmentResponse, error)
	Submit(ctx context.Context, assignmentID string, req *dto.SubmitRequest) (*dto.SubmissionResponse, error)
	GradeSubmission(ctx context.Context, assignmentID, studentUID string, score int) (*dto.ScoreResponse, error)
}

type courseworkService struct {
	repo        *repository.Repository
	propagation PropagationService
	logger      *zap.Logger
}

// NewCourseworkService 创建 CourseworkService 实例
func NewCourseworkService(repo *repository.Repository, propagation PropagationService, logger *zap.Logger) CourseworkService {
	return &courseworkService{repo: repo, propagation: propagation, logger: logger}
}

// ────────────────────── Enroll ──────────────────────

func (s *courseworkService) Enroll(ctx context.Context, classID string, req *dto.EnrollRequest) (*dto.EnrollmentResponse, error) {
	if _, err := s.getClass(ctx, classID); err != nil {
		return nil, err
	}

	student, err := s.repo.User.GetByUID(ctx, req.StudentUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("uid", req.StudentUID), zap.Error(err))
		return nil, storeError(err)
	}
	if student.Role != model.RoleStudent {
		return nil, ErrStudentNotFound
	}

	if _, err := s.repo.Enrollment.Get(ctx, classID, req.StudentUID); err == nil {
		return nil, ErrAlreadyEnrolled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询选课记录失败", zap.Error(err))
		return nil, storeError(err)
	}

	enrollment := &model.Enrollment{
		StudentUID: req.StudentUID,
		ClassID:    classID,
		Grade:      model.UngradedGrade,
	}
	if err := s.repo.Enrollment.Create(ctx, enrollment); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyEnrolled
		}
		s.logger.Error("创建选课记录失败", zap.Error(err))
		return nil, storeError(err)
	}

	s.logger.Info("学生选课成功", zap.String("class_id", classID), zap.String("student_uid", req.StudentUID))
	return &dto.EnrollmentResponse{
		ClassID:    enrollment.ClassID,
		StudentUID: enrollment.StudentUID,
		Grade:      enrollment.Grade,
	}, nil
}

// ────────────────────── CreateCategory ──────────────────────

func (s *courseworkService) CreateCategory(ctx context.Context, classID string, req *dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	weight := 0
	if req.Weight != nil {
		weight = *req.Weight
	}
	if weight < 0 {
		return nil, ErrInvalidWeight
	}

	if _, err := s.getClass(ctx, classID); err != nil {
		return nil, err
	}

	if _, err := s.repo.Category.GetByClassAndName(ctx, classID, req.Name); err == nil {
		return nil, ErrCategoryExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询作业类别失败", zap.Error(err))
		return nil, storeError(err)
	}

	category := &model.AssignmentCategory{
		ClassID: classID,
		Name:    req.Name,
		Weight:  weight,
	}
	if err := s.repo.Category.Create(ctx, category); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCategoryExists
		}
		s.logger.Error("创建作业类别失败", zap.Error(err))
		return nil, storeError(err)
	}

	return &dto.CategoryResponse{
		CategoryID: category.CategoryID,
		ClassID:    category.ClassID,
		Name:       category.Name,
		Weight:     category.Weight,
	}, nil
}

// ────────────────────── CreateAssignment ──────────────────────

func (s *courseworkService) CreateAssignment(ctx context.Context, categoryID string, req *dto.CreateAssignmentRequest) (*dto.AssignmentResponse, error) {
	if req.MaxPoints != nil && *req.MaxPoints < 0 {
		return nil, ErrInvalidMaxPoints
	}

	var dueAt *time.Time
	if req.DueAt != nil && *req.DueAt != "" {
		t, err := time.Parse(time.RFC3339, *req.DueAt)
		if err != nil {
			return nil, ErrInvalidDueAt
		}
		dueAt = &t
	}

	category, err := s.repo.Category.GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		s.logger.Error("查询作业类别失败", zap.String("category_id", categoryID), zap.Error(err))
		return nil, storeError(err)
	}

	if _, err := s.repo.Assignment.GetByCategoryAndName(ctx, categoryID, req.Name); err == nil {
		return nil, ErrAssignmentExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询作业失败", zap.Error(err))
		return nil, storeError(err)
	}

	assignment := &model.Assignment{
		CategoryID: category.CategoryID,
		Name:       req.Name,
		MaxPoints:  req.MaxPoints,
		Contents:   req.Contents,
		DueAt:      dueAt,
	}
	if err := s.repo.Assignment.Create(ctx, assignment); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAssignmentExists
		}
		s.logger.Error("创建作业失败", zap.Error(err))
		return nil, storeError(err)
	}

	resp := &dto.AssignmentResponse{
		AssignmentID: assignment.AssignmentID,
		CategoryID:   assignment.CategoryID,
		Name:         assignment.Name,
		MaxPoints:    assignment.MaxPoints,
	}
	if dueAt != nil {
		formatted := dueAt.Format(time.RFC3339)
		resp.DueAt = &formatted
	}

	// 作业已落库，重算失败不回滚，可通过重算接口补偿
	report, err := s.propagation.AfterAssignmentCreated(ctx, assignment.AssignmentID)
	if err != nil {
		s.logger.Error("新建作业后批量重算失败",
			zap.String("assignment_id", assignment.AssignmentID), zap.Error(err))
		return resp, nil
	}
	resp.Propagation = report
	return resp, nil
}

// ────────────────────── Submit ──────────────────────

func (s *courseworkService) Submit(ctx context.Context, assignmentID string, req *dto.SubmitRequest) (*dto.SubmissionResponse, error) {
	assignment, err := s.repo.Assignment.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		s.logger.Error("查询作业失败", zap.String("assignment_id", assignmentID), zap.Error(err))
		return nil, storeError(err)
	}
	if assignment.Category == nil {
		return nil, ErrCategoryNotFound
	}

	if _, err := s.repo.Enrollment.Get(ctx, assignment.Category.ClassID, req.StudentUID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		s.logger.Error("查询选课记录失败", zap.Error(err))
		return nil, storeError(err)
	}

	submission := &model.Submission{
		AssignmentID: assignmentID,
		StudentUID:   req.StudentUID,
		Contents:     req.Contents,
		SubmittedAt:  time.Now(),
	}
	if err := s.repo.Submission.SaveContents(ctx, submission); err != nil {
		s.logger.Error("保存作业提交失败", zap.Error(err))
		return nil, storeError(err)
	}

	// 重新读取以带回已有得分
	saved, err := s.repo.Submission.Get(ctx, assignmentID, req.StudentUID)
	if err != nil {
		s.logger.Error("查询作业提交失败", zap.Error(err))
		return nil, storeError(err)
	}

	return &dto.SubmissionResponse{
		AssignmentID: saved.AssignmentID,
		StudentUID:   saved.StudentUID,
		SubmittedAt:  saved.SubmittedAt.Format(time.RFC3339),
		Score:        saved.Score,
	}, nil
}

// ────────────────────── GradeSubmission ──────────────────────

func (s *courseworkService) GradeSubmission(ctx context.Context, assignmentID, studentUID string, score int) (*dto.ScoreResponse, error) {
	if score < 0 {
		return nil, ErrInvalidScore
	}

	if err := s.repo.Submission.UpdateScore(ctx, assignmentID, studentUID, score); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		s.logger.Error("更新作业得分失败", zap.Error(err))
		return nil, storeError(err)
	}

	grade, err := s.propagation.AfterSubmissionScored(ctx, assignmentID, studentUID)
	if err != nil {
		s.logger.Error("评分后重算成绩失败",
			zap.String("assignment_id", assignmentID), zap.String("student_uid", studentUID), zap.Error(err))
		return nil, err
	}

	return &dto.ScoreResponse{
		AssignmentID: assignmentID,
		StudentUID:   studentUID,
		Score:        score,
		Grade:        grade,
	}, nil
}

// ── 内部辅助方法 ──

func (s *courseworkService) getClass(ctx context.Context, classID string) (*model.ClassOffering, error) {
	class, err := s.repo.ClassOffering.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		s.logger.Error("查询开课班级失败", zap.String("class_id", classID), zap.Error(err))
		return nil, storeError(err)
	}
	return class, nil
}

// isUniqueViolation 并发插入撞上唯一约束
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
