package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lms-core/internal/dto"
	"lms-core/internal/model"
	"lms-core/internal/repository"
	pkgerrors "lms-core/pkg/errors"
)

// ── 开课模块业务错误 ──

var (
	ErrInvalidTimeFormat  = errors.New("时间格式无效，应为 HH:MM 或 HH:MM:SS")
	ErrInvalidInterval    = errors.New("开始时间必须早于结束时间")
	ErrInvalidSemester    = errors.New("学期季节无效，应为 Spring / Summer / Fall")
	ErrCourseNotFound     = fmt.Errorf("%w: 课程不存在", pkgerrors.ErrNotFound)
	ErrDuplicateOffering  = errors.New("该课程在本学期已开设")
	ErrLocationConflict   = errors.New("该地点在本学期同一时段已被占用")
	ErrInstructorNotFound = fmt.Errorf("%w: 授课教师不存在", pkgerrors.ErrNotFound)
)

// PostgreSQL 错误码与约束名
const (
	pgUniqueViolation        = "23505"
	pgExclusionViolation     = "23P01"
	pgSerializationFailure   = "40001"
	uniqueOfferingConstraint = "uq_class_offerings_course_semester"

	maxOfferingAttempts = 3
	clockLayout         = "15:04:05"
)

// OfferingService 开课业务接口
//
// 校验顺序（首个失败即返回）：
//  1. 时间区间：开始必须早于结束
//  2. 课程存在：按 subject + number 查找
//  3. 同学期同课程不可重复开设
//  4. 同学期同地点时间区间不可重叠，区间为左闭右开
//  5. 授课教师存在
//
// ValidateAndBuildOffering 只读；CreateOffering 在 SERIALIZABLE 事务内重新校验后写入，
// 数据库唯一约束与排他约束兜底并发插入
type OfferingService interface {
	ValidateAndBuildOffering(ctx context.Context, req *dto.OfferingRequest) (*dto.OfferingDraft, error)
	CreateOffering(ctx context.Context, req *dto.OfferingRequest) (*dto.OfferingResponse, error)
}

type offeringService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewOfferingService 创建 OfferingService 实例
func NewOfferingService(repo *repository.Repository, logger *zap.Logger) OfferingService {
	return &offeringService{repo: repo, logger: logger}
}

// ────────────────────── ValidateAndBuildOffering ──────────────────────

func (s *offeringService) ValidateAndBuildOffering(ctx context.Context, req *dto.OfferingRequest) (*dto.OfferingDraft, error) {
	return s.validate(ctx, s.repo, req)
}

// ────────────────────── CreateOffering ──────────────────────

func (s *offeringService) CreateOffering(ctx context.Context, req *dto.OfferingRequest) (*dto.OfferingResponse, error) {
	for attempt := 1; ; attempt++ {
		var (
			draft    *dto.OfferingDraft
			offering *model.ClassOffering
		)

		err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
			d, err := s.validate(ctx, tx, req)
			if err != nil {
				return err
			}

			o := &model.ClassOffering{
				CourseID:      d.CourseID,
				Season:        model.Season(d.Season),
				Year:          d.Year,
				Location:      d.Location,
				StartTime:     d.StartTime,
				EndTime:       d.EndTime,
				InstructorUID: d.InstructorUID,
			}
			if err := tx.ClassOffering.Create(ctx, o); err != nil {
				return err
			}
			draft, offering = d, o
			return nil
		}, &sql.TxOptions{Isolation: sql.LevelSerializable})

		if err == nil {
			s.logger.Info("开课创建成功",
				zap.String("class_id", offering.ClassID),
				zap.String("course", fmt.Sprintf("%s %d", draft.Subject, draft.Number)),
				zap.String("semester", offering.Semester().String()),
			)
			return &dto.OfferingResponse{
				ClassID:       offering.ClassID,
				OfferingDraft: *draft,
				CreatedAt:     offering.CreatedAt.Format(time.RFC3339),
			}, nil
		}

		mapped, retry := s.classifyCreateError(err)
		if retry && attempt < maxOfferingAttempts {
			s.logger.Debug("开课事务序列化冲突，重试", zap.Int("attempt", attempt))
			continue
		}
		return nil, mapped
	}
}

// ── 内部辅助方法 ──

// validate 依次执行五项校验，repo 可为事务内的 Repository
func (s *offeringService) validate(ctx context.Context, repo *repository.Repository, req *dto.OfferingRequest) (*dto.OfferingDraft, error) {
	// 1. 时间区间
	start, err := ParseClock(req.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := ParseClock(req.EndTime)
	if err != nil {
		return nil, err
	}
	if start >= end {
		return nil, ErrInvalidInterval
	}

	season, err := model.ParseSeason(req.Season)
	if err != nil {
		return nil, ErrInvalidSemester
	}

	// 2. 课程存在
	course, err := repo.Course.FindBySubjectAndNumber(ctx, req.Subject, req.Number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("subject", req.Subject), zap.Int("number", req.Number), zap.Error(err))
		return nil, storeError(err)
	}

	// 3. 同学期重复开课
	sameCourse, err := repo.ClassOffering.ListByCourseAndSemester(ctx, course.CourseID, season, req.Year)
	if err != nil {
		s.logger.Error("查询课程开课记录失败", zap.String("course_id", course.CourseID), zap.Error(err))
		return nil, storeError(err)
	}
	if len(sameCourse) > 0 {
		return nil, ErrDuplicateOffering
	}

	// 4. 地点时间冲突
	sameLocation, err := repo.ClassOffering.ListByLocationAndSemester(ctx, req.Location, season, req.Year)
	if err != nil {
		s.logger.Error("查询地点开课记录失败", zap.String("location", req.Location), zap.Error(err))
		return nil, storeError(err)
	}
	for _, existing := range sameLocation {
		if hasTimeConflict(normalizeStoredClock(existing.StartTime), normalizeStoredClock(existing.EndTime), start, end) {
			return nil, ErrLocationConflict
		}
	}

	// 5. 授课教师
	instructor, err := repo.User.FindInstructor(ctx, req.InstructorUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstructorNotFound
		}
		s.logger.Error("查询教师失败", zap.String("uid", req.InstructorUID), zap.Error(err))
		return nil, storeError(err)
	}

	return &dto.OfferingDraft{
		CourseID:      course.CourseID,
		Subject:       course.Subject,
		Number:        course.Number,
		CourseName:    course.Name,
		Season:        string(season),
		Year:          req.Year,
		Location:      req.Location,
		StartTime:     start,
		EndTime:       end,
		InstructorUID: instructor.UID,
	}, nil
}

// classifyCreateError 将事务错误映射为业务错误，retry 表示可重试的序列化冲突
func (s *offeringService) classifyCreateError(err error) (mapped error, retry bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure:
			return pkgerrors.ErrOptimisticLock, true
		case pgExclusionViolation:
			return ErrLocationConflict, false
		case pgUniqueViolation:
			if pgErr.ConstraintName == uniqueOfferingConstraint {
				return ErrDuplicateOffering, false
			}
		}
	}

	if errors.Is(err, pkgerrors.ErrStoreFailure) || isOfferingRuleError(err) {
		return err, false
	}
	s.logger.Error("创建开课失败", zap.Error(err))
	return storeError(err), false
}

func isOfferingRuleError(err error) bool {
	for _, target := range []error{
		ErrInvalidTimeFormat, ErrInvalidInterval, ErrInvalidSemester,
		ErrCourseNotFound, ErrDuplicateOffering, ErrLocationConflict, ErrInstructorNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// hasTimeConflict 检查两个左闭右开区间是否重叠，参数均为 HH:MM:SS
// 首尾相接（一个结束于另一个开始）不算冲突
func hasTimeConflict(existingStart, existingEnd, start, end string) bool {
	return existingStart < end && start < existingEnd
}

// ParseClock 解析 HH:MM、HH:MM:SS 或 RFC3339（取时刻部分），规范为 HH:MM:SS
func ParseClock(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", clockLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(clockLayout), nil
		}
	}
	return "", ErrInvalidTimeFormat
}

// normalizeStoredClock 规范数据库返回的 time 列，无法解析时原样返回
func normalizeStoredClock(s string) string {
	if v, err := ParseClock(s); err == nil {
		return v
	}
	return s
}
