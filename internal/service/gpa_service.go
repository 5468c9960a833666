package service

import (
	"context"

	"go.uber.org/zap"

	"lms-core/config"
	"lms-core/internal/model"
	"lms-core/internal/repository"
)

// GPAService GPA 计算业务接口
//
// 计算规则：
//   - 忽略 "--"（未评分）的选课记录
//   - 无已评分记录时 GPA 为 0.0
//   - 未知字母计 0 绩点，仍计入分母，并记录告警
//   - 结果保留两位小数
type GPAService interface {
	ComputeGPA(ctx context.Context, studentID string) (float64, error)
}

type gpaService struct {
	cfg    *config.GradingConfig
	repo   *repository.Repository
	cache  GPACache
	logger *zap.Logger
}

// NewGPAService 创建 GPAService 实例，cache 为 nil 时每次直接查库
func NewGPAService(cfg *config.GradingConfig, repo *repository.Repository, cache GPACache, logger *zap.Logger) GPAService {
	return &gpaService{cfg: cfg, repo: repo, cache: cache, logger: logger}
}

// ────────────────────── ComputeGPA ──────────────────────

func (s *gpaService) ComputeGPA(ctx context.Context, studentID string) (float64, error) {
	// 读取缓存失败时不知道当前代数，本次不回填
	var (
		gen     int64
		canFill bool
	)
	if s.cache != nil {
		gpa, hit, g, err := s.cache.GetGPA(ctx, studentID)
		if err != nil {
			s.logger.Warn("读取 GPA 缓存失败", zap.String("student_id", studentID), zap.Error(err))
		} else if hit {
			return gpa, nil
		} else {
			gen, canFill = g, true
		}
	}

	grades, err := s.repo.Enrollment.ListGradesByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询学生成绩失败", zap.String("student_id", studentID), zap.Error(err))
		return 0, storeError(err)
	}

	gpa := s.average(studentID, grades)

	if canFill {
		stored, err := s.cache.SetGPA(ctx, studentID, gpa, gen, s.cfg.GPACacheTTL)
		switch {
		case err != nil:
			s.logger.Warn("写入 GPA 缓存失败", zap.String("student_id", studentID), zap.Error(err))
		case !stored:
			s.logger.Debug("成绩在计算期间已变更，跳过 GPA 缓存回填", zap.String("student_id", studentID))
		}
	}
	return gpa, nil
}

// ── 内部辅助方法 ──

func (s *gpaService) average(studentID string, grades []string) float64 {
	var (
		total float64
		count int
	)
	for _, letter := range grades {
		if letter == model.UngradedGrade {
			continue
		}
		points, ok := GradePoints(letter)
		if !ok {
			s.logger.Warn("未知字母成绩，按 0 绩点计",
				zap.String("student_id", studentID), zap.String("grade", letter))
		}
		total += points
		count++
	}

	if count == 0 {
		return 0.0
	}
	return roundGPA(total / float64(count))
}
