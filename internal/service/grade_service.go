package service

import (
	"context"

	"go.uber.org/zap"

	"lms-core/internal/dto"
	"lms-core/internal/model"
	"lms-core/internal/repository"
)

// GradeService 成绩聚合业务接口
//
// 计算规则：
//   - 没有作业的类别不参与计算（既不计分也不计权重）
//   - 类别得分率 = 已评分作业得分之和 / 全部作业满分之和，满分和为 0 时记 0
//   - 最终百分比 = Σ(得分率 × 权重) × 100 / Σ权重
//   - 无有效类别或有效权重和为 0 时返回 "--"
//
// 只读，不写入任何数据
type GradeService interface {
	ComputeGrade(ctx context.Context, classID, studentID string) (string, error)
	ComputeBreakdown(ctx context.Context, classID, studentID string) (*dto.GradeBreakdown, error)
}

type gradeService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewGradeService 创建 GradeService 实例
func NewGradeService(repo *repository.Repository, logger *zap.Logger) GradeService {
	return &gradeService{repo: repo, logger: logger}
}

// ────────────────────── ComputeGrade ──────────────────────

func (s *gradeService) ComputeGrade(ctx context.Context, classID, studentID string) (string, error) {
	breakdown, err := s.ComputeBreakdown(ctx, classID, studentID)
	if err != nil {
		return "", err
	}
	return breakdown.Grade, nil
}

// ────────────────────── ComputeBreakdown ──────────────────────

func (s *gradeService) ComputeBreakdown(ctx context.Context, classID, studentID string) (*dto.GradeBreakdown, error) {
	categories, err := s.repo.Category.ListWithAssignments(ctx, classID)
	if err != nil {
		s.logger.Error("查询作业类别失败", zap.String("class_id", classID), zap.Error(err))
		return nil, storeError(err)
	}

	result := &dto.GradeBreakdown{
		ClassID:    classID,
		StudentID:  studentID,
		Categories: make([]dto.CategoryScore, 0, len(categories)),
		Grade:      model.UngradedGrade,
	}

	var scaled float64
	for _, cat := range categories {
		if len(cat.Assignments) == 0 {
			continue
		}

		score, err := s.scoreCategory(ctx, &cat, studentID)
		if err != nil {
			return nil, err
		}

		scaled += score.Percent * float64(cat.Weight)
		result.TotalWeight += cat.Weight
		result.Categories = append(result.Categories, *score)
	}

	if len(result.Categories) == 0 || result.TotalWeight == 0 {
		return result, nil
	}

	result.FinalPercent = scaled * (100 / float64(result.TotalWeight))
	result.Grade = PercentToLetter(result.FinalPercent)
	return result, nil
}

// ── 内部辅助方法 ──

// scoreCategory 汇总单个类别的得分，未提交或未评分的作业计 0 分但满分照常计入
func (s *gradeService) scoreCategory(ctx context.Context, cat *model.AssignmentCategory, studentID string) (*dto.CategoryScore, error) {
	score := &dto.CategoryScore{
		CategoryID: cat.CategoryID,
		Name:       cat.Name,
		Weight:     cat.Weight,
	}

	for i := range cat.Assignments {
		a := &cat.Assignments[i]
		score.Possible += a.Points()

		earned, err := s.repo.Submission.GetScore(ctx, a.AssignmentID, studentID)
		if err != nil {
			s.logger.Error("查询作业得分失败",
				zap.String("assignment_id", a.AssignmentID),
				zap.String("student_id", studentID),
				zap.Error(err),
			)
			return nil, storeError(err)
		}
		if earned != nil {
			score.Earned += *earned
		}
	}

	if score.Possible > 0 {
		score.Percent = float64(score.Earned) / float64(score.Possible)
	}
	return score, nil
}
