package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lms-core/internal/model"
)

// SubmissionRepository 作业提交数据访问接口
type SubmissionRepository interface {
	Get(ctx context.Context, assignmentID, studentUID string) (*model.Submission, error)
	// GetScore 返回提交得分；无提交或未评分时返回 nil
	GetScore(ctx context.Context, assignmentID, studentUID string) (*int, error)
	// SaveContents 新建提交或覆盖内容与提交时间，已有得分保持不变
	SaveContents(ctx context.Context, submission *model.Submission) error
	// UpdateScore 更新得分，提交不存在时返回 gorm.ErrRecordNotFound
	UpdateScore(ctx context.Context, assignmentID, studentUID string, score int) error
}

type submissionRepo struct {
	db *gorm.DB
}

// NewSubmissionRepo 创建 SubmissionRepository 实例
func NewSubmissionRepo(db *gorm.DB) SubmissionRepository {
	return &submissionRepo{db: db}
}

func (r *submissionRepo) Get(ctx context.Context, assignmentID, studentUID string) (*model.Submission, error) {
	var submission model.Submission
	err := r.db.WithContext(ctx).
		Where("assignment_id = ? AND student_uid = ?", assignmentID, studentUID).
		First(&submission).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *submissionRepo) GetScore(ctx context.Context, assignmentID, studentUID string) (*int, error) {
	submission, err := r.Get(ctx, assignmentID, studentUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return submission.Score, nil
}

func (r *submissionRepo) SaveContents(ctx context.Context, submission *model.Submission) error {
	return r.db.WithContext(ctx).
		Omit("score").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "assignment_id"}, {Name: "student_uid"}},
			DoUpdates: clause.AssignmentColumns([]string{"contents", "submitted_at", "updated_at"}),
		}).
		Create(submission).Error
}

func (r *submissionRepo) UpdateScore(ctx context.Context, assignmentID, studentUID string, score int) error {
	result := r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Where("assignment_id = ? AND student_uid = ?", assignmentID, studentUID).
		Updates(map[string]interface{}{
			"score":      score,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
