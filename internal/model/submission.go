package model

import "time"

// Submission 作业提交表，对应 submissions，主键 (assignment_id, student_uid)
// 重复提交只覆盖 Contents 与 SubmittedAt，不覆盖 Score
type Submission struct {
	AssignmentID string    `gorm:"type:uuid;primaryKey"                                json:"assignment_id"`
	StudentUID   string    `gorm:"column:student_uid;type:varchar(8);primaryKey"       json:"student_uid"`
	Contents     string    `gorm:"type:text;not null;default:''"                       json:"contents"`
	SubmittedAt  time.Time `gorm:"not null"                                            json:"submitted_at"`
	Score        *int      `gorm:"column:score"                                        json:"score,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Submission) TableName() string { return "submissions" }
