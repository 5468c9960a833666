package model

// UngradedGrade 未评分占位符，区别于不及格
const UngradedGrade = "--"

// Enrollment 选课表，对应 enrollments，主键 (student_uid, class_id)
// Grade 仅由成绩重算流程写入，Version 用于乐观锁
type Enrollment struct {
	StudentUID string `gorm:"column:student_uid;type:varchar(8);primaryKey" json:"student_uid"`
	ClassID    string `gorm:"type:uuid;primaryKey"                          json:"class_id"`
	Grade      string `gorm:"type:varchar(2);not null;default:'--'"         json:"grade"`
	VersionedModel
}

// TableName 指定表名
func (Enrollment) TableName() string { return "enrollments" }

// IsGraded 是否已有计算出的成绩
func (e *Enrollment) IsGraded() bool { return e.Grade != UngradedGrade }
