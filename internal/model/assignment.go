package model

import "time"

// Assignment 作业表，对应 assignments
// MaxPoints 可为空，聚合时按 0 处理
type Assignment struct {
	AssignmentID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	CategoryID   string     `gorm:"type:uuid;not null"                             json:"category_id"`
	Name         string     `gorm:"type:varchar(100);not null"                     json:"name"`
	MaxPoints    *int       `gorm:"column:max_points"                              json:"max_points,omitempty"`
	Contents     string     `gorm:"type:text;not null;default:''"                  json:"contents"`
	DueAt        *time.Time `gorm:"column:due_at"                                  json:"due_at,omitempty"`
	BaseModel

	// 关联
	Category *AssignmentCategory `gorm:"foreignKey:CategoryID;references:CategoryID" json:"category,omitempty"`
}

// TableName 指定表名
func (Assignment) TableName() string { return "assignments" }

// Points 返回满分值，缺省为 0
func (a *Assignment) Points() int {
	if a.MaxPoints == nil {
		return 0
	}
	return *a.MaxPoints
}
