package model

// AssignmentCategory 作业类别表，对应 assignment_categories
// Weight 为非负整数，类别名在同一开课内唯一
type AssignmentCategory struct {
	CategoryID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"category_id"`
	ClassID    string `gorm:"type:uuid;not null"                             json:"class_id"`
	Name       string `gorm:"type:varchar(100);not null"                     json:"name"`
	Weight     int    `gorm:"not null;default:0"                             json:"weight"`
	BaseModel

	// 关联
	Assignments []Assignment `gorm:"foreignKey:CategoryID;references:CategoryID" json:"assignments,omitempty"`
}

// TableName 指定表名
func (AssignmentCategory) TableName() string { return "assignment_categories" }
