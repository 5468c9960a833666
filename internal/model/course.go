package model

// Course 课程表，对应 courses，(subject, number) 唯一
type Course struct {
	CourseID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	Subject  string `gorm:"type:varchar(4);not null"                       json:"subject"`
	Number   int    `gorm:"not null"                                       json:"number"`
	Name     string `gorm:"type:varchar(100);not null"                     json:"name"`
	BaseModel

	// 关联
	Department *Department `gorm:"foreignKey:Subject;references:Subject" json:"department,omitempty"`
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }
