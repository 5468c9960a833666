package model

// ClassOffering 开课表，对应 class_offerings
// 时间为当日时刻 HH:MM:SS，区间为左闭右开 [StartTime, EndTime)
type ClassOffering struct {
	ClassID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"class_id"`
	CourseID      string `gorm:"type:uuid;not null"                             json:"course_id"`
	Season        Season `gorm:"type:varchar(10);not null"                      json:"season"`
	Year          int    `gorm:"not null"                                       json:"year"`
	Location      string `gorm:"type:varchar(100);not null"                     json:"location"`
	StartTime     string `gorm:"type:time;not null"                             json:"start_time"`
	EndTime       string `gorm:"type:time;not null"                             json:"end_time"`
	InstructorUID string `gorm:"column:instructor_uid;type:varchar(8);not null" json:"instructor_uid"`
	BaseModel

	// 关联
	Course *Course `gorm:"foreignKey:CourseID;references:CourseID" json:"course,omitempty"`
}

// TableName 指定表名
func (ClassOffering) TableName() string { return "class_offerings" }

// Semester 返回开课所在学期
func (c *ClassOffering) Semester() Semester {
	return Semester{Season: c.Season, Year: c.Year}
}
