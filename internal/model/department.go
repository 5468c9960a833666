package model

// Department 院系表，对应 departments，以学科代码（如 CS）为主键
type Department struct {
	Subject string `gorm:"type:varchar(4);primaryKey"  json:"subject"`
	Name    string `gorm:"type:varchar(100);not null"  json:"name"`
	BaseModel
}

// TableName 指定表名
func (Department) TableName() string { return "departments" }
