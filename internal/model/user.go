package model

// 用户角色
const (
	RoleStudent       = "student"
	RoleProfessor     = "professor"
	RoleAdministrator = "administrator"
)

// User 用户表，对应 users（学生、教师、管理员共用，uid 形如 u0000001）
type User struct {
	UID               string  `gorm:"column:uid;type:varchar(8);primaryKey" json:"uid"`
	FirstName         string  `gorm:"type:varchar(100);not null"            json:"first_name"`
	LastName          string  `gorm:"type:varchar(100);not null"            json:"last_name"`
	Role              string  `gorm:"type:varchar(20);not null"             json:"role"`
	DepartmentSubject *string `gorm:"type:varchar(4)"                       json:"department_subject,omitempty"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// IsInstructor 是否可担任开课教师
func (u *User) IsInstructor() bool { return u.Role == RoleProfessor }
