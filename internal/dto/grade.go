package dto

// ── 成绩模块 DTO ──

// GradeResponse 单个学生在某门课的字母成绩
type GradeResponse struct {
	ClassID   string `json:"class_id"`
	StudentID string `json:"student_id"`
	Grade     string `json:"grade"`
}

// CategoryScore 单个作业类别的得分明细
type CategoryScore struct {
	CategoryID string  `json:"category_id"`
	Name       string  `json:"name"`
	Weight     int     `json:"weight"`
	Earned     int     `json:"earned"`
	Possible   int     `json:"possible"`
	Percent    float64 `json:"percent"` // 0~1
}

// GradeBreakdown 成绩计算明细，空类别不出现在 Categories 中
type GradeBreakdown struct {
	ClassID      string          `json:"class_id"`
	StudentID    string          `json:"student_id"`
	Categories   []CategoryScore `json:"categories"`
	TotalWeight  int             `json:"total_weight"`
	FinalPercent float64         `json:"final_percent"`
	Grade        string          `json:"grade"`
}

// PropagationFailure 批量重算中单个学生的失败原因
type PropagationFailure struct {
	StudentID string `json:"student_id"`
	Error     string `json:"error"`
}

// PropagationReport 批量重算结果
type PropagationReport struct {
	ClassID  string               `json:"class_id"`
	Total    int                  `json:"total"`
	Updated  int                  `json:"updated"`
	Grades   []GradeResponse      `json:"grades"`
	Failures []PropagationFailure `json:"failures"`
}

// GPAResponse 学生 GPA
type GPAResponse struct {
	StudentID string  `json:"student_id"`
	GPA       float64 `json:"gpa"`
}
