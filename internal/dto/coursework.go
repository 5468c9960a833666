package dto

// ── 课程作业模块 DTO ──

// EnrollRequest 选课请求
type EnrollRequest struct {
	StudentUID string `json:"student_uid" binding:"required,len=8"`
}

// EnrollmentResponse 选课记录
type EnrollmentResponse struct {
	ClassID    string `json:"class_id"`
	StudentUID string `json:"student_uid"`
	Grade      string `json:"grade"`
}

// CreateCategoryRequest 创建作业类别请求
type CreateCategoryRequest struct {
	Name   string `json:"name"   binding:"required,max=100"`
	Weight *int   `json:"weight" binding:"required,min=0"`
}

// CategoryResponse 作业类别信息
type CategoryResponse struct {
	CategoryID string `json:"category_id"`
	ClassID    string `json:"class_id"`
	Name       string `json:"name"`
	Weight     int    `json:"weight"`
}

// CreateAssignmentRequest 创建作业请求
type CreateAssignmentRequest struct {
	Name      string  `json:"name"       binding:"required,max=100"`
	MaxPoints *int    `json:"max_points" binding:"omitempty,min=0"`
	Contents  string  `json:"contents"`
	DueAt     *string `json:"due_at"     binding:"omitempty"` // RFC3339
}

// AssignmentResponse 作业信息，Propagation 为创建后批量重算结果
type AssignmentResponse struct {
	AssignmentID string             `json:"assignment_id"`
	CategoryID   string             `json:"category_id"`
	Name         string             `json:"name"`
	MaxPoints    *int               `json:"max_points,omitempty"`
	DueAt        *string            `json:"due_at,omitempty"`
	Propagation  *PropagationReport `json:"propagation,omitempty"`
}

// SubmitRequest 提交作业请求
type SubmitRequest struct {
	StudentUID string `json:"student_uid" binding:"required,len=8"`
	Contents   string `json:"contents"`
}

// SubmissionResponse 提交记录
type SubmissionResponse struct {
	AssignmentID string `json:"assignment_id"`
	StudentUID   string `json:"student_uid"`
	SubmittedAt  string `json:"submitted_at"`
	Score        *int   `json:"score,omitempty"`
}

// ScoreRequest 评分请求
type ScoreRequest struct {
	Score *int `json:"score" binding:"required,min=0"`
}

// ScoreResponse 评分结果及重算后的字母成绩
type ScoreResponse struct {
	AssignmentID string `json:"assignment_id"`
	StudentUID   string `json:"student_uid"`
	Score        int    `json:"score"`
	Grade        string `json:"grade"`
}
