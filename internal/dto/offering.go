package dto

// ── 开课模块 DTO ──

// OfferingRequest 开课校验 / 创建请求
// StartTime / EndTime 接受 "09:00"、"09:00:00" 或 RFC3339（仅取时刻部分）
type OfferingRequest struct {
	Subject       string `json:"subject"        binding:"required,max=4"`
	Number        int    `json:"number"         binding:"required,min=1"`
	Season        string `json:"season"         binding:"required,season"`
	Year          int    `json:"year"           binding:"required,min=1900,max=9999"`
	StartTime     string `json:"start_time"     binding:"required,clock"`
	EndTime       string `json:"end_time"       binding:"required,clock"`
	Location      string `json:"location"       binding:"required,max=100"`
	InstructorUID string `json:"instructor_uid" binding:"required,len=8"`
}

// OfferingDraft 通过全部校验、尚未写入的开课记录
type OfferingDraft struct {
	CourseID      string `json:"course_id"`
	Subject       string `json:"subject"`
	Number        int    `json:"number"`
	CourseName    string `json:"course_name"`
	Season        string `json:"season"`
	Year          int    `json:"year"`
	Location      string `json:"location"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	InstructorUID string `json:"instructor_uid"`
}

// OfferingResponse 已创建的开课信息
type OfferingResponse struct {
	ClassID string `json:"class_id"`
	OfferingDraft
	CreatedAt string `json:"created_at"`
}
