package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"lms-core/internal/dto"
	"lms-core/internal/service"
	"lms-core/pkg/response"
)

// CourseworkHandler 选课、作业与评分 HTTP 处理器
type CourseworkHandler struct {
	courseworkSvc service.CourseworkService
}

// NewCourseworkHandler 创建 CourseworkHandler
func NewCourseworkHandler(courseworkSvc service.CourseworkService) *CourseworkHandler {
	return &CourseworkHandler{courseworkSvc: courseworkSvc}
}

// Enroll 学生选课
// POST /api/v1/classes/:id/enrollments
func (h *CourseworkHandler) Enroll(c *gin.Context) {
	classID, ok := MustGetUUIDParam(c, "id", "班级ID")
	if !ok {
		return
	}

	var req dto.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	enrollment, err := h.courseworkSvc.Enroll(c.Request.Context(), classID, &req)
	if err != nil {
		h.handleCourseworkError(c, err)
		return
	}

	response.Created(c, enrollment)
}

// CreateCategory 创建作业类别
// POST /api/v1/classes/:id/categories
func (h *CourseworkHandler) CreateCategory(c *gin.Context) {
	classID, ok := MustGetUUIDParam(c, "id", "班级ID")
	if !ok {
		return
	}

	var req dto.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	category, err := h.courseworkSvc.CreateCategory(c.Request.Context(), classID, &req)
	if err != nil {
		h.handleCourseworkError(c, err)
		return
	}

	response.Created(c, category)
}

// CreateAssignment 创建作业，返回体中附带全班重算结果
// POST /api/v1/categories/:id/assignments
func (h *CourseworkHandler) CreateAssignment(c *gin.Context) {
	categoryID, ok := MustGetUUIDParam(c, "id", "类别ID")
	if !ok {
		return
	}

	var req dto.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	assignment, err := h.courseworkSvc.CreateAssignment(c.Request.Context(), categoryID, &req)
	if err != nil {
		h.handleCourseworkError(c, err)
		return
	}

	response.Created(c, assignment)
}

// Submit 提交作业（重复提交覆盖内容）
// POST /api/v1/assignments/:id/submissions
func (h *CourseworkHandler) Submit(c *gin.Context) {
	assignmentID, ok := MustGetUUIDParam(c, "id", "作业ID")
	if !ok {
		return
	}

	var req dto.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	submission, err := h.courseworkSvc.Submit(c.Request.Context(), assignmentID, &req)
	if err != nil {
		h.handleCourseworkError(c, err)
		return
	}

	response.OK(c, submission)
}

// GradeSubmission 评分并重算该学生成绩
// PUT /api/v1/assignments/:id/submissions/:uid/score
func (h *CourseworkHandler) GradeSubmission(c *gin.Context) {
	assignmentID, ok := MustGetUUIDParam(c, "id", "作业ID")
	if !ok {
		return
	}
	studentUID, ok := MustGetParam(c, "uid", "学号")
	if !ok {
		return
	}

	var req dto.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.courseworkSvc.GradeSubmission(c.Request.Context(), assignmentID, studentUID, *req.Score)
	if err != nil {
		h.handleCourseworkError(c, err)
		return
	}

	response.OK(c, result)
}

// handleCourseworkError 统一处理课程作业模块业务错误
func (h *CourseworkHandler) handleCourseworkError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrClassNotFound):
		response.NotFound(c, 22001, "开课班级不存在")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 22002, "学生不存在")
	case errors.Is(err, service.ErrCategoryNotFound):
		response.NotFound(c, 22003, "作业类别不存在")
	case errors.Is(err, service.ErrAssignmentNotFound):
		response.NotFound(c, 22004, "作业不存在")
	case errors.Is(err, service.ErrSubmissionNotFound):
		response.NotFound(c, 22005, "作业提交不存在")
	case errors.Is(err, service.ErrEnrollmentNotFound):
		response.UnprocessableEntity(c, 22006, "该学生未选修此课程")
	case errors.Is(err, service.ErrAlreadyEnrolled):
		response.Conflict(c, 22007, "该学生已选修此课程")
	case errors.Is(err, service.ErrCategoryExists):
		response.Conflict(c, 22008, "同名作业类别已存在")
	case errors.Is(err, service.ErrAssignmentExists):
		response.Conflict(c, 22009, "同名作业已存在")
	case errors.Is(err, service.ErrInvalidWeight),
		errors.Is(err, service.ErrInvalidMaxPoints),
		errors.Is(err, service.ErrInvalidScore),
		errors.Is(err, service.ErrInvalidDueAt):
		response.BadRequest(c, 22010, err.Error())
	default:
		handleCommonError(c, err)
	}
}
