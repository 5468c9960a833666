package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"lms-core/internal/dto"
	"lms-core/internal/service"
	"lms-core/pkg/response"
)

// GradeHandler 成绩、重算与 GPA HTTP 处理器
type GradeHandler struct {
	gradeSvc       service.GradeService
	propagationSvc service.PropagationService
	gpaSvc         service.GPAService
}

// NewGradeHandler 创建 GradeHandler
func NewGradeHandler(gradeSvc service.GradeService, propagationSvc service.PropagationService, gpaSvc service.GPAService) *GradeHandler {
	return &GradeHandler{gradeSvc: gradeSvc, propagationSvc: propagationSvc, gpaSvc: gpaSvc}
}

// GetGrade 实时计算学生成绩明细（不落库）
// GET /api/v1/classes/:id/students/:uid/grade
func (h *GradeHandler) GetGrade(c *gin.Context) {
	classID, ok := MustGetUUIDParam(c, "id", "班级ID")
	if !ok {
		return
	}
	studentID, ok := MustGetParam(c, "uid", "学号")
	if !ok {
		return
	}

	breakdown, err := h.gradeSvc.ComputeBreakdown(c.Request.Context(), classID, studentID)
	if err != nil {
		h.handleGradeError(c, err)
		return
	}

	response.OK(c, breakdown)
}

// RecomputeStudent 重算并写入单个学生成绩
// POST /api/v1/classes/:id/students/:uid/grade/recompute
func (h *GradeHandler) RecomputeStudent(c *gin.Context) {
	classID, ok := MustGetUUIDParam(c, "id", "班级ID")
	if !ok {
		return
	}
	studentID, ok := MustGetParam(c, "uid", "学号")
	if !ok {
		return
	}

	grade, err := h.propagationSvc.PropagateOne(c.Request.Context(), classID, studentID)
	if err != nil {
		h.handleGradeError(c, err)
		return
	}

	response.OK(c, dto.GradeResponse{ClassID: classID, StudentID: studentID, Grade: grade})
}

// RecomputeClass 重算并写入班级全部学生成绩
// POST /api/v1/classes/:id/grades/recompute
func (h *GradeHandler) RecomputeClass(c *gin.Context) {
	classID, ok := MustGetUUIDParam(c, "id", "班级ID")
	if !ok {
		return
	}

	report, err := h.propagationSvc.PropagateAll(c.Request.Context(), classID)
	if err != nil {
		h.handleGradeError(c, err)
		return
	}

	response.OK(c, report)
}

// GetGPA 查询学生 GPA
// GET /api/v1/students/:uid/gpa
func (h *GradeHandler) GetGPA(c *gin.Context) {
	studentID, ok := MustGetParam(c, "uid", "学号")
	if !ok {
		return
	}

	gpa, err := h.gpaSvc.ComputeGPA(c.Request.Context(), studentID)
	if err != nil {
		h.handleGradeError(c, err)
		return
	}

	response.OK(c, dto.GPAResponse{StudentID: studentID, GPA: gpa})
}

// handleGradeError 统一处理成绩模块业务错误
func (h *GradeHandler) handleGradeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEnrollmentNotFound):
		response.NotFound(c, 20001, "选课记录不存在")
	default:
		handleCommonError(c, err)
	}
}
