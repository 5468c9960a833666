package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"lms-core/internal/dto"
	"lms-core/internal/service"
	"lms-core/pkg/response"
)

// OfferingHandler 开课模块 HTTP 处理器
type OfferingHandler struct {
	offeringSvc service.OfferingService
}

// NewOfferingHandler 创建 OfferingHandler
func NewOfferingHandler(offeringSvc service.OfferingService) *OfferingHandler {
	return &OfferingHandler{offeringSvc: offeringSvc}
}

// ValidateOffering 只做冲突校验，返回规范化后的开课草稿
// POST /api/v1/offerings/validate
func (h *OfferingHandler) ValidateOffering(c *gin.Context) {
	var req dto.OfferingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	draft, err := h.offeringSvc.ValidateAndBuildOffering(c.Request.Context(), &req)
	if err != nil {
		h.handleOfferingError(c, err)
		return
	}

	response.OK(c, draft)
}

// CreateOffering 校验并创建开课
// POST /api/v1/offerings
func (h *OfferingHandler) CreateOffering(c *gin.Context) {
	var req dto.OfferingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	offering, err := h.offeringSvc.CreateOffering(c.Request.Context(), &req)
	if err != nil {
		h.handleOfferingError(c, err)
		return
	}

	response.Created(c, offering)
}

// handleOfferingError 统一处理开课模块业务错误
func (h *OfferingHandler) handleOfferingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidTimeFormat):
		response.BadRequest(c, 21001, "时间格式无效")
	case errors.Is(err, service.ErrInvalidInterval):
		response.BadRequest(c, 21002, "开始时间必须早于结束时间")
	case errors.Is(err, service.ErrInvalidSemester):
		response.BadRequest(c, 21003, "学期季节无效")
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 21004, "课程不存在")
	case errors.Is(err, service.ErrDuplicateOffering):
		response.Conflict(c, 21005, "该课程在本学期已开设")
	case errors.Is(err, service.ErrLocationConflict):
		response.Conflict(c, 21006, "该地点在本学期同一时段已被占用")
	case errors.Is(err, service.ErrInstructorNotFound):
		response.UnprocessableEntity(c, 21007, "授课教师不存在")
	default:
		handleCommonError(c, err)
	}
}
