package handler

import "lms-core/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Grade      *GradeHandler
	Offering   *OfferingHandler
	Coursework *CourseworkHandler
	Export     *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Grade:      NewGradeHandler(svc.Grade, svc.Propagation, svc.GPA),
		Offering:   NewOfferingHandler(svc.Offering),
		Coursework: NewCourseworkHandler(svc.Coursework),
		Export:     NewExportHandler(svc.Export),
	}
}
