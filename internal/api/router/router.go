package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lms-core/config"
	"lms-core/internal/api/handler"
	"lms-core/internal/api/middleware"
)

// HealthCheck 依赖探活，返回错误时 /health 响应 503
type HealthCheck func(ctx context.Context) error

// Setup 初始化并返回 Gin 路由引擎
// limiter 为 nil 时不启用开课创建限流
func Setup(cfg *config.Config, h *handler.Handler, limiter middleware.RateLimiter, health HealthCheck, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimitBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		if health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := health(ctx); err != nil {
				logger.Warn("健康检查失败", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 开课模块
		offerings := v1.Group("/offerings")
		{
			offerings.POST("/validate", h.Offering.ValidateOffering)
			offerings.POST("",
				middleware.RateLimit(limiter, cfg.Server.RateLimit.Limit, cfg.Server.RateLimit.Window, logger),
				h.Offering.CreateOffering)
		}

		// 班级：选课、作业类别、成绩、成绩册
		classes := v1.Group("/classes/:id")
		{
			classes.POST("/enrollments", h.Coursework.Enroll)
			classes.POST("/categories", h.Coursework.CreateCategory)
			classes.POST("/grades/recompute", h.Grade.RecomputeClass)
			classes.GET("/students/:uid/grade", h.Grade.GetGrade)
			classes.POST("/students/:uid/grade/recompute", h.Grade.RecomputeStudent)
			classes.GET("/gradebook", h.Export.ExportGradebook)
		}

		// 作业与提交
		v1.POST("/categories/:id/assignments", h.Coursework.CreateAssignment)
		v1.POST("/assignments/:id/submissions", h.Coursework.Submit)
		v1.PUT("/assignments/:id/submissions/:uid/score", h.Coursework.GradeSubmission)

		// 学生
		v1.GET("/students/:uid/gpa", h.Grade.GetGPA)
	}

	return r
}
