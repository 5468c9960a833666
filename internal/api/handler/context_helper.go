package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	pkgerrors "lms-core/pkg/errors"
	"lms-core/pkg/response"
)

// MustGetParam 提取非空路径参数。
// 参数为空时写入 400 响应并返回 false，调用方应直接 return。
func MustGetParam(c *gin.Context, name, label string) (string, bool) {
	v := strings.TrimSpace(c.Param(name))
	if v == "" {
		response.BadRequest(c, response.CodeInvalidParams, label+"不能为空")
		return "", false
	}
	return v, true
}

// MustGetUUIDParam 提取 UUID 格式的路径参数（班级、类别、作业 ID）。
// 格式非法时写入 400 响应并返回 false，避免非法值落到数据库。
func MustGetUUIDParam(c *gin.Context, name, label string) (string, bool) {
	v, ok := MustGetParam(c, name, label)
	if !ok {
		return "", false
	}
	if _, err := uuid.Parse(v); err != nil {
		response.BadRequest(c, response.CodeInvalidParams, label+"格式无效")
		return "", false
	}
	return v, true
}

// bindFailed 请求体校验失败，附带校验器给出的详情
func bindFailed(c *gin.Context, err error) {
	response.InvalidParams(c, err.Error())
}

// handleCommonError 各模块未单独处理的错误按根错误归类
func handleCommonError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
		response.NotFound(c, response.CodeNotFound, err.Error())
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, response.CodeConcurrentWrite, pkgerrors.ErrOptimisticLock.Error())
	default:
		response.InternalError(c)
	}
}
