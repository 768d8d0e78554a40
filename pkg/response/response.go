package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CodeSuccess       = 0
	CodeParamError    = 400
	CodeUnauthorized  = 401
	CodeForbidden     = 403
	CodeNotFound      = 404
	CodeServerError   = 500
	CodeBusinessError = 1000
)

// 业务错误码
// 校验类 / 冲突类 / 未找到类都是确定性业务结果，原样返回给调用方，核心层不重试
const (
	CodeSessionConflict   = 2001 // 已有进行中的考勤场次
	CodeAttendanceExpired = 2002 // 考勤码已过期（含从未开场）
	CodeAttendanceInvalid = 2003 // 考勤码不正确
	CodeAlreadyMarked     = 2004 // 本场次已打过卡
	CodeInvalidAmount     = 2005 // 金额必须大于 0
	CodeUnknownRecipient  = 2006 // 收款账户不存在
	CodeBalanceNotEnough  = 2007 // 余额不足
	CodeAccountNotFound   = 2008
	CodeMissionNotFound   = 2009
	CodeFeedbackNotFound  = 2010
)

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

func ParamError(c *gin.Context, message string) {
	Error(c, CodeParamError, message)
}

func Unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, Response{
		Code:    CodeUnauthorized,
		Message: message,
	})
}

func Forbidden(c *gin.Context, message string) {
	c.JSON(http.StatusForbidden, Response{
		Code:    CodeForbidden,
		Message: message,
	})
}

func ServerError(c *gin.Context, message string) {
	Error(c, CodeServerError, message)
}

func BusinessError(c *gin.Context, code int, message string) {
	Error(c, code, message)
}
