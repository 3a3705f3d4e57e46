package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the data part of a successful reply.
type Response map[string]interface{}

// Business error codes
const (
	CodeOK           = 0
	CodeInvalidParam = 40001
	CodeAuth         = 40101
	CodeNotFound     = 40401
	CodeConflict     = 40901
	CodeServerErr    = 50001
)

// Success writes the common success envelope.
func Success(c *gin.Context, data Response) {
	c.JSON(http.StatusOK, gin.H{
		"code": CodeOK,
		"data": data,
	})
}

// Error writes the common error envelope.
func Error(c *gin.Context, httpStatus int, code int, msg string) {
	c.JSON(httpStatus, gin.H{
		"code":    code,
		"message": msg,
	})
}

// ErrorField is Error with the name of the offending request field.
func ErrorField(c *gin.Context, httpStatus int, code int, field, msg string) {
	c.JSON(httpStatus, gin.H{
		"code":    code,
		"field":   field,
		"message": msg,
	})
}
