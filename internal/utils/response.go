package utils

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Response defines the standard API response envelope.
type Response struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    Meta        `json:"meta"`
}

// ErrorInfo provides details for error responses. Kind tells the caller
// whether the failure is retryable (transient) or needs a corrected request.
type ErrorInfo struct {
	Code    string `json:"code"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// Meta contains request-scoped metadata.
type Meta struct {
	RequestID string `json:"requestId"`
	Timestamp string `json:"timestamp"`
}

// Success writes a success response with the standard envelope.
func Success(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Response{
		Success: true,
		Code:    code,
		Message: message,
		Data:    data,
		Meta: Meta{
			RequestID: getRequestID(c),
			Timestamp: time.Now().Format(time.RFC3339),
		},
	})
}

// Error writes an error response with provided API error code and message.
func Error(c *gin.Context, code int, errCode, message string) {
	c.JSON(code, Response{
		Success: false,
		Code:    code,
		Message: message,
		Error: &ErrorInfo{
			Code:    errCode,
			Message: message,
		},
		Meta: Meta{
			RequestID: getRequestID(c),
			Timestamp: time.Now().Format(time.RFC3339),
		},
	})
}

// Fail writes an error response derived from an application error,
// mapping its kind to the HTTP status code.
func Fail(c *gin.Context, err error) {
	appErr := AsAppError(err)
	status := HTTPStatus(appErr)
	c.JSON(status, Response{
		Success: false,
		Code:    status,
		Message: appErr.Message,
		Error: &ErrorInfo{
			Code:    appErr.Code,
			Kind:    string(appErr.Kind),
			Message: appErr.Message,
		},
		Meta: Meta{
			RequestID: getRequestID(c),
			Timestamp: time.Now().Format(time.RFC3339),
		},
	})
}

// FailWithData writes an error response that still carries a payload, for
// operations that fail for the caller but produced state the client needs.
// A pending login fails with AWAITING_APPROVAL yet keeps its session token.
func FailWithData(c *gin.Context, err error, data interface{}) {
	appErr := AsAppError(err)
	status := HTTPStatus(appErr)
	c.JSON(status, Response{
		Success: false,
		Code:    status,
		Message: appErr.Message,
		Data:    data,
		Error: &ErrorInfo{
			Code:    appErr.Code,
			Kind:    string(appErr.Kind),
			Message: appErr.Message,
		},
		Meta: Meta{
			RequestID: getRequestID(c),
			Timestamp: time.Now().Format(time.RFC3339),
		},
	})
}

func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return uuid.New().String()[:8]
}
