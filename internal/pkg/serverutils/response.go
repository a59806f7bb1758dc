package serverutils

import "net/http"

type BaseResponse struct {
	Success   bool        `json:"success"`
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	ErrorType string      `json:"error_type,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

func SuccessResponse(message string, data interface{}) *BaseResponse {
	return &BaseResponse{
		Success: true,
		Code:    http.StatusOK,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code int, errorType, message string, data interface{}) *BaseResponse {
	return &BaseResponse{
		Success:   false,
		Code:      code,
		Message:   message,
		ErrorType: errorType,
		Data:      data,
	}
}
