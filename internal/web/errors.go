package web

import "net/http"

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError формирует стандартный JSON с кодом и сообщением об ошибке.
func writeError(w http.ResponseWriter, status int, code, message string) {
	resp := errorResponse{
		Error: errorBody{
			Code:    code,
			Message: message,
		},
	}
	writeJSON(w, status, resp)
}

// Возможные значения кода ошибки.
const (
	VALIDATION ErrorResponseErrorCode = "VALIDATION"
	NOTFOUND   ErrorResponseErrorCode = "NOT_FOUND"
	NOREVIEWER ErrorResponseErrorCode = "NO_REVIEWER"
)

// ErrorResponseErrorCode описывает код ошибки в ответе.
type ErrorResponseErrorCode string
