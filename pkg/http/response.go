package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// APIResponse is the envelope every non-analysis endpoint writes.
type APIResponse struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
}

// ValidationError describes one rejected request field.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string                 `json:"field,omitempty" example:"ticker"`
	Message string                 `json:"message,omitempty" example:"ticker is required"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// JSONResponse writes the envelope with status as both the HTTP status and
// the body status.
func JSONResponse(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, APIResponse{
		Status:  status,
		Message: http.StatusText(status),
		Data:    data,
	})
}

func SuccessResponse(c echo.Context, data interface{}) error {
	return JSONResponse(c, http.StatusOK, data)
}

// BadRequestResponse writes the []ValidationError returned by
// ReadAndValidateRequest.
func BadRequestResponse(c echo.Context, data interface{}) error {
	return JSONResponse(c, http.StatusBadRequest, data)
}

// ErrorResponse writes err in the envelope. Errors that are not AppErrors are
// reported as a bare 500 so internals do not leak.
func ErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return JSONResponse(c, appErr.Status, []*AppError{appErr})
	}
	return JSONResponse(c, http.StatusInternalServerError, "Something went wrong")
}
