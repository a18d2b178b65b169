package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// SuccessResponse writes the payload as-is with status 200.
func SuccessResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

// NoContentResponse writes no content response.
func NoContentResponse(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// FailResponse writes the {error, details} envelope with the given status.
func FailResponse(c echo.Context, status int, msg, details string) error {
	return c.JSON(status, ErrorResponse{Error: msg, Details: details})
}

// BadRequestResponse writes a 400 {error, details} envelope.
func BadRequestResponse(c echo.Context, msg, details string) error {
	return FailResponse(c, http.StatusBadRequest, msg, details)
}

// NotFoundResponse writes a 404 {error} envelope.
func NotFoundResponse(c echo.Context, msg string) error {
	return FailResponse(c, http.StatusNotFound, msg, "")
}

// InternalServerErrorResponse writes a 500 {error, details} envelope.
func InternalServerErrorResponse(c echo.Context, details string) error {
	return FailResponse(c, http.StatusInternalServerError, "something went wrong", details)
}

// ValidationFailResponse flattens validation errors into the envelope. The
// first message becomes the error, the remainder go to details.
func ValidationFailResponse(c echo.Context, verrs []ValidationError) error {
	if len(verrs) == 0 {
		return BadRequestResponse(c, "invalid request", "")
	}
	details := ""
	for i, ve := range verrs {
		if i == 0 {
			continue
		}
		if details != "" {
			details += "; "
		}
		details += ve.Message
	}
	return BadRequestResponse(c, verrs[0].Message, details)
}

// AppErrorResponse maps an AppError to the envelope; unknown errors become 500.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		details := ""
		if appErr.Err != nil {
			details = appErr.Err.Error()
		}
		return FailResponse(c, appErr.Status, appErr.Message, details)
	}
	return InternalServerErrorResponse(c, err.Error())
}
